package http

import (
	"bytes"
	"html/template"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-feishu2md/internal/share"
)

type shareCreatePayload struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

type shareCreateResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sharePage struct {
	Title     string
	Created   string
	RawURL    string
	Body      template.HTML
	Plaintext string
}

var sharePageTemplate = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<header>
<a href="/">Feishu2MD</a>
<span>Shared {{.Created}}</span>
</header>
<main>
<h2>{{.Title}}</h2>
<p><a href="{{.RawURL}}">Raw Markdown</a></p>
<article>
{{if .Body}}{{.Body}}{{else}}<pre>{{.Plaintext}}</pre>{{end}}
</article>
</main>
</body>
</html>
`))

// newSharePolicy allows the HTML a converted document renders to: merged table
// cells, underline, line breaks, task list checkboxes and code language classes.
// Anything else raw Markdown HTML carries, scripts included, is dropped.
func newSharePolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("u", "br")
	policy.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
	policy.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	policy.AllowAttrs("checked", "disabled").OnElements("input")
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
	return policy
}

func (api *API) handleShareCreate(w http.ResponseWriter, r *http.Request) {
	if api.shares == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "sharing disabled"})
		return
	}
	var payload shareCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	doc, err := api.shares.Save(r.Context(), share.SaveInput{Title: payload.Title, Markdown: payload.Markdown})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shareCreateResponse{
		ID:        doc.Code,
		URL:       api.ShareURL(doc.Code),
		ExpiresAt: doc.ExpiresAt,
	})
}

func (api *API) handleShareRaw(w http.ResponseWriter, r *http.Request) {
	doc, ok := api.loadShare(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Cache-Control", rawCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc.Markdown))
}

func (api *API) handleShareView(w http.ResponseWriter, r *http.Request) {
	doc, ok := api.loadShare(w, r)
	if !ok {
		return
	}

	page := sharePage{
		Title:     doc.Title,
		Created:   doc.CreatedAt.Format("2006-01-02"),
		RawURL:    api.ShareURL(doc.Code) + "/raw",
		Plaintext: doc.Markdown,
	}
	if api.parser != nil {
		html, err := api.parser.ParseWithOptions([]byte(doc.Markdown), api.parseOptions)
		if err != nil {
			api.logger.Warn("http.share.render_failed", "code", doc.Code, "error", err)
		} else {
			page.Body = template.HTML(api.sanitizer.SanitizeBytes(html))
		}
	}

	var buf bytes.Buffer
	if err := api.page.Execute(&buf, page); err != nil {
		api.logger.Error("http.share.template_failed", "code", doc.Code, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: "render share page"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (api *API) loadShare(w http.ResponseWriter, r *http.Request) (*share.Document, bool) {
	if api.shares == nil {
		http.Error(w, "Document not found", http.StatusNotFound)
		return nil, false
	}
	code := strings.TrimSpace(r.PathValue("id"))
	doc, err := api.shares.Get(r.Context(), code)
	if err != nil {
		status, _ := mapError(err)
		if status == http.StatusNotFound {
			http.Error(w, "Document not found", http.StatusNotFound)
			return nil, false
		}
		writeError(w, err)
		return nil, false
	}
	return doc, true
}
