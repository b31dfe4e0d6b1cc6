package http

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-feishu2md/docx"
	"github.com/goliatone/go-feishu2md/internal/convert"
	"github.com/goliatone/go-feishu2md/internal/feishu"
	"github.com/goliatone/go-feishu2md/internal/markdown"
	"github.com/goliatone/go-feishu2md/internal/media"
	"github.com/goliatone/go-feishu2md/internal/share"
	"github.com/goliatone/go-feishu2md/pkg/interfaces"
	"github.com/goliatone/go-feishu2md/pkg/testsupport"
)

var pngBytes = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00}

type fakePlatform struct {
	docs     map[string]docx.Document
	blocks   map[string][]docx.Block
	media    map[string][]byte
	fetchErr error
}

func (f *fakePlatform) GetDocxContent(_ context.Context, documentID string) (docx.Document, []docx.Block, error) {
	if f.fetchErr != nil {
		return docx.Document{}, nil, f.fetchErr
	}
	doc, ok := f.docs[documentID]
	if !ok {
		return docx.Document{}, nil, feishu.ErrNotFound
	}
	return doc, f.blocks[documentID], nil
}

func (f *fakePlatform) GetWikiNode(context.Context, string) (feishu.WikiNode, error) {
	return feishu.WikiNode{}, feishu.ErrNotFound
}

func (f *fakePlatform) DownloadMedia(_ context.Context, token string) ([]byte, string, error) {
	data, ok := f.media[token]
	if !ok {
		return nil, "", &feishu.APIError{Op: "download media", Status: http.StatusNotFound, Code: 1061004, Msg: "not found"}
	}
	return data, "application/octet-stream", nil
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		docs: map[string]docx.Document{
			"doxImg":   {ID: "doxImg", Title: "Weekly Notes", RevisionID: 3},
			"doxPlain": {ID: "doxPlain", Title: "Plain", RevisionID: 1},
		},
		blocks: map[string][]docx.Block{
			"doxImg": {
				testsupport.Page("doxImg", "Weekly Notes", "t1", "i1"),
				testsupport.TextBlock("t1", docx.BlockTypeText, "hello"),
				testsupport.ImageBlock("i1", "tokA"),
			},
			"doxPlain": {
				testsupport.Page("doxPlain", "Plain", "t1"),
				testsupport.TextBlock("t1", docx.BlockTypeText, "text only"),
			},
		},
		media: map[string][]byte{"tokA": pngBytes},
	}
}

func setupAPI(t *testing.T, platform *fakePlatform) (*http.ServeMux, share.Service) {
	t.Helper()
	images := media.NewService(platform, media.Config{Mode: media.ModeProxy})
	converter := convert.NewService(platform, images)
	codes := []string{"aaaa1111", "bbbb2222", "cccc3333"}
	shares := share.NewService(share.NewMemoryRepository(), share.WithCodeGenerator(func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}))

	api := NewAPI(
		WithConvertService(converter),
		WithMediaService(images),
		WithShareService(shares),
		WithMarkdownParser(markdown.NewGoldmarkParser(interfaces.ParseOptions{}), interfaces.ParseOptions{}),
	)
	mux := http.NewServeMux()
	api.Register(mux)
	return mux, shares
}

func TestAPIConvertRewritesImagesToProxy(t *testing.T) {
	mux, _ := setupAPI(t, newFakePlatform())

	rec := doJSONRequest(t, mux, http.MethodPost, "/api/convert", map[string]any{
		"url": "https://example.feishu.cn/docx/doxImg",
	}, http.StatusOK)

	var resp convertResponse
	decodeJSONBody(t, rec, &resp)
	if resp.Title != "Weekly Notes" {
		t.Fatalf("expected title Weekly Notes got %q", resp.Title)
	}
	if !strings.Contains(resp.Markdown, "![](/api/image/tokA)") {
		t.Fatalf("expected proxied image link, got %q", resp.Markdown)
	}
	if !strings.HasPrefix(resp.Markdown, "# Weekly Notes") {
		t.Fatalf("expected title heading, got %q", resp.Markdown)
	}
}

func TestAPIConvertErrors(t *testing.T) {
	cases := []struct {
		name       string
		body       any
		fetchErr   error
		wantStatus int
		wantError  string
		wantMsg    string
	}{
		{name: "missing url", body: map[string]any{}, wantStatus: http.StatusBadRequest, wantError: "bad_request", wantMsg: "Missing or invalid URL"},
		{name: "invalid url", body: map[string]any{"url": "https://example.com/sheets/abc"}, wantStatus: http.StatusBadRequest, wantError: "bad_request"},
		{name: "legacy docs", body: map[string]any{"url": "https://example.feishu.cn/docs/abc"}, wantStatus: http.StatusBadRequest, wantError: "bad_request", wantMsg: "Legacy 'docs' format is not supported, only 'docx' is supported"},
		{name: "unknown document", body: map[string]any{"url": "https://example.feishu.cn/docx/missing"}, wantStatus: http.StatusNotFound, wantError: "not_found"},
		{name: "platform failure", body: map[string]any{"url": "https://example.feishu.cn/docx/doxImg"}, fetchErr: &feishu.APIError{Op: "get document", Status: 200, Code: 99991663, Msg: "token invalid"}, wantStatus: http.StatusBadGateway, wantError: "upstream_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			platform := newFakePlatform()
			platform.fetchErr = tc.fetchErr
			mux, _ := setupAPI(t, platform)

			rec := doJSONRequest(t, mux, http.MethodPost, "/api/convert", tc.body, tc.wantStatus)
			var resp errorResponse
			decodeJSONBody(t, rec, &resp)
			if resp.Error != tc.wantError {
				t.Fatalf("expected error %q got %q", tc.wantError, resp.Error)
			}
			if tc.wantMsg != "" && resp.Message != tc.wantMsg {
				t.Fatalf("expected message %q got %q", tc.wantMsg, resp.Message)
			}
		})
	}
}

func TestAPIImageProxy(t *testing.T) {
	mux, _ := setupAPI(t, newFakePlatform())

	rec := doRequest(t, mux, http.MethodGet, "/api/image/tokA", http.StatusOK)
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("expected image/png got %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=86400" {
		t.Fatalf("unexpected cache control %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), pngBytes) {
		t.Fatalf("unexpected image bytes %v", rec.Body.Bytes())
	}

	doRequest(t, mux, http.MethodGet, "/api/image/unknown", http.StatusBadGateway)
}

func TestAPIShareLifecycle(t *testing.T) {
	mux, _ := setupAPI(t, newFakePlatform())

	rec := doJSONRequest(t, mux, http.MethodPost, "/api/share", map[string]any{
		"markdown": "# Hello\n\nworld",
	}, http.StatusOK)
	var created shareCreateResponse
	decodeJSONBody(t, rec, &created)
	if created.ID != "aaaa1111" || created.URL != "/s/aaaa1111" {
		t.Fatalf("unexpected share response %+v", created)
	}

	raw := doRequest(t, mux, http.MethodGet, "/s/aaaa1111/raw", http.StatusOK)
	if raw.Body.String() != "# Hello\n\nworld" {
		t.Fatalf("unexpected raw body %q", raw.Body.String())
	}
	if got := raw.Header().Get("Content-Type"); got != "text/markdown; charset=utf-8" {
		t.Fatalf("unexpected raw content type %q", got)
	}

	view := doRequest(t, mux, http.MethodGet, "/s/aaaa1111", http.StatusOK)
	body := view.Body.String()
	if !strings.Contains(body, "Hello</h1>") || !strings.Contains(body, "<p>world</p>") {
		t.Fatalf("expected rendered markdown, got %s", body)
	}
	if !strings.Contains(body, "<title>Untitled</title>") {
		t.Fatalf("expected default title, got %s", body)
	}
	if !strings.Contains(body, `href="/s/aaaa1111/raw"`) {
		t.Fatalf("expected raw link, got %s", body)
	}

	doRequest(t, mux, http.MethodGet, "/s/zzzz9999", http.StatusNotFound)
	doRequest(t, mux, http.MethodGet, "/s/zzzz9999/raw", http.StatusNotFound)
}

func TestAPIShareViewStripsActiveContent(t *testing.T) {
	mux, _ := setupAPI(t, newFakePlatform())

	input := "hi\n\n<script>alert(1)</script>\n\n" +
		"<img src=\"x.png\" onerror=\"alert(2)\">\n\n" +
		"<a href=\"javascript:alert(3)\">click</a>\n\n" +
		"<table><tr><td rowspan=\"2\" colspan=\"3\"><u>merged</u><br>cell</td></tr></table>\n"
	doJSONRequest(t, mux, http.MethodPost, "/api/share", map[string]any{"markdown": input}, http.StatusOK)

	body := doRequest(t, mux, http.MethodGet, "/s/aaaa1111", http.StatusOK).Body.String()
	for _, banned := range []string{"<script", "alert(1)", "onerror", "javascript:"} {
		if strings.Contains(body, banned) {
			t.Fatalf("expected %q to be removed, got %s", banned, body)
		}
	}
	for _, kept := range []string{"<p>hi</p>", `rowspan="2"`, `colspan="3"`, "<u>merged</u>", "<br"} {
		if !strings.Contains(body, kept) {
			t.Fatalf("expected %q to survive, got %s", kept, body)
		}
	}
}

func TestAPIShareRequiresMarkdown(t *testing.T) {
	mux, _ := setupAPI(t, newFakePlatform())
	rec := doJSONRequest(t, mux, http.MethodPost, "/api/share", map[string]any{"title": "Empty"}, http.StatusBadRequest)
	var resp errorResponse
	decodeJSONBody(t, rec, &resp)
	if resp.Error != "bad_request" {
		t.Fatalf("expected bad_request got %q", resp.Error)
	}
}

func TestAPIDownload(t *testing.T) {
	mux, _ := setupAPI(t, newFakePlatform())

	plain := doRequest(t, mux, http.MethodGet, "/api/download?url=https://example.feishu.cn/docx/doxPlain", http.StatusOK)
	if got := plain.Header().Get("Content-Type"); got != convert.ContentTypeMarkdown {
		t.Fatalf("expected markdown content type got %q", got)
	}
	if got := plain.Header().Get("Content-Disposition"); !strings.HasPrefix(got, "attachment;") || !strings.Contains(got, ".md") {
		t.Fatalf("unexpected content disposition %q", got)
	}

	archive := doRequest(t, mux, http.MethodGet, "/api/download?url=https://example.feishu.cn/docx/doxImg", http.StatusOK)
	if got := archive.Header().Get("Content-Type"); got != convert.ContentTypeZip {
		t.Fatalf("expected zip content type got %q", got)
	}
	reader, err := zip.NewReader(bytes.NewReader(archive.Body.Bytes()), int64(archive.Body.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, file := range reader.File {
		names[file.Name] = true
	}
	if !names["tokA.png"] {
		t.Fatalf("expected image entry, got %v", names)
	}

	doRequest(t, mux, http.MethodGet, "/api/download", http.StatusBadRequest)
}

func TestAPIServiceUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	NewAPI().Register(mux)

	doJSONRequest(t, mux, http.MethodPost, "/api/convert", map[string]any{"url": "https://example.feishu.cn/docx/x"}, http.StatusServiceUnavailable)
	doJSONRequest(t, mux, http.MethodPost, "/api/share", map[string]any{"markdown": "x"}, http.StatusServiceUnavailable)
	doRequest(t, mux, http.MethodGet, "/s/abc", http.StatusNotFound)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", goerrors.New("bad", goerrors.CategoryValidation), http.StatusBadRequest},
		{"empty token", media.ErrEmptyToken, http.StatusBadRequest},
		{"share not found", share.ErrDocumentNotFound, http.StatusNotFound},
		{"platform not found", feishu.ErrNotFound, http.StatusNotFound},
		{"api error", &feishu.APIError{Op: "x", Code: 1}, http.StatusBadGateway},
		{"external", goerrors.New("down", goerrors.CategoryExternal), http.StatusBadGateway},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := mapError(tc.err)
			if status != tc.status {
				t.Fatalf("expected status %d got %d", tc.status, status)
			}
		})
	}
}

func doJSONRequest(t *testing.T, mux *http.ServeMux, method, path string, body any, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("expected status %d got %d (%s)", wantStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path string, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("expected status %d got %d (%s)", wantStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
