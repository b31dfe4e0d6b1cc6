package http

import (
	"mime"
	"net/http"
	"strconv"
	"strings"
)

type convertPayload struct {
	URL string `json:"url"`
}

type convertResponse struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

func (api *API) handleConvert(w http.ResponseWriter, r *http.Request) {
	if api.converter == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	var payload convertPayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.URL) == "" {
		badRequest(w, "Missing or invalid URL")
		return
	}

	result, err := api.converter.Convert(r.Context(), payload.URL)
	if err != nil {
		api.logger.Error("http.convert.failed", "url", payload.URL, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{
		Title:    result.Title,
		Markdown: result.Markdown,
	})
}

func (api *API) handleDownload(w http.ResponseWriter, r *http.Request) {
	if api.converter == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		badRequest(w, "Missing or invalid URL")
		return
	}

	bundle, err := api.converter.Export(r.Context(), rawURL)
	if err != nil {
		api.logger.Error("http.download.failed", "url", rawURL, "error", err)
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", bundle.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": bundle.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(bundle.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(bundle.Data)
}

func (api *API) handleImage(w http.ResponseWriter, r *http.Request) {
	if api.images == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	token := strings.TrimSpace(r.PathValue("token"))
	if token == "" {
		badRequest(w, "Missing image token")
		return
	}

	image, err := api.images.Fetch(r.Context(), token)
	if err != nil {
		api.logger.Error("http.image.failed", "token", token, "error", err)
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Cache-Control", imageCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image.Data)
}
