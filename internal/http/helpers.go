package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-feishu2md/internal/feishu"
	"github.com/goliatone/go-feishu2md/internal/media"
	"github.com/goliatone/go-feishu2md/internal/share"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	payload := errorResponse{Message: err.Error()}
	var categorised *goerrors.Error
	if errors.As(err, &categorised) {
		payload.Message = categorised.Message
		payload.Code = categorised.TextCode
	}

	var apiErr *feishu.APIError
	switch {
	case errors.Is(err, media.ErrEmptyToken),
		goerrors.IsCategory(err, goerrors.CategoryValidation):
		payload.Error = "bad_request"
		return http.StatusBadRequest, payload
	case errors.Is(err, share.ErrDocumentNotFound),
		errors.Is(err, feishu.ErrNotFound),
		goerrors.IsCategory(err, goerrors.CategoryNotFound):
		payload.Error = "not_found"
		return http.StatusNotFound, payload
	case errors.As(err, &apiErr),
		goerrors.IsCategory(err, goerrors.CategoryExternal):
		payload.Error = "upstream_error"
		return http.StatusBadGateway, payload
	}

	payload.Error = "internal_error"
	return http.StatusInternalServerError, payload
}
