package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/synapsocial/synapsocial/internal/apperr"
	"github.com/synapsocial/synapsocial/internal/platform/instagram"
	"github.com/synapsocial/synapsocial/internal/platform/linkedin"
	"github.com/synapsocial/synapsocial/internal/platform/youtube"
	"github.com/synapsocial/synapsocial/internal/repository"
	"github.com/synapsocial/synapsocial/internal/service"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func badRequest(w http.ResponseWriter, msg string, err error) {
	body := errorBody{Message: msg}
	if err != nil {
		body.Error = err.Error()
	}
	writeJSON(w, http.StatusBadRequest, body)
}

// validationErrors are caller mistakes, reported as 400.
var validationErrors = []error{
	service.ErrEmptyMessage,
	service.ErrNotEligible,
	service.ErrEmptyReplyText,
	service.ErrNoCommentsAPI,
	instagram.ErrMediaURLRequired,
	linkedin.ErrMediaBytesRequired,
	youtube.ErrVideoRequired,
	repository.ErrUnknownFeature,
}

// statusFor maps an error to its HTTP status and a short message.
func statusFor(err error) (int, string) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, "invalid request"
		}
	}

	switch {
	case errors.Is(err, apperr.ErrPermissionDenied):
		return http.StatusForbidden, "permission is off"
	case errors.Is(err, apperr.ErrNotConnected):
		return http.StatusBadRequest, "platform not connected"
	case errors.Is(err, apperr.ErrProcessingTimeout):
		return http.StatusGatewayTimeout, "platform is still processing the media"
	case errors.Is(err, apperr.ErrCanceled):
		return http.StatusRequestTimeout, "request canceled"
	case errors.Is(err, apperr.ErrUpstream):
		return http.StatusBadGateway, "upstream request failed"
	case errors.Is(err, apperr.ErrConfiguration):
		return http.StatusInternalServerError, "service is not configured"
	case errors.Is(err, repository.ErrAccountNotFound):
		return http.StatusNotFound, "account not found"
	}
	return http.StatusInternalServerError, "internal error"
}

// writeError logs and renders err. Internal errors hide their detail.
func writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status, kind := statusFor(err)
	body := errorBody{Message: msg + ": " + kind, Error: err.Error()}

	if errors.Is(err, apperr.ErrPermissionDenied) {
		body.Hint = "enable auto-post for this platform in settings"
	}
	if status == http.StatusInternalServerError && !errors.Is(err, apperr.ErrConfiguration) {
		body.Error = ""
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, msg, "path", r.URL.Path, "status", status, "error", err)

	writeJSON(w, status, body)
}
