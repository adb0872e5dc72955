package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/linkaudit/internal/audit"
	"github.com/MrSnakeDoc/linkaudit/internal/domain"
	"github.com/MrSnakeDoc/linkaudit/internal/export"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery),
		errors.Is(err, domain.ErrUnknownMode),
		errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMissingCredentials):
		return http.StatusPreconditionFailed
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrRecordOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, audit.ErrProbeInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with its mapped status. Internal errors are
// not echoed to the client.
func writeServiceError(w http.ResponseWriter, err error) int {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeError(w, status, msg)
	return status
}
