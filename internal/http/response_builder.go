// Package http exposes the report engine over JSON endpoints.
//
// This file centralizes response encoding so every handler emits the same
// shapes: payloads as-is, errors as {"error": "..."}.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fluxo/internal/core"
	"fluxo/internal/storage"
)

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorBody{Error: message})
}

// writeServiceError maps engine and storage errors onto status codes.
// Validation problems are the caller's to fix; anything else is a failed
// upstream read and is reported as such, never papered over with
// placeholder numbers.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidYear),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidFlow),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyTenant):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Report request failed",
			"error", err,
			"path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "report computation failed")
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
