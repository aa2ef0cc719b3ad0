package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"eduauth/internal/apperr"
	"eduauth/internal/observability/middleware"
)

type errorBody struct {
	Detail      string              `json:"detail"`
	FieldErrors []apperr.FieldError `json:"field_errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeMalformedBody covers request bodies that do not decode, keeping the
// error shape uniform with the rest of the taxonomy.
func writeMalformedBody(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, errorBody{Detail: "malformed request body"})
}

// writeError maps the service error taxonomy onto HTTP uniformly. Services
// never build responses themselves.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := apperr.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Detail:      "validation error",
			FieldErrors: ve.FieldErrors,
		})
		return
	}
	if errors.Is(err, apperr.ErrUnauthorized) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "could not validate credentials"})
		return
	}
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "not found"})
		return
	}

	slog.Error("unexpected error",
		"error", err,
		"path", r.URL.Path,
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"trace_id", middleware.TraceIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusBadRequest, errorBody{Detail: "unexpected error"})
}
