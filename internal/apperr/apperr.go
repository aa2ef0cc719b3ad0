// Package apperr defines the typed errors the services raise. The HTTP layer
// maps each type to a response uniformly; services never build responses.
package apperr

import (
	"errors"
	"strings"
)

var (
	// ErrUnauthorized covers every token failure (missing, malformed, bad
	// signature, expired, session gone). Callers must not be able to tell
	// which check failed.
	ErrUnauthorized = errors.New("could not validate credentials")

	ErrNotFound = errors.New("not found")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field-scoped business-rule failures such as a
// duplicate email or a bad login. Maps to HTTP 400.
type ValidationError struct {
	FieldErrors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewValidation(fieldErrors ...FieldError) *ValidationError {
	return &ValidationError{FieldErrors: fieldErrors}
}

// AsValidation unwraps err into a *ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
