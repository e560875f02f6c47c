package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FallbackMessage is shown when a failure carries no usable message at all.
const FallbackMessage = "Something went wrong. Please try again."

// Error is a failure reported by the service. The three message fields mirror
// the two error body shapes the service produces: login-style failures set
// ErrorText, validation failures set Message plus Errors.
type Error struct {
	Status    int
	ErrorText string
	Message   string
	Errors    []string
}

func (e *Error) Error() string {
	if e.ErrorText != "" {
		return e.ErrorText
	}
	if len(e.Errors) > 0 {
		return strings.Join(e.Errors, ", ")
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Unauthorized reports whether the failure was a 401.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// ErrorMessage extracts a single human-readable string from any failure.
// The priority is fixed and load-bearing: the error field first, then the
// joined errors list, then message, then the error's own text, then the
// fallback. Screens route messages to form fields based on this ordering.
func ErrorMessage(err error) string {
	if err == nil {
		return FallbackMessage
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.ErrorText != "" {
			return apiErr.ErrorText
		}
		if len(apiErr.Errors) > 0 {
			return strings.Join(apiErr.Errors, ", ")
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}
