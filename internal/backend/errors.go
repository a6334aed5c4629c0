package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidBaseURL is returned by New for unusable base URLs.
var ErrInvalidBaseURL = errors.New("invalid backend base URL")

// Error is a non-2xx response from the backend.
type Error struct {
	Op         string
	StatusCode int
	// Message is the body's "message" field, empty when absent.
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %s: %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend %s: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsUnauthorized reports whether err is a backend 401 or 403.
// Either status ends the user's session.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Message returns the backend-provided message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
