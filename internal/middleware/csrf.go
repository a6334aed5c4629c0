package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/leadreach/leadreach/internal/session"
)

// CSRF form field and header names.
const (
	CSRFFormField = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"
)

// CSRF rejects state-changing requests that come from another origin or,
// for logged-in users, lack the session's CSRF token.
func CSRF(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if !sameOrigin(r) {
				rejectCSRF(w, r, logger, "cross-origin request")
				return
			}

			sess := session.FromContext(r.Context())
			if sess == nil {
				// Anonymous forms (login) rely on the origin check.
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(CSRFHeader)
			if token == "" {
				token = r.PostFormValue(CSRFFormField)
			}
			if !session.ValidCSRF(sess, token) {
				rejectCSRF(w, r, logger, "invalid csrf token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// sameOrigin checks Origin, falling back to Referer. Requests carrying
// neither (non-browser clients) pass.
func sameOrigin(r *http.Request) bool {
	source := r.Header.Get("Origin")
	if source == "" || source == "null" {
		source = r.Header.Get("Referer")
	}
	if source == "" {
		return true
	}

	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

func rejectCSRF(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string) {
	logger.Warn("csrf check failed",
		slog.String("request_id", GetRequestID(r.Context())),
		slog.String("reason", reason),
		slog.String("path", r.URL.Path),
	)
	http.Error(w, "Forbidden", http.StatusForbidden)
}
