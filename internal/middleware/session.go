package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/internal/session"
)

// SessionRestorer loads the session named by a request's cookie.
type SessionRestorer interface {
	Restore(r *http.Request) (*model.Session, error)
}

// LoadSession puts the request's session, if any, into the context.
// Store failures are logged and the request continues anonymously.
func LoadSession(restorer SessionRestorer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := restorer.Restore(r)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					logger.Error("session restore failed",
						slog.String("request_id", GetRequestID(r.Context())),
						slog.String("error", err.Error()),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.ContextWithSession(r.Context(), sess)))
		})
	}
}

// RequireSession redirects anonymous visitors to the login page,
// remembering where they were going for GET requests.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.FromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		target := "/login"
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			target += "?next=" + url.QueryEscape(r.URL.RequestURI())
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}
