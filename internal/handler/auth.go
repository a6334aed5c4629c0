package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/leadreach/leadreach/internal/backend"
	"github.com/leadreach/leadreach/internal/middleware"
	"github.com/leadreach/leadreach/internal/service"
	"github.com/leadreach/leadreach/internal/session"
	"github.com/leadreach/leadreach/internal/view"
)

// LoginForm renders the login page.
// GET /login
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"), "")
	if session.FromContext(r.Context()) != nil {
		http.Redirect(w, r, safeNext(next, "/dashboard"), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, view.PageLogin, "Sign in", view.LoginContent{Next: next})
}

// Login exchanges credentials for a backend token and starts a session.
// POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	next := safeNext(r.PostFormValue("next"), "")
	content := view.LoginContent{Username: username, Next: next}

	resp, err := h.dashboard.Login(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		status, message := loginFailure(err)
		if status >= http.StatusInternalServerError {
			h.logBackendError(r, "login", err)
		}
		content.Error = message
		h.render(w, r, status, view.PageLogin, "Sign in", content)
		return
	}

	// Replace any session the browser still carries.
	if old := session.FromContext(r.Context()); old != nil {
		_ = h.sessions.Logout(r.Context(), w, old.ID)
	}

	if _, err := h.sessions.Login(r.Context(), w, resp.Token, resp.User); err != nil {
		h.serverError(w, r, err)
		return
	}

	h.logger.Info("user logged in",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("username", resp.User.Username),
	)
	http.Redirect(w, r, safeNext(next, "/dashboard"), http.StatusSeeOther)
}

// loginFailure maps a login error to the status and message shown on the form.
func loginFailure(err error) (int, string) {
	if errors.Is(err, service.ErrMissingCredentials) {
		return http.StatusBadRequest, msgMissingLogin
	}
	if backend.IsUnauthorized(err) {
		return http.StatusUnauthorized, backend.Message(err, msgLoginFailed)
	}
	var apiErr *backend.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
		return apiErr.StatusCode, backend.Message(err, msgLoginFailed)
	}
	return http.StatusBadGateway, msgLoginUnavailable
}

// Logout destroys the session.
// POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	if err := h.sessions.Logout(r.Context(), w, sess.ID); err != nil {
		h.logger.Error("failed to delete session",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// loginRateLimited re-renders the login form with a 429.
func (h *Handler) loginRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	content := view.LoginContent{
		Username: r.PostFormValue("username"),
		Next:     safeNext(r.PostFormValue("next"), ""),
		Error:    "Too many login attempts. Please wait " + retryAfter.String() + " and try again.",
	}
	h.render(w, r, http.StatusTooManyRequests, view.PageLogin, "Sign in", content)
}
