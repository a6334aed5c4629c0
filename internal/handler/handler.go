// Package handler provides the dashboard's HTTP request handlers.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/leadreach/leadreach/internal/backend"
	"github.com/leadreach/leadreach/internal/middleware"
	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/internal/service"
	"github.com/leadreach/leadreach/internal/session"
	"github.com/leadreach/leadreach/internal/view"
)

// Flash messages shown after redirects.
const (
	msgSessionExpired   = "Session expired. Please log in again."
	msgDetailsFailed    = "Failed to load group details"
	msgDownloadFailed   = "Failed to download CSV"
	msgDiscoverFailed   = "Failed to generate businesses"
	msgGroupsFailed     = "Failed to load business groups"
	msgLoginFailed      = "Invalid username or password"
	msgLoginUnavailable = "Login failed. Please try again."
	msgMissingLogin     = "Please enter your username and password"
	msgInvalidLimit     = "Limit must be at least 1"
)

// Handler serves the dashboard pages.
type Handler struct {
	dashboard *service.Dashboard
	sessions  *session.Manager
	views     *view.Renderer
	logger    *slog.Logger
}

// New creates a Handler.
func New(dashboard *service.Dashboard, sessions *session.Manager, views *view.Renderer, logger *slog.Logger) *Handler {
	return &Handler{
		dashboard: dashboard,
		sessions:  sessions,
		views:     views,
		logger:    logger.With("component", "handler"),
	}
}

// Index redirects to the dashboard.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, view.PageNotFound, "Not found", nil)
}

// MethodNotAllowed answers 405 with a plain body.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// render builds the common page data and renders name. Flashes are
// consumed here, so render must run before anything is written.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, content any) {
	page := &view.Page{Title: title, Content: content}

	if sess := session.FromContext(r.Context()); sess != nil {
		user := sess.User
		page.User = &user
		page.CSRFToken = sess.CSRFToken

		flashes, err := h.sessions.PopFlashes(r.Context(), sess.ID)
		if err != nil {
			h.logger.Warn("failed to load flashes",
				slog.String("request_id", middleware.GetRequestID(r.Context())),
				slog.String("error", err.Error()),
			)
		}
		page.Flashes = flashes
	} else {
		page.Flashes = h.sessions.PopAnonymousFlashes(w, r)
	}

	if err := h.views.Render(w, status, name, page); err != nil {
		h.logger.Error("failed to render page",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// serverError renders the generic error page.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	h.render(w, r, http.StatusInternalServerError, view.PageError, "Something went wrong", nil)
}

// flash queues a message for the session's next page.
func (h *Handler) flash(ctx context.Context, sess *model.Session, level model.FlashLevel, message string) {
	if err := h.sessions.AddFlash(ctx, sess.ID, model.Flash{Level: level, Message: message}); err != nil {
		h.logger.Warn("failed to queue flash",
			slog.String("request_id", middleware.GetRequestID(ctx)),
			slog.String("error", err.Error()),
		)
	}
}

// handleUnauthorized ends the session when the backend rejected its token.
// It reports whether it wrote a response.
func (h *Handler) handleUnauthorized(w http.ResponseWriter, r *http.Request, sess *model.Session, err error) bool {
	if !backend.IsUnauthorized(err) {
		return false
	}

	h.logger.Info("backend rejected session token, logging out",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("username", sess.User.Username),
	)
	if logoutErr := h.sessions.Logout(r.Context(), w, sess.ID); logoutErr != nil {
		h.logger.Error("failed to delete session",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("error", logoutErr.Error()),
		)
	}
	h.sessions.FlashAnonymous(w, model.Flash{Level: model.FlashError, Message: msgSessionExpired})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}

// logBackendError records a failed backend call at a level matching its cause.
func (h *Handler) logBackendError(r *http.Request, op string, err error) {
	level := slog.LevelError
	var apiErr *backend.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, "backend call failed",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}

// safeNext returns next when it is a local absolute path, else fallback.
// Scheme-relative ("//host") and backslash tricks are rejected.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	if u.Path == "/login" {
		return fallback
	}
	return next
}

// sameSiteReferer returns the referring path when it points at this host.
func sameSiteReferer(r *http.Request, fallback string) string {
	ref := r.Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host != r.Host {
		return fallback
	}
	return safeNext(u.RequestURI(), fallback)
}
