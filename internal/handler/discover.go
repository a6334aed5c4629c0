package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/leadreach/leadreach/internal/backend"
	"github.com/leadreach/leadreach/internal/middleware"
	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/internal/service"
	"github.com/leadreach/leadreach/internal/session"
	"github.com/leadreach/leadreach/internal/view"
)

// DiscoverForm renders the generation form.
// GET /discover
func (h *Handler) DiscoverForm(w http.ResponseWriter, r *http.Request) {
	content := view.DiscoverContent{Limit: h.dashboard.DefaultDiscoverLimit()}
	h.render(w, r, http.StatusOK, view.PageDiscover, "Generate New Businesses", content)
}

// Discover asks the backend to find businesses and returns to the dashboard.
// POST /discover
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	content := view.DiscoverContent{
		Keywords: r.PostFormValue("keywords"),
		Cities:   r.PostFormValue("cities"),
		Limit:    h.dashboard.DefaultDiscoverLimit(),
	}

	input := service.DiscoverInput{Keywords: content.Keywords, Cities: content.Cities}
	if raw := strings.TrimSpace(r.PostFormValue("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			content.Error = msgInvalidLimit
			h.render(w, r, http.StatusBadRequest, view.PageDiscover, "Generate New Businesses", content)
			return
		}
		input.Limit = limit
		content.Limit = limit
	}

	n, err := h.dashboard.Discover(r.Context(), sess, input)
	if err != nil {
		if h.handleUnauthorized(w, r, sess, err) {
			return
		}

		status := http.StatusBadGateway
		switch {
		case errors.Is(err, service.ErrMissingTerms):
			status = http.StatusBadRequest
			content.Error = service.MissingTermsMessage
		case errors.Is(err, service.ErrInvalidLimit):
			status = http.StatusBadRequest
			content.Error = msgInvalidLimit
		default:
			h.logBackendError(r, "discover", err)
			content.Error = backend.Message(err, msgDiscoverFailed)
		}
		h.render(w, r, status, view.PageDiscover, "Generate New Businesses", content)
		return
	}

	h.logger.Info("discovery completed",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("username", sess.User.Username),
		slog.Int("discovered", n),
	)
	h.flash(r.Context(), sess, model.FlashSuccess, fmt.Sprintf("Successfully generated %d businesses!", n))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
