package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/leadreach/leadreach/internal/service"
	"github.com/leadreach/leadreach/internal/session"
	"github.com/leadreach/leadreach/internal/view"
)

// Dashboard renders stats and the filtered group list.
// GET /dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	query := r.URL.Query()

	content := view.DashboardContent{
		Query:    query.Get("q"),
		ViewMode: view.NormalizeViewMode(query.Get("view")),
	}

	list, err := h.dashboard.ListGroups(r.Context(), sess, false)
	if err != nil {
		if h.handleUnauthorized(w, r, sess, err) {
			return
		}
		h.logBackendError(r, "list_groups", err)
		content.Error = msgGroupsFailed
		h.render(w, r, http.StatusBadGateway, view.PageDashboard, "Dashboard", content)
		return
	}

	content.Stats = service.ComputeStats(list, time.Now())
	content.Groups = service.Filter(list.Groups, content.Query)
	content.Total = list.Total
	h.render(w, r, http.StatusOK, view.PageDashboard, "Dashboard", content)
}

// Refresh refetches the group list, bypassing the cache.
// POST /dashboard/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	if _, err := h.dashboard.ListGroups(r.Context(), sess, true); err != nil {
		if h.handleUnauthorized(w, r, sess, err) {
			return
		}
		h.logBackendError(r, "list_groups", err)
	}

	http.Redirect(w, r, dashboardURL(r.PostFormValue("q"), r.PostFormValue("view")), http.StatusSeeOther)
}

// dashboardURL keeps the search and view mode across redirects.
func dashboardURL(q, mode string) string {
	values := url.Values{}
	if q != "" {
		values.Set("q", q)
	}
	if mode = view.NormalizeViewMode(mode); mode != view.ViewCards {
		values.Set("view", mode)
	}
	if len(values) == 0 {
		return "/dashboard"
	}
	return fmt.Sprintf("/dashboard?%s", values.Encode())
}
