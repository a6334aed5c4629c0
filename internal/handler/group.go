package handler

import (
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leadreach/leadreach/internal/backend"
	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/internal/session"
	"github.com/leadreach/leadreach/internal/view"
)

// Group renders one group's businesses.
// GET /group/{id}
func (h *Handler) Group(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	id := groupID(r)

	details, err := h.dashboard.GroupDetails(r.Context(), sess, id)
	if err != nil {
		if h.handleUnauthorized(w, r, sess, err) {
			return
		}
		h.logBackendError(r, "group_details", err)
		h.flash(r.Context(), sess, model.FlashError, msgDetailsFailed)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	title := details.Export.Name
	if title == "" {
		title = "Business group"
	}
	h.render(w, r, http.StatusOK, view.PageGroup, title, view.GroupContent{ID: id, Details: details})
}

// ExportCSV streams a group's CSV as an attachment.
// GET /group/{id}/export.csv
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	id := groupID(r)

	export, err := h.dashboard.DownloadCSV(r.Context(), sess, id, r.URL.Query().Get("name"))
	if err != nil {
		if h.handleUnauthorized(w, r, sess, err) {
			return
		}
		h.logBackendError(r, "download_csv", err)
		h.flash(r.Context(), sess, model.FlashError, backend.Message(err, msgDownloadFailed))
		http.Redirect(w, r, sameSiteReferer(r, "/dashboard"), http.StatusSeeOther)
		return
	}

	contentType := export.ContentType
	if contentType == "" {
		contentType = "text/csv; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

// groupID returns the decoded {id} segment. chi matches on RawPath when the
// request has one, so escaped IDs arrive still escaped.
func groupID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}
