package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/leadreach/leadreach/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
//
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeCounts(w, "leadreach_logins_total", snap.Logins)
	writeCounts(w, "leadreach_discoveries_total", snap.Discovers)
	writeCounts(w, "leadreach_csv_downloads_total", snap.CSVDownloads)

	writeMetric(w, "leadreach_groups_cache_hits_total %d\n", snap.GroupsCacheHits)
	writeMetric(w, "leadreach_groups_cache_misses_total %d\n", snap.GroupsCacheMiss)

	writeCounts(w, "leadreach_activity_published_total", snap.ActivityPublished)
	writeCounts(w, "leadreach_activity_processed_total", snap.ActivityProcessed)
	writeMetric(w, "leadreach_activity_queue_depth %d\n", snap.ActivityQueueDepth)

	for _, op := range snap.BackendOps() {
		stat := snap.Backend[op]
		writeMetric(w, "leadreach_backend_request_duration_seconds_count{op=%q} %d\n", op, stat.Count)
		writeMetric(w, "leadreach_backend_request_duration_seconds_sum{op=%q} %.6f\n", op, float64(stat.TotalNs)/1e9)
	}
}

// writeCounts emits one labelled line per status, sorted for stable output.
func writeCounts(w http.ResponseWriter, name string, counts map[string]uint64) {
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	for _, status := range statuses {
		writeMetric(w, "%s{status=%q} %d\n", name, status, counts[status])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
