package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DurationStat is a count/sum pair for one backend operation.
type DurationStat struct {
	Count   uint64
	TotalNs int64
}

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Logins          map[string]uint64
	Discovers       map[string]uint64
	CSVDownloads    map[string]uint64
	GroupsCacheHits uint64
	GroupsCacheMiss uint64
	Backend         map[string]DurationStat

	ActivityPublished  map[string]uint64
	ActivityProcessed  map[string]uint64
	ActivityQueueDepth int64
}

// BackendOps returns the observed operation names in sorted order.
func (s Snapshot) BackendOps() []string {
	ops := make([]string, 0, len(s.Backend))
	for op := range s.Backend {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint.
type InMemoryRecorder struct {
	groupsCacheHits    uint64
	groupsCacheMiss    uint64
	activityQueueDepth int64

	mu        sync.Mutex
	logins    map[string]uint64
	discovers map[string]uint64
	downloads map[string]uint64
	backend   map[string]DurationStat
	published map[string]uint64
	processed map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		logins:    make(map[string]uint64),
		discovers: make(map[string]uint64),
		downloads: make(map[string]uint64),
		backend:   make(map[string]DurationStat),
		published: make(map[string]uint64),
		processed: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Logins:          copyCounts(m.logins),
		Discovers:       copyCounts(m.discovers),
		CSVDownloads:    copyCounts(m.downloads),
		GroupsCacheHits: atomic.LoadUint64(&m.groupsCacheHits),
		GroupsCacheMiss: atomic.LoadUint64(&m.groupsCacheMiss),
		Backend:         copyDurations(m.backend),

		ActivityPublished:  copyCounts(m.published),
		ActivityProcessed:  copyCounts(m.processed),
		ActivityQueueDepth: atomic.LoadInt64(&m.activityQueueDepth),
	}
}

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	m.inc(m.logins, status)
}

// IncDiscover increments the discover counter for status.
func (m *InMemoryRecorder) IncDiscover(status string) {
	m.inc(m.discovers, status)
}

// IncCSVDownload increments the CSV download counter for status.
func (m *InMemoryRecorder) IncCSVDownload(status string) {
	m.inc(m.downloads, status)
}

// IncGroupsCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncGroupsCacheHit() {
	atomic.AddUint64(&m.groupsCacheHits, 1)
}

// IncGroupsCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncGroupsCacheMiss() {
	atomic.AddUint64(&m.groupsCacheMiss, 1)
}

// ObserveBackendDuration records one backend call.
func (m *InMemoryRecorder) ObserveBackendDuration(op string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stat := m.backend[op]
	stat.Count++
	stat.TotalNs += duration.Nanoseconds()
	m.backend[op] = stat
}

// IncActivityPublished counts an activity event handed to the stream.
func (m *InMemoryRecorder) IncActivityPublished(status string) {
	m.inc(m.published, status)
}

// IncActivityProcessed counts an activity event consumed by the worker.
func (m *InMemoryRecorder) IncActivityProcessed(status string) {
	m.inc(m.processed, status)
}

// SetActivityQueueDepth records pending plus unread stream entries.
func (m *InMemoryRecorder) SetActivityQueueDepth(depth int64) {
	atomic.StoreInt64(&m.activityQueueDepth, depth)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, status string) {
	m.mu.Lock()
	counts[status]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyDurations(src map[string]DurationStat) map[string]DurationStat {
	dst := make(map[string]DurationStat, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
