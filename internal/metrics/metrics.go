// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Status labels used by the counters below.
const (
	StatusSuccess      = "success"
	StatusFailed       = "failed"
	StatusUnauthorized = "unauthorized"
	StatusInvalid      = "invalid"
	StatusDropped      = "dropped"
	StatusDeadLettered = "dead_lettered"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// User actions
	IncLogin(status string)
	IncDiscover(status string)
	IncCSVDownload(status string)

	// Group list cache
	IncGroupsCacheHit()
	IncGroupsCacheMiss()

	// Backend API latency, keyed by operation name
	ObserveBackendDuration(op string, duration time.Duration)

	// Activity stream
	IncActivityPublished(status string)
	IncActivityProcessed(status string)
	SetActivityQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
