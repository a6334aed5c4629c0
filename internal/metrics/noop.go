package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// IncDiscover is a no-op.
func (n *NoopRecorder) IncDiscover(status string) {}

// IncCSVDownload is a no-op.
func (n *NoopRecorder) IncCSVDownload(status string) {}

// IncGroupsCacheHit is a no-op.
func (n *NoopRecorder) IncGroupsCacheHit() {}

// IncGroupsCacheMiss is a no-op.
func (n *NoopRecorder) IncGroupsCacheMiss() {}

// ObserveBackendDuration is a no-op.
func (n *NoopRecorder) ObserveBackendDuration(op string, duration time.Duration) {}

// IncActivityPublished is a no-op.
func (n *NoopRecorder) IncActivityPublished(status string) {}

// IncActivityProcessed is a no-op.
func (n *NoopRecorder) IncActivityProcessed(status string) {}

// SetActivityQueueDepth is a no-op.
func (n *NoopRecorder) SetActivityQueueDepth(depth int64) {}
