package service

import (
	"context"
	"time"

	"github.com/leadreach/leadreach/internal/model"
)

// activityTimeout bounds a single activity write.
const activityTimeout = 2 * time.Second

// ActivityRecorder persists user actions. repository.Repository
// implements it.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, event *model.ActivityEvent) error
}

// NoopActivity discards events. Used when no database is configured.
type NoopActivity struct{}

// RecordActivity is a no-op.
func (NoopActivity) RecordActivity(ctx context.Context, event *model.ActivityEvent) error {
	return nil
}

// record writes an event without letting a failure reach the caller.
// The write survives cancellation of the request that triggered it.
func (d *Dashboard) record(ctx context.Context, event *model.ActivityEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activityTimeout)
	defer cancel()

	if event.OccurredAt.IsZero() {
		event.OccurredAt = d.now().UTC()
	}
	if err := d.activity.RecordActivity(ctx, event); err != nil {
		d.logger.Warn("failed to record activity",
			"kind", event.Kind,
			"username", event.Username,
			"error", err,
		)
	}
}
