// Package activity moves dashboard activity events through a Redis stream
// into the Postgres activity log.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/leadreach/leadreach/internal/metrics"
	"github.com/leadreach/leadreach/internal/model"
)

const (
	// StreamKey is the Redis stream for activity events.
	StreamKey = "stream:activity_events"

	// DeadLetterStreamKey holds entries the worker could not decode.
	DeadLetterStreamKey = "stream:activity_events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout bounds a single XADD.
	PublishTimeout = 250 * time.Millisecond
)

// Payload is the stream representation of a model.ActivityEvent.
type Payload struct {
	ID         string   `json:"id"`
	Username   string   `json:"u"`
	Kind       string   `json:"k"`
	GroupID    string   `json:"g,omitempty"`
	Keywords   []string `json:"kw,omitempty"`
	Cities     []string `json:"c,omitempty"`
	Count      int      `json:"n,omitempty"`
	OccurredAt int64    `json:"t"` // Unix milliseconds
}

// NewPayload converts an event, assigning an ID when it has none. The ID
// travels with the entry so redelivery does not create duplicates.
func NewPayload(event *model.ActivityEvent) Payload {
	id := event.ID
	if id == "" {
		id = ulid.Make().String()
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return Payload{
		ID:         id,
		Username:   event.Username,
		Kind:       string(event.Kind),
		GroupID:    event.GroupID,
		Keywords:   event.Keywords,
		Cities:     event.Cities,
		Count:      event.Count,
		OccurredAt: occurred.UnixMilli(),
	}
}

// Event converts the payload back into a model event.
func (p Payload) Event() *model.ActivityEvent {
	return &model.ActivityEvent{
		ID:         p.ID,
		Username:   p.Username,
		Kind:       model.ActivityKind(p.Kind),
		GroupID:    p.GroupID,
		Keywords:   p.Keywords,
		Cities:     p.Cities,
		Count:      p.Count,
		OccurredAt: time.UnixMilli(p.OccurredAt).UTC(),
	}
}

// Publisher enqueues activity events on the Redis stream. It satisfies
// service.ActivityRecorder, so request handlers never wait on Postgres.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new activity event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "activity.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream and returns the stream entry ID.
func (p *Publisher) Publish(ctx context.Context, payload Payload) (string, error) {
	if err := ValidatePayload(payload); err != nil {
		return "", err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}
	return id, nil
}

// RecordActivity publishes event. A failed publish drops the event.
func (p *Publisher) RecordActivity(ctx context.Context, event *model.ActivityEvent) error {
	payload := NewPayload(event)
	event.ID = payload.ID

	streamID, err := p.Publish(ctx, payload)
	if err != nil {
		p.metrics.IncActivityPublished(metrics.StatusDropped)
		return err
	}

	p.logger.Debug("activity event published",
		"kind", payload.Kind,
		"stream_id", streamID,
	)
	p.metrics.IncActivityPublished(metrics.StatusSuccess)
	return nil
}
