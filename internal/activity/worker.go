package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadreach/leadreach/internal/metrics"
	"github.com/leadreach/leadreach/internal/model"
)

const (
	// ConsumerGroup is the Redis consumer group name.
	ConsumerGroup = "activity_writers"

	DefaultBatchSize     = 100
	DefaultBlockTimeout  = 5 * time.Second
	DefaultMaxRetries    = 3
	DefaultClaimInterval = 10 * time.Second
	DefaultClaimIdle     = 30 * time.Second

	// DefaultMetricsInterval is how often queue depth is refreshed.
	DefaultMetricsInterval = 5 * time.Second

	deadLetterMaxLen = 10000
)

// Store persists a batch of activity events. Inserting an ID twice must
// be a no-op.
type Store interface {
	RecordActivityBatch(ctx context.Context, events []*model.ActivityEvent) error
}

// NewConsumerID returns a consumer name unique to this process.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "dashboard"
	}
	return fmt.Sprintf("%s-%d-%d", host, os.Getpid(), time.Now().UnixNano())
}

// Worker drains the activity stream into Postgres.
type Worker struct {
	redis      *redis.Client
	store      Store
	logger     *slog.Logger
	metrics    metrics.Recorder
	consumerID string

	batchSize       int
	blockTimeout    time.Duration
	maxRetries      int
	retryBackoff    time.Duration
	claimInterval   time.Duration
	claimIdle       time.Duration
	metricsInterval time.Duration

	claimStartID string
	lastClaim    time.Time
	lastMetrics  time.Time

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWorker creates a worker reading as consumerID.
func NewWorker(client *redis.Client, store Store, logger *slog.Logger, consumerID string, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		redis:           client,
		store:           store,
		logger:          logger.With("component", "activity.worker", "consumer_id", consumerID),
		metrics:         recorder,
		consumerID:      consumerID,
		batchSize:       DefaultBatchSize,
		blockTimeout:    DefaultBlockTimeout,
		maxRetries:      DefaultMaxRetries,
		retryBackoff:    time.Second,
		claimInterval:   DefaultClaimInterval,
		claimIdle:       DefaultClaimIdle,
		metricsInterval: DefaultMetricsInterval,
		claimStartID:    "0-0",
	}
}

// SetBlockTimeout overrides how long XREADGROUP blocks.
func (w *Worker) SetBlockTimeout(timeout time.Duration) {
	if timeout > 0 {
		w.blockTimeout = timeout
	}
}

// Run consumes the stream until ctx is cancelled or Shutdown is called.
func (w *Worker) Run(ctx context.Context) error {
	ctx, err := w.begin(ctx)
	if err != nil {
		return err
	}
	return w.loop(ctx)
}

// Start marks the worker started and consumes the stream in the
// background, so a Shutdown issued right after Start always waits for it.
func (w *Worker) Start(ctx context.Context) error {
	ctx, err := w.begin(ctx)
	if err != nil {
		return err
	}
	go func() {
		if err := w.loop(ctx); err != nil {
			w.logger.Error("activity worker stopped", "error", err)
		}
	}()
	return nil
}

func (w *Worker) begin(ctx context.Context) (context.Context, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil, errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	return ctx, nil
}

func (w *Worker) loop(ctx context.Context) error {
	defer close(w.done)

	if err := w.ensureConsumerGroup(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	w.logger.Info("activity worker started")

	for {
		if ctx.Err() != nil {
			w.logger.Info("activity worker stopping")
			return nil
		}

		if err := w.processOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			w.logger.Error("process error", "error", err)
			if !sleep(ctx, time.Second) {
				return nil
			}
		}
	}
}

// Shutdown stops the worker and waits for the in-flight batch. It has the
// signature server.OnShutdown expects.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()

	select {
	case <-done:
		w.logger.Info("activity worker shutdown complete")
		return nil
	case <-ctx.Done():
		w.logger.Warn("activity worker shutdown timed out")
		return ctx.Err()
	}
}

func (w *Worker) ensureConsumerGroup(ctx context.Context) error {
	err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}
	return nil
}

// processOnce handles one batch: reclaimed entries first, then new ones.
func (w *Worker) processOnce(ctx context.Context) error {
	w.maybeUpdateQueueDepth(ctx)

	messages, err := w.maybeClaimPending(ctx)
	if err != nil {
		w.logger.Warn("failed to claim pending entries", "error", err)
	}
	if len(messages) == 0 {
		messages, err = w.readBatch(ctx)
		if err != nil {
			return err
		}
	}
	if len(messages) == 0 {
		return nil
	}

	events, ids := w.decode(ctx, messages)
	if len(events) > 0 {
		if err := w.writeWithRetry(ctx, events); err != nil {
			// Left pending; XAUTOCLAIM picks them up again.
			return err
		}
	}
	return w.ack(ctx, ids)
}

func (w *Worker) readBatch(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.batchSize),
		Block:    w.blockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) || len(streams) == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}
	return streams[0].Messages, nil
}

func (w *Worker) maybeClaimPending(ctx context.Context) ([]redis.XMessage, error) {
	if !w.lastClaim.IsZero() && time.Since(w.lastClaim) < w.claimInterval {
		return nil, nil
	}
	w.lastClaim = time.Now()

	messages, next, err := w.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		MinIdle:  w.claimIdle,
		Start:    w.claimStartID,
		Count:    int64(w.batchSize),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if next != "" {
		w.claimStartID = next
	}
	return messages, nil
}

func (w *Worker) maybeUpdateQueueDepth(ctx context.Context) {
	if !w.lastMetrics.IsZero() && time.Since(w.lastMetrics) < w.metricsInterval {
		return
	}
	w.lastMetrics = time.Now()

	groups, err := w.redis.XInfoGroups(ctx, StreamKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		w.logger.Warn("failed to read stream group info", "error", err)
		return
	}
	for _, group := range groups {
		if group.Name == ConsumerGroup {
			w.metrics.SetActivityQueueDepth(group.Pending + group.Lag)
			return
		}
	}
}

// decode returns the valid events and every entry ID. Undecodable entries
// are copied to the dead-letter stream and acked with the rest.
func (w *Worker) decode(ctx context.Context, messages []redis.XMessage) ([]*model.ActivityEvent, []string) {
	events := make([]*model.ActivityEvent, 0, len(messages))
	ids := make([]string, 0, len(messages))

	for _, msg := range messages {
		ids = append(ids, msg.ID)

		raw, ok := msg.Values["payload"].(string)
		if !ok {
			w.deadLetter(ctx, msg, "invalid_format", "payload field missing or not a string")
			continue
		}

		var payload Payload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			w.deadLetter(ctx, msg, "unmarshal_error", err.Error())
			continue
		}
		if err := ValidatePayload(payload); err != nil {
			w.deadLetter(ctx, msg, "validation_error", err.Error())
			continue
		}
		events = append(events, payload.Event())
	}
	return events, ids
}

func (w *Worker) deadLetter(ctx context.Context, msg redis.XMessage, reason, detail string) {
	w.logger.Warn("dead-lettering activity entry",
		"message_id", msg.ID,
		"reason", reason,
		"detail", detail,
	)

	err := w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: deadLetterMaxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"original_id":      msg.ID,
			"reason":           reason,
			"detail":           detail,
			"payload":          msg.Values["payload"],
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		w.logger.Error("failed to write dead-letter entry", "message_id", msg.ID, "error", err)
	}
	w.metrics.IncActivityProcessed(metrics.StatusDeadLettered)
}

// writeWithRetry stores the batch, backing off exponentially between attempts.
func (w *Worker) writeWithRetry(ctx context.Context, events []*model.ActivityEvent) error {
	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		start := time.Now()
		lastErr = w.store.RecordActivityBatch(ctx, events)
		if lastErr == nil {
			w.logger.Debug("activity batch stored",
				"events_count", len(events),
				"duration_ms", float64(time.Since(start).Microseconds())/1000,
			)
			for range events {
				w.metrics.IncActivityProcessed(metrics.StatusSuccess)
			}
			return nil
		}

		w.logger.Warn("activity batch failed",
			"attempt", attempt,
			"batch_size", len(events),
			"error", lastErr,
		)
		if attempt < w.maxRetries && !sleep(ctx, w.retryBackoff<<(attempt-1)) {
			return ctx.Err()
		}
	}

	for range events {
		w.metrics.IncActivityProcessed(metrics.StatusFailed)
	}
	return lastErr
}

func (w *Worker) ack(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := w.redis.XAck(ctx, StreamKey, ConsumerGroup, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func isBusyGroup(err error) bool {
	return strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
