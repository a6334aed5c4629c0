//go:build integration

package activity

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadreach/leadreach/internal/metrics"
	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/internal/testutil"
)

func newIntegrationClient(t *testing.T) *redis.Client {
	t.Helper()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse REDIS_URL: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	if err := testutil.FlushRedis(context.Background(), client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return client
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestIntegrationStream_PublishAndConsume(t *testing.T) {
	client := newIntegrationClient(t)
	ctx := context.Background()
	rec := metrics.NewInMemory()

	pub := NewPublisher(client, discardLogger(), rec)
	events := []*model.ActivityEvent{
		{Username: "ana", Kind: model.ActivityLogin},
		{Username: "ana", Kind: model.ActivityDiscover, Keywords: []string{"coffee"}, Cities: []string{"Austin"}, Count: 9},
	}
	for _, e := range events {
		if err := pub.RecordActivity(ctx, e); err != nil {
			t.Fatalf("RecordActivity() error = %v", err)
		}
	}

	// Poison entry: valid JSON but an unknown kind.
	if err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		Values: map[string]interface{}{"payload": `{"id":"x","u":"ana","k":"delete","t":1}`},
	}).Err(); err != nil {
		t.Fatalf("xadd poison: %v", err)
	}

	store := &fakeStore{}
	w := NewWorker(client, store, discardLogger(), NewConsumerID(), rec)
	w.SetBlockTimeout(100 * time.Millisecond)

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()

	waitFor(t, 5*time.Second, func() bool {
		_, got := store.snapshot()
		return len(got) == len(events)
	})

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := w.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-runErr; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	_, got := store.snapshot()
	if got[0].ID != events[0].ID || got[1].Count != 9 {
		t.Errorf("stored events = %+v", got)
	}

	dlq, err := client.XLen(ctx, DeadLetterStreamKey).Result()
	if err != nil || dlq != 1 {
		t.Errorf("dead-letter length = %d (err %v), want 1", dlq, err)
	}

	pending, err := client.XPending(ctx, StreamKey, ConsumerGroup).Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	if pending.Count != 0 {
		t.Errorf("pending = %d, want 0", pending.Count)
	}

	snap := rec.Snapshot()
	if snap.ActivityPublished[metrics.StatusSuccess] != 2 || snap.ActivityProcessed[metrics.StatusDeadLettered] != 1 {
		t.Errorf("activity metrics = published %v processed %v", snap.ActivityPublished, snap.ActivityProcessed)
	}
}

func TestIntegrationStream_PublishRejectsInvalid(t *testing.T) {
	client := newIntegrationClient(t)
	rec := metrics.NewInMemory()
	pub := NewPublisher(client, discardLogger(), rec)

	err := pub.RecordActivity(context.Background(), &model.ActivityEvent{Kind: model.ActivityLogin})
	if err == nil {
		t.Fatal("RecordActivity() should reject an event without a username")
	}
	if got := rec.Snapshot().ActivityPublished[metrics.StatusDropped]; got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
}
