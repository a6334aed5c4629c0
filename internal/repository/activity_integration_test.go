//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/internal/testutil"
)

func newActivityTestEnv(t *testing.T) (context.Context, *Repository, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetActivitySchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, NewFromPool(pool), pool
}

func TestIntegrationActivity_RecordAndList(t *testing.T) {
	ctx, repo, _ := newActivityTestEnv(t)

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	events := []*model.ActivityEvent{
		{Username: "ana", Kind: model.ActivityLogin, OccurredAt: base},
		{
			Username:   "ana",
			Kind:       model.ActivityDiscover,
			Keywords:   []string{"coffee", "bakery"},
			Cities:     []string{"Austin"},
			Count:      12,
			OccurredAt: base.Add(time.Minute),
		},
		{Username: "ana", Kind: model.ActivityExport, GroupID: "g-1", OccurredAt: base.Add(2 * time.Minute)},
		{Username: "bob", Kind: model.ActivityLogin, OccurredAt: base},
	}
	for _, e := range events {
		if err := repo.RecordActivity(ctx, e); err != nil {
			t.Fatalf("RecordActivity() error = %v", err)
		}
		if e.ID == "" {
			t.Fatal("RecordActivity() should assign an ID")
		}
	}

	got, err := repo.ListRecentActivity(ctx, "ana", 10)
	if err != nil {
		t.Fatalf("ListRecentActivity() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}

	if got[0].Kind != model.ActivityExport || got[0].GroupID != "g-1" {
		t.Errorf("newest event = %+v, want export of g-1", got[0])
	}
	if diff := cmp.Diff([]string{"coffee", "bakery"}, got[1].Keywords); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}
	if got[1].Count != 12 {
		t.Errorf("Count = %d, want 12", got[1].Count)
	}
	if got[2].GroupID != "" || len(got[2].Cities) != 0 {
		t.Errorf("login event should have no group or cities: %+v", got[2])
	}
}

func TestIntegrationActivity_ListLimit(t *testing.T) {
	ctx, repo, _ := newActivityTestEnv(t)

	for i := 0; i < 5; i++ {
		if err := repo.RecordActivity(ctx, &model.ActivityEvent{Username: "ana", Kind: model.ActivityLogin}); err != nil {
			t.Fatalf("RecordActivity() error = %v", err)
		}
	}

	got, err := repo.ListRecentActivity(ctx, "ana", 2)
	if err != nil {
		t.Fatalf("ListRecentActivity() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d events, want 2", len(got))
	}
}

func TestIntegrationActivity_Invalid(t *testing.T) {
	ctx, repo, _ := newActivityTestEnv(t)

	err := repo.RecordActivity(ctx, &model.ActivityEvent{Kind: model.ActivityLogin})
	if !errors.Is(err, ErrInvalidActivity) {
		t.Errorf("RecordActivity() error = %v, want ErrInvalidActivity", err)
	}
}

func TestIntegrationActivity_KindConstraint(t *testing.T) {
	ctx, _, pool := newActivityTestEnv(t)

	_, err := pool.Exec(ctx, `
		INSERT INTO activity_events (id, username, kind)
		VALUES ('x', 'ana', 'delete_everything')
	`)
	if err == nil {
		t.Error("Expected check constraint violation for unknown kind")
	}
}

func TestIntegrationActivity_Schema(t *testing.T) {
	ctx, _, pool := newActivityTestEnv(t)

	columns := []string{"id", "username", "kind", "group_id", "keywords", "cities", "count", "occurred_at"}
	for _, col := range columns {
		t.Run(col, func(t *testing.T) {
			var exists bool
			err := pool.QueryRow(ctx, `
				SELECT EXISTS (
					SELECT FROM information_schema.columns
					WHERE table_schema = 'public'
					AND table_name = 'activity_events'
					AND column_name = $1
				)
			`, col).Scan(&exists)
			if err != nil {
				t.Fatalf("column lookup failed: %v", err)
			}
			if !exists {
				t.Errorf("Column %q should exist in activity_events", col)
			}
		})
	}
}

func TestIntegrationActivity_RecordBatchIsIdempotent(t *testing.T) {
	ctx, repo, _ := newActivityTestEnv(t)

	at := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	batch := []*model.ActivityEvent{
		{ID: "01HZZZZZZZZZZZZZZZZZZZZZZ1", Username: "ana", Kind: model.ActivityLogin, OccurredAt: at},
		{ID: "01HZZZZZZZZZZZZZZZZZZZZZZ2", Username: "ana", Kind: model.ActivityExport, GroupID: "g-9", OccurredAt: at.Add(time.Second)},
	}

	for i := 0; i < 2; i++ {
		if err := repo.RecordActivityBatch(ctx, batch); err != nil {
			t.Fatalf("RecordActivityBatch() attempt %d error = %v", i+1, err)
		}
	}

	got, err := repo.ListRecentActivity(ctx, "ana", 10)
	if err != nil {
		t.Fatalf("ListRecentActivity() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].GroupID != "g-9" {
		t.Errorf("newest event group = %q, want g-9", got[0].GroupID)
	}
}

func TestIntegrationActivity_RecordBatchRejectsMissingID(t *testing.T) {
	ctx, repo, _ := newActivityTestEnv(t)

	err := repo.RecordActivityBatch(ctx, []*model.ActivityEvent{{Username: "ana", Kind: model.ActivityLogin}})
	if !errors.Is(err, ErrInvalidActivity) {
		t.Errorf("RecordActivityBatch() error = %v, want ErrInvalidActivity", err)
	}
}
