// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/migrations"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420421

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetActivitySchema drops and recreates the activity_events table.
func ResetActivitySchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000001_activity_events")
}

func resetSchema(ctx context.Context, pool *pgxpool.Pool, migration string) error {
	for _, direction := range []string{"down", "up"} {
		sql, err := fs.ReadFile(migrations.FS, migration+"."+direction+".sql")
		if err != nil {
			return fmt.Errorf("read %s migration: %w", direction, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s migration: %w", direction, err)
		}
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestGroup creates a business group with sensible defaults.
func NewTestGroup(t testing.TB, id string, businessCount int) model.BusinessGroup {
	t.Helper()
	return model.BusinessGroup{
		ID:            id,
		Name:          "Coffee in Austin " + id,
		Keywords:      []string{"coffee"},
		Cities:        []string{"Austin"},
		BusinessCount: businessCount,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewTestDetails creates group details with n businesses.
func NewTestDetails(t testing.TB, name string, n int) *model.GroupDetails {
	t.Helper()
	businesses := make([]model.Business, 0, n)
	for i := 0; i < n; i++ {
		businesses = append(businesses, model.Business{
			Name:    fmt.Sprintf("Business %d", i+1),
			Address: fmt.Sprintf("%d Main St", 100+i),
			Phone:   "555-0100",
			Website: "example.com",
		})
	}
	return &model.GroupDetails{
		Export: model.GroupExport{
			Name:        name,
			Keywords:    []string{"coffee"},
			Cities:      []string{"Austin"},
			ActualCount: n,
		},
		Businesses: businesses,
		Total:      n,
	}
}

// NewTestSession creates a live session for username.
func NewTestSession(t testing.TB, username string) *model.Session {
	t.Helper()
	now := time.Now().UTC()
	return &model.Session{
		ID:        UniqueID("sess"),
		Token:     "token-" + username,
		User:      model.User{Username: username},
		CSRFToken: UniqueID("csrf"),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
