package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"

	"github.com/leadreach/leadreach/internal/model"
)

// Activity listing bounds.
const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

// ErrInvalidActivity is returned for events missing required fields.
var ErrInvalidActivity = errors.New("invalid activity event")

// RecordActivity inserts an activity event. ID and OccurredAt are filled
// in when empty.
func (r *Repository) RecordActivity(ctx context.Context, event *model.ActivityEvent) error {
	if event.Username == "" || event.Kind == "" {
		return ErrInvalidActivity
	}
	if event.ID == "" {
		event.ID = ulid.Make().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	query := `
		INSERT INTO activity_events (id, username, kind, group_id, keywords, cities, count, occurred_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Username,
		string(event.Kind),
		event.GroupID,
		pq.Array(nonNil(event.Keywords)),
		pq.Array(nonNil(event.Cities)),
		event.Count,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	return nil
}

// RecordActivityBatch inserts events in one round trip. Events already
// stored under the same ID are skipped, so redelivered stream entries
// are harmless.
func (r *Repository) RecordActivityBatch(ctx context.Context, events []*model.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := `
		INSERT INTO activity_events (id, username, kind, group_id, keywords, cities, count, occurred_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, event := range events {
		if event.ID == "" || event.Username == "" || event.Kind == "" {
			return ErrInvalidActivity
		}
		batch.Queue(query,
			event.ID,
			event.Username,
			string(event.Kind),
			event.GroupID,
			pq.Array(nonNil(event.Keywords)),
			pq.Array(nonNil(event.Cities)),
			event.Count,
			event.OccurredAt,
		)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to record activity batch: %w", err)
	}
	return nil
}

// ListRecentActivity returns a user's most recent events, newest first.
func (r *Repository) ListRecentActivity(ctx context.Context, username string, limit int) ([]*model.ActivityEvent, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}

	query := `
		SELECT id, username, kind, COALESCE(group_id, ''), keywords, cities, count, occurred_at
		FROM activity_events
		WHERE username = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	events := make([]*model.ActivityEvent, 0, limit)
	for rows.Next() {
		event, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return events, nil
}

func scanActivity(row pgx.Row) (*model.ActivityEvent, error) {
	var (
		event model.ActivityEvent
		kind  string
	)

	err := row.Scan(
		&event.ID,
		&event.Username,
		&kind,
		&event.GroupID,
		pq.Array(&event.Keywords),
		pq.Array(&event.Cities),
		&event.Count,
		&event.OccurredAt,
	)
	if err != nil {
		return nil, err
	}

	event.Kind = model.ActivityKind(kind)
	return &event, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
