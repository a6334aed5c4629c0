package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadreach/leadreach/internal/model"
)

const (
	// flashTTL bounds how long an undelivered flash survives.
	flashTTL = 5 * time.Minute
)

// ErrCorruptEntry is returned when a stored value cannot be decoded.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// GetSession loads a session by ID.
// Returns ErrCacheMiss if not found and ErrCorruptEntry if undecodable.
func (c *Cache) GetSession(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, ErrCorruptEntry
	}
	return &sess, nil
}

// SaveSession stores a session until its expiry.
func (c *Cache) SaveSession(ctx context.Context, sess *model.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return c.DeleteSession(ctx, sess.ID)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := c.client.Set(ctx, sessionKeyPrefix+sess.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// DeleteSession removes a session and any pending flashes.
func (c *Cache) DeleteSession(ctx context.Context, id string) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, sessionKeyPrefix+id)
	pipe.Del(ctx, flashKeyPrefix+id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// PushFlash queues a flash for the session's next page.
func (c *Cache) PushFlash(ctx context.Context, sessionID string, flash model.Flash) error {
	data, err := json.Marshal(flash)
	if err != nil {
		return fmt.Errorf("marshal flash: %w", err)
	}

	key := flashKeyPrefix + sessionID
	pipe := c.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, flashTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis push flash: %w", err)
	}
	return nil
}

// PopFlashes returns and clears all queued flashes, oldest first.
func (c *Cache) PopFlashes(ctx context.Context, sessionID string) ([]model.Flash, error) {
	key := flashKeyPrefix + sessionID

	pipe := c.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis pop flashes: %w", err)
	}

	raw := rangeCmd.Val()
	flashes := make([]model.Flash, 0, len(raw))
	for _, item := range raw {
		var f model.Flash
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			continue
		}
		flashes = append(flashes, f)
	}
	return flashes, nil
}
