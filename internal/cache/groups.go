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

// GetGroups returns a cached group list for the user key.
// Returns ErrCacheMiss if absent or stale.
func (c *Cache) GetGroups(ctx context.Context, userKey string) (*model.GroupList, error) {
	data, err := c.client.Get(ctx, groupsKeyPrefix+userKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get groups: %w", err)
	}

	var list model.GroupList
	if err := json.Unmarshal(data, &list); err != nil {
		// Corrupted cache entry - treat as miss
		c.client.Del(ctx, groupsKeyPrefix+userKey)
		return nil, ErrCacheMiss
	}
	return &list, nil
}

// SetGroups caches a group list for staleTime.
func (c *Cache) SetGroups(ctx context.Context, userKey string, list *model.GroupList, staleTime time.Duration) error {
	if staleTime <= 0 {
		return nil
	}

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal groups: %w", err)
	}

	if err := c.client.Set(ctx, groupsKeyPrefix+userKey, data, staleTime).Err(); err != nil {
		return fmt.Errorf("redis set groups: %w", err)
	}
	return nil
}

// InvalidateGroups drops the cached list so the next read refetches.
func (c *Cache) InvalidateGroups(ctx context.Context, userKey string) error {
	if err := c.client.Del(ctx, groupsKeyPrefix+userKey).Err(); err != nil {
		return fmt.Errorf("redis invalidate groups: %w", err)
	}
	return nil
}
