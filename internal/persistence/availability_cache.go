package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AvailabilityCache memoizes per resource+date availability grids in Redis.
// The grid is a pure function of the day's approved tickets, so a short TTL
// plus invalidation on approval keeps reads cheap without staleness risk.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAvailabilityCache builds the cache around an existing client.
func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl}
}

func availabilityKey(resourceID, date string) string {
	return fmt.Sprintf("availability:%s:%s", resourceID, date)
}

// Get returns the cached grid, or (nil, nil) on a miss.
func (c *AvailabilityCache) Get(ctx context.Context, resourceID, date string) (map[string]int, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, availabilityKey(resourceID, date)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var grid map[string]int
	if err := json.Unmarshal([]byte(raw), &grid); err != nil {
		return nil, err
	}
	return grid, nil
}

// Set stores the grid under the resource+date key.
func (c *AvailabilityCache) Set(ctx context.Context, resourceID, date string, grid map[string]int) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(grid)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, availabilityKey(resourceID, date), raw, c.ttl).Err()
}

// Invalidate drops the cached grid for one resource+date.
func (c *AvailabilityCache) Invalidate(ctx context.Context, resourceID, date string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, availabilityKey(resourceID, date)).Err()
}

// InvalidateResource drops every cached date for one resource. Used when the
// resource's quantity changes, which shifts every slot's baseline.
func (c *AvailabilityCache) InvalidateResource(ctx context.Context, resourceID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("availability:%s:*", resourceID), 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
