package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKey = "catalog:version"

// Cache stores JSON book listings in Redis. List keys embed a namespace
// version so one INCR after an admin mutation orphans every cached page.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON loads the cached payload at key into dst, reporting a hit. A nil
// cache or missing key is a miss, never an error.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, json.Unmarshal(data, dst)
}

// SetJSON caches v under key for the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Version reads the current namespace version, zero when unset.
func (c *Cache) Version(ctx context.Context) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	v, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil {
		return 0
	}
	return v
}

// Bump advances the namespace version after a catalog mutation.
func (c *Cache) Bump(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Incr(ctx, versionKey).Err()
}

// ListKey derives the versioned cache key for one page of a list query.
func (c *Cache) ListKey(ctx context.Context, search, genre string, page, perPage int) string {
	return fmt.Sprintf("catalog:%d:list:%s:%s:%d:%d", c.Version(ctx), search, genre, page, perPage)
}
