package cache

import (
	"context"
	"time"
)

// LayeredCache checks a fast front cache before a slower backing cache
type LayeredCache struct {
	front Cache
	back  Cache
}

// NewLayeredCache creates a layered cache (typically memory over disk or redis)
func NewLayeredCache(front, back Cache) *LayeredCache {
	return &LayeredCache{
		front: front,
		back:  back,
	}
}

// Get retrieves a value from the cache (checks front first, then back)
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, found := c.front.Get(ctx, key); found {
		return val, true
	}

	if val, found := c.back.Get(ctx, key); found {
		// Promote to the front cache with its default TTL
		_ = c.front.Set(ctx, key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores a value in both caches
func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.front.Set(ctx, key, value, ttl); err != nil {
		return err
	}

	if err := c.back.Set(ctx, key, value, ttl); err != nil {
		return err
	}

	return nil
}

// Delete removes a value from both caches
func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	_ = c.front.Delete(ctx, key)
	return c.back.Delete(ctx, key)
}

// Clear removes all values from both caches
func (c *LayeredCache) Clear(ctx context.Context) error {
	_ = c.front.Clear(ctx)
	return c.back.Clear(ctx)
}
