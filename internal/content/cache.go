package content

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Default revalidation intervals.
const (
	DefaultTTL      = 60 * time.Second
	TestimonialsTTL = 30 * time.Minute
)

type cacheEntry struct {
	value     any
	fetchedAt time.Time
}

// Cache is a read-through cache that revalidates entries after their TTL.
// Concurrent misses for one key share a single load. When a reload fails
// and an earlier value exists, the earlier value is served, unless the
// reload reports ErrNotFound, which evicts the entry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
	logger  *slog.Logger
	now     func() time.Time
}

// NewCache returns an empty cache. A nil logger uses slog.Default().
func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		logger:  logger,
		now:     time.Now,
	}
}

// Invalidate drops every cached entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len reports the number of cached keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) lookup(key string) (cacheEntry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	return e, ok
}

func (c *Cache) get(ctx context.Context, key string, ttl time.Duration, load func(context.Context) (any, error)) (any, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	e, ok := c.lookup(key)
	if ok && c.now().Sub(e.fetchedAt) < ttl {
		return e.value, nil
	}

	// The shared load must outlive any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := load(loadCtx)
		if errors.Is(err, ErrNotFound) {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{value: value, fetchedAt: c.now()}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		// A document that is gone upstream is gone here too; only failures
		// to reach the content API fall back to the earlier value.
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if stale, ok := c.lookup(key); ok {
			c.logger.Warn("content refresh failed, serving stale value",
				"key", key,
				"age", c.now().Sub(stale.fetchedAt).Round(time.Second).String(),
				"error", err,
			)
			return stale.value, nil
		}
		return nil, err
	}
	return v, nil
}

// cached is the typed front of Cache.get. A nil cache calls load directly.
func cached[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	v, err := c.get(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
