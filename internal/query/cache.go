// Package query caches backend reads under slash-separated keys and drops
// them when a mutation names their key or a parent prefix.
package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultSize      = 256
	DefaultStaleTime = 30 * time.Second
)

type entry struct {
	value     any
	fetchedAt time.Time
}

// Cache is a bounded, keyed result cache. Results older than the stale time
// are refetched on the next Fetch. Errors are never cached.
type Cache struct {
	mu        sync.Mutex
	entries   *lru.Cache[string, entry]
	staleTime time.Duration
	now       func() time.Time
}

// New creates a Cache holding at most size entries.
func New(size int, staleTime time.Duration) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &Cache{entries: entries, staleTime: staleTime, now: time.Now}, nil
}

// Key joins parts into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}

// Fetch returns the fresh cached value for key or calls fn and caches its result.
// Concurrent fetches of the same key both run; the last one written wins.
func (c *Cache) Fetch(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if v, ok := c.fresh(key); ok {
		return v, nil
	}
	v, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(key, v)
	return v, nil
}

// Peek returns the cached value for key even when stale.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Peek(key)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores v under key.
func (c *Cache) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, entry{value: v, fetchedAt: c.now()})
}

// Invalidate drops every key equal to one of prefixes or nested under it.
// It returns the number of entries removed.
func (c *Cache) Invalidate(prefixes ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range c.entries.Keys() {
		for _, p := range prefixes {
			if key == p || strings.HasPrefix(key, p+"/") {
				c.entries.Remove(key)
				removed++
				break
			}
		}
	}
	return removed
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

func (c *Cache) fresh(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Get(key)
	if !ok || c.now().Sub(e.fetchedAt) >= c.staleTime {
		return nil, false
	}
	return e.value, true
}

// Get is the typed form of Fetch.
func Get[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query %s: cached %T, want %T", key, v, zero)
	}
	return typed, nil
}

// Mutate runs fn and, only when it succeeds, invalidates the given keys.
func Mutate(ctx context.Context, c *Cache, fn func(context.Context) error, invalidate ...string) error {
	if err := fn(ctx); err != nil {
		return err
	}
	c.Invalidate(invalidate...)
	return nil
}

// Run is Mutate for functions that return a value.
func Run[T any](ctx context.Context, c *Cache, fn func(context.Context) (T, error), invalidate ...string) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	c.Invalidate(invalidate...)
	return v, nil
}
