// Package cache provides the TTL read cache that fronts assignment list
// queries. Concurrent requests for one key share a single in-flight load,
// and failed loads are never cached.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a TTL cache with request coalescing. The clock is injectable so
// tests can control expiry deterministically.
type Cache[V any] struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]entry[V]
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// New creates a cache whose entries stay fresh for ttl.
func New[V any](ttl time.Duration) *Cache[V] {
	return NewWithClock[V](ttl, time.Now)
}

// NewWithClock creates a cache with an explicit clock.
func NewWithClock[V any](ttl time.Duration, now func() time.Time) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the cached value for key when it is younger than the TTL.
// Otherwise it invokes loader; concurrent callers for the same key await the
// single in-flight load and observe its result, success or failure alike.
// A successful load is cached with the current timestamp; a failed load
// caches nothing, so the next caller retries.
func (c *Cache[V]) Get(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	if value, ok := c.lookup(key); ok {
		return value, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// A coalesced caller may arrive just after the winner stored the
		// value and released the flight; recheck before loading again.
		if value, ok := c.lookup(key); ok {
			return value, nil
		}
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Invalidate removes a single entry.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll removes every entry. Callers use this after mutations whose
// affected keys cannot be enumerated (date-range keys overlap arbitrarily).
func (c *Cache[V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) store(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
}

// Key derives a cache key from a request method, path and serialized filter.
func Key(method, path string, filter any) string {
	serialized, err := json.Marshal(filter)
	if err != nil {
		// Filters are plain structs; a marshal failure is a programmer error.
		panic(fmt.Sprintf("cache: unserializable filter: %v", err))
	}
	return method + " " + path + "?" + string(serialized)
}
