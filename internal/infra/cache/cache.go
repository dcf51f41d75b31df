// Package cache provides a simple in-memory TTL cache.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory cache with TTL.
type InMemory[T any] struct {
	mu      sync.RWMutex
	items   map[string]entry[T]
	ttl     time.Duration
	onEvict func(key string, value T)
}

// New creates a new in-memory cache with the given TTL.
func New[T any](ttl time.Duration) *InMemory[T] {
	return NewWithEvict[T](ttl, nil)
}

// NewWithEvict creates a cache that calls onEvict for entries removed by
// TTL expiry. onEvict is not called for explicit Delete; the caller owns
// teardown in that case.
func NewWithEvict[T any](ttl time.Duration, onEvict func(key string, value T)) *InMemory[T] {
	c := &InMemory[T]{
		items:   make(map[string]entry[T]),
		ttl:     ttl,
		onEvict: onEvict,
	}
	// Background cleanup goroutine
	go c.cleanup()
	return c
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value in the cache with the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes a value from the cache.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// cleanup periodically removes expired entries.
func (c *InMemory[T]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for range ticker.C {
		var evicted []entry[T]
		var keys []string

		c.mu.Lock()
		now := time.Now()
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				if c.onEvict != nil {
					keys = append(keys, k)
					evicted = append(evicted, v)
				}
				delete(c.items, k)
			}
		}
		c.mu.Unlock()

		// Run hooks outside the lock; they may call back into the cache.
		for i, e := range evicted {
			c.onEvict(keys[i], e.value)
		}
	}
}
