// Package cache provides a size-bounded TTL cache with an injectable clock.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vmunix/reqarr/internal/clock"
)

const defaultSize = 1024

type entry[V any] struct {
	value     V
	storedAt  time.Time
	expiresAt time.Time
}

// TTL is a thread-safe LRU cache whose entries expire after a fixed duration.
// Expiry is checked lazily on read against the injected clock.
type TTL[K comparable, V any] struct {
	items *lru.Cache[K, entry[V]]
	ttl   time.Duration
	clock clock.Clock
}

// Option configures a TTL cache.
type Option func(*options)

type options struct {
	size  int
	clock clock.Clock
}

// WithSize bounds the number of entries (default 1024).
func WithSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.size = n
		}
	}
}

// WithClock sets the clock used for expiry (default wall clock).
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// New creates a TTL cache.
func New[K comparable, V any](ttl time.Duration, opts ...Option) *TTL[K, V] {
	o := options{size: defaultSize, clock: clock.Real{}}
	for _, opt := range opts {
		opt(&o)
	}
	// lru.New only fails for non-positive sizes, which WithSize rejects.
	items, _ := lru.New[K, entry[V]](o.size)
	return &TTL[K, V]{items: items, ttl: ttl, clock: o.clock}
}

// Get returns the cached value if present and not expired.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	v, _, ok := c.GetWithAge(key)
	return v, ok
}

// GetWithAge is Get plus how long ago the value was stored.
func (c *TTL[K, V]) GetWithAge(key K) (V, time.Duration, bool) {
	var zero V
	e, ok := c.items.Get(key)
	if !ok {
		return zero, 0, false
	}
	now := c.clock.Now()
	if !now.Before(e.expiresAt) {
		c.items.Remove(key)
		return zero, 0, false
	}
	return e.value, now.Sub(e.storedAt), true
}

// Set stores value under key for the cache's TTL.
func (c *TTL[K, V]) Set(key K, value V) {
	now := c.clock.Now()
	c.items.Add(key, entry[V]{value: value, storedAt: now, expiresAt: now.Add(c.ttl)})
}

// Delete removes key.
func (c *TTL[K, V]) Delete(key K) {
	c.items.Remove(key)
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *TTL[K, V]) Len() int {
	return c.items.Len()
}
