package tmdb

import (
	"time"

	"github.com/vmunix/reqarr/internal/cache"
	"github.com/vmunix/reqarr/internal/clock"
)

const defaultCacheSize = 2048

// responseCache holds raw response bodies keyed by request path, so every
// endpoint shares one bounded cache.
type responseCache struct {
	entries *cache.TTL[string, []byte]
}

func newCache(ttl time.Duration, clk clock.Clock) *responseCache {
	return &responseCache{
		entries: cache.New[string, []byte](ttl, cache.WithSize(defaultCacheSize), cache.WithClock(clk)),
	}
}

func (c *responseCache) get(key string) ([]byte, bool) {
	return c.entries.Get(key)
}

func (c *responseCache) set(key string, body []byte) {
	c.entries.Set(key, body)
}
