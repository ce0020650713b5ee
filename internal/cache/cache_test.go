package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/reqarr/internal/clock"
)

func TestTTL_GetSet(t *testing.T) {
	c := New[int64, string](time.Hour)

	// Miss
	_, ok := c.Get(12345)
	assert.False(t, ok, "empty cache should miss")

	c.Set(12345, "Fight Club")
	got, ok := c.Get(12345)
	require.True(t, ok, "should hit after set")
	assert.Equal(t, "Fight Club", got)

	_, ok = c.Get(99999)
	assert.False(t, ok, "different key should miss")
}

func TestTTL_Expiry(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	c := New[string, int](30*time.Second, WithClock(fake))

	c.Set("k", 1)

	fake.Advance(29 * time.Second)
	v, age, ok := c.GetWithAge("k")
	require.True(t, ok, "should hit before TTL")
	assert.Equal(t, 1, v)
	assert.Equal(t, 29*time.Second, age)

	fake.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "should miss once TTL has elapsed")
	assert.Equal(t, 0, c.Len(), "expired entry is evicted on read")
}

func TestTTL_SizeBound(t *testing.T) {
	c := New[int, int](time.Hour, WithSize(2))

	c.Set(1, 1)
	c.Set(2, 2)
	c.Set(3, 3)

	_, ok := c.Get(1)
	assert.False(t, ok, "least recently used entry is evicted")
	assert.Equal(t, 2, c.Len())
}

func TestTTL_Delete(t *testing.T) {
	c := New[string, int](time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	assert.Equal(t, 1, c.Len())
}
