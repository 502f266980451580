package lrucache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundEviction(t *testing.T) {
	c := New[string, int](3)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Set("d", 4)

	assert.Equal(t, 3, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get("d")
	assert.True(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	c := New[string, int](10, WithTTL[string, int](time.Minute), WithClock[string, int](clock))

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestHasDeleteClear(t *testing.T) {
	c := New[string, int](10)
	c.Set("a", 1)
	assert.True(t, c.Has("a"))

	c.Delete("a")
	assert.False(t, c.Has("a"))

	c.Set("b", 2)
	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestUnboundedWhenMaxEntriesNonPositive(t *testing.T) {
	c := New[int, int](0)
	for i := 0; i < 100; i++ {
		c.Set(i, i)
	}
	assert.Equal(t, 100, c.Size())
}
