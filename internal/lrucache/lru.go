// Package lrucache implements the bounded, optionally-TTL'd associative
// store described in spec §4.7: eviction is by insertion order
// (createdAt), not by access recency, which is why this is hand-rolled
// instead of wrapping hashicorp/golang-lru -- that library (wired
// elsewhere, see internal/embedder/cache.go) evicts by access recency, a
// different policy.
package lrucache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a bounded map[K]V with optional TTL and oldest-first eviction.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	entries map[K]*list.Element
	order   *list.List // front = oldest, back = newest
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	createdAt time.Time
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithTTL sets a positive time-to-live; entries older than ttl are evicted
// lazily on Get. A zero or negative ttl disables expiry (the default).
func WithTTL[K comparable, V any](ttl time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) { c.ttl = ttl }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *Cache[K, V]) { c.now = now }
}

// New creates a Cache bounded to maxEntries. maxEntries <= 0 means
// unbounded.
func New[K comparable, V any](maxEntries int, opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		maxEntries: maxEntries,
		entries:    make(map[K]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key, stamping createdAt = now. If key already
// exists its entry is replaced and moved to the back (newest) as if
// freshly inserted. If the cache is then over its bound, the oldest
// entries are evicted until within bound.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}

	el := c.order.PushBack(&entry[K, V]{key: key, value: value, createdAt: c.now()})
	c.entries[key] = el

	if c.maxEntries > 0 {
		for len(c.entries) > c.maxEntries {
			c.evictOldestLocked()
		}
	}
}

// Get returns the value for key. If key is absent, or present but expired
// under the configured TTL, it returns the zero value and false; an
// expired entry is evicted as a side effect.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	e := el.Value.(*entry[K, V])
	if c.ttl > 0 && c.now().Sub(e.createdAt) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		var zero V
		return zero, false
	}

	return e.value, true
}

// Has reports whether key is present without checking TTL expiry or
// touching ordering.
func (c *Cache[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Delete removes key if present.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
}

// Clear empties the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*list.Element)
	c.order.Init()
}

// Size returns the current number of entries, including any not yet
// lazily expired.
func (c *Cache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[K, V]) evictOldestLocked() {
	front := c.order.Front()
	if front == nil {
		return
	}
	e := front.Value.(*entry[K, V])
	c.order.Remove(front)
	delete(c.entries, e.key)
}
