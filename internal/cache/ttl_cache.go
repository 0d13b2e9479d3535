package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiration
}

func (e entry[V]) live(at time.Time) bool {
	return e.expiresAt.IsZero() || at.Before(e.expiresAt)
}

// TTLCache is a map guarded by a RWMutex. Expired entries are dropped
// lazily on write.
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
	now   func() time.Time
}

func NewTTLCache[K comparable, V any]() *TTLCache[K, V] {
	return &TTLCache[K, V]{
		items: make(map[K]entry[V]),
		now:   time.Now,
	}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	e, ok := c.items[key]
	if !ok || !e.live(c.now()) {
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value, ttl)
}

func (c *TTLCache[K, V]) set(key K, value V, ttl time.Duration) {
	at := c.now()
	for k, e := range c.items {
		if !e.live(at) {
			delete(c.items, k)
		}
	}
	var exp time.Time
	if ttl > 0 {
		exp = at.Add(ttl)
	}
	c.items[key] = entry[V]{value: value, expiresAt: exp}
}

// GetOrLoad holds the write lock while loading so concurrent misses on the
// same cache run load once.
func (c *TTLCache[K, V]) GetOrLoad(key K, ttl time.Duration, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok && e.live(c.now()) {
		return e.value, nil
	}
	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.set(key, v, ttl)
	return v, nil
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]entry[V])
}

func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at := c.now()
	n := 0
	for _, e := range c.items {
		if e.live(at) {
			n++
		}
	}
	return n
}

var _ Cache[string, int] = (*TTLCache[string, int])(nil)
