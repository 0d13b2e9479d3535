package cache

import "time"

// Cache is a goroutine-safe key-value store with per-entry TTL.
type Cache[K comparable, V any] interface {
	// Get returns the value and whether it was present and not expired.
	Get(key K) (V, bool)

	// Set stores the value. If ttl <= 0, the entry does not expire.
	Set(key K, value V, ttl time.Duration)

	// GetOrLoad returns the cached value or stores what load returns.
	// Load errors are returned and nothing is cached.
	GetOrLoad(key K, ttl time.Duration, load func() (V, error)) (V, error)

	Delete(key K)

	// Clear drops every entry.
	Clear()

	// Len counts entries that have not expired.
	Len() int
}
