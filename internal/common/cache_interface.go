package common

import "time"

// CacheInterface is the read-through cache used for hierarchies, settings
// and API key lookups.
type CacheInterface interface {
	Set(key string, value interface{}, duration time.Duration)

	// Get returns the value and true if found. Implementations backed by an
	// external store return decoded JSON; use DecodeCached to get a typed value.
	Get(key string) (interface{}, bool)

	Delete(key string)

	// GetOrSet returns the cached value or loads, stores and returns it.
	GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error)

	Close() error
}
