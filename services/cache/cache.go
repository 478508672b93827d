package cache

import (
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache: miss")

// CacheService represents a generic cache service. The scraper uses it to
// remember per-host block windows after a site rate-limits us.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// Noop is the cache used when no memcache address is configured. Every Get
// misses, so no host is ever considered blocked.
type Noop struct{}

// NewNoop creates a no-op cache service
func NewNoop() *Noop {
	return &Noop{}
}

// Get always reports a miss
func (n *Noop) Get(key string) ([]byte, error) {
	return nil, ErrCacheMiss
}

// Set discards the value
func (n *Noop) Set(key string, value []byte, expiration time.Duration) error {
	return nil
}

// Delete does nothing
func (n *Noop) Delete(key string) error {
	return nil
}
