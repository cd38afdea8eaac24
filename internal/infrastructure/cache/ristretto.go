package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"

	"github.com/pantry/backend/internal/domain"
)

// RistrettoCache is a cache implementation using ristretto.
// Entries are costed by their byte length.
type RistrettoCache struct {
	cache *ristretto.Cache[string, string]
}

var _ Backend = (*RistrettoCache)(nil)

// DefaultRistrettoCacheConfig returns a default configuration
func DefaultRistrettoCacheConfig() *ristretto.Config[string, string] {
	return &ristretto.Config[string, string]{
		NumCounters: 1e6,     // ~100k live entries
		MaxCost:     1 << 26, // 64MB of values
		BufferItems: 64,
	}
}

// NewRistrettoCache creates a new ristretto-based cache
func NewRistrettoCache(config *ristretto.Config[string, string]) (*RistrettoCache, error) {
	cache, err := ristretto.NewCache(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ristretto cache")
	}
	return &RistrettoCache{cache: cache}, nil
}

// Get retrieves a value from the cache
func (r *RistrettoCache) Get(_ context.Context, key string) (string, error) {
	value, found := r.cache.Get(key)
	if !found {
		return "", errors.Wrapf(domain.ErrCacheMiss, "key not found in ristretto cache for key: %s", key)
	}
	return value, nil
}

// Set stores a value in the cache. Writes dropped by the set buffer or
// rejected by the admission policy fail with domain.ErrCacheUnavailable.
func (r *RistrettoCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if !r.cache.SetWithTTL(key, value, int64(len(value))+1, ttl) {
		return errors.Wrapf(domain.ErrCacheUnavailable, "ristretto dropped write for key: %s", key)
	}
	r.cache.Wait()

	// admission runs after the buffer drains
	if _, found := r.cache.Get(key); !found {
		return errors.Wrapf(domain.ErrCacheUnavailable, "ristretto rejected write for key: %s", key)
	}
	return nil
}

// Delete removes a value from the cache
func (r *RistrettoCache) Delete(_ context.Context, key string) error {
	r.cache.Del(key)
	r.cache.Wait()
	return nil
}

// Exists checks if a key exists in the cache
func (r *RistrettoCache) Exists(_ context.Context, key string) (bool, error) {
	_, found := r.cache.Get(key)
	return found, nil
}

// Close closes the cache and stops all background goroutines
func (r *RistrettoCache) Close() error {
	r.cache.Close()
	return nil
}
