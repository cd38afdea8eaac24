package cache

import (
	"context"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pantry/backend/internal/domain"
)

// BigCache is a cache implementation using BigCache.
// Expiry is governed by a single life window for all entries, so the
// per-call TTL is ignored.
type BigCache struct {
	cache *bigcache.BigCache
}

var _ Backend = (*BigCache)(nil)

// BigCacheConfig holds configuration for BigCache
type BigCacheConfig struct {
	// LifeWindow is the time after which an entry can be evicted.
	// Zero keeps entries until the cache is full.
	LifeWindow time.Duration

	// Logger receives bigcache's own diagnostics (optional)
	Logger *zap.Logger
}

// NewBigCache creates a new BigCache-based cache
func NewBigCache(ctx context.Context, config BigCacheConfig) (*BigCache, error) {
	life := config.LifeWindow
	if life <= 0 {
		life = everLasting
	}

	cfg := bigcache.DefaultConfig(life)
	cfg.CleanWindow = 0
	if config.LifeWindow > 0 {
		cfg.CleanWindow = time.Minute
	}
	if config.Logger != nil {
		cfg.Logger = zap.NewStdLog(config.Logger.With(zap.String("component", "bigcache")))
	}

	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create bigcache")
	}

	return &BigCache{
		cache: cache,
	}, nil
}

// Get retrieves a value from the cache
func (b *BigCache) Get(_ context.Context, key string) (string, error) {
	data, err := b.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return "", errors.Wrapf(domain.ErrCacheMiss, "key not found in bigcache for key: %s", key)
		}
		return "", errors.Wrapf(err, "failed to get value from bigcache for key: %s", key)
	}
	return string(data), nil
}

// Set stores a value in the cache
func (b *BigCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	if err := b.cache.Set(key, []byte(value)); err != nil {
		return errors.Wrapf(err, "failed to set value in bigcache for key: %s", key)
	}
	return nil
}

// Delete removes a value from the cache
func (b *BigCache) Delete(_ context.Context, key string) error {
	err := b.cache.Delete(key)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return errors.Wrapf(err, "failed to delete value from bigcache for key: %s", key)
	}
	return nil
}

// Exists checks if a key exists in the cache
func (b *BigCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close closes the cache and releases resources
func (b *BigCache) Close() error {
	if err := b.cache.Close(); err != nil {
		return errors.Wrap(err, "failed to close bigcache")
	}
	return nil
}
