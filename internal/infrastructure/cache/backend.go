// Package cache holds the key/value backends of the offline store and the
// meal-specific store built on top of them.
package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pantry/backend/config"
	"github.com/pantry/backend/internal/domain"
)

// Backend is a string key/value store that owns resources
type Backend interface {
	domain.CacheRepository
	Close() error
}

// New builds the backend selected by cfg.Type
func New(ctx context.Context, cfg config.CacheConfig, log *zap.Logger) (Backend, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryCache(), nil
	case "sqlite":
		db, err := OpenSQLite(cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		c := NewSQLiteCache(&SQLiteCacheConfig{DB: db, TableName: defaultTableName})
		if err := c.Migrate(ctx); err != nil {
			return nil, err
		}
		return c, nil
	case "redis":
		client, err := NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: redis ping: %v", domain.ErrCacheUnavailable, err)
		}
		return NewRedisCache(&RedisCacheConfig{Client: client, KeyPrefix: "pantry:"}), nil
	case "bigcache":
		c, err := NewBigCache(ctx, BigCacheConfig{LifeWindow: cfg.TTL, Logger: log})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "ristretto":
		c, err := NewRistrettoCache(DefaultRistrettoCacheConfig())
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Type)
	}
}

// everLasting stands in for "no expiry" on backends that need a finite window
const everLasting = 100 * 365 * 24 * time.Hour

// UserData returns the backend for carts and favorites. Those entries are
// written without a TTL and must not be evicted, so bounded caches
// (bigcache ignores per-key TTLs and ristretto may reject writes) are
// swapped for a dedicated in-memory map. The caller closes the result
// when it differs from shared.
func UserData(cfg config.CacheConfig, shared Backend, log *zap.Logger) Backend {
	switch cfg.Type {
	case "bigcache", "ristretto":
		if log != nil {
			log.Warn("cache type evicts entries, keeping carts and favorites in memory",
				zap.String("cache", cfg.Type))
		}
		return NewMemoryCache()
	default:
		return shared
	}
}
