package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"

	"github.com/pantry/backend/internal/domain"
)

// RedisCache is a cache implementation using Redis. Expiry is native.
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ Backend = (*RedisCache)(nil)

// RedisCacheConfig holds configuration for RedisCache
type RedisCacheConfig struct {
	// Client is the Redis client (supports both single and cluster)
	Client redis.UniversalClient

	// KeyPrefix is the prefix for all keys (optional)
	KeyPrefix string
}

// NewRedisClient builds a client from a redis:// URL
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis url")
	}
	opts.MaintNotificationsConfig = &maintnotifications.Config{
		Mode: "disabled",
	}
	return redis.NewClient(opts), nil
}

// NewRedisCache creates a new Redis-based cache with configuration
func NewRedisCache(config *RedisCacheConfig) *RedisCache {
	if config.Client == nil {
		panic("Client is required")
	}
	return &RedisCache{
		client:    config.Client,
		keyPrefix: config.KeyPrefix,
	}
}

func (r *RedisCache) prefixedKey(key string) string {
	return r.keyPrefix + key
}

// Get retrieves a value from the cache
func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.prefixedKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errors.Wrapf(domain.ErrCacheMiss, "key not found in redis cache for key: %s", key)
		}
		return "", errors.Wrapf(err, "failed to get cache entry for key: %s", key)
	}
	return value, nil
}

// Set stores a value in the cache. Zero TTL means no expiration.
func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefixedKey(key), value, ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to set cache entry for key: %s", key)
	}
	return nil
}

// Delete removes a value from the cache
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefixedKey(key)).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete cache entry for key: %s", key)
	}
	return nil
}

// Exists checks if a key exists in the cache
func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefixedKey(key)).Result()
	if err != nil {
		return false, errors.Wrapf(err, "failed to check cache entry for key: %s", key)
	}
	return n > 0, nil
}

// Close closes the underlying client
func (r *RedisCache) Close() error {
	return r.client.Close()
}
