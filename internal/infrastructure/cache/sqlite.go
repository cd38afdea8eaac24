package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pantry/backend/internal/domain"
)

const defaultTableName = "offline_cache"

// SQLiteCache is a persistent cache implementation using GORM over SQLite
type SQLiteCache struct {
	db        *gorm.DB
	tableName string
	now       func() time.Time
}

var (
	_ Backend       = (*SQLiteCache)(nil)
	_ domain.Pruner = (*SQLiteCache)(nil)
)

type cacheEntry struct {
	Key       string         `gorm:"not null;primaryKey;size:255"`
	Value     datatypes.JSON `gorm:"not null;type:json"`
	ExpiresAt *time.Time     `gorm:"index"`
	UpdatedAt time.Time      `gorm:"not null;index"`
}

// SQLiteCacheConfig holds configuration for SQLiteCache
type SQLiteCacheConfig struct {
	// DB is the GORM database connection
	DB *gorm.DB

	// TableName is the name of the cache table
	TableName string
}

// OpenSQLite opens the database file at path with a zap-backed GORM logger
func OpenSQLite(path string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: NewGormLogger(log, 200*time.Millisecond),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database: %s", path)
	}
	return db, nil
}

// NewSQLiteCache creates a new SQLite-backed cache
func NewSQLiteCache(config *SQLiteCacheConfig) *SQLiteCache {
	if config.DB == nil {
		panic("DB is required")
	}
	tableName := config.TableName
	if tableName == "" {
		tableName = defaultTableName
	}
	db := config.DB
	if l, ok := db.Logger.(*gormLogger); ok {
		db = db.Session(&gorm.Session{Logger: l.forTable(tableName)})
	}
	return &SQLiteCache{
		db:        db,
		tableName: tableName,
		now:       time.Now,
	}
}

// Migrate creates or updates the cache table schema
func (s *SQLiteCache) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Table(s.tableName).AutoMigrate(&cacheEntry{}); err != nil {
		return errors.Wrap(err, "failed to migrate cache table")
	}
	return nil
}

func (s *SQLiteCache) live(ctx context.Context, key string) *gorm.DB {
	return s.db.WithContext(ctx).
		Table(s.tableName).
		Where("key = ? AND (expires_at IS NULL OR expires_at > ?)", key, s.now().UTC())
}

// Get retrieves a value from the cache
func (s *SQLiteCache) Get(ctx context.Context, key string) (string, error) {
	var entry cacheEntry
	if err := s.live(ctx, key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errors.Wrapf(domain.ErrCacheMiss, "key not found in sqlite cache for key: %s", key)
		}
		return "", errors.Wrapf(err, "failed to get cache entry for key: %s", key)
	}
	return string(entry.Value), nil
}

// Set stores a value in the cache, replacing any previous entry
func (s *SQLiteCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	now := s.now().UTC()
	entry := cacheEntry{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: now,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		entry.ExpiresAt = &expires
	}

	if err := s.db.WithContext(ctx).
		Table(s.tableName).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&entry).Error; err != nil {
		return errors.Wrapf(err, "failed to set cache entry for key: %s", key)
	}
	return nil
}

// Delete removes a value from the cache
func (s *SQLiteCache) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).
		Table(s.tableName).
		Where("key = ?", key).
		Delete(&cacheEntry{}).Error; err != nil {
		return errors.Wrapf(err, "failed to delete cache entry for key: %s", key)
	}
	return nil
}

// Exists checks if a live entry exists for key
func (s *SQLiteCache) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	if err := s.live(ctx, key).Count(&count).Error; err != nil {
		return false, errors.Wrapf(err, "failed to check cache entry for key: %s", key)
	}
	return count > 0, nil
}

// Prune deletes expired rows
func (s *SQLiteCache) Prune(ctx context.Context) (int, error) {
	res := s.db.WithContext(ctx).
		Table(s.tableName).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now().UTC()).
		Delete(&cacheEntry{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to prune cache table")
	}
	return int(res.RowsAffected), nil
}

// Close releases the underlying connection pool
func (s *SQLiteCache) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB")
	}
	return sqlDB.Close()
}
