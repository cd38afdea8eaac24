package domain

import (
	"context"
	"time"
)

// CacheRepository is the persistent key-value store behind the offline cache.
// Values are JSON text; Get returns ErrCacheMiss for absent or expired keys.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Pruner is implemented by backends that need an explicit sweep to drop expired entries
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// MealCatalog defines the interface for interacting with the upstream recipe catalog
type MealCatalog interface {
	GetMeal(ctx context.Context, id string) (*Meal, error)
	SearchMeals(ctx context.Context, query string) ([]Meal, error)
	ListMeals(ctx context.Context, selector Selector, offset, limit int) (*CatalogPage, error)
}

// OfflineStore keeps meal records and accumulated listings for offline reads
type OfflineStore interface {
	ReadAll(ctx context.Context, key string) ([]Meal, error)
	ReadTotal(ctx context.Context, key string) (int, error)
	WriteOrAppend(ctx context.Context, key string, items []Meal, offset, total int) error
	ReadSlice(ctx context.Context, key string, offset, limit int) ([]Meal, int, error)
	GetMeal(ctx context.Context, id string) (*Meal, error)
	PutMeal(ctx context.Context, meal *Meal) error
}
