package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pantry/backend/internal/domain"
)

// OfflineStore keeps single meals and accumulated listing pages on top of a
// key/value backend so reads can be served when the upstream is down.
type OfflineStore struct {
	repo     domain.CacheRepository
	ttl      time.Duration
	maxItems int
	locks    *keyedMutex
	logger   *zap.Logger
}

var _ domain.OfflineStore = (*OfflineStore)(nil)

// OfflineStoreConfig holds configuration for OfflineStore
type OfflineStoreConfig struct {
	// TTL applied to every written entry, zero keeps entries forever
	TTL time.Duration

	// MaxListingItems caps an accumulated listing, zero means unbounded
	MaxListingItems int
}

// NewOfflineStore creates a store writing through repo
func NewOfflineStore(repo domain.CacheRepository, cfg OfflineStoreConfig, log *zap.Logger) *OfflineStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &OfflineStore{
		repo:     repo,
		ttl:      cfg.TTL,
		maxItems: cfg.MaxListingItems,
		locks:    newKeyedMutex(),
		logger:   log.Named("offline_store"),
	}
}

// ReadAll returns the accumulated listing under key, empty when absent
func (s *OfflineStore) ReadAll(ctx context.Context, key string) ([]domain.Meal, error) {
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return []domain.Meal{}, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	var meals []domain.Meal
	if err := json.Unmarshal([]byte(raw), &meals); err != nil {
		s.logger.Warn("discarding unreadable listing", zap.String("key", key), zap.Error(err))
		return []domain.Meal{}, nil
	}
	if meals == nil {
		meals = []domain.Meal{}
	}
	return meals, nil
}

// ReadTotal returns the total stored beside key, zero when absent or unparsable
func (s *OfflineStore) ReadTotal(ctx context.Context, key string) (int, error) {
	raw, err := s.repo.Get(ctx, domain.TotalKey(key))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	total, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || total < 0 {
		return 0, nil
	}
	return total, nil
}

// WriteOrAppend replaces the listing when offset is zero and appends
// otherwise. The total is always overwritten. Writers to the same key are
// serialized so concurrent appends never lose pages. A page whose offset
// lies past the stored end (the listing expired or was evicted) is
// dropped so stored positions keep matching upstream offsets.
func (s *OfflineStore) WriteOrAppend(ctx context.Context, key string, items []domain.Meal, offset, total int) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	if total < 0 {
		total = 0
	}

	merged := items
	if offset != 0 {
		existing, err := s.ReadAll(ctx, key)
		if err != nil {
			return err
		}
		if offset > len(existing) {
			s.logger.Warn("dropping listing page past stored end",
				zap.String("key", key),
				zap.Int("offset", offset),
				zap.Int("stored", len(existing)),
			)
			if err := s.repo.Set(ctx, domain.TotalKey(key), strconv.Itoa(total), s.ttl); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
			}
			return nil
		}
		merged = append(existing, items...)
	}
	if s.maxItems > 0 && len(merged) > s.maxItems {
		s.logger.Debug("listing capped",
			zap.String("key", key),
			zap.Int("dropped", len(merged)-s.maxItems),
		)
		merged = merged[:s.maxItems]
	}
	if merged == nil {
		merged = []domain.Meal{}
	}

	if err := s.repo.Set(ctx, domain.TotalKey(key), strconv.Itoa(total), s.ttl); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal listing %s: %w", key, err)
	}
	if err := s.repo.Set(ctx, key, string(data), s.ttl); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// ReadSlice returns the [offset, offset+limit) window of the listing, clamped
// to what is stored, together with the stored total.
func (s *OfflineStore) ReadSlice(ctx context.Context, key string, offset, limit int) ([]domain.Meal, int, error) {
	all, err := s.ReadAll(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.ReadTotal(ctx, key)
	if err != nil {
		return nil, 0, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(all) {
		return []domain.Meal{}, total, nil
	}
	end := min(offset+limit, len(all))

	out := make([]domain.Meal, end-offset)
	copy(out, all[offset:end])
	return out, total, nil
}

// GetMeal returns the single-item entry for id
func (s *OfflineStore) GetMeal(ctx context.Context, id string) (*domain.Meal, error) {
	key := domain.MealCacheKey(id)
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	var meal domain.Meal
	if err := json.Unmarshal([]byte(raw), &meal); err != nil {
		s.logger.Warn("discarding unreadable meal entry", zap.String("key", key), zap.Error(err))
		return nil, domain.ErrCacheMiss
	}
	return &meal, nil
}

// PutMeal overwrites the single-item entry for meal.ID
func (s *OfflineStore) PutMeal(ctx context.Context, meal *domain.Meal) error {
	if meal == nil || meal.ID == "" {
		return fmt.Errorf("%w: meal without id", domain.ErrInvalidRequest)
	}

	data, err := json.Marshal(meal)
	if err != nil {
		return fmt.Errorf("failed to marshal meal %s: %w", meal.ID, err)
	}
	if err := s.repo.Set(ctx, domain.MealCacheKey(meal.ID), string(data), s.ttl); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}
