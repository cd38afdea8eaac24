package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pantry/backend/internal/domain"
)

// MealServiceConfig holds configuration for the meal service
type MealServiceConfig struct {
	// FetchConcurrency bounds parallel detail requests in FetchMany
	FetchConcurrency int
	// FetchTimeout bounds a shared detail fetch once it no longer follows
	// the caller's context
	FetchTimeout time.Duration
}

// MealService fetches meals from the upstream catalog, writing results
// through to the offline store and falling back to it when the upstream
// cannot be reached.
type MealService struct {
	catalog     domain.MealCatalog
	store       domain.OfflineStore
	queries     *QueryPreprocessor
	group        singleflight.Group
	concurrency  int
	fetchTimeout time.Duration
	logger       *zap.Logger
}

// NewMealService creates a new meal service with dependencies
func NewMealService(
	catalog domain.MealCatalog,
	store domain.OfflineStore,
	config MealServiceConfig,
	log *zap.Logger,
) *MealService {
	if log == nil {
		log = zap.NewNop()
	}

	concurrency := config.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	fetchTimeout := config.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}

	return &MealService{
		catalog:      catalog,
		store:        store,
		queries:      NewQueryPreprocessor(log.Named("query")),
		concurrency:  concurrency,
		fetchTimeout: fetchTimeout,
		logger:       log.Named("meals"),
	}
}

// FetchByID returns the meal with the given id.
// Flow: upstream -> write meal_{id} -> return; on failure read meal_{id}.
// When neither works the error wraps domain.ErrNotAvailable and the
// upstream failure. Concurrent calls for the same id share one fetch
// that is detached from any single caller; a caller whose ctx ends stops
// waiting without failing the others.
func (s *MealService) FetchByID(ctx context.Context, id string) (*domain.MealResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty meal id", domain.ErrInvalidRequest)
	}

	ch := s.group.DoChan(id, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return s.fetchByID(shared, id)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("meal %s: %w", id, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result := *res.Val.(*domain.MealResult)
		return &result, nil
	}
}

func (s *MealService) fetchByID(ctx context.Context, id string) (*domain.MealResult, error) {
	meal, err := s.catalog.GetMeal(ctx, id)
	if err == nil {
		if putErr := s.store.PutMeal(ctx, meal); putErr != nil {
			s.logger.Warn("write-through failed", zap.String("id", id), zap.Error(putErr))
		}
		return &domain.MealResult{Meal: *meal, Source: domain.SourceNetwork}, nil
	}

	cached, cacheErr := s.store.GetMeal(ctx, id)
	if cacheErr != nil {
		if !errors.Is(cacheErr, domain.ErrCacheMiss) {
			s.logger.Error("offline read failed", zap.String("id", id), zap.Error(cacheErr))
		}
		return nil, fmt.Errorf("%w: meal %s: %w", domain.ErrNotAvailable, id, err)
	}

	s.logger.Info("serving meal from offline cache", zap.String("id", id), zap.Error(err))
	return &domain.MealResult{Meal: *cached, Source: domain.SourceFallback}, nil
}

// Search runs a free-text search. Results are never cached; a failed search
// yields an empty, degraded result instead of an error.
func (s *MealService) Search(ctx context.Context, query string) *domain.SearchResult {
	query = s.queries.Preprocess(query)
	if query == "" {
		return &domain.SearchResult{Meals: []domain.Meal{}, Source: domain.SourceNetwork}
	}

	meals, err := s.catalog.SearchMeals(ctx, query)
	if err != nil {
		s.logger.Warn("search failed, returning empty result", zap.String("query", query), zap.Error(err))
		return &domain.SearchResult{Meals: []domain.Meal{}, Source: domain.SourceNetwork, Degraded: true}
	}
	if meals == nil {
		meals = []domain.Meal{}
	}
	return &domain.SearchResult{Meals: meals, Source: domain.SourceNetwork}
}

// FetchPage fetches one listing page and accumulates it in the offline
// store. On upstream failure the same window is served from the store.
// It never fails: an unreadable store yields an empty fallback page.
func (s *MealService) FetchPage(ctx context.Context, selector domain.Selector, offset, limit int) *domain.PageResult {
	key := selector.CacheKey()

	page, err := s.catalog.ListMeals(ctx, selector, offset, limit)
	if err == nil {
		if writeErr := s.store.WriteOrAppend(ctx, key, page.Meals, offset, page.Total); writeErr != nil {
			s.logger.Warn("failed to cache listing page", zap.String("key", key), zap.Error(writeErr))
		}
		meals := page.Meals
		if meals == nil {
			meals = []domain.Meal{}
		}
		return &domain.PageResult{Meals: meals, Total: page.Total, Source: domain.SourceNetwork}
	}

	s.logger.Warn("listing fetch failed, falling back to offline cache",
		zap.String("key", key),
		zap.Int("offset", offset),
		zap.Error(err),
	)

	meals, total, readErr := s.store.ReadSlice(ctx, key, offset, limit)
	if readErr != nil {
		s.logger.Error("offline listing read failed", zap.String("key", key), zap.Error(readErr))
		return &domain.PageResult{Meals: []domain.Meal{}, Source: domain.SourceFallback}
	}
	return &domain.PageResult{Meals: meals, Total: total, Source: domain.SourceFallback}
}

// FetchMany fetches several meals in parallel, preserving the order of ids.
// It fails if any meal is unavailable.
func (s *MealService) FetchMany(ctx context.Context, ids []string) ([]domain.MealResult, error) {
	results := make([]domain.MealResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			res, err := s.FetchByID(gctx, id)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
