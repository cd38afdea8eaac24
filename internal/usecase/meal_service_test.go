package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pantry/backend/internal/domain"
	"github.com/pantry/backend/internal/infrastructure/cache"
)

var errOffline = errors.New("dial tcp: network is unreachable")

func newTestMealService(catalog domain.MealCatalog) (*MealService, *cache.OfflineStore) {
	store := cache.NewOfflineStore(cache.NewMemoryCache(), cache.OfflineStoreConfig{}, nil)
	return NewMealService(catalog, store, MealServiceConfig{}, nil), store
}

func TestNewMealService(t *testing.T) {
	svc := NewMealService(NewMockMealCatalog(), nil, MealServiceConfig{}, nil)
	assert.Equal(t, 4, svc.concurrency)
	assert.Equal(t, 30*time.Second, svc.fetchTimeout)

	svc = NewMealService(NewMockMealCatalog(), nil, MealServiceConfig{FetchConcurrency: 8, FetchTimeout: time.Second}, nil)
	assert.Equal(t, 8, svc.concurrency)
	assert.Equal(t, time.Second, svc.fetchTimeout)
}

func TestFetchByID(t *testing.T) {
	ctx := context.Background()
	teriyaki := domain.NewMeal("52772", "Teriyaki Chicken", "t.jpg", nil)

	t.Run("online fetch writes through and offline fetch reads it back", func(t *testing.T) {
		catalog := NewMockMealCatalog().withMeals(teriyaki)
		svc, store := newTestMealService(catalog)

		online, err := svc.FetchByID(ctx, "52772")
		require.NoError(t, err)
		assert.Equal(t, domain.SourceNetwork, online.Source)
		assert.Equal(t, teriyaki, online.Meal)

		cached, err := store.GetMeal(ctx, "52772")
		require.NoError(t, err)
		assert.Equal(t, teriyaki, *cached)

		catalog.setErr(errOffline)

		offline, err := svc.FetchByID(ctx, "52772")
		require.NoError(t, err)
		assert.Equal(t, domain.SourceFallback, offline.Source)
		assert.Equal(t, online.Meal, offline.Meal)
	})

	t.Run("failure without cache entry propagates both errors", func(t *testing.T) {
		catalog := NewMockMealCatalog()
		upstreamErr := errors.Join(domain.ErrNetworkUnavailable, errOffline)
		catalog.setErr(upstreamErr)
		svc, _ := newTestMealService(catalog)

		_, err := svc.FetchByID(ctx, "999")
		assert.ErrorIs(t, err, domain.ErrNotAvailable)
		assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)
		assert.ErrorIs(t, err, errOffline)
	})

	t.Run("malformed detail falls back like any failure", func(t *testing.T) {
		catalog := NewMockMealCatalog().withMeals(teriyaki)
		svc, _ := newTestMealService(catalog)
		_, err := svc.FetchByID(ctx, "52772")
		require.NoError(t, err)

		catalog.setErr(domain.ErrMalformedUpstream)
		res, err := svc.FetchByID(ctx, "52772")
		require.NoError(t, err)
		assert.Equal(t, domain.SourceFallback, res.Source)
	})

	t.Run("write-through failure still returns the fresh meal", func(t *testing.T) {
		repo := NewMockCacheRepository()
		repo.setError = errors.New("disk full")
		store := cache.NewOfflineStore(repo, cache.OfflineStoreConfig{}, nil)
		svc := NewMealService(NewMockMealCatalog().withMeals(teriyaki), store, MealServiceConfig{}, nil)

		res, err := svc.FetchByID(ctx, "52772")
		require.NoError(t, err)
		assert.Equal(t, domain.SourceNetwork, res.Source)
	})

	t.Run("blank id is rejected", func(t *testing.T) {
		catalog := NewMockMealCatalog()
		svc, _ := newTestMealService(catalog)

		_, err := svc.FetchByID(ctx, "  ")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		assert.Zero(t, catalog.getCalls)
	})
}

func TestFetchByID_CollapsesConcurrentCalls(t *testing.T) {
	catalog := NewMockMealCatalog().withMeals(domain.NewMeal("7", "Stew", "", nil))
	catalog.block = make(chan struct{})
	svc, _ := newTestMealService(catalog)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.FetchByID(context.Background(), "7")
			assert.NoError(t, err)
			assert.Equal(t, "Stew", res.Meal.Name)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(catalog.block)
	wg.Wait()

	assert.Equal(t, 1, catalog.getCalls)
}

func TestFetchByID_CallerCancellationDoesNotFailOthers(t *testing.T) {
	catalog := NewMockMealCatalog().withMeals(domain.NewMeal("7", "Stew", "", nil))
	catalog.block = make(chan struct{})
	svc, store := newTestMealService(catalog)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	errA := make(chan error, 1)
	go func() {
		_, err := svc.FetchByID(ctxA, "7")
		errA <- err
	}()
	require.Eventually(t, func() bool {
		catalog.mu.Lock()
		defer catalog.mu.Unlock()
		return catalog.getCalls == 1
	}, time.Second, 5*time.Millisecond)

	type outcome struct {
		res *domain.MealResult
		err error
	}
	doneB := make(chan outcome, 1)
	go func() {
		res, err := svc.FetchByID(context.Background(), "7")
		doneB <- outcome{res, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(catalog.block)
	select {
	case got := <-doneB:
		require.NoError(t, got.err)
		assert.Equal(t, "Stew", got.res.Meal.Name)
		assert.Equal(t, domain.SourceNetwork, got.res.Source)
	case <-time.After(time.Second):
		t.Fatal("waiting caller did not return")
	}
	assert.Equal(t, 1, catalog.getCalls)

	cached, err := store.GetMeal(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Stew", cached.Name)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("blank query makes no upstream call", func(t *testing.T) {
		catalog := NewMockMealCatalog()
		svc, _ := newTestMealService(catalog)

		for _, q := range []string{"", "   ", "\t"} {
			res := svc.Search(ctx, q)
			assert.Empty(t, res.Meals)
			assert.False(t, res.Degraded)
		}
		assert.Zero(t, catalog.searchCalls)
	})

	t.Run("returns matches", func(t *testing.T) {
		catalog := NewMockMealCatalog().withMeals(domain.NewMeal("1", "Curry", "", nil))
		svc, _ := newTestMealService(catalog)

		res := svc.Search(ctx, " easy curry recipe ")
		assert.Equal(t, "curry", catalog.lastQuery)
		require.Len(t, res.Meals, 1)
		assert.Equal(t, domain.SourceNetwork, res.Source)
		assert.False(t, res.Degraded)
	})

	t.Run("failure yields empty degraded result and a warning", func(t *testing.T) {
		catalog := NewMockMealCatalog()
		catalog.setErr(errOffline)
		core, logs := observer.New(zap.WarnLevel)
		store := cache.NewOfflineStore(cache.NewMemoryCache(), cache.OfflineStoreConfig{}, nil)
		svc := NewMealService(catalog, store, MealServiceConfig{}, zap.New(core))

		res := svc.Search(ctx, "curry")
		assert.NotNil(t, res.Meals)
		assert.Empty(t, res.Meals)
		assert.True(t, res.Degraded)
		assert.Equal(t, 1, logs.Len())
	})
}

func TestFetchPage(t *testing.T) {
	ctx := context.Background()
	all := domain.NewSelector(domain.CategoryAll)

	t.Run("pages accumulate and are served offline", func(t *testing.T) {
		catalog := NewMockMealCatalog().withListing(100, 100)
		svc, store := newTestMealService(catalog)

		first := svc.FetchPage(ctx, all, 0, 40)
		assert.Equal(t, domain.SourceNetwork, first.Source)
		assert.Len(t, first.Meals, 40)
		assert.Equal(t, 100, first.Total)

		second := svc.FetchPage(ctx, all, 40, 10)
		assert.Len(t, second.Meals, 10)

		stored, err := store.ReadAll(ctx, "meals_All")
		require.NoError(t, err)
		assert.Equal(t, listOfMeals(0, 50), stored)

		catalog.setErr(errOffline)

		offline := svc.FetchPage(ctx, all, 40, 10)
		assert.Equal(t, domain.SourceFallback, offline.Source)
		assert.Equal(t, listOfMeals(40, 50), offline.Meals)
		assert.Equal(t, 100, offline.Total)

		beyond := svc.FetchPage(ctx, all, 50, 10)
		assert.Equal(t, domain.SourceFallback, beyond.Source)
		assert.Empty(t, beyond.Meals)
	})

	t.Run("selector decides the cache key", func(t *testing.T) {
		catalog := NewMockMealCatalog().withListing(5, 5)
		svc, store := newTestMealService(catalog)

		svc.FetchPage(ctx, domain.NewSelector("Beef", "Fish"), 0, 40)

		stored, err := store.ReadAll(ctx, "meals_Beef,Fish")
		require.NoError(t, err)
		assert.Len(t, stored, 5)
		total, _ := store.ReadTotal(ctx, "meals_Beef,Fish")
		assert.Equal(t, 5, total)
	})

	t.Run("offline with nothing cached is an empty page", func(t *testing.T) {
		catalog := NewMockMealCatalog()
		catalog.setErr(errOffline)
		svc, _ := newTestMealService(catalog)

		res := svc.FetchPage(ctx, all, 0, 40)
		assert.Equal(t, domain.SourceFallback, res.Source)
		assert.NotNil(t, res.Meals)
		assert.Empty(t, res.Meals)
		assert.Zero(t, res.Total)
	})

	t.Run("broken store during fallback never fails", func(t *testing.T) {
		repo := NewMockCacheRepository()
		repo.getError = errors.New("io error")
		store := cache.NewOfflineStore(repo, cache.OfflineStoreConfig{}, nil)
		catalog := NewMockMealCatalog()
		catalog.setErr(errOffline)
		svc := NewMealService(catalog, store, MealServiceConfig{}, nil)

		res := svc.FetchPage(ctx, all, 0, 40)
		assert.Equal(t, domain.SourceFallback, res.Source)
		assert.Empty(t, res.Meals)
	})
}

func TestFetchMany(t *testing.T) {
	ctx := context.Background()
	a := domain.NewMeal("1", "A", "", nil)
	b := domain.NewMeal("2", "B", "", nil)
	c := domain.NewMeal("3", "C", "", nil)

	t.Run("preserves order", func(t *testing.T) {
		svc, _ := newTestMealService(NewMockMealCatalog().withMeals(a, b, c))

		res, err := svc.FetchMany(ctx, []string{"3", "1", "2"})
		require.NoError(t, err)
		require.Len(t, res, 3)
		assert.Equal(t, "C", res[0].Meal.Name)
		assert.Equal(t, "A", res[1].Meal.Name)
		assert.Equal(t, "B", res[2].Meal.Name)
	})

	t.Run("fails when one meal is unavailable", func(t *testing.T) {
		svc, _ := newTestMealService(NewMockMealCatalog().withMeals(a))

		_, err := svc.FetchMany(ctx, []string{"1", "404"})
		assert.ErrorIs(t, err, domain.ErrNotAvailable)
	})

	t.Run("empty input", func(t *testing.T) {
		svc, _ := newTestMealService(NewMockMealCatalog())

		res, err := svc.FetchMany(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, res)
	})
}
