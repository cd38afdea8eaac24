package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pantry/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	data     map[string]string
	getError error
	setError error
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string]string)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return "", m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return "", domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockMealCatalog is a mock implementation of domain.MealCatalog
type MockMealCatalog struct {
	mu      sync.Mutex
	meals   map[string]domain.Meal
	listing []domain.Meal
	total   int
	err     error
	block   chan struct{}

	getCalls    int
	searchCalls int
	listCalls   int
	lastOffset  int
	lastLimit   int
	lastQuery   string
}

func NewMockMealCatalog() *MockMealCatalog {
	return &MockMealCatalog{meals: make(map[string]domain.Meal)}
}

func (m *MockMealCatalog) withMeals(meals ...domain.Meal) *MockMealCatalog {
	for _, meal := range meals {
		m.meals[meal.ID] = meal
	}
	return m
}

func (m *MockMealCatalog) withListing(n, total int) *MockMealCatalog {
	m.listing = listOfMeals(0, n)
	m.total = total
	return m
}

func (m *MockMealCatalog) setErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *MockMealCatalog) GetMeal(ctx context.Context, id string) (*domain.Meal, error) {
	m.mu.Lock()
	m.getCalls++
	block, err := m.block, m.err
	meal, ok := m.meals[id]
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrNetworkUnavailable, ctx.Err())
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %w", domain.ErrNetworkUnavailable, domain.ErrProductNotFound)
	}
	return &meal, nil
}

func (m *MockMealCatalog) SearchMeals(ctx context.Context, query string) ([]domain.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Meal
	for _, meal := range m.meals {
		out = append(out, meal)
	}
	return out, nil
}

func (m *MockMealCatalog) ListMeals(ctx context.Context, selector domain.Selector, offset, limit int) (*domain.CatalogPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	m.lastOffset, m.lastLimit = offset, limit
	if m.err != nil {
		return nil, m.err
	}
	if offset >= len(m.listing) {
		return &domain.CatalogPage{Meals: []domain.Meal{}, Total: m.total}, nil
	}
	end := min(offset+limit, len(m.listing))
	return &domain.CatalogPage{Meals: append([]domain.Meal{}, m.listing[offset:end]...), Total: m.total}, nil
}

func listOfMeals(from, to int) []domain.Meal {
	out := make([]domain.Meal, 0, to-from)
	for i := from; i < to; i++ {
		id := fmt.Sprintf("%d", 1000+i)
		out = append(out, domain.NewMeal(id, "Meal "+id, id+".jpg", nil))
	}
	return out
}
