package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pantry/backend/internal/domain"
)

// CartService keeps one cart per user under cart_{user}
type CartService struct {
	repo      domain.CacheRepository
	mu        sync.Mutex
	observers observers[[]domain.CartItem]
}

// NewCartService creates a cart service persisting through repo
func NewCartService(repo domain.CacheRepository) *CartService {
	return &CartService{repo: repo}
}

func cartKey(user string) string {
	return "cart_" + user
}

// Subscribe registers fn to receive the cart after every change.
// The returned func removes the subscription.
func (s *CartService) Subscribe(fn func(user string, items []domain.CartItem)) func() {
	return s.observers.subscribe(fn)
}

// Items returns the user's cart in insertion order
func (s *CartService) Items(ctx context.Context, user string) ([]domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, user)
}

// Contains reports whether id is in the user's cart
func (s *CartService) Contains(ctx context.Context, user, id string) (bool, error) {
	items, err := s.Items(ctx, user)
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if it.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// Add puts one more of id into the cart
func (s *CartService) Add(ctx context.Context, user, id string) ([]domain.CartItem, error) {
	return s.mutate(ctx, user, id, func(items []domain.CartItem) []domain.CartItem {
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity++
				return items
			}
		}
		return append(items, domain.CartItem{ID: id, Quantity: 1})
	})
}

// UpdateQuantity sets the quantity of id; zero or less removes it
func (s *CartService) UpdateQuantity(ctx context.Context, user, id string, quantity int) ([]domain.CartItem, error) {
	if quantity <= 0 {
		return s.Remove(ctx, user, id)
	}
	return s.mutate(ctx, user, id, func(items []domain.CartItem) []domain.CartItem {
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity = quantity
				return items
			}
		}
		return items
	})
}

// Remove drops id from the cart
func (s *CartService) Remove(ctx context.Context, user, id string) ([]domain.CartItem, error) {
	return s.mutate(ctx, user, id, func(items []domain.CartItem) []domain.CartItem {
		out := items[:0]
		for _, it := range items {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out
	})
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, user string) error {
	s.mu.Lock()
	if err := s.save(ctx, user, nil); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.observers.notify(user, []domain.CartItem{})
	return nil
}

func (s *CartService) mutate(
	ctx context.Context, user, id string, fn func([]domain.CartItem) []domain.CartItem,
) ([]domain.CartItem, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty meal id", domain.ErrInvalidRequest)
	}

	s.mu.Lock()
	items, err := s.load(ctx, user)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	items = fn(items)
	if err := s.save(ctx, user, items); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	snapshot := append([]domain.CartItem{}, items...)
	s.observers.notify(user, snapshot)
	return snapshot, nil
}

func (s *CartService) load(ctx context.Context, user string) ([]domain.CartItem, error) {
	raw, err := s.repo.Get(ctx, cartKey(user))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return []domain.CartItem{}, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []domain.CartItem{}, nil
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	return items, nil
}

func (s *CartService) save(ctx context.Context, user string, items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	// carts are user data and never expire
	if err := s.repo.Set(ctx, cartKey(user), string(data), 0); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}
