package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/pantry/backend/internal/domain"
)

// FavoritesService keeps one favorites set per user under favorites_{user}
type FavoritesService struct {
	repo      domain.CacheRepository
	mu        sync.Mutex
	observers observers[[]string]
}

// NewFavoritesService creates a favorites service persisting through repo
func NewFavoritesService(repo domain.CacheRepository) *FavoritesService {
	return &FavoritesService{repo: repo}
}

func favoritesKey(user string) string {
	return "favorites_" + user
}

// Subscribe registers fn to receive the sorted ids after every toggle
func (s *FavoritesService) Subscribe(fn func(user string, ids []string)) func() {
	return s.observers.subscribe(fn)
}

// IDs returns the user's favorite meal ids, sorted
func (s *FavoritesService) IDs(ctx context.Context, user string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, user)
}

// IsFavorite reports whether id is a favorite of user
func (s *FavoritesService) IsFavorite(ctx context.Context, user, id string) (bool, error) {
	ids, err := s.IDs(ctx, user)
	if err != nil {
		return false, err
	}
	_, found := slices.BinarySearch(ids, id)
	return found, nil
}

// Toggle flips id in or out of the set and reports whether it is now a favorite.
// The updated set is what gets persisted.
func (s *FavoritesService) Toggle(ctx context.Context, user, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, fmt.Errorf("%w: empty meal id", domain.ErrInvalidRequest)
	}

	s.mu.Lock()
	ids, err := s.load(ctx, user)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}

	pos, found := slices.BinarySearch(ids, id)
	if found {
		ids = slices.Delete(ids, pos, pos+1)
	} else {
		ids = slices.Insert(ids, pos, id)
	}

	if err := s.save(ctx, user, ids); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	s.observers.notify(user, slices.Clone(ids))
	return !found, nil
}

func (s *FavoritesService) load(ctx context.Context, user string) ([]string, error) {
	raw, err := s.repo.Get(ctx, favoritesKey(user))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return []string{}, nil
	}
	if ids == nil {
		return []string{}, nil
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func (s *FavoritesService) save(ctx context.Context, user string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := s.repo.Set(ctx, favoritesKey(user), string(data), 0); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}
