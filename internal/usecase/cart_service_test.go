package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantry/backend/internal/domain"
)

func TestCartService(t *testing.T) {
	ctx := context.Background()

	t.Run("add increments existing lines and appends new ones", func(t *testing.T) {
		svc := NewCartService(NewMockCacheRepository())

		_, err := svc.Add(ctx, "alice", "1")
		require.NoError(t, err)
		_, err = svc.Add(ctx, "alice", "2")
		require.NoError(t, err)
		items, err := svc.Add(ctx, "alice", "1")
		require.NoError(t, err)

		assert.Equal(t, []domain.CartItem{{ID: "1", Quantity: 2}, {ID: "2", Quantity: 1}}, items)
	})

	t.Run("update quantity and remove", func(t *testing.T) {
		svc := NewCartService(NewMockCacheRepository())
		_, _ = svc.Add(ctx, "alice", "1")
		_, _ = svc.Add(ctx, "alice", "2")

		items, err := svc.UpdateQuantity(ctx, "alice", "1", 5)
		require.NoError(t, err)
		assert.Equal(t, 5, items[0].Quantity)

		items, err = svc.UpdateQuantity(ctx, "alice", "1", 0)
		require.NoError(t, err)
		assert.Equal(t, []domain.CartItem{{ID: "2", Quantity: 1}}, items)

		// unknown id is a no-op
		items, err = svc.UpdateQuantity(ctx, "alice", "9", 3)
		require.NoError(t, err)
		assert.Len(t, items, 1)

		items, err = svc.Remove(ctx, "alice", "2")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("contains and clear", func(t *testing.T) {
		svc := NewCartService(NewMockCacheRepository())
		_, _ = svc.Add(ctx, "alice", "1")

		ok, err := svc.Contains(ctx, "alice", "1")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, svc.Clear(ctx, "alice"))
		items, err := svc.Items(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("carts are partitioned by user and persisted", func(t *testing.T) {
		repo := NewMockCacheRepository()
		svc := NewCartService(repo)
		_, _ = svc.Add(ctx, "alice", "1")
		_, _ = svc.Add(ctx, "bob", "2")

		assert.JSONEq(t, `[{"id":"1","quantity":1}]`, repo.data["cart_alice"])
		assert.JSONEq(t, `[{"id":"2","quantity":1}]`, repo.data["cart_bob"])

		// a fresh service sees the persisted state
		items, err := NewCartService(repo).Items(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []domain.CartItem{{ID: "1", Quantity: 1}}, items)
	})

	t.Run("observers get a snapshot after every change", func(t *testing.T) {
		svc := NewCartService(NewMockCacheRepository())

		var seen [][]domain.CartItem
		unsubscribe := svc.Subscribe(func(user string, items []domain.CartItem) {
			assert.Equal(t, "alice", user)
			seen = append(seen, items)
		})

		_, _ = svc.Add(ctx, "alice", "1")
		_, _ = svc.Add(ctx, "alice", "1")
		require.NoError(t, svc.Clear(ctx, "alice"))
		unsubscribe()
		_, _ = svc.Add(ctx, "alice", "2")

		require.Len(t, seen, 3)
		assert.Equal(t, 1, seen[0][0].Quantity)
		assert.Equal(t, 2, seen[1][0].Quantity)
		assert.Empty(t, seen[2])
	})

	t.Run("rejects blank id and surfaces storage errors", func(t *testing.T) {
		repo := NewMockCacheRepository()
		svc := NewCartService(repo)

		_, err := svc.Add(ctx, "alice", " ")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)

		repo.setError = errors.New("read-only")
		_, err = svc.Add(ctx, "alice", "1")
		assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
	})
}

func TestFavoritesService(t *testing.T) {
	ctx := context.Background()

	t.Run("toggle twice restores the original state", func(t *testing.T) {
		repo := NewMockCacheRepository()
		svc := NewFavoritesService(repo)

		on, err := svc.Toggle(ctx, "alice", "52772")
		require.NoError(t, err)
		assert.True(t, on)

		fav, _ := svc.IsFavorite(ctx, "alice", "52772")
		assert.True(t, fav)
		assert.JSONEq(t, `["52772"]`, repo.data["favorites_alice"])

		on, err = svc.Toggle(ctx, "alice", "52772")
		require.NoError(t, err)
		assert.False(t, on)

		fav, _ = svc.IsFavorite(ctx, "alice", "52772")
		assert.False(t, fav)
		assert.JSONEq(t, `[]`, repo.data["favorites_alice"])
	})

	t.Run("ids are sorted and per user", func(t *testing.T) {
		svc := NewFavoritesService(NewMockCacheRepository())
		for _, id := range []string{"3", "1", "2"} {
			_, err := svc.Toggle(ctx, "alice", id)
			require.NoError(t, err)
		}

		ids, err := svc.IDs(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", "3"}, ids)

		ids, err = svc.IDs(ctx, "bob")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("observers see the persisted state", func(t *testing.T) {
		svc := NewFavoritesService(NewMockCacheRepository())

		var last []string
		svc.Subscribe(func(user string, ids []string) { last = ids })

		_, _ = svc.Toggle(ctx, "alice", "1")
		assert.Equal(t, []string{"1"}, last)
		_, _ = svc.Toggle(ctx, "alice", "1")
		assert.Empty(t, last)
	})

	t.Run("blank id is rejected", func(t *testing.T) {
		svc := NewFavoritesService(NewMockCacheRepository())
		_, err := svc.Toggle(ctx, "alice", "")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}
