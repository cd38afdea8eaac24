package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pantry/backend/config"
	httpDelivery "github.com/pantry/backend/internal/delivery/http"
	"github.com/pantry/backend/internal/domain"
	"github.com/pantry/backend/internal/infrastructure/cache"
	"github.com/pantry/backend/internal/infrastructure/dummyjson"
	"github.com/pantry/backend/internal/infrastructure/spoonacular"
	"github.com/pantry/backend/internal/infrastructure/upstream"
	"github.com/pantry/backend/internal/pkg/logger"
	"github.com/pantry/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting pantry backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("provider", cfg.Upstream.Provider),
		zap.String("cache", cfg.Cache.Type),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
	)

	// Initialize infrastructure dependencies
	backend, err := cache.New(ctx, cfg.Cache, log)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn("cache close failed", zap.Error(err))
		}
	}()

	store := cache.NewOfflineStore(backend, cache.OfflineStoreConfig{
		TTL:             cfg.Cache.TTL,
		MaxListingItems: cfg.Cache.MaxListingItems,
	}, log)

	if p, ok := backend.(domain.Pruner); ok && cfg.Cache.PruneSchedule != "" {
		pruner, err := cache.NewPruner(cfg.Cache.PruneSchedule, log, p)
		if err != nil {
			return fmt.Errorf("schedule prune: %w", err)
		}
		pruner.Start()
		defer pruner.Stop()
	}

	catalog := newCatalog(cfg.Upstream, log)

	// Initialize usecase layer
	meals := usecase.NewMealService(catalog, store, usecase.MealServiceConfig{
		FetchTimeout: cfg.Upstream.Timeout * time.Duration(cfg.Upstream.MaxRetries+1),
	}, log)
	listing := usecase.NewListingService(meals, usecase.NewPaginator(cfg.Pagination.FirstPageLimit, cfg.Pagination.PageLimit))
	userData := cache.UserData(cfg.Cache, backend, log)
	if userData != backend {
		defer userData.Close()
	}
	cart := usecase.NewCartService(userData)
	favorites := usecase.NewFavoritesService(userData)
	checkout := usecase.NewCheckoutService(cart, meals, usecase.CheckoutConfig{
		DeliveryFee: cfg.Checkout.DeliveryFee,
		Currency:    cfg.Checkout.Currency,
	})

	handler := httpDelivery.NewHandler(meals, listing, cart, favorites, checkout, httpDelivery.NewMetrics(), log)
	router := httpDelivery.SetupRouter(cfg, handler, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newCatalog(cfg config.UpstreamConfig, log *zap.Logger) domain.MealCatalog {
	opts := upstream.Options{
		Timeout:       cfg.Timeout,
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
		MaxRetries:    cfg.MaxRetries,
	}

	if cfg.Provider == config.ProviderDummyJSON {
		return dummyjson.NewClient(cfg.BaseURL, opts, log)
	}
	return spoonacular.NewClient(cfg.APIKey, cfg.BaseURL, opts, log)
}
