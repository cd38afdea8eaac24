package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pantry/backend/internal/pkg/logger"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Checkout   CheckoutConfig   `mapstructure:"checkout"`
	Log        logger.Config    `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// UpstreamConfig holds the recipe catalog API configuration
type UpstreamConfig struct {
	Provider      string        `mapstructure:"provider"` // "spoonacular" or "dummyjson"
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

// CacheConfig holds the offline store configuration
type CacheConfig struct {
	Type            string        `mapstructure:"type"` // memory, sqlite, redis, bigcache, ristretto
	TTL             time.Duration `mapstructure:"ttl"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	RedisURL        string        `mapstructure:"redis_url"`
	MaxListingItems int           `mapstructure:"max_listing_items"`
	PruneSchedule   string        `mapstructure:"prune_schedule"`
}

// PaginationConfig holds listing page sizes
type PaginationConfig struct {
	FirstPageLimit int `mapstructure:"first_page_limit"`
	PageLimit      int `mapstructure:"page_limit"`
}

// CheckoutConfig holds order summary settings
type CheckoutConfig struct {
	DeliveryFee float64 `mapstructure:"delivery_fee"`
	Currency    string  `mapstructure:"currency"`
}

const (
	ProviderSpoonacular = "spoonacular"
	ProviderDummyJSON   = "dummyjson"
)

var (
	cacheTypes = map[string]bool{"memory": true, "sqlite": true, "redis": true, "bigcache": true, "ristretto": true}

	defaultBaseURLs = map[string]string{
		ProviderSpoonacular: "https://api.spoonacular.com/recipes",
		ProviderDummyJSON:   "https://dummyjson.com/recipes",
	}
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pantry/")

	// PANTRY_CACHE_REDIS_URL -> cache.redis_url
	v.SetEnvPrefix("PANTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if config.Upstream.BaseURL == "" {
		config.Upstream.BaseURL = defaultBaseURLs[config.Upstream.Provider]
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// Upstream defaults
	v.SetDefault("upstream.provider", ProviderSpoonacular)
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.base_url", "")
	v.SetDefault("upstream.timeout", "15s")
	v.SetDefault("upstream.rate_per_second", 5.0)
	v.SetDefault("upstream.burst", 5)
	v.SetDefault("upstream.max_retries", 3)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "720h") // 30 days
	v.SetDefault("cache.sqlite_path", "pantry.db")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.max_listing_items", 1000)
	v.SetDefault("cache.prune_schedule", "@every 10m")

	// Pagination defaults
	v.SetDefault("pagination.first_page_limit", 40)
	v.SetDefault("pagination.page_limit", 10)

	// Checkout defaults
	v.SetDefault("checkout.delivery_fee", 30.0)
	v.SetDefault("checkout.currency", "R")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output_paths", []string{"stdout"})
	v.SetDefault("log.error_output_paths", []string{"stderr"})
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Upstream.Provider {
	case ProviderSpoonacular:
		if config.Upstream.APIKey == "" {
			return fmt.Errorf("spoonacular API key is required (set PANTRY_UPSTREAM_API_KEY)")
		}
	case ProviderDummyJSON:
	default:
		return fmt.Errorf("upstream provider must be 'spoonacular' or 'dummyjson', got: %s", config.Upstream.Provider)
	}

	if !cacheTypes[config.Cache.Type] {
		return fmt.Errorf("cache type must be one of memory, sqlite, redis, bigcache, ristretto, got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Cache.Type == "sqlite" && config.Cache.SQLitePath == "" {
		return fmt.Errorf("SQLite path is required when cache type is 'sqlite'")
	}

	if config.Cache.TTL < 0 {
		return fmt.Errorf("cache TTL must not be negative, got: %v", config.Cache.TTL)
	}

	if config.Pagination.FirstPageLimit <= 0 || config.Pagination.PageLimit <= 0 {
		return fmt.Errorf("pagination limits must be positive, got first=%d page=%d",
			config.Pagination.FirstPageLimit, config.Pagination.PageLimit)
	}

	if config.Checkout.DeliveryFee < 0 {
		return fmt.Errorf("delivery fee must not be negative, got: %v", config.Checkout.DeliveryFee)
	}

	return nil
}

// loadEnvFile reads KEY=VALUE pairs from ./.env into the process environment.
// Variables that are already set are left untouched.
func loadEnvFile() error {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
