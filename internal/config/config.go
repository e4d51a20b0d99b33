// Package config loads collector configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root collector configuration.
type Config struct {
	Exchange   ExchangeConfig   `mapstructure:"exchange"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Collection CollectionConfig `mapstructure:"collection"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	LogLevel   string           `mapstructure:"log_level"`
}

// ExchangeConfig holds REST client settings.
type ExchangeConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// RateLimitConfig shapes the shared request token bucket.
type RateLimitConfig struct {
	Capacity     float64       `mapstructure:"capacity"`
	RefillRate   float64       `mapstructure:"refill_rate"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	// Backend is one of "parquet", "memory", "postgres", "clickhouse".
	Backend       string `mapstructure:"backend"`
	DataDir       string `mapstructure:"data_dir"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`
}

// CollectionConfig describes what to collect.
type CollectionConfig struct {
	Symbols         []string `mapstructure:"symbols"`
	Intervals       []string `mapstructure:"intervals"`
	QuoteAssets     []string `mapstructure:"quote_assets"`
	Discover        bool     `mapstructure:"discover"`
	TopSymbols      int      `mapstructure:"top_symbols"`
	DefaultStart    string   `mapstructure:"default_start"`
	ContinueOnError bool     `mapstructure:"continue_on_error"`
}

// MetricsConfig configures the Prometheus endpoint. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// DefaultStartTime parses the configured default start date. Zero value when
// unset, which defers to the built-in default.
func (c CollectionConfig) DefaultStartTime() (time.Time, error) {
	if c.DefaultStart == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", c.DefaultStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse default_start %q: %w", c.DefaultStart, err)
	}
	return t.UTC(), nil
}

// Load reads the config file at path, applies defaults and BDL_* environment
// overrides, and validates the result. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("exchange.base_url", "https://api.binance.com/api/v3")
	v.SetDefault("exchange.timeout", "30s")
	v.SetDefault("exchange.max_retries", 3)
	v.SetDefault("rate_limit.capacity", 8)
	v.SetDefault("rate_limit.refill_rate", 8)
	v.SetDefault("rate_limit.poll_interval", "1s")
	v.SetDefault("storage.backend", "parquet")
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("collection.intervals", []string{"1m", "4h", "1d"})
	v.SetDefault("collection.discover", false)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("BDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "parquet", "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn required for postgres backend")
		}
	case "clickhouse":
		if c.Storage.ClickhouseDSN == "" {
			return fmt.Errorf("storage.clickhouse_dsn required for clickhouse backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if len(c.Collection.Symbols) == 0 && !c.Collection.Discover {
		return fmt.Errorf("collection.symbols empty and discovery disabled")
	}
	if len(c.Collection.Intervals) == 0 {
		return fmt.Errorf("collection.intervals must not be empty")
	}
	if _, err := c.Collection.DefaultStartTime(); err != nil {
		return err
	}
	return nil
}
