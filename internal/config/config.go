// Package config loads scorecache settings.
//
// Precedence (highest first): SCORECACHE_* environment variables, a .env file
// in the working directory, the YAML config file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "SCORECACHE"

// Provider and codec names accepted in the cache section.
const (
	ProviderMemory    = "memory"
	ProviderRistretto = "ristretto"
	ProviderBigcache  = "bigcache"
	ProviderRedis     = "redis"
	ProviderBadger    = "badger"
	ProviderNone      = "none"
)

type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	SchemaVersion    string        `mapstructure:"schema_version"`
	Volatile         string        `mapstructure:"volatile"` // memory | ristretto | bigcache
	Durable          string        `mapstructure:"durable"`  // memory | redis | badger | none
	Codec            string        `mapstructure:"codec"`    // json | msgpack | cbor | string
	SessionTTL       time.Duration `mapstructure:"session_ttl"`
	VolatileMaxBytes int64         `mapstructure:"volatile_max_bytes"`
	RedisAddr        string        `mapstructure:"redis_addr"`
	RedisPrefix      string        `mapstructure:"redis_prefix"`
	BadgerDir        string        `mapstructure:"badger_dir"`
}

type FallbackConfig struct {
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

type LogConfig struct {
	Backend string `mapstructure:"backend"` // logrus | zap | slog
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"` // text | json
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8080")
	v.SetDefault("backend.timeout", 10*time.Second)

	v.SetDefault("cache.schema_version", "v1")
	v.SetDefault("cache.volatile", ProviderMemory)
	v.SetDefault("cache.durable", ProviderMemory)
	v.SetDefault("cache.codec", "json")
	v.SetDefault("cache.session_ttl", 12*time.Hour)
	v.SetDefault("cache.volatile_max_bytes", 64<<20)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_prefix", "scorecache:")
	v.SetDefault("cache.badger_dir", "")

	v.SetDefault("fallback.max_concurrency", 2)

	v.SetDefault("log.backend", "logrus")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configPath (optional, "" skips the file) and the environment,
// then validates the result.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("backend.base_url is required"))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("backend.timeout must be positive"))
	}
	if c.Cache.SchemaVersion == "" || len(c.Cache.SchemaVersion) > 0xFF {
		errs = append(errs, fmt.Errorf("cache.schema_version %q must be 1-255 bytes", c.Cache.SchemaVersion))
	}
	switch c.Cache.Volatile {
	case ProviderMemory, ProviderRistretto, ProviderBigcache:
	default:
		errs = append(errs, fmt.Errorf("cache.volatile: unknown provider %q", c.Cache.Volatile))
	}
	switch c.Cache.Durable {
	case ProviderMemory, ProviderNone:
	case ProviderRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis provider"))
		}
	case ProviderBadger:
	default:
		errs = append(errs, fmt.Errorf("cache.durable: unknown provider %q", c.Cache.Durable))
	}
	switch c.Cache.Codec {
	case "json", "msgpack", "cbor", "string":
	default:
		errs = append(errs, fmt.Errorf("cache.codec: unknown codec %q", c.Cache.Codec))
	}
	if c.Cache.SessionTTL <= 0 {
		errs = append(errs, errors.New("cache.session_ttl must be positive"))
	}
	if c.Fallback.MaxConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("fallback.max_concurrency must be positive, got %d", c.Fallback.MaxConcurrency))
	}
	switch c.Log.Backend {
	case "logrus", "zap", "slog":
	default:
		errs = append(errs, fmt.Errorf("log.backend: unknown backend %q", c.Log.Backend))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
