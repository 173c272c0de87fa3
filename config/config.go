// Package config loads runtime configuration from an optional YAML file and
// WINTRADES_ environment variables, then validates it.
//
// Environment keys use "__" for nesting, so WINTRADES_DATABASE__POOL__MAX_SIZE
// sets database.pool.max_size. A .env file in the working directory is loaded
// into the process environment first.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/zakwanzambri/wintradesgo-sub004/connector"
)

const envPrefix = "WINTRADES_"

// Config is the root configuration object.
type Config struct {
	Database connector.Config `koanf:"database" validate:"required"`
	Cache    CacheConfig      `koanf:"cache"`
	Engine   EngineConfig     `koanf:"engine"`
	Log      LogConfig        `koanf:"log"`
	Metrics  MetricsConfig    `koanf:"metrics"`
}

type CacheConfig struct {
	Capacity      int           `koanf:"capacity" validate:"min=1"`
	DefaultTTL    time.Duration `koanf:"default_ttl" validate:"gte=0"`
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gte=0"`
}

type EngineConfig struct {
	BatchSize       int    `koanf:"batch_size" validate:"min=1"`
	TopN            int    `koanf:"top_n" validate:"min=1"`
	IDColumn        string `koanf:"id_column" validate:"required"`
	UpdatedAtColumn string `koanf:"updated_at_column"`
	// Invalidate maps a table to extra cache key patterns dropped after a
	// locked update, on top of "<singular>_*" and "<table>_*".
	Invalidate map[string][]string `koanf:"invalidate"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	// Queries turns on driver-level statement tracing.
	Queries            bool          `koanf:"queries"`
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold" validate:"gte=0"`
}

type MetricsConfig struct {
	Namespace string `koanf:"namespace" validate:"required"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Database: connector.DefaultConfig(),
		Cache: CacheConfig{
			Capacity:      10000,
			DefaultTTL:    5 * time.Minute,
			SweepInterval: time.Minute,
		},
		Engine: EngineConfig{
			BatchSize: 1000,
			TopN:      10,
			IDColumn:  "id",
		},
		Log: LogConfig{
			Level:              "info",
			Format:             "json",
			SlowQueryThreshold: 500 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Namespace: "wintrades",
		},
	}
}

// Load reads defaults, then the YAML file at path (if path is not empty),
// then the environment, and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
