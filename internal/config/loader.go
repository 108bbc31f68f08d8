package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional .env file, an
// optional YAML file, and environment variables.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env in the working directory (loaded into the process environment)
//  3. file (YAML) if CABINA_CONFIG is set
//  4. env (prefix CABINA_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv("CABINA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: CABINA_ADDR, CABINA_STORE_DRIVER, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("CABINA_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "cabina_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.CooldownSeconds <= 0 {
		return fmt.Errorf("%w: cooldown_seconds must be positive", ErrInvalidConfig)
	}
	if c.GeofenceRadiusKm <= 0 {
		return fmt.Errorf("%w: geofence_radius_km must be positive", ErrInvalidConfig)
	}
	return nil
}
