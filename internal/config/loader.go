package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FORESIGHT_CONFIG is set
//  3. env (prefix FORESIGHT_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("FORESIGHT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: FORESIGHT_ADDR, FORESIGHT_TRAINING_SEED, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("FORESIGHT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "foresight_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.DefaultRadiusKm <= 0 {
		return fmt.Errorf("%w: default_radius_km must be positive", ErrInvalidConfig)
	}
	if cfg.MaxHeatmapResolution < 2 {
		return fmt.Errorf("%w: max_heatmap_resolution must be at least 2", ErrInvalidConfig)
	}
	if cfg.SyntheticSamples <= 0 {
		return fmt.Errorf("%w: synthetic_samples must be positive", ErrInvalidConfig)
	}
	return nil
}
