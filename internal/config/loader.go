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
//  2. file (YAML) if VERDICT_CONFIG is set
//  3. env (prefix VERDICT_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("VERDICT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: VERDICT_ADDR, VERDICT_STORE_PATH, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("VERDICT_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "verdict_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.ConsensusHighStddev < 0 || cfg.ConsensusWideStddev < cfg.ConsensusHighStddev {
		return nil, fmt.Errorf("%w: consensus thresholds must satisfy 0 <= high <= wide", ErrInvalidConfig)
	}
	if cfg.WatchBufferSize < 1 {
		return nil, fmt.Errorf("%w: watch_buffer_size must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
