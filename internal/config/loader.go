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
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if LOGODUEL_CONFIG is set
//  3. env (prefix LOGODUEL_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("LOGODUEL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: LOGODUEL_DATA_DIR, LOGODUEL_HISTORY_LIMIT, ...
	// Map env keys like LOGODUEL_HISTORY_LIMIT -> history_limit (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("LOGODUEL_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "logoduel_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if cfg.DefaultContest == "" {
		return nil, fmt.Errorf("%w: default_contest must not be empty", ErrInvalidConfig)
	}
	if cfg.HistoryLimit <= 0 {
		return nil, fmt.Errorf("%w: history_limit must be positive", ErrInvalidConfig)
	}
	if cfg.KFactor <= 0 {
		return nil, fmt.Errorf("%w: k_factor must be positive", ErrInvalidConfig)
	}
	if cfg.BackupMaxRetained <= 0 {
		return nil, fmt.Errorf("%w: backup_max_retained must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
