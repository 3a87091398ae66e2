package config

import (
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
//  2. file (YAML) if TRAILMARK_CONFIG is set
//  3. env (prefix TRAILMARK_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("TRAILMARK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: TRAILMARK_ADDR, TRAILMARK_QUEUE_SIZE, ...
	// Map env keys like TRAILMARK_QUEUE_SIZE -> queue_size (flat keys).
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("TRAILMARK_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "trailmark_")
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

func validate(c *Config) error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if len(c.Realms) == 0 {
		return fmt.Errorf("%w: at least one realm is required", ErrInvalidConfig)
	}
	for _, name := range c.Realms {
		switch name {
		case "bolt", "document", "crumb", "memory":
		default:
			return fmt.Errorf("%w: unknown realm %q", ErrInvalidConfig, name)
		}
	}
	if c.EventQueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.LeaderboardTopN <= 0 {
		return fmt.Errorf("%w: leaderboard_top_n must be positive", ErrInvalidConfig)
	}
	return nil
}
