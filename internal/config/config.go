// Package config defines process configuration and loading.
//
// Conventions:
// - Defaults live in New; Load layers file and env on top.
// - Koanf tags use flat snake_case keys so env mapping stays mechanical.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir is where file-backed realms keep their databases.
	DataDir string `koanf:"data_dir"`

	// Realms lists the persistence backends to open, in preference
	// order. Recognized names: bolt, document, crumb, memory.
	Realms []string `koanf:"realms"`

	// CrumbQuota caps the crumb realm's serialized jar, in bytes.
	CrumbQuota int `koanf:"crumb_quota"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the ingest deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// HintMinVisits is the visit count below which no hints fire.
	HintMinVisits int `koanf:"hint_min_visits"`

	// HintSessionCap caps hints fired within a single session.
	HintSessionCap int `koanf:"hint_session_cap"`

	// HintInitialDelay is the quiet period before the first hint.
	HintInitialDelay time.Duration `koanf:"hint_initial_delay"`

	// HintStagger spaces consecutive hint timers apart.
	HintStagger time.Duration `koanf:"hint_stagger"`

	// LeaderboardTopN caps the published leaderboard projection.
	LeaderboardTopN int `koanf:"leaderboard_top_n"`

	// FlushInterval is how often a dirty ledger is persisted.
	FlushInterval time.Duration `koanf:"flush_interval"`

	// AnalyticsURL is the outbox delivery endpoint. Empty disables it.
	AnalyticsURL string `koanf:"analytics_url"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9090",
		DataDir:          "data",
		Realms:           []string{"bolt", "document", "crumb"},
		CrumbQuota:       4096,
		EventQueueSize:   4096,
		DedupeSize:       10_000,
		HintMinVisits:    2,
		HintSessionCap:   2,
		HintInitialDelay: 15 * time.Second,
		HintStagger:      10 * time.Second,
		LeaderboardTopN:  50,
		FlushInterval:    30 * time.Second,
	}
}
