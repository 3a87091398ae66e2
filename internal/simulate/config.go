// Package simulate drives a synthetic visitor against a running
// trailmark instance: it replays scripted interaction scenarios over
// the events endpoint and verifies the resulting discoveries.
package simulate

import "time"

// Config controls a simulation run.
type Config struct {
	// BaseURL of the service, e.g. http://localhost:9090.
	BaseURL string

	// Scenarios to replay, in order. Empty means all known scenarios.
	Scenarios []string

	// Gap between consecutive events within a scenario.
	Gap time.Duration

	// Timeout for individual HTTP requests.
	Timeout time.Duration

	// SettleDelay is how long to wait after a scenario before checking
	// the snapshot, giving the dispatcher time to drain.
	SettleDelay time.Duration

	// Verbose enables per-event logging.
	Verbose bool
}

// Stats accumulates the outcome of a run.
type Stats struct {
	ScenariosRun     int
	EventsSubmitted  int
	EventsDuplicate  int
	EventsFailed     int
	DiscoveriesFound int
}
