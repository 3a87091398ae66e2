// Package trigger declares the discoverable-achievement catalog and the
// streaming matchers that recognize each trigger in the raw input stream.
//
// Matchers are deliberately simple: each keeps a bounded window of recent
// state, resets on a non-matching event, and never backtracks. They are
// fed one event at a time by a single dispatcher, so no matcher needs to
// be safe for concurrent use.
package trigger

import (
	"time"

	"github.com/nightjarlabs/trailmark/internal/domain/model"
)

// MatchResult is the outcome of feeding one event to a matcher.
type MatchResult int

const (
	// NoMatch means the event did not advance the pattern.
	NoMatch MatchResult = iota
	// Partial means the event advanced the pattern but did not complete it.
	Partial
	// Matched means the pattern completed on this event.
	Matched
)

// defaultHorizon bounds how stale partial-match state may get before a
// matcher discards it.
const defaultHorizon = 3 * time.Second

// Matcher consumes input events and reports pattern progress.
type Matcher interface {
	// Feed advances the matcher with one event. A Matched result resets
	// the matcher's internal state.
	Feed(ev model.InputEvent) MatchResult

	// Reset clears any partial-match state.
	Reset()

	// Target names the element a hint for this trigger should point at.
	// Empty for triggers with no single anchor element.
	Target() string
}

// Definition binds a discovery id to the matcher that detects it.
type Definition struct {
	ID       string
	Title    string
	Message  string
	MinLevel int // visitor level at which this trigger becomes active
	Matcher  Matcher
}
