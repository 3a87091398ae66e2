// Package model contains domain models passed between layers.
package model

import "time"

// InputEvent is a raw interaction event reported by the page.
// Fields mirror the JSON schema for POST /v1/events.
type InputEvent struct {
	EventID string    // unique id for ingest idempotency
	Kind    EventKind // click, keydown, char, hoverstart, hoverend
	Target  string    // logical element id the event happened on
	X       float64   // pointer x relative to the target, 0..1
	Y       float64   // pointer y relative to the target, 0..1
	Key     string    // key name for keydown events
	Char    string    // single character for char events
	TS      time.Time // event timestamp
}

// EventKind enumerates the interaction kinds the trigger matchers understand.
type EventKind string

const (
	EventClick      EventKind = "click"
	EventKeyDown    EventKind = "keydown"
	EventChar       EventKind = "char"
	EventHoverStart EventKind = "hoverstart"
	EventHoverEnd   EventKind = "hoverend"
)

// DiscoveryRecord marks a single achievement found by a visitor.
// Created exactly once per id per identity and never mutated.
type DiscoveryRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	VisitNumber int       `json:"visitNumber"`
}

// HintRecord notes that a hint for an undiscovered achievement was shown.
// Used only to rate-limit future hints.
type HintRecord struct {
	DiscoveryID string    `json:"discoveryId"`
	Level       int       `json:"level"` // 1..4, escalating intensity
	Timestamp   time.Time `json:"timestamp"`
}

// ProgressLedger is the per-identity record of discoveries, visits and
// hint history. Invariants: Discoveries holds no duplicate ids,
// VisitCount never decreases, and HintsIssued only references ids that
// are not yet discovered.
type ProgressLedger struct {
	Identity    string            `json:"identity"`
	Discoveries []DiscoveryRecord `json:"discoveries"`
	VisitCount  int               `json:"visitCount"`
	HintsIssued []HintRecord      `json:"hintsIssued"`
	FirstSeenAt time.Time         `json:"firstSeenAt"`
	LastSeenAt  time.Time         `json:"lastSeenAt"`
	ChosenName  string            `json:"chosenName,omitempty"`
}

// NewLedger creates a fresh ledger for a first visit.
func NewLedger(identity string, now time.Time) *ProgressLedger {
	return &ProgressLedger{
		Identity:    identity,
		Discoveries: []DiscoveryRecord{},
		VisitCount:  1,
		HintsIssued: []HintRecord{},
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
}

// HasDiscovery reports whether the ledger already contains id.
func (l *ProgressLedger) HasDiscovery(id string) bool {
	for i := range l.Discoveries {
		if l.Discoveries[i].ID == id {
			return true
		}
	}
	return false
}

// HintsFor returns the hint records issued for a single discovery id.
func (l *ProgressLedger) HintsFor(id string) []HintRecord {
	var out []HintRecord
	for i := range l.HintsIssued {
		if l.HintsIssued[i].DiscoveryID == id {
			out = append(out, l.HintsIssued[i])
		}
	}
	return out
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the engine's mutable state.
func (l *ProgressLedger) Clone() *ProgressLedger {
	if l == nil {
		return nil
	}
	c := *l
	c.Discoveries = append([]DiscoveryRecord(nil), l.Discoveries...)
	c.HintsIssued = append([]HintRecord(nil), l.HintsIssued...)
	return &c
}

// LeaderboardEntry is the projection of one identity's ledger into the
// ranked table. Derived state, never independently owned.
type LeaderboardEntry struct {
	Identity       string    `json:"identity"`
	DisplayName    string    `json:"displayName,omitempty"`
	DiscoveryCount int       `json:"discoveryCount"`
	FirstSeenAt    time.Time `json:"firstSeenAt"`
	Rank           int       `json:"rank,omitempty"`
}
