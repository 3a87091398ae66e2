// Package discovery owns the achievement catalog, the idempotent
// recording operation, and level derivation from ledger contents.
package discovery

import (
	"time"

	"github.com/nightjarlabs/trailmark/internal/domain/model"
	"github.com/nightjarlabs/trailmark/internal/domain/trigger"
)

// MaxLevel is the highest visitor level.
const MaxLevel = 5

// levelThresholds[i] is the minimum discovery count for level i+1.
// 0 discoveries → level 1, 2 → level 2, 4 → 3, 6 → 4, 8 → 5.
var levelThresholds = [MaxLevel]int{0, 2, 4, 6, 8}

// Level derives the visitor level from a discovery count. Monotonic
// non-decreasing in the count.
func Level(discoveryCount int) int {
	level := 1
	for i, threshold := range levelThresholds {
		if discoveryCount >= threshold {
			level = i + 1
		}
	}
	return level
}

// Registry is the catalog of discoverable achievements keyed by id.
type Registry struct {
	defs []trigger.Definition
	byID map[string]trigger.Definition
}

// NewRegistry builds a registry from a trigger catalog.
func NewRegistry(defs []trigger.Definition) *Registry {
	r := &Registry{
		defs: defs,
		byID: make(map[string]trigger.Definition, len(defs)),
	}
	for _, def := range defs {
		r.byID[def.ID] = def
	}
	return r
}

// Definitions returns the full catalog in declaration order.
func (r *Registry) Definitions() []trigger.Definition {
	return r.defs
}

// Lookup returns the definition for id, if the catalog contains it.
func (r *Registry) Lookup(id string) (trigger.Definition, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// ActiveFor returns the definitions unlocked at the given visitor level.
func (r *Registry) ActiveFor(level int) []trigger.Definition {
	var out []trigger.Definition
	for _, def := range r.defs {
		if def.MinLevel <= level {
			out = append(out, def)
		}
	}
	return out
}

// Undiscovered returns the unlocked definitions the ledger has not yet
// recorded; these are the hint scheduler's candidates.
func (r *Registry) Undiscovered(ledger *model.ProgressLedger, level int) []trigger.Definition {
	var out []trigger.Definition
	for _, def := range r.ActiveFor(level) {
		if !ledger.HasDiscovery(def.ID) {
			out = append(out, def)
		}
	}
	return out
}

// Record appends a discovery to the ledger exactly once. Repeat calls
// for an already-recorded id leave the ledger unchanged and return
// wasNew=false. Hint records for a discovered id are pruned so the
// ledger keeps its hints-reference-only-undiscovered invariant.
func Record(ledger *model.ProgressLedger, id, title, message string, now time.Time) (wasNew bool) {
	if ledger.HasDiscovery(id) {
		return false
	}
	ledger.Discoveries = append(ledger.Discoveries, model.DiscoveryRecord{
		ID:          id,
		Title:       title,
		Message:     message,
		Timestamp:   now,
		VisitNumber: ledger.VisitCount,
	})
	kept := ledger.HintsIssued[:0]
	for _, h := range ledger.HintsIssued {
		if h.DiscoveryID != id {
			kept = append(kept, h)
		}
	}
	ledger.HintsIssued = kept
	ledger.LastSeenAt = now
	return true
}
