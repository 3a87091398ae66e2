// Package hint decides whether, when, and how intensely to nudge a
// visitor toward undiscovered achievements. Hints are advisory UI
// effects; nothing here affects discovery correctness.
package hint

import (
	"time"

	"github.com/nightjarlabs/trailmark/internal/domain/model"
)

// Intensity levels for rendered hints.
const (
	LevelSubtle      = 1 // faint visual emphasis
	LevelPulse       = 2 // pulsing emphasis with auto-clear
	LevelGlow        = 3 // obvious glow plus element highlight
	LevelInstruction = 4 // explicit textual instruction near the element
)

// Escalation stops growing once an id has been hinted this many times.
const maxEscalation = 2

// intensityUnlockDays[i] is the minimum age in days for floor level i+1.
var intensityUnlockDays = [4]int{0, 14, 30, 60}

// Policy holds the patience parameters gating hint issuance.
type Policy struct {
	minVisits  int
	sessionCap int
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithMinVisits sets how many visits must pass before any hinting.
func WithMinVisits(n int) PolicyOption {
	return func(p *Policy) {
		if n > 0 {
			p.minVisits = n
		}
	}
}

// WithSessionCap bounds how many distinct achievements are hinted per
// session.
func WithSessionCap(n int) PolicyOption {
	return func(p *Policy) {
		if n > 0 {
			p.sessionCap = n
		}
	}
}

// NewPolicy builds a policy with defaults: hinting stays silent for the
// first visit and at most two achievements are hinted per session.
func NewPolicy(opts ...PolicyOption) *Policy {
	p := &Policy{
		minVisits:  2,
		sessionCap: 2,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SessionCap returns the per-session distinct-achievement bound.
func (p *Policy) SessionCap() int { return p.sessionCap }

// DailyBudget returns how many hints of a single discovery id may be
// issued per rolling 24-hour window: min(1 + floor(days/7), 2).
func DailyBudget(daysSinceFirstVisit int) int {
	budget := 1 + daysSinceFirstVisit/7
	if budget > 2 {
		budget = 2
	}
	return budget
}

// Intensity derives the hint level for an id from visitor age and how
// often the id has been hinted before. The age sets a floor that rises
// at 0/14/30/60 days; prior hints escalate above the floor, maxing out
// after two.
func Intensity(daysSinceFirstVisit, priorHints int) int {
	floor := 1
	for i, unlock := range intensityUnlockDays {
		if daysSinceFirstVisit >= unlock {
			floor = i + 1
		}
	}
	escalation := priorHints
	if escalation > maxEscalation {
		escalation = maxEscalation
	}
	level := floor + escalation
	if level > LevelInstruction {
		level = LevelInstruction
	}
	return level
}

// Eligible reports whether a hint for id may be issued now, and at what
// intensity. The rolling 24-hour budget is computed from the ledger's
// hint records for that id.
func (p *Policy) Eligible(ledger *model.ProgressLedger, id string, now time.Time) (int, bool) {
	if ledger.VisitCount < p.minVisits {
		return 0, false
	}
	if ledger.HasDiscovery(id) {
		return 0, false
	}
	days := int(now.Sub(ledger.FirstSeenAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	prior := ledger.HintsFor(id)
	recent := 0
	cutoff := now.Add(-24 * time.Hour)
	for _, h := range prior {
		if h.Timestamp.After(cutoff) {
			recent++
		}
	}
	if recent >= DailyBudget(days) {
		return 0, false
	}
	return Intensity(days, len(prior)), true
}
