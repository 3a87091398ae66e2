package hint

import (
	"sync"
	"time"

	"github.com/nightjarlabs/trailmark/internal/domain/trigger"
)

// Hint is the advisory nudge handed to the UI layer.
type Hint struct {
	DiscoveryID string
	Level       int
	Target      string // element to emphasize; empty if the trigger has no anchor
	At          time.Time
}

// FireFunc receives a due hint. It runs on a timer goroutine; the
// receiver re-checks eligibility under its own lock before rendering.
type FireFunc func(def trigger.Definition, level int)

// Scheduler stages escalating hints for undiscovered achievements.
// Every scheduled timer is cancellable; recording a discovery for an id
// cancels its pending timer immediately.
type Scheduler struct {
	mu         sync.Mutex
	policy     *Policy
	delay      time.Duration
	stagger    time.Duration
	now        func() time.Time
	timers     map[string]*time.Timer
	hinted     map[string]bool // distinct ids hinted this session
	discovered map[string]bool // terminal ids, never hinted again
	stopped    bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInitialDelay sets how long after planning the first hint fires.
func WithInitialDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithStagger sets the fixed offset between consecutive hints so they
// never fire simultaneously.
func WithStagger(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d >= 0 {
			s.stagger = d
		}
	}
}

// WithNow injects the clock, for tests.
func WithNow(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler builds a scheduler over the given policy.
func NewScheduler(policy *Policy, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		policy:     policy,
		delay:      15 * time.Second,
		stagger:    10 * time.Second,
		now:        time.Now,
		timers:     make(map[string]*time.Timer),
		hinted:     make(map[string]bool),
		discovered: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan schedules hints for eligible candidates, respecting the session
// cap and staggering consecutive timers. Timers still pending from an
// earlier plan count toward the cap, so replanning after a level change
// cannot exceed it. eligible is consulted at plan time and again by the
// fire callback, since a candidate may be discovered while its timer is
// pending.
func (s *Scheduler) Plan(candidates []trigger.Definition, eligible func(id string, at time.Time) (int, bool), fire FireFunc) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return 0
	}
	scheduled := 0
	slot := 0
	for _, def := range candidates {
		// Each id is either hinted already or holds a live timer, never
		// both, so the sum is the session's claim on the cap.
		if len(s.hinted)+len(s.timers) >= s.policy.SessionCap() {
			break
		}
		if s.discovered[def.ID] || s.hinted[def.ID] {
			continue
		}
		if _, ok := s.timers[def.ID]; ok {
			continue
		}
		if _, ok := eligible(def.ID, s.now()); !ok {
			continue
		}
		def := def
		due := s.delay + time.Duration(slot)*s.stagger
		s.timers[def.ID] = time.AfterFunc(due, func() {
			s.onFire(def, eligible, fire)
		})
		slot++
		scheduled++
	}
	return scheduled
}

// onFire re-checks eligibility at fire time and hands the hint to the
// engine. A candidate discovered or budget-exhausted since planning is
// skipped silently, never retried in the same pass.
func (s *Scheduler) onFire(def trigger.Definition, eligible func(id string, at time.Time) (int, bool), fire FireFunc) {
	s.mu.Lock()
	delete(s.timers, def.ID)
	if s.stopped || s.discovered[def.ID] {
		s.mu.Unlock()
		return
	}
	level, ok := eligible(def.ID, s.now())
	if !ok {
		s.mu.Unlock()
		return
	}
	s.hinted[def.ID] = true
	s.mu.Unlock()

	fire(def, level)
}

// MarkDiscovered makes id terminal: its pending timer is cancelled and
// it will never be hinted again.
func (s *Scheduler) MarkDiscovered(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discovered[id] = true
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending reports whether a hint timer is outstanding for id.
func (s *Scheduler) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

// HintedThisSession returns how many distinct ids were hinted.
func (s *Scheduler) HintedThisSession() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hinted)
}

// Stop cancels every pending timer. The scheduler accepts no further
// plans afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
