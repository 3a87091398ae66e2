// Package service provides the progression engine that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nightjarlabs/trailmark/internal/adapters/mq/dispatch"
	eventqueue "github.com/nightjarlabs/trailmark/internal/adapters/mq/queue"
	"github.com/nightjarlabs/trailmark/internal/adapters/outbox"
	"github.com/nightjarlabs/trailmark/internal/adapters/realm"
	"github.com/nightjarlabs/trailmark/internal/domain/dedupe"
	"github.com/nightjarlabs/trailmark/internal/domain/discovery"
	"github.com/nightjarlabs/trailmark/internal/domain/hint"
	"github.com/nightjarlabs/trailmark/internal/domain/identity"
	"github.com/nightjarlabs/trailmark/internal/domain/leaderboard"
	"github.com/nightjarlabs/trailmark/internal/domain/model"
	"github.com/nightjarlabs/trailmark/internal/domain/trigger"
	"github.com/nightjarlabs/trailmark/pkg/logger"
	"github.com/nightjarlabs/trailmark/pkg/metrics"
)

// Snapshot is the engine state handed to the API layer.
type Snapshot struct {
	Identity    string                  `json:"identity"`
	Level       int                     `json:"level"`
	VisitCount  int                     `json:"visitCount"`
	ChosenName  string                  `json:"chosenName,omitempty"`
	Discoveries []model.DiscoveryRecord `json:"discoveries"`
	CatalogSize int                     `json:"catalogSize"`
	FirstSeenAt time.Time               `json:"firstSeenAt"`
}

// DiscoveryFunc observes each newly recorded discovery and the level it
// left the visitor at.
type DiscoveryFunc func(rec model.DiscoveryRecord, level int)

// LevelUpFunc observes edge-triggered level transitions.
type LevelUpFunc func(from, to int)

// HintFunc observes each fired hint.
type HintFunc func(h hint.Hint)

// Engine implements the progression system for one visitor session:
// identity binding, ledger reconciliation, trigger matching, hint
// scheduling and the leaderboard projection.
type Engine struct {
	mu sync.Mutex

	// Core components
	store     *realm.Store
	registry  *discovery.Registry
	policy    *hint.Policy
	scheduler *hint.Scheduler
	projector *leaderboard.Projector
	deduper   dedupe.Deduper
	queue     *eventqueue.InMemoryQueue
	dispatch  *dispatch.Dispatcher
	outbox    *outbox.Outbox

	// Session state, guarded by mu
	ledger *model.ProgressLedger
	level  int
	active []trigger.Definition
	dirty  bool

	// Configuration
	catalog       []trigger.Definition
	queueSize     int
	dedupeSize    int
	topN          int
	flushInterval time.Duration
	schedulerOpts []hint.SchedulerOption
	now           func() time.Time

	// Observers
	onDiscovery DiscoveryFunc
	onLevelUp   LevelUpFunc
	onHint      HintFunc

	// State
	started bool
	stopCh  chan struct{}
	flushWG sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCatalog replaces the default trigger catalog.
func WithCatalog(defs []trigger.Definition) Option {
	return func(e *Engine) {
		if len(defs) > 0 {
			e.catalog = defs
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the ingest deduplication cache.
func WithDedupeSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.dedupeSize = size
		}
	}
}

// WithPolicy replaces the default hint policy.
func WithPolicy(p *hint.Policy) Option {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithSchedulerOptions forwards options to the hint scheduler. The
// engine rebuilds the scheduler on Reset, so options are kept rather
// than applied once.
func WithSchedulerOptions(opts ...hint.SchedulerOption) Option {
	return func(e *Engine) {
		e.schedulerOpts = append(e.schedulerOpts, opts...)
	}
}

// WithTopN bounds the leaderboard projection.
func WithTopN(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// WithFlushInterval sets how often a dirty ledger is persisted.
func WithFlushInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.flushInterval = d
		}
	}
}

// WithOutbox attaches the analytics outbox.
func WithOutbox(o *outbox.Outbox) Option {
	return func(e *Engine) {
		e.outbox = o
	}
}

// WithNow injects the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// OnDiscovery registers the discovery observer. Set before Start.
func OnDiscovery(fn DiscoveryFunc) Option {
	return func(e *Engine) { e.onDiscovery = fn }
}

// OnLevelUp registers the level-up observer. Set before Start.
func OnLevelUp(fn LevelUpFunc) Option {
	return func(e *Engine) { e.onLevelUp = fn }
}

// OnHint registers the hint observer. Set before Start.
func OnHint(fn HintFunc) Option {
	return func(e *Engine) { e.onHint = fn }
}

// New constructs an Engine over the realm store with default
// configuration.
func New(store *realm.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		catalog:       trigger.DefaultCatalog(),
		policy:        hint.NewPolicy(),
		queueSize:     4096,
		dedupeSize:    10_000,
		topN:          leaderboard.DefaultTopN,
		flushInterval: 30 * time.Second,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start binds the visitor identity from the reported signals, reconciles
// the ledger across realms, arms the trigger matchers for the visitor's
// level and begins consuming events.
func (e *Engine) Start(ctx context.Context, signals identity.Signals) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}

	now := e.now()
	essence := identity.Essence(signals, now)
	id := identity.Bind(essence, now)

	ledger := e.store.ReadLedger(ctx, id, now)
	// A synthesized ledger carries FirstSeenAt == now; anything read back
	// from a realm is a returning visitor.
	if !ledger.FirstSeenAt.Equal(now) {
		ledger.VisitCount++
	}
	ledger.LastSeenAt = now

	e.ledger = ledger
	e.level = discovery.Level(len(ledger.Discoveries))
	e.registry = discovery.NewRegistry(e.catalog)
	e.armMatchersLocked()

	e.projector = leaderboard.New(e.topN)
	e.projector.Merge(e.store.ReadLeaderboard(ctx))
	e.projector.Upsert(leaderboard.EntryFor(ledger))

	e.deduper = dedupe.New(dedupe.WithMaxSize(e.dedupeSize))
	e.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(e.queueSize))
	e.dispatch = dispatch.New(e.queue, e, dispatch.WithLogger(e.logger))
	e.scheduler = hint.NewScheduler(e.policy, e.schedulerOpts...)

	e.dirty = true
	e.started = true

	level := e.level
	candidates := e.registry.Undiscovered(ledger, level)
	disp := e.dispatch
	sched := e.scheduler
	e.mu.Unlock()

	disp.Start(ctx)
	scheduled := sched.Plan(candidates, e.eligible, e.fireHint)
	for i := 0; i < scheduled; i++ {
		metrics.RecordHintScheduled()
	}

	e.Flush(ctx)
	e.flushWG.Add(1)
	go e.flushLoop(ctx)

	e.logger.Info(ctx, "engine started",
		logger.String("identity", id),
		logger.Int("level", level),
		logger.Int("visitCount", ledger.VisitCount),
		logger.Int("discoveries", len(ledger.Discoveries)),
		logger.Int("hintsScheduled", scheduled),
	)
	return nil
}

// armMatchersLocked rebuilds the active matcher set: triggers unlocked
// at the current level whose discovery is still outstanding. Matchers
// are reset so no stale partial state survives a level change.
func (e *Engine) armMatchersLocked() {
	e.active = e.active[:0]
	for _, def := range e.registry.ActiveFor(e.level) {
		if e.ledger.HasDiscovery(def.ID) {
			continue
		}
		def.Matcher.Reset()
		e.active = append(e.active, def)
	}
}

// Ingest deduplicates and enqueues a raw event. Returns whether the
// event was accepted and whether it was a retry duplicate. A full queue
// unrecords the id so the sender's retry can succeed.
func (e *Engine) Ingest(ctx context.Context, ev model.InputEvent) (accepted, duplicate bool) {
	if ev.EventID != "" && e.deduper.SeenAndRecord(ctx, ev.EventID) {
		metrics.RecordEventDuplicate()
		return true, true
	}
	if !e.queue.Enqueue(ctx, ev) {
		if ev.EventID != "" {
			e.deduper.Unrecord(ctx, ev.EventID)
		}
		return false, false
	}
	metrics.RecordEventIngested()
	return true, false
}

// Process feeds one event through every active matcher. It runs on the
// dispatcher goroutine only, which is what serializes trigger matching.
func (e *Engine) Process(ctx context.Context, ev model.InputEvent) {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	var matched []trigger.Definition
	for _, def := range e.active {
		if def.Matcher.Feed(ev) == trigger.Matched {
			matched = append(matched, def)
		}
	}
	e.mu.Unlock()

	for _, def := range matched {
		e.recordDiscovery(ctx, def)
	}
}

// recordDiscovery appends the discovery to the ledger exactly once and
// runs the consequences: hint cancellation, level derivation, the
// leaderboard upsert, persistence and notifications.
func (e *Engine) recordDiscovery(ctx context.Context, def trigger.Definition) {
	e.mu.Lock()
	now := e.now()
	if !discovery.Record(e.ledger, def.ID, def.Title, def.Message, now) {
		e.mu.Unlock()
		metrics.RecordDiscoveryDuplicate()
		return
	}
	rec := e.ledger.Discoveries[len(e.ledger.Discoveries)-1]
	prevLevel := e.level
	e.level = discovery.Level(len(e.ledger.Discoveries))
	leveledUp := e.level > prevLevel
	if leveledUp {
		e.armMatchersLocked()
	} else {
		// Drop just this trigger from the active set.
		kept := e.active[:0]
		for _, d := range e.active {
			if d.ID != def.ID {
				kept = append(kept, d)
			}
		}
		e.active = kept
	}
	e.projector.Upsert(leaderboard.EntryFor(e.ledger))
	e.dirty = true
	level := e.level
	var candidates []trigger.Definition
	if leveledUp {
		candidates = e.registry.Undiscovered(e.ledger, level)
	}
	// Reset swaps the scheduler under mu; capture it before unlocking.
	sched := e.scheduler
	e.mu.Unlock()

	metrics.RecordDiscovery()
	if sched.Pending(def.ID) {
		metrics.RecordHintCancelled()
	}
	sched.MarkDiscovered(def.ID)

	if leveledUp {
		metrics.RecordLevelUp()
		e.logger.Info(ctx, "level up",
			logger.Int("from", prevLevel),
			logger.Int("to", level),
		)
		if e.onLevelUp != nil {
			e.onLevelUp(prevLevel, level)
		}
		// Freshly unlocked triggers join the hint rotation.
		sched.Plan(candidates, e.eligible, e.fireHint)
	}

	e.logger.Info(ctx, "discovery recorded",
		logger.String("id", def.ID),
		logger.Int("level", level),
	)
	if e.onDiscovery != nil {
		e.onDiscovery(rec, level)
	}
	if e.outbox != nil {
		e.outbox.Publish(ctx, outbox.KindDiscovery, e.Identity(), map[string]string{
			"discovery": def.ID,
			"level":     fmt.Sprintf("%d", level),
		})
	}

	// Discoveries are too rare to batch; write through immediately.
	e.Flush(ctx)
}

// eligible adapts the hint policy for the scheduler. Called from timer
// goroutines; must not touch the scheduler.
func (e *Engine) eligible(id string, at time.Time) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return 0, false
	}
	return e.policy.Eligible(e.ledger, id, at)
}

// fireHint records the issued hint in the ledger and hands it to the
// observer. Runs on a timer goroutine.
func (e *Engine) fireHint(def trigger.Definition, level int) {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	now := e.now()
	e.ledger.HintsIssued = append(e.ledger.HintsIssued, model.HintRecord{
		DiscoveryID: def.ID,
		Level:       level,
		Timestamp:   now,
	})
	e.dirty = true
	e.mu.Unlock()

	metrics.RecordHintFired(level)
	e.logger.Debug(context.Background(), "hint fired",
		logger.String("id", def.ID),
		logger.Int("level", level),
	)
	if e.onHint != nil {
		e.onHint(hint.Hint{
			DiscoveryID: def.ID,
			Level:       level,
			Target:      def.Matcher.Target(),
			At:          now,
		})
	}
}

// Snapshot returns the current visitor state.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return Snapshot{}, ErrNotStarted
	}
	l := e.ledger.Clone()
	return Snapshot{
		Identity:    l.Identity,
		Level:       e.level,
		VisitCount:  l.VisitCount,
		ChosenName:  l.ChosenName,
		Discoveries: l.Discoveries,
		CatalogSize: len(e.registry.Definitions()),
		FirstSeenAt: l.FirstSeenAt,
	}, nil
}

// Identity returns the bound pseudonymous identity.
func (e *Engine) Identity() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ledger == nil {
		return ""
	}
	return e.ledger.Identity
}

// Leaderboard returns the ranked projection truncated to n.
func (e *Engine) Leaderboard(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil, ErrNotStarted
	}
	p := e.projector
	e.mu.Unlock()
	return p.Top(n), nil
}

// SetDisplayName records the visitor's chosen leaderboard name.
func (e *Engine) SetDisplayName(ctx context.Context, name string) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return ErrNotStarted
	}
	e.ledger.ChosenName = name
	e.projector.Upsert(leaderboard.EntryFor(e.ledger))
	e.dirty = true
	id := e.ledger.Identity
	e.mu.Unlock()

	if e.outbox != nil {
		e.outbox.Publish(ctx, outbox.KindNameChosen, id, map[string]string{"name": name})
	}
	e.Flush(ctx)
	return nil
}

// Reset wipes the visitor's progress: discoveries and hints cleared,
// visit count back to one, identity and first-seen unchanged. The
// published leaderboard row is left alone; it reflects history already
// earned and only new progress replaces it. Pending hint timers are
// cancelled by rebuilding the scheduler.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return ErrNotStarted
	}
	old := e.scheduler
	e.ledger.Discoveries = []model.DiscoveryRecord{}
	e.ledger.HintsIssued = []model.HintRecord{}
	e.ledger.VisitCount = 1
	e.ledger.LastSeenAt = e.now()
	e.level = discovery.Level(0)
	e.armMatchersLocked()
	e.scheduler = hint.NewScheduler(e.policy, e.schedulerOpts...)
	e.dirty = true
	candidates := e.registry.Undiscovered(e.ledger, e.level)
	sched := e.scheduler
	e.mu.Unlock()

	old.Stop()
	sched.Plan(candidates, e.eligible, e.fireHint)
	e.Flush(ctx)
	e.logger.Info(ctx, "progress reset", logger.String("identity", e.Identity()))
	return nil
}

// Flush persists the ledger (when dirty) and the leaderboard projection.
func (e *Engine) Flush(ctx context.Context) {
	e.mu.Lock()
	if !e.started || !e.dirty {
		e.mu.Unlock()
		return
	}
	l := e.ledger.Clone()
	snapshot := e.projector.Snapshot()
	e.dirty = false
	e.mu.Unlock()

	written := e.store.WriteLedger(ctx, l)
	e.store.WriteLeaderboard(ctx, snapshot)
	metrics.RecordFlush()
	metrics.UpdateLeaderboardSize(len(snapshot))
	if written == 0 {
		// Keep the ledger dirty so the next flush retries every realm.
		e.mu.Lock()
		e.dirty = true
		e.mu.Unlock()
		e.logger.Warn(ctx, "no realm accepted the ledger; will retry",
			logger.String("identity", l.Identity))
	}
}

func (e *Engine) flushLoop(ctx context.Context) {
	defer e.flushWG.Done()

	ticker := time.NewTicker(e.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.Flush(ctx)
			if e.outbox != nil {
				e.outbox.Flush(ctx)
			}
		}
	}
}

// QueueLen returns the number of events awaiting dispatch.
func (e *Engine) QueueLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.queue == nil {
		return 0
	}
	return e.queue.Len()
}

// Stop drains the queue, cancels hint timers and performs a final flush.
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	disp := e.dispatch
	queue := e.queue
	sched := e.scheduler
	e.mu.Unlock()

	e.logger.Info(ctx, "stopping engine...")

	close(e.stopCh)
	e.flushWG.Wait()

	if err := disp.Shutdown(ctx); err != nil {
		e.logger.Warn(ctx, "dispatcher did not stop cleanly", logger.Error(err))
	}
	_ = queue.Close()
	sched.Stop()

	e.Flush(ctx)
	if e.outbox != nil {
		e.outbox.Flush(ctx)
	}

	e.mu.Lock()
	e.started = false
	e.mu.Unlock()
	e.logger.Info(ctx, "engine stopped")
}
