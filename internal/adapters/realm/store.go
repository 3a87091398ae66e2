package realm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nightjarlabs/trailmark/internal/domain/model"
	"github.com/nightjarlabs/trailmark/pkg/logger"
	"github.com/nightjarlabs/trailmark/pkg/metrics"
)

// Store fans ledger writes out to every configured realm and reconciles
// reads with the richest-wins rule. Realms are a replicated durability
// layer, not a lock; every write is a full-ledger overwrite.
type Store struct {
	realms []Realm
	log    logger.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l logger.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore builds a store over a fixed ordered list of realms.
func NewStore(realms []Realm, opts ...StoreOption) *Store {
	s := &Store{
		realms: realms,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Realms returns the configured realms in order.
func (s *Store) Realms() []Realm { return s.realms }

// WriteLedger serializes the ledger and writes it under every redundant
// key in every realm. Per-realm failures are swallowed: a blocked or
// full realm must never abort the others. Returns how many realms
// accepted the full key set.
func (s *Store) WriteLedger(ctx context.Context, l *model.ProgressLedger) int {
	raw, err := json.Marshal(l)
	if err != nil {
		s.log.Error(ctx, "ledger marshal failed", logger.Error(err))
		return 0
	}
	keys := LedgerKeys(l.Identity)
	ok := 0
	for _, r := range s.realms {
		accepted := true
		for _, key := range keys {
			if err := r.Set(ctx, key, raw); err != nil {
				accepted = false
				metrics.RecordRealmWriteError(r.Name())
				s.log.Debug(ctx, "realm write failed",
					logger.String("realm", r.Name()),
					logger.String("key", key),
					logger.Error(err),
				)
				break
			}
		}
		if accepted {
			ok++
			metrics.RecordRealmWrite(r.Name())
		}
	}
	return ok
}

// ReadLedger queries every realm under every redundant key and adopts
// the most plausible candidate: longest discoveries list first, latest
// lastSeenAt as tiebreak. If no realm yields a ledger, a fresh one is
// synthesized with visitCount = 1; the operation never fails the
// caller.
func (s *Store) ReadLedger(ctx context.Context, identity string, now time.Time) *model.ProgressLedger {
	var best *model.ProgressLedger
	var bestRealm string

	for _, r := range s.realms {
		for _, key := range LedgerKeys(identity) {
			raw, err := r.Get(ctx, key)
			if err != nil {
				if err != ErrNotFound {
					metrics.RecordRealmReadError(r.Name())
					s.log.Debug(ctx, "realm read failed",
						logger.String("realm", r.Name()),
						logger.String("key", key),
						logger.Error(err),
					)
				}
				continue
			}
			var candidate model.ProgressLedger
			if err := json.Unmarshal(raw, &candidate); err != nil {
				// Malformed is indistinguishable from unavailable here.
				metrics.RecordRealmReadError(r.Name())
				s.log.Debug(ctx, "malformed ledger document",
					logger.String("realm", r.Name()),
					logger.String("key", key),
					logger.Error(err),
				)
				continue
			}
			if candidate.Identity != identity {
				continue
			}
			if richer(&candidate, best) {
				c := candidate
				best = &c
				bestRealm = r.Name()
			}
		}
	}

	if best == nil {
		metrics.RecordLedgerSynthesized()
		s.log.Info(ctx, "no ledger found in any realm; starting fresh",
			logger.String("identity", identity))
		return model.NewLedger(identity, now)
	}
	if best.Discoveries == nil {
		best.Discoveries = []model.DiscoveryRecord{}
	}
	if best.HintsIssued == nil {
		best.HintsIssued = []model.HintRecord{}
	}
	metrics.RecordReconciliation(bestRealm)
	return best
}

// richer implements the richest-wins rule.
func richer(candidate, current *model.ProgressLedger) bool {
	if current == nil {
		return true
	}
	if len(candidate.Discoveries) != len(current.Discoveries) {
		return len(candidate.Discoveries) > len(current.Discoveries)
	}
	return candidate.LastSeenAt.After(current.LastSeenAt)
}

// ReadLeaderboard returns the first leaderboard projection any realm
// yields. The projector re-merges, so realm order only affects which
// stale copy gets repaired.
func (s *Store) ReadLeaderboard(ctx context.Context) []model.LeaderboardEntry {
	for _, r := range s.realms {
		raw, err := r.Get(ctx, LeaderboardKey)
		if err != nil {
			if err != ErrNotFound {
				metrics.RecordRealmReadError(r.Name())
			}
			continue
		}
		var entries []model.LeaderboardEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			metrics.RecordRealmReadError(r.Name())
			continue
		}
		return entries
	}
	return nil
}

// WriteLeaderboard fans the projection out to every realm.
func (s *Store) WriteLeaderboard(ctx context.Context, entries []model.LeaderboardEntry) int {
	raw, err := json.Marshal(entries)
	if err != nil {
		s.log.Error(ctx, "leaderboard marshal failed", logger.Error(err))
		return 0
	}
	return s.writeRaw(ctx, LeaderboardKey, raw)
}

// ReadRaw returns the value under key from the first realm holding it.
func (s *Store) ReadRaw(ctx context.Context, key string) ([]byte, bool) {
	for _, r := range s.realms {
		raw, err := r.Get(ctx, key)
		if err != nil {
			if err != ErrNotFound {
				metrics.RecordRealmReadError(r.Name())
			}
			continue
		}
		return raw, true
	}
	return nil, false
}

// WriteRaw fans a raw value out to every realm.
func (s *Store) WriteRaw(ctx context.Context, key string, value []byte) int {
	return s.writeRaw(ctx, key, value)
}

func (s *Store) writeRaw(ctx context.Context, key string, value []byte) int {
	ok := 0
	for _, r := range s.realms {
		if err := r.Set(ctx, key, value); err != nil {
			metrics.RecordRealmWriteError(r.Name())
			s.log.Debug(ctx, "realm write failed",
				logger.String("realm", r.Name()),
				logger.String("key", key),
				logger.Error(err),
			)
			continue
		}
		ok++
		metrics.RecordRealmWrite(r.Name())
	}
	return ok
}
