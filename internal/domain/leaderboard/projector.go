// Package leaderboard derives the ranked table from all locally-known
// ledgers. The projection is advisory: a server-side mirror, when
// present, is the eventual source of truth.
package leaderboard

import (
	"sort"
	"sync"

	"github.com/nightjarlabs/trailmark/internal/domain/model"
)

// DefaultTopN bounds the persisted projection.
const DefaultTopN = 50

// Rank sorts entries by discovery count descending, first-seen ascending
// as tiebreak, stamps 1-based ranks, and truncates to topN. The sort is
// stable so equal entries keep their input order.
func Rank(entries []model.LeaderboardEntry, topN int) []model.LeaderboardEntry {
	ranked := append([]model.LeaderboardEntry(nil), entries...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DiscoveryCount != ranked[j].DiscoveryCount {
			return ranked[i].DiscoveryCount > ranked[j].DiscoveryCount
		}
		return ranked[i].FirstSeenAt.Before(ranked[j].FirstSeenAt)
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Projector keeps the merged set of known entries, upserted by identity.
type Projector struct {
	mu      sync.RWMutex
	entries map[string]model.LeaderboardEntry
	topN    int
}

// New builds a projector truncating to topN entries (DefaultTopN if
// topN <= 0).
func New(topN int) *Projector {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Projector{
		entries: make(map[string]model.LeaderboardEntry),
		topN:    topN,
	}
}

// Merge folds previously-known entries (read back from a realm) into the
// projection without displacing fresher local state: an identity already
// present keeps whichever entry has the higher discovery count.
func (p *Projector) Merge(known []model.LeaderboardEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range known {
		if cur, ok := p.entries[e.Identity]; ok && cur.DiscoveryCount >= e.DiscoveryCount {
			continue
		}
		e.Rank = 0
		p.entries[e.Identity] = e
	}
}

// Upsert replaces the entry for an identity. Called on every local
// ledger mutation, so the local identity's row always reflects the
// in-memory ledger.
func (p *Projector) Upsert(e model.LeaderboardEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e.Rank = 0
	p.entries[e.Identity] = e
}

// Top returns the ranked projection truncated to n (n <= 0 or beyond
// the projector bound falls back to the bound).
func (p *Projector) Top(n int) []model.LeaderboardEntry {
	p.mu.RLock()
	all := make([]model.LeaderboardEntry, 0, len(p.entries))
	for _, e := range p.entries {
		all = append(all, e)
	}
	p.mu.RUnlock()

	// Map iteration order is random; pre-sort by identity so the stable
	// rank sort sees deterministic input.
	sort.Slice(all, func(i, j int) bool { return all[i].Identity < all[j].Identity })

	if n <= 0 || n > p.topN {
		n = p.topN
	}
	return Rank(all, n)
}

// Snapshot returns the bounded projection for persistence.
func (p *Projector) Snapshot() []model.LeaderboardEntry {
	return p.Top(p.topN)
}

// EntryFor projects one ledger into its leaderboard row.
func EntryFor(ledger *model.ProgressLedger) model.LeaderboardEntry {
	return model.LeaderboardEntry{
		Identity:       ledger.Identity,
		DisplayName:    ledger.ChosenName,
		DiscoveryCount: len(ledger.Discoveries),
		FirstSeenAt:    ledger.FirstSeenAt,
	}
}
