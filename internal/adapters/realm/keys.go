package realm

import "fmt"

// Well-known keys shared by all realms.
const (
	// LeaderboardKey holds the truncated ranked projection.
	LeaderboardKey = "tm:leaderboard"

	// OutboxKey holds analytics notifications awaiting delivery.
	OutboxKey = "tm:outbox"
)

// LedgerKeys returns the redundant keys a ledger is stored under. Every
// write goes to all of them in every realm; a reader that finds any one
// of them finds the ledger. The aliases guard against a single key being
// clobbered by an unrelated script or a partial clear.
func LedgerKeys(identity string) []string {
	return []string{
		"tm:ledger:" + identity,
		fmt.Sprintf("tm:trail:%08x", keyFold(identity)),
		"tm:essence:" + identity,
	}
}

// keyFold mirrors the identity fold so alias keys stay deterministic.
func keyFold(s string) uint32 {
	var h int32
	for _, c := range s {
		h = h<<5 - h + c
	}
	return uint32(h)
}
