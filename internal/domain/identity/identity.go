package identity

import (
	"fmt"
	"time"
)

// Prefix marks derived identities in storage keys and log lines.
const Prefix = "tm"

// Bind folds an essence string into the stable pseudonymous identity.
// Pure function: the same essence within the same calendar month always
// yields the same identity. The month salt makes identities age out
// slowly instead of persisting forever.
func Bind(essence string, now time.Time) string {
	return fmt.Sprintf("%s-%08x-%s", Prefix, fold(essence), monthBucket(now))
}

// fold is a 32-bit rolling hash over the essence bytes. Well-mixing is
// all that matters here; collision resistance is explicitly not a goal.
func fold(s string) uint32 {
	var h int32
	for _, c := range s {
		h = h<<5 - h + c
	}
	return uint32(h)
}

// monthBucket returns the coarse temporal salt, e.g. "2026-03".
func monthBucket(now time.Time) string {
	return fmt.Sprintf("%04d-%02d", now.Year(), int(now.Month()))
}
