package realm

import "errors"

// Sentinel kinds for realm errors. Callers treat unavailable, malformed
// and over-quota identically: the realm yields nothing this round.
var (
	ErrNotFound    = errors.New("key not found")
	ErrUnavailable = errors.New("realm unavailable")
	ErrMalformed   = errors.New("malformed ledger document")
	ErrOverQuota   = errors.New("value exceeds realm quota")
)
