// Package realm provides redundant persistence for progress ledgers
// across independent, individually unreliable storage backends.
//
// Each backend is a Realm: a small key/value contract over whatever the
// backend really is (an embedded KV file, a SQLite document table, a
// size-capped crumb file). Realms fail independently; a blocked or full
// realm is treated as absent, never as fatal.
package realm

import "context"

// Realm is one physical storage backend.
type Realm interface {
	// Name identifies the realm in logs and metrics.
	Name() string

	// Capabilities describes the realm's behavior.
	Capabilities() Capabilities

	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Capabilities describes a realm's storage behavior.
type Capabilities struct {
	// Synchronous realms complete writes before Set returns; a recorded
	// discovery survives an immediate page close only if at least one
	// synchronous realm accepted it.
	Synchronous bool

	// QuotaBytes bounds a single value, 0 for unbounded. Writes over
	// quota fail with ErrOverQuota.
	QuotaBytes int
}
