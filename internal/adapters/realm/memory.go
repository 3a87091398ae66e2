package realm

import (
	"context"
	"sync"
)

// MemoryRealm is an in-process realm used in tests and as a last-resort
// volatile backend. Failure injection mimics blocked or quota-starved
// browser storage.
type MemoryRealm struct {
	mu     sync.RWMutex
	name   string
	data   map[string][]byte
	quota  int
	failRd bool
	failWr bool
}

// MemoryOption configures a MemoryRealm.
type MemoryOption func(*MemoryRealm)

// WithQuota caps individual values, like a cookie-sized backend.
func WithQuota(bytes int) MemoryOption {
	return func(r *MemoryRealm) { r.quota = bytes }
}

// WithFailingReads makes every Get return ErrUnavailable.
func WithFailingReads() MemoryOption {
	return func(r *MemoryRealm) { r.failRd = true }
}

// WithFailingWrites makes every Set return ErrUnavailable.
func WithFailingWrites() MemoryOption {
	return func(r *MemoryRealm) { r.failWr = true }
}

// NewMemoryRealm creates a named in-memory realm.
func NewMemoryRealm(name string, opts ...MemoryOption) *MemoryRealm {
	r := &MemoryRealm{
		name: name,
		data: make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MemoryRealm) Name() string { return r.name }

func (r *MemoryRealm) Capabilities() Capabilities {
	return Capabilities{Synchronous: true, QuotaBytes: r.quota}
}

func (r *MemoryRealm) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.failRd {
		return nil, ErrUnavailable
	}
	v, ok := r.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (r *MemoryRealm) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failWr {
		return ErrUnavailable
	}
	if r.quota > 0 && len(value) > r.quota {
		return ErrOverQuota
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	r.data[key] = stored
	return nil
}

func (r *MemoryRealm) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failWr {
		return ErrUnavailable
	}
	delete(r.data, key)
	return nil
}
