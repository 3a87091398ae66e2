// Package dedupe tracks already-ingested input event ids so transport
// retries never feed the trigger matchers twice.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen event ids for at-most-once ingestion.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an id so it may be retried, used when an event was
	// marked seen but could not be enqueued.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of ids currently remembered.
	Size() int
}

const defaultMaxSize = 10000

// ringDeduper implements Deduper with a map for membership and a ring
// buffer for FIFO eviction once maxSize is reached. maxSize <= 0 means
// unbounded.
type ringDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	next    int
	maxSize int
}

// New creates a deduper with the given options.
func New(opts ...Option) Deduper {
	d := &ringDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 {
		// Evict whatever occupied this ring slot before reusing it.
		if old := d.ring[d.next]; old != "" {
			delete(d.seen, old)
		}
		d.ring[d.next] = id
		d.next = (d.next + 1) % d.maxSize
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	for i, slot := range d.ring {
		if slot == id {
			d.ring[i] = ""
			break
		}
	}
}

func (d *ringDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
