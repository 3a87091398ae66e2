// Package outbox delivers progression notifications to an external
// analytics endpoint. Delivery is best-effort: notifications that fail
// to send are persisted through the realm store and retried on the
// next flush, and the engine never blocks on them.
package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nightjarlabs/trailmark/internal/adapters/realm"
	"github.com/nightjarlabs/trailmark/pkg/logger"
	"github.com/nightjarlabs/trailmark/pkg/metrics"
)

const (
	// KindDiscovery announces a newly recorded discovery.
	KindDiscovery = "discovery_made"
	// KindNameChosen announces a display name being set.
	KindNameChosen = "name_chosen"

	defaultTimeout = 3 * time.Second
	maxAttempts    = 8
)

// Notification is one pending analytics event.
type Notification struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	Identity  string            `json:"identity"`
	Detail    map[string]string `json:"detail,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	Attempts  int               `json:"attempts"`
}

// Outbox queues and delivers notifications.
type Outbox struct {
	store    *realm.Store
	endpoint string
	client   *http.Client
	log      logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	pending []Notification
}

// Option applies a configuration option to the Outbox.
type Option func(*Outbox)

// WithLogger sets the outbox logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Outbox) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClient overrides the HTTP client.
func WithClient(c *http.Client) Option {
	return func(o *Outbox) {
		if c != nil {
			o.client = c
		}
	}
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(o *Outbox) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an outbox posting to endpoint, reloading any pending
// notifications a previous run left behind. An empty endpoint disables
// delivery; notifications are then dropped silently.
func New(ctx context.Context, store *realm.Store, endpoint string, opts ...Option) *Outbox {
	o := &Outbox{
		store:    store,
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if raw, ok := store.ReadRaw(ctx, realm.OutboxKey); ok {
		if err := json.Unmarshal(raw, &o.pending); err != nil {
			o.log.Warn(ctx, "discarding malformed outbox document", logger.Error(err))
			o.pending = nil
		}
	}
	metrics.UpdateOutboxPending(len(o.pending))
	return o
}

// Publish queues a notification and attempts immediate delivery.
func (o *Outbox) Publish(ctx context.Context, kind, identity string, detail map[string]string) {
	if o.endpoint == "" {
		return
	}
	n := Notification{
		ID:        ulid.Make().String(),
		Kind:      kind,
		Identity:  identity,
		Detail:    detail,
		CreatedAt: o.now(),
	}

	o.mu.Lock()
	o.pending = append(o.pending, n)
	o.persistLocked(ctx)
	o.mu.Unlock()

	o.Flush(ctx)
}

// Flush retries every pending notification, dropping those that have
// exhausted their attempts.
func (o *Outbox) Flush(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.endpoint == "" || len(o.pending) == 0 {
		return
	}

	remaining := o.pending[:0]
	for _, n := range o.pending {
		if err := o.deliver(ctx, n); err != nil {
			n.Attempts++
			metrics.RecordOutboxFailure()
			if n.Attempts >= maxAttempts {
				o.log.Warn(ctx, "dropping undeliverable notification",
					logger.String("id", n.ID),
					logger.String("kind", n.Kind),
					logger.Error(err),
				)
				continue
			}
			remaining = append(remaining, n)
			continue
		}
		metrics.RecordOutboxDelivery()
	}
	o.pending = remaining
	o.persistLocked(ctx)
}

// Pending returns how many notifications await delivery.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

func (o *Outbox) deliver(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

func (o *Outbox) persistLocked(ctx context.Context) {
	raw, err := json.Marshal(o.pending)
	if err != nil {
		o.log.Error(ctx, "outbox marshal failed", logger.Error(err))
		return
	}
	o.store.WriteRaw(ctx, realm.OutboxKey, raw)
	metrics.UpdateOutboxPending(len(o.pending))
}
