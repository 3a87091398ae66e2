// Package dispatch drains the input-event queue into the engine.
//
// Exactly one dispatcher consumes the queue. Trigger matchers keep
// partial-match state, so events must be processed one at a time in
// arrival order; "two triggers firing simultaneously" is resolved here,
// not with locks inside the matchers.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/nightjarlabs/trailmark/internal/domain/model"
	"github.com/nightjarlabs/trailmark/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Sink consumes ordered input events.
type Sink interface {
	Process(ctx context.Context, ev model.InputEvent)
}

// Queue is how the dispatcher receives events.
type Queue interface {
	Dequeue() <-chan model.InputEvent
}

// Dispatcher runs the single consumer loop.
type Dispatcher struct {
	queue Queue
	sink  Sink
	log   logger.Logger

	shutdown chan struct{}
	done     chan struct{}
}

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// New creates a dispatcher over queue feeding sink.
func New(queue Queue, sink Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:    queue,
		sink:     sink,
		log:      logger.Nop(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the consumer loop goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	events := d.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.shutdown:
			// Drain what is already queued so a discovery buffered just
			// before teardown still lands in the ledger.
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return
					}
					d.sink.Process(ctx, ev)
				default:
					return
				}
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			d.sink.Process(ctx, ev)
		}
	}
}

// Shutdown stops the dispatcher after draining queued events.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	close(d.shutdown)

	timeout, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	select {
	case <-d.done:
		return nil
	case <-timeout.Done():
		d.log.Warn(ctx, "dispatcher shutdown timed out")
		return fmt.Errorf("dispatcher shutdown: %w", timeout.Err())
	}
}
