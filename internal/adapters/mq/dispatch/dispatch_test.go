package dispatch_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nightjarlabs/trailmark/internal/adapters/mq/dispatch"
	"github.com/nightjarlabs/trailmark/internal/adapters/mq/queue"
	"github.com/nightjarlabs/trailmark/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingSink struct {
	mu   sync.Mutex
	seen []string
}

func (s *recordingSink) Process(_ context.Context, ev model.InputEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, ev.EventID)
}

func (s *recordingSink) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running dispatcher over a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		sink := &recordingSink{}
		d := dispatch.New(q, sink)
		d.Start(ctx)

		Convey("When events are enqueued", func() {
			for _, id := range []string{"a", "b", "c"} {
				So(q.Enqueue(ctx, queue.Event{EventID: id, Kind: model.EventClick}), ShouldBeTrue)
			}

			Convey("Then they reach the sink in arrival order", func() {
				So(func() []string {
					deadline := time.Now().Add(time.Second)
					for time.Now().Before(deadline) {
						if got := sink.ids(); len(got) == 3 {
							return got
						}
						time.Sleep(time.Millisecond)
					}
					return sink.ids()
				}(), ShouldResemble, []string{"a", "b", "c"})

				So(d.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When shutdown races queued events", func() {
			for _, id := range []string{"x", "y"} {
				So(q.Enqueue(ctx, queue.Event{EventID: id, Kind: model.EventClick}), ShouldBeTrue)
			}
			So(d.Shutdown(ctx), ShouldBeNil)

			Convey("Then queued events are drained before stopping", func() {
				So(sink.ids(), ShouldResemble, []string{"x", "y"})
			})
		})
	})

	Convey("Given a dispatcher whose context is cancelled", t, func() {
		q := queue.NewInMemoryQueue()
		sink := &recordingSink{}
		d := dispatch.New(q, sink)

		runCtx, cancel := context.WithCancel(ctx)
		d.Start(runCtx)
		cancel()

		Convey("Then shutdown returns promptly", func() {
			So(d.Shutdown(ctx), ShouldBeNil)
		})
	})
}
