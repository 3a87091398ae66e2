package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/nightjarlabs/trailmark/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.New(dedupe.WithMaxSize(3))

		Convey("When an id is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "ev-1")
			second := d.SeenAndRecord(ctx, "ev-1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When more ids arrive than the bound allows", func() {
			for i := 0; i < 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("ev-%d", i))
			}

			Convey("Then the oldest id was evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "ev-0"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "ev-3"), ShouldBeTrue)
			})
		})

		Convey("When an id is unrecorded", func() {
			d.SeenAndRecord(ctx, "ev-1")
			d.Unrecord(ctx, "ev-1")

			Convey("Then it can be recorded again", func() {
				So(d.SeenAndRecord(ctx, "ev-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown id", func() {
			d.Unrecord(ctx, "never-seen")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.New(dedupe.WithMaxSize(0))

		Convey("When many ids are recorded", func() {
			for i := 0; i < 100; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("ev-%d", i)), ShouldBeFalse)
			}

			Convey("Then none are evicted", func() {
				So(d.Size(), ShouldEqual, 100)
			})
		})
	})
}
