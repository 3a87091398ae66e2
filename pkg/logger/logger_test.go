package logger_test

import (
	"context"
	"testing"

	"github.com/nightjarlabs/trailmark/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	ctx := context.Background()

	Convey("Given an uninitialized logger package", t, func() {
		Convey("Then Get falls back to the no-op logger without panicking", func() {
			l := logger.Get()
			So(l, ShouldNotBeNil)
			So(func() { l.Info(ctx, "quiet") }, ShouldNotPanic)
		})
	})

	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When logging with fields", func() {
			l := logger.Named("test")

			Convey("Then no call panics", func() {
				So(func() {
					l.Info(ctx, "hello", logger.String("k", "v"), logger.Int("n", 1))
					l.Warn(ctx, "careful", logger.Float64("f", 1.5))
					l.Debug(ctx, "detail", logger.Any("x", struct{}{}))
				}, ShouldNotPanic)
			})
		})

		Convey("When setting levels by string", func() {
			Convey("Then known levels parse and unknown ones error", func() {
				So(logger.SetLevelString("debug"), ShouldBeNil)
				So(logger.SetLevelString("WARN"), ShouldBeNil)
				So(logger.SetLevelString(""), ShouldBeNil)
				So(logger.SetLevelString("loud"), ShouldNotBeNil)
			})
		})
	})
}
