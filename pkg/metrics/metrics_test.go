package metrics_test

import (
	"testing"

	"github.com/nightjarlabs/trailmark/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithRegistry(reg),
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("unit"),
		)

		Convey("Then construction registers without panicking", func() {
			So(m, ShouldNotBeNil)
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			So(families, ShouldBeEmpty) // nothing observed yet
		})
	})

	Convey("Given the global helpers", t, func() {
		Convey("Then recording metrics never panics", func() {
			So(func() {
				metrics.RecordDiscovery()
				metrics.RecordDiscoveryDuplicate()
				metrics.RecordLevelUp()
				metrics.RecordReconciliation("bolt")
				metrics.RecordRealmWrite("crumb")
				metrics.RecordRealmWriteError("crumb")
				metrics.RecordRealmReadError("document")
				metrics.RecordHintScheduled()
				metrics.RecordHintFired(3)
				metrics.RecordHintCancelled()
				metrics.RecordEventIngested()
				metrics.UpdateQueueSize(7)
				metrics.UpdateLeaderboardSize(12)
				metrics.RecordOutboxFailure()
				metrics.UpdateOutboxPending(2)
				metrics.RecordHTTPRequest("events", "POST", "202")
				metrics.RecordHTTPRequestDuration("events", "POST", "202", 1.2)
			}, ShouldNotPanic)
		})

		Convey("Then the shared registry gathers the observed families", func() {
			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
