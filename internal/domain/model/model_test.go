package model_test

import (
	"testing"
	"time"

	"github.com/nightjarlabs/trailmark/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProgressLedger(t *testing.T) {
	Convey("Given a fresh ledger", t, func() {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ledger := model.NewLedger("tm-abc123", now)

		Convey("Then it starts at visit one with no discoveries", func() {
			So(ledger.VisitCount, ShouldEqual, 1)
			So(ledger.Discoveries, ShouldBeEmpty)
			So(ledger.HintsIssued, ShouldBeEmpty)
			So(ledger.FirstSeenAt, ShouldEqual, now)
			So(ledger.LastSeenAt, ShouldEqual, now)
		})

		Convey("When discoveries are appended", func() {
			ledger.Discoveries = append(ledger.Discoveries, model.DiscoveryRecord{ID: "konami", Timestamp: now})

			Convey("Then HasDiscovery finds them", func() {
				So(ledger.HasDiscovery("konami"), ShouldBeTrue)
				So(ledger.HasDiscovery("triple-tap"), ShouldBeFalse)
			})
		})

		Convey("When hints are issued for two ids", func() {
			ledger.HintsIssued = append(ledger.HintsIssued,
				model.HintRecord{DiscoveryID: "konami", Level: 1, Timestamp: now},
				model.HintRecord{DiscoveryID: "hover-sigil", Level: 1, Timestamp: now},
				model.HintRecord{DiscoveryID: "konami", Level: 2, Timestamp: now.Add(time.Hour)},
			)

			Convey("Then HintsFor filters by id", func() {
				So(ledger.HintsFor("konami"), ShouldHaveLength, 2)
				So(ledger.HintsFor("hover-sigil"), ShouldHaveLength, 1)
				So(ledger.HintsFor("missing"), ShouldBeEmpty)
			})
		})

		Convey("When cloned", func() {
			ledger.Discoveries = append(ledger.Discoveries, model.DiscoveryRecord{ID: "konami"})
			clone := ledger.Clone()
			clone.Discoveries[0].ID = "mutated"
			clone.VisitCount = 99

			Convey("Then mutations do not leak back", func() {
				So(ledger.Discoveries[0].ID, ShouldEqual, "konami")
				So(ledger.VisitCount, ShouldEqual, 1)
			})
		})
	})
}
