package hint_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nightjarlabs/trailmark/internal/domain/hint"
	"github.com/nightjarlabs/trailmark/internal/domain/model"
	"github.com/nightjarlabs/trailmark/internal/domain/trigger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDailyBudget(t *testing.T) {
	Convey("Given the per-day hint budget rule", t, func() {
		Convey("Then young visitors get one hint per id per day", func() {
			So(hint.DailyBudget(0), ShouldEqual, 1)
			So(hint.DailyBudget(6), ShouldEqual, 1)
			So(hint.DailyBudget(10), ShouldEqual, 2)
		})

		Convey("And the budget caps at two regardless of age", func() {
			So(hint.DailyBudget(40), ShouldEqual, 2)
			So(hint.DailyBudget(365), ShouldEqual, 2)
		})
	})
}

func TestIntensity(t *testing.T) {
	Convey("Given the intensity floor schedule", t, func() {
		Convey("Then the floor rises with visitor age", func() {
			So(hint.Intensity(0, 0), ShouldEqual, hint.LevelSubtle)
			So(hint.Intensity(13, 0), ShouldEqual, hint.LevelSubtle)
			So(hint.Intensity(14, 0), ShouldEqual, hint.LevelPulse)
			So(hint.Intensity(30, 0), ShouldEqual, hint.LevelGlow)
			So(hint.Intensity(60, 0), ShouldEqual, hint.LevelInstruction)
		})

		Convey("And prior hints escalate above the floor", func() {
			So(hint.Intensity(0, 1), ShouldEqual, hint.LevelPulse)
			So(hint.Intensity(0, 2), ShouldEqual, hint.LevelGlow)
			So(hint.Intensity(14, 1), ShouldEqual, hint.LevelGlow)
		})

		Convey("And escalation maxes out at two prior hints", func() {
			So(hint.Intensity(0, 5), ShouldEqual, hint.LevelGlow)
			So(hint.Intensity(14, 9), ShouldEqual, hint.LevelInstruction)
		})

		Convey("And intensity never exceeds the instruction level", func() {
			So(hint.Intensity(120, 10), ShouldEqual, hint.LevelInstruction)
		})
	})
}

func TestPolicyEligible(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	Convey("Given a default policy", t, func() {
		policy := hint.NewPolicy()

		Convey("When the visitor is on their first visit", func() {
			ledger := model.NewLedger("tm-x", now)

			Convey("Then hinting stays silent", func() {
				_, ok := policy.Eligible(ledger, "triple-tap", now)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the visitor is 10 days in on a later visit", func() {
			ledger := model.NewLedger("tm-x", now.AddDate(0, 0, -10))
			ledger.VisitCount = 4

			Convey("Then the first hint of the day is allowed", func() {
				level, ok := policy.Eligible(ledger, "triple-tap", now)
				So(ok, ShouldBeTrue)
				So(level, ShouldEqual, hint.LevelSubtle)
			})

			Convey("And a hint within the last 24h exhausts the budget", func() {
				ledger.HintsIssued = []model.HintRecord{
					{DiscoveryID: "triple-tap", Level: 1, Timestamp: now.Add(-2 * time.Hour)},
				}
				_, ok := policy.Eligible(ledger, "triple-tap", now)
				So(ok, ShouldBeFalse)
			})

			Convey("And a hint older than 24h does not count against the budget", func() {
				ledger.HintsIssued = []model.HintRecord{
					{DiscoveryID: "triple-tap", Level: 1, Timestamp: now.Add(-30 * time.Hour)},
				}
				level, ok := policy.Eligible(ledger, "triple-tap", now)
				So(ok, ShouldBeTrue)
				// The old hint still escalates the intensity.
				So(level, ShouldEqual, hint.LevelPulse)
			})
		})

		Convey("When the visitor is 40 days in", func() {
			ledger := model.NewLedger("tm-x", now.AddDate(0, 0, -40))
			ledger.VisitCount = 12
			ledger.HintsIssued = []model.HintRecord{
				{DiscoveryID: "old-code", Level: 3, Timestamp: now.Add(-3 * time.Hour)},
			}

			Convey("Then a second hint fits inside the daily budget of two", func() {
				_, ok := policy.Eligible(ledger, "old-code", now)
				So(ok, ShouldBeTrue)
			})

			Convey("And a third within 24h does not", func() {
				ledger.HintsIssued = append(ledger.HintsIssued,
					model.HintRecord{DiscoveryID: "old-code", Level: 3, Timestamp: now.Add(-1 * time.Hour)})
				_, ok := policy.Eligible(ledger, "old-code", now)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the id is already discovered", func() {
			ledger := model.NewLedger("tm-x", now.AddDate(0, 0, -10))
			ledger.VisitCount = 4
			ledger.Discoveries = []model.DiscoveryRecord{{ID: "triple-tap"}}

			Convey("Then it is never eligible", func() {
				_, ok := policy.Eligible(ledger, "triple-tap", now)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestScheduler(t *testing.T) {
	defs := []trigger.Definition{
		{ID: "a", Matcher: trigger.NewTypedSequence("aa")},
		{ID: "b", Matcher: trigger.NewTypedSequence("bb")},
		{ID: "c", Matcher: trigger.NewTypedSequence("cc")},
	}
	alwaysEligible := func(string, time.Time) (int, bool) { return hint.LevelSubtle, true }

	Convey("Given a scheduler with short timers", t, func() {
		policy := hint.NewPolicy(hint.WithSessionCap(2))
		sched := hint.NewScheduler(policy,
			hint.WithInitialDelay(10*time.Millisecond),
			hint.WithStagger(10*time.Millisecond),
		)
		defer sched.Stop()

		var mu sync.Mutex
		var fired []string
		record := func(def trigger.Definition, _ int) {
			mu.Lock()
			fired = append(fired, def.ID)
			mu.Unlock()
		}

		Convey("When planning three candidates under a session cap of two", func() {
			n := sched.Plan(defs, alwaysEligible, record)

			Convey("Then only two are scheduled", func() {
				So(n, ShouldEqual, 2)
				So(sched.Pending("a"), ShouldBeTrue)
				So(sched.Pending("b"), ShouldBeTrue)
				So(sched.Pending("c"), ShouldBeFalse)
			})

			Convey("And both fire after their staggered delays", func() {
				time.Sleep(80 * time.Millisecond)
				mu.Lock()
				defer mu.Unlock()
				So(fired, ShouldResemble, []string{"a", "b"})
				So(sched.HintedThisSession(), ShouldEqual, 2)
			})
		})

		Convey("When a second plan lands while the first is still pending", func() {
			more := []trigger.Definition{
				{ID: "d", Matcher: trigger.NewTypedSequence("dd")},
				{ID: "e", Matcher: trigger.NewTypedSequence("ee")},
			}
			first := sched.Plan(defs[:2], alwaysEligible, record)
			second := sched.Plan(more, alwaysEligible, record)

			Convey("Then pending timers already hold the session cap", func() {
				So(first, ShouldEqual, 2)
				So(second, ShouldEqual, 0)
			})

			Convey("And no more than the cap ever fires", func() {
				time.Sleep(80 * time.Millisecond)
				mu.Lock()
				defer mu.Unlock()
				So(fired, ShouldResemble, []string{"a", "b"})
				So(sched.HintedThisSession(), ShouldEqual, 2)
			})
		})

		Convey("When a discovery lands before the timer fires", func() {
			sched.Plan(defs, alwaysEligible, record)
			sched.MarkDiscovered("a")

			Convey("Then the pending hint for that id never fires", func() {
				So(sched.Pending("a"), ShouldBeFalse)
				time.Sleep(80 * time.Millisecond)
				mu.Lock()
				defer mu.Unlock()
				So(fired, ShouldNotContain, "a")
				So(fired, ShouldContain, "b")
			})
		})

		Convey("When eligibility lapses between planning and firing", func() {
			var gate atomic.Bool
			gate.Store(true)
			gated := func(string, time.Time) (int, bool) {
				if gate.Load() {
					return hint.LevelSubtle, true
				}
				return 0, false
			}
			sched.Plan(defs[:1], gated, record)
			gate.Store(false)

			Convey("Then the fire is skipped silently", func() {
				time.Sleep(50 * time.Millisecond)
				mu.Lock()
				defer mu.Unlock()
				So(fired, ShouldBeEmpty)
			})
		})

		Convey("When the scheduler is stopped", func() {
			sched.Plan(defs, alwaysEligible, record)
			sched.Stop()

			Convey("Then nothing fires and replanning is refused", func() {
				time.Sleep(50 * time.Millisecond)
				mu.Lock()
				firedCount := len(fired)
				mu.Unlock()
				So(firedCount, ShouldEqual, 0)
				So(sched.Plan(defs, alwaysEligible, record), ShouldEqual, 0)
			})
		})
	})
}
