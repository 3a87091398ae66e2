package trigger_test

import (
	"testing"
	"time"

	"github.com/nightjarlabs/trailmark/internal/domain/model"
	"github.com/nightjarlabs/trailmark/internal/domain/trigger"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func click(target string, at time.Time) model.InputEvent {
	return model.InputEvent{Kind: model.EventClick, Target: target, TS: at}
}

func char(c string, at time.Time) model.InputEvent {
	return model.InputEvent{Kind: model.EventChar, Char: c, TS: at}
}

func key(k string, at time.Time) model.InputEvent {
	return model.InputEvent{Kind: model.EventKeyDown, Key: k, TS: at}
}

func TestClickCount(t *testing.T) {
	Convey("Given a 3-click matcher with a 1s window", t, func() {
		m := trigger.NewClickCount("site-logo", 3, time.Second)

		Convey("When three clicks land within the window", func() {
			So(m.Feed(click("site-logo", t0)), ShouldEqual, trigger.Partial)
			So(m.Feed(click("site-logo", t0.Add(200*time.Millisecond))), ShouldEqual, trigger.Partial)

			Convey("Then the third click matches", func() {
				So(m.Feed(click("site-logo", t0.Add(400*time.Millisecond))), ShouldEqual, trigger.Matched)
			})

			Convey("And matching resets the matcher", func() {
				m.Feed(click("site-logo", t0.Add(400*time.Millisecond)))
				So(m.Feed(click("site-logo", t0.Add(500*time.Millisecond))), ShouldEqual, trigger.Partial)
			})
		})

		Convey("When clicks fall outside the window", func() {
			m.Feed(click("site-logo", t0))
			m.Feed(click("site-logo", t0.Add(300*time.Millisecond)))

			Convey("Then stale clicks no longer count", func() {
				So(m.Feed(click("site-logo", t0.Add(2*time.Second))), ShouldEqual, trigger.Partial)
			})
		})

		Convey("When a click lands on another element", func() {
			m.Feed(click("site-logo", t0))
			m.Feed(click("elsewhere", t0.Add(100*time.Millisecond)))

			Convey("Then partial progress resets", func() {
				So(m.Feed(click("site-logo", t0.Add(200*time.Millisecond))), ShouldEqual, trigger.Partial)
				So(m.Feed(click("site-logo", t0.Add(300*time.Millisecond))), ShouldEqual, trigger.Partial)
				So(m.Feed(click("site-logo", t0.Add(400*time.Millisecond))), ShouldEqual, trigger.Matched)
			})
		})
	})
}

func TestTypedSequence(t *testing.T) {
	Convey("Given a matcher for the word 'ember'", t, func() {
		m := trigger.NewTypedSequence("ember")

		Convey("When the word is typed in order", func() {
			at := t0
			for _, c := range "embe" {
				So(m.Feed(char(string(c), at)), ShouldEqual, trigger.Partial)
				at = at.Add(100 * time.Millisecond)
			}

			Convey("Then the final character completes the match", func() {
				So(m.Feed(char("r", at)), ShouldEqual, trigger.Matched)
			})
		})

		Convey("When a wrong character interrupts", func() {
			m.Feed(char("e", t0))
			m.Feed(char("m", t0.Add(100*time.Millisecond)))
			So(m.Feed(char("x", t0.Add(200*time.Millisecond))), ShouldEqual, trigger.NoMatch)

			Convey("Then progress restarts from zero", func() {
				at := t0.Add(300 * time.Millisecond)
				for _, c := range "embe" {
					m.Feed(char(string(c), at))
					at = at.Add(100 * time.Millisecond)
				}
				So(m.Feed(char("r", at)), ShouldEqual, trigger.Matched)
			})
		})

		Convey("When the interrupting character restarts the prefix", func() {
			m.Feed(char("e", t0))
			m.Feed(char("m", t0.Add(100*time.Millisecond)))

			Convey("Then a stray leading character counts as position one", func() {
				So(m.Feed(char("e", t0.Add(200*time.Millisecond))), ShouldEqual, trigger.Partial)
				So(m.Feed(char("m", t0.Add(300*time.Millisecond))), ShouldEqual, trigger.Partial)
			})
		})

		Convey("When typing stalls past the horizon", func() {
			m.Feed(char("e", t0))
			m.Feed(char("m", t0.Add(100*time.Millisecond)))

			Convey("Then stale progress is discarded", func() {
				So(m.Feed(char("b", t0.Add(10*time.Second))), ShouldEqual, trigger.NoMatch)
			})
		})
	})
}

func TestHoverDuration(t *testing.T) {
	Convey("Given a 4s hover matcher", t, func() {
		m := trigger.NewHoverDuration("footer-sigil", 4*time.Second)

		Convey("When the pointer dwells long enough", func() {
			So(m.Feed(model.InputEvent{Kind: model.EventHoverStart, Target: "footer-sigil", TS: t0}), ShouldEqual, trigger.Partial)

			Convey("Then the hover end completes the match", func() {
				ev := model.InputEvent{Kind: model.EventHoverEnd, Target: "footer-sigil", TS: t0.Add(5 * time.Second)}
				So(m.Feed(ev), ShouldEqual, trigger.Matched)
			})
		})

		Convey("When the pointer leaves too early", func() {
			m.Feed(model.InputEvent{Kind: model.EventHoverStart, Target: "footer-sigil", TS: t0})
			ev := model.InputEvent{Kind: model.EventHoverEnd, Target: "footer-sigil", TS: t0.Add(time.Second)}

			Convey("Then there is no match", func() {
				So(m.Feed(ev), ShouldEqual, trigger.NoMatch)
			})
		})

		Convey("When a hover end arrives without a start", func() {
			ev := model.InputEvent{Kind: model.EventHoverEnd, Target: "footer-sigil", TS: t0}

			Convey("Then there is no match", func() {
				So(m.Feed(ev), ShouldEqual, trigger.NoMatch)
			})
		})

		Convey("When clicks happen mid-hover", func() {
			m.Feed(model.InputEvent{Kind: model.EventHoverStart, Target: "footer-sigil", TS: t0})
			m.Feed(click("footer-sigil", t0.Add(time.Second)))
			ev := model.InputEvent{Kind: model.EventHoverEnd, Target: "footer-sigil", TS: t0.Add(5 * time.Second)}

			Convey("Then the dwell is undisturbed", func() {
				So(m.Feed(ev), ShouldEqual, trigger.Matched)
			})
		})
	})
}

func TestKeySequence(t *testing.T) {
	Convey("Given the classic 10-key sequence", t, func() {
		keys := []string{"ArrowUp", "ArrowUp", "ArrowDown", "ArrowDown", "ArrowLeft", "ArrowRight", "ArrowLeft", "ArrowRight", "b", "a"}
		m := trigger.NewKeySequence(keys...)

		Convey("When the full sequence is entered", func() {
			at := t0
			var last trigger.MatchResult
			for _, k := range keys {
				last = m.Feed(key(k, at))
				at = at.Add(150 * time.Millisecond)
			}

			Convey("Then the final key matches", func() {
				So(last, ShouldEqual, trigger.Matched)
			})
		})

		Convey("When a wrong key interrupts near the end", func() {
			at := t0
			for _, k := range keys[:8] {
				m.Feed(key(k, at))
				at = at.Add(150 * time.Millisecond)
			}
			So(m.Feed(key("x", at)), ShouldEqual, trigger.NoMatch)

			Convey("Then the sequence must restart", func() {
				So(m.Feed(key("b", at.Add(150*time.Millisecond))), ShouldEqual, trigger.NoMatch)
			})
		})
	})
}

func TestRegionClick(t *testing.T) {
	Convey("Given a matcher for the top-left corner of the hero", t, func() {
		m := trigger.NewRegionClick("hero-panel", 0, 0, 0.1, 0.1)

		Convey("When a click lands inside the region", func() {
			ev := model.InputEvent{Kind: model.EventClick, Target: "hero-panel", X: 0.05, Y: 0.03, TS: t0}

			Convey("Then it matches immediately", func() {
				So(m.Feed(ev), ShouldEqual, trigger.Matched)
			})
		})

		Convey("When a click lands outside the region", func() {
			ev := model.InputEvent{Kind: model.EventClick, Target: "hero-panel", X: 0.5, Y: 0.5, TS: t0}

			Convey("Then it does not match", func() {
				So(m.Feed(ev), ShouldEqual, trigger.NoMatch)
			})
		})
	})
}

func TestDefaultCatalog(t *testing.T) {
	Convey("Given the default catalog", t, func() {
		catalog := trigger.DefaultCatalog()

		Convey("Then every entry has a unique id and a matcher", func() {
			seen := map[string]bool{}
			for _, def := range catalog {
				So(seen[def.ID], ShouldBeFalse)
				seen[def.ID] = true
				So(def.Matcher, ShouldNotBeNil)
				So(def.MinLevel, ShouldBeGreaterThanOrEqualTo, 1)
			}
		})
	})
}
