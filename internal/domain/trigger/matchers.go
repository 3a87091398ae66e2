package trigger

import (
	"time"

	"github.com/nightjarlabs/trailmark/internal/domain/model"
)

// ClickCount matches an exact number of clicks on one element within a
// debounce window. Clicks older than the window fall out of the count.
type ClickCount struct {
	Elem   string
	Count  int
	Within time.Duration

	recent []time.Time
}

// NewClickCount builds a click-count matcher.
func NewClickCount(elem string, count int, within time.Duration) *ClickCount {
	return &ClickCount{Elem: elem, Count: count, Within: within}
}

func (m *ClickCount) Feed(ev model.InputEvent) MatchResult {
	if ev.Kind != model.EventClick {
		return NoMatch
	}
	if ev.Target != m.Elem {
		m.Reset()
		return NoMatch
	}
	cutoff := ev.TS.Add(-m.Within)
	kept := m.recent[:0]
	for _, t := range m.recent {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.recent = append(kept, ev.TS)
	if len(m.recent) >= m.Count {
		m.Reset()
		return Matched
	}
	return Partial
}

func (m *ClickCount) Reset()         { m.recent = nil }
func (m *ClickCount) Target() string { return m.Elem }

// TypedSequence matches an ordered character sequence typed anywhere on
// the page. A wrong character resets progress, then re-seeds position
// zero so overlapping prefixes are not lost.
type TypedSequence struct {
	Text    string
	Horizon time.Duration

	pos  int
	last time.Time
}

// NewTypedSequence builds a typed-sequence matcher with the default
// staleness horizon.
func NewTypedSequence(text string) *TypedSequence {
	return &TypedSequence{Text: text, Horizon: defaultHorizon}
}

func (m *TypedSequence) Feed(ev model.InputEvent) MatchResult {
	if ev.Kind != model.EventChar || ev.Char == "" {
		return NoMatch
	}
	if m.pos > 0 && ev.TS.Sub(m.last) > m.Horizon {
		m.pos = 0
	}
	m.last = ev.TS
	if ev.Char == string(m.Text[m.pos]) {
		m.pos++
		if m.pos == len(m.Text) {
			m.Reset()
			return Matched
		}
		return Partial
	}
	m.pos = 0
	if ev.Char == string(m.Text[0]) {
		m.pos = 1
		return Partial
	}
	return NoMatch
}

func (m *TypedSequence) Reset()         { m.pos = 0 }
func (m *TypedSequence) Target() string { return "" }

// HoverDuration matches holding the pointer over one element for at
// least a threshold duration, measured hoverstart to hoverend.
type HoverDuration struct {
	Elem     string
	Duration time.Duration

	start time.Time
	in    bool
}

// NewHoverDuration builds a hover-duration matcher.
func NewHoverDuration(elem string, d time.Duration) *HoverDuration {
	return &HoverDuration{Elem: elem, Duration: d}
}

func (m *HoverDuration) Feed(ev model.InputEvent) MatchResult {
	switch ev.Kind {
	case model.EventHoverStart:
		if ev.Target != m.Elem {
			m.Reset()
			return NoMatch
		}
		m.start = ev.TS
		m.in = true
		return Partial
	case model.EventHoverEnd:
		if !m.in || ev.Target != m.Elem {
			m.Reset()
			return NoMatch
		}
		held := ev.TS.Sub(m.start)
		m.Reset()
		if held >= m.Duration {
			return Matched
		}
		return NoMatch
	default:
		// Clicks and keys while hovering do not disturb the dwell.
		return NoMatch
	}
}

func (m *HoverDuration) Reset() {
	m.start = time.Time{}
	m.in = false
}

func (m *HoverDuration) Target() string { return m.Elem }

// KeySequence matches an ordered sequence of key names pressed anywhere
// on the page, e.g. the classic 10-key code.
type KeySequence struct {
	Keys    []string
	Horizon time.Duration

	pos  int
	last time.Time
}

// NewKeySequence builds a key-sequence matcher with the default
// staleness horizon.
func NewKeySequence(keys ...string) *KeySequence {
	return &KeySequence{Keys: keys, Horizon: defaultHorizon}
}

func (m *KeySequence) Feed(ev model.InputEvent) MatchResult {
	if ev.Kind != model.EventKeyDown || ev.Key == "" {
		return NoMatch
	}
	if m.pos > 0 && ev.TS.Sub(m.last) > m.Horizon {
		m.pos = 0
	}
	m.last = ev.TS
	if ev.Key == m.Keys[m.pos] {
		m.pos++
		if m.pos == len(m.Keys) {
			m.Reset()
			return Matched
		}
		return Partial
	}
	m.pos = 0
	if ev.Key == m.Keys[0] {
		m.pos = 1
		return Partial
	}
	return NoMatch
}

func (m *KeySequence) Reset()         { m.pos = 0 }
func (m *KeySequence) Target() string { return "" }

// RegionClick matches a single click inside a bounded sub-region of one
// element. Coordinates are normalized to the element (0..1 on each axis).
type RegionClick struct {
	Elem                   string
	MinX, MinY, MaxX, MaxY float64
}

// NewRegionClick builds a region-click matcher.
func NewRegionClick(elem string, minX, minY, maxX, maxY float64) *RegionClick {
	return &RegionClick{Elem: elem, MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

func (m *RegionClick) Feed(ev model.InputEvent) MatchResult {
	if ev.Kind != model.EventClick || ev.Target != m.Elem {
		return NoMatch
	}
	if ev.X >= m.MinX && ev.X <= m.MaxX && ev.Y >= m.MinY && ev.Y <= m.MaxY {
		return Matched
	}
	return NoMatch
}

func (m *RegionClick) Reset()         {}
func (m *RegionClick) Target() string { return m.Elem }
