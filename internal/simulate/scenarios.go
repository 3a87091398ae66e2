package simulate

import (
	"time"

	"github.com/google/uuid"
)

// Event mirrors the JSON schema for POST /v1/events.
type Event struct {
	EventID string  `json:"event_id"`
	Kind    string  `json:"kind"`
	Target  string  `json:"target,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Key     string  `json:"key,omitempty"`
	Char    string  `json:"char,omitempty"`
	TS      string  `json:"ts"`
}

// Scenario is a named interaction script expected to produce one
// discovery.
type Scenario struct {
	Name       string
	Discovery  string // discovery id the script should trigger
	MinLevel   int
	buildSteps func(base time.Time) []Event
}

// Events materializes the script with fresh event ids and timestamps.
func (s Scenario) Events(base time.Time) []Event {
	return s.buildSteps(base)
}

func stamp(base time.Time, offset time.Duration) string {
	return base.Add(offset).UTC().Format(time.RFC3339)
}

func clickEvent(target string, x, y float64, base time.Time, offset time.Duration) Event {
	return Event{
		EventID: uuid.New().String(),
		Kind:    "click",
		Target:  target,
		X:       x,
		Y:       y,
		TS:      stamp(base, offset),
	}
}

func charEvents(text string, base time.Time) []Event {
	out := make([]Event, 0, len(text))
	for i, c := range text {
		out = append(out, Event{
			EventID: uuid.New().String(),
			Kind:    "char",
			Char:    string(c),
			TS:      stamp(base, time.Duration(i)*120*time.Millisecond),
		})
	}
	return out
}

// Catalog returns the known scenarios in difficulty order. The scripts
// mirror the default trigger catalog.
func Catalog() []Scenario {
	return []Scenario{
		{
			Name:      "triple-tap",
			Discovery: "triple-tap",
			MinLevel:  1,
			buildSteps: func(base time.Time) []Event {
				return []Event{
					clickEvent("site-logo", 0.5, 0.5, base, 0),
					clickEvent("site-logo", 0.5, 0.5, base, 200*time.Millisecond),
					clickEvent("site-logo", 0.5, 0.5, base, 400*time.Millisecond),
				}
			},
		},
		{
			Name:      "typed-ember",
			Discovery: "typed-ember",
			MinLevel:  1,
			buildSteps: func(base time.Time) []Event {
				return charEvents("ember", base)
			},
		},
		{
			Name:      "patient-hover",
			Discovery: "patient-hover",
			MinLevel:  1,
			buildSteps: func(base time.Time) []Event {
				return []Event{
					{
						EventID: uuid.New().String(),
						Kind:    "hoverstart",
						Target:  "footer-sigil",
						TS:      stamp(base, 0),
					},
					{
						EventID: uuid.New().String(),
						Kind:    "hoverend",
						Target:  "footer-sigil",
						TS:      stamp(base, 5*time.Second),
					},
				}
			},
		},
		{
			Name:      "old-code",
			Discovery: "old-code",
			MinLevel:  2,
			buildSteps: func(base time.Time) []Event {
				keys := []string{
					"ArrowUp", "ArrowUp", "ArrowDown", "ArrowDown",
					"ArrowLeft", "ArrowRight", "ArrowLeft", "ArrowRight",
					"b", "a",
				}
				out := make([]Event, 0, len(keys))
				for i, k := range keys {
					out = append(out, Event{
						EventID: uuid.New().String(),
						Kind:    "keydown",
						Key:     k,
						TS:      stamp(base, time.Duration(i)*150*time.Millisecond),
					})
				}
				return out
			},
		},
		{
			Name:      "corner-pocket",
			Discovery: "corner-pocket",
			MinLevel:  2,
			buildSteps: func(base time.Time) []Event {
				return []Event{clickEvent("hero-panel", 0.04, 0.04, base, 0)}
			},
		},
	}
}

// Pick returns the scenarios matching names, or the full catalog when
// names is empty. Unknown names are skipped.
func Pick(names []string) []Scenario {
	all := Catalog()
	if len(names) == 0 {
		return all
	}
	byName := make(map[string]Scenario, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}
	var out []Scenario
	for _, n := range names {
		if s, ok := byName[n]; ok {
			out = append(out, s)
		}
	}
	return out
}
