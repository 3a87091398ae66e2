package trigger

import "time"

// DefaultCatalog returns the site's discoverable achievements. Higher
// MinLevel entries stay dormant until the visitor levels up, which keeps
// early visits from tripping the deeper easter eggs by accident.
func DefaultCatalog() []Definition {
	return []Definition{
		{
			ID:       "triple-tap",
			Title:    "Triple Tap",
			Message:  "Three quick taps on the mark. You noticed.",
			MinLevel: 1,
			Matcher:  NewClickCount("site-logo", 3, time.Second),
		},
		{
			ID:       "typed-ember",
			Title:    "Ember",
			Message:  "You typed the word nobody asked you to type.",
			MinLevel: 1,
			Matcher:  NewTypedSequence("ember"),
		},
		{
			ID:       "patient-hover",
			Title:    "The Long Look",
			Message:  "Four seconds on the sigil. Patience noted.",
			MinLevel: 1,
			Matcher:  NewHoverDuration("footer-sigil", 4*time.Second),
		},
		{
			ID:       "old-code",
			Title:    "The Old Code",
			Message:  "Up, up, down, down... some things never leave you.",
			MinLevel: 2,
			Matcher: NewKeySequence(
				"ArrowUp", "ArrowUp", "ArrowDown", "ArrowDown",
				"ArrowLeft", "ArrowRight", "ArrowLeft", "ArrowRight",
				"b", "a",
			),
		},
		{
			ID:       "corner-pocket",
			Title:    "Corner Pocket",
			Message:  "The top-left corner of the hero. Precisely there.",
			MinLevel: 2,
			Matcher:  NewRegionClick("hero-panel", 0, 0, 0.1, 0.1),
		},
		{
			ID:       "five-of-a-kind",
			Title:    "Five of a Kind",
			Message:  "Five clicks on the badge inside two seconds.",
			MinLevel: 3,
			Matcher:  NewClickCount("donor-badge", 5, 2*time.Second),
		},
		{
			ID:       "typed-lantern",
			Title:    "Lantern",
			Message:  "A second word, typed into the dark.",
			MinLevel: 3,
			Matcher:  NewTypedSequence("lantern"),
		},
		{
			ID:       "hold-the-door",
			Title:    "Hold the Door",
			Message:  "Seven seconds. The door remembers.",
			MinLevel: 4,
			Matcher:  NewHoverDuration("hidden-door", 7*time.Second),
		},
		{
			ID:       "typed-nightjar",
			Title:    "Nightjar",
			Message:  "The last word. You were always going to find it.",
			MinLevel: 4,
			Matcher:  NewTypedSequence("nightjar"),
		},
	}
}
