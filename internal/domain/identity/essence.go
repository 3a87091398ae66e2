// Package identity derives the pseudonymous visitor identity from
// slowly-changing environment signals. The identity is a convenience
// pseudonym, not an authentication credential; collisions are tolerated.
package identity

import (
	"fmt"
	"strings"
	"time"
)

// Signals are the low-entropy environment readings reported by the page.
// Each field changes rarely for a given device, which is what makes the
// derived identity stable across visits.
type Signals struct {
	CanvasSignature string `json:"canvasSignature"` // rendering signature of an offscreen canvas
	Timezone        string `json:"timezone"`        // IANA zone or UTC offset string
	ScreenWidth     int    `json:"screenWidth"`
	ScreenHeight    int    `json:"screenHeight"`
	ColorDepth      int    `json:"colorDepth"`
	Language        string `json:"language"`
	Platform        string `json:"platform"`
}

// Essence folds the signals plus a week-granularity time bucket into a
// single string. The week bucket keeps essences from drifting mid-visit
// while still letting them age.
func Essence(s Signals, now time.Time) string {
	year, week := now.ISOWeek()
	parts := []string{
		s.CanvasSignature,
		s.Timezone,
		fmt.Sprintf("%dx%d@%d", s.ScreenWidth, s.ScreenHeight, s.ColorDepth),
		s.Language,
		s.Platform,
		fmt.Sprintf("w%d-%02d", year, week),
	}
	return strings.Join(parts, "|")
}
