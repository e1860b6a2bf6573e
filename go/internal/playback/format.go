package playback

import (
	"fmt"
	"math"
)

// FormatTimestamp renders a position in seconds as mm:ss, or h:mm:ss past
// the hour mark. Unknown durations (NaN, Inf) and negative values render as
// the fixed placeholder instead of leaking NaN into the UI.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "00:00"
	}

	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
