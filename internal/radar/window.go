package radar

import (
	"regexp"
	"strconv"
	"time"
)

var windowPattern = regexp.MustCompile(`^(\d+)([hdw])$`)

// DefaultWindowSpan is used when the requested window string is invalid.
const DefaultWindowSpan = 7 * 24 * time.Hour

// ParseWindow converts a window spec like "24h", "7d" or "2w" into an
// inclusive time window ending at now. Anything that does not match
// `^\d+[hdw]$` falls back to the default seven days.
func ParseWindow(spec string, now time.Time) TimeWindow {
	span := DefaultWindowSpan
	if m := windowPattern.FindStringSubmatch(spec); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			switch m[2] {
			case "h":
				span = time.Duration(n) * time.Hour
			case "d":
				span = time.Duration(n) * 24 * time.Hour
			case "w":
				span = time.Duration(n) * 7 * 24 * time.Hour
			}
		}
	}
	return TimeWindow{From: now.Add(-span), To: now}
}
