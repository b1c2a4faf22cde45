package appointment

import (
	"strings"
	"time"
)

// Window is a daily availability range in the clinic's civil time, stored as
// seconds since midnight. Windows apply uniformly every day of the week.
type Window struct {
	Start int
	End   int
}

// ParseWindows parses a doctor's availability string, e.g.
// "09:00-12:00,14:00-17:00". Malformed entries and entries with start >= end
// are skipped rather than failing the whole string.
func ParseWindows(raw string) []Window {
	var windows []Window

	for _, slot := range strings.Split(raw, ",") {
		startStr, endStr, ok := strings.Cut(slot, "-")
		if !ok {
			continue
		}

		start, err := parseTimeOfDay(strings.TrimSpace(startStr))
		if err != nil {
			continue
		}
		end, err := parseTimeOfDay(strings.TrimSpace(endStr))
		if err != nil {
			continue
		}
		if start >= end {
			continue
		}

		windows = append(windows, Window{Start: start, End: end})
	}

	return windows
}

// IsAvailable reports whether the candidate instant falls inside at least one
// window, evaluated against the instant's time of day in loc. Both window
// boundaries count as available. No windows means not available.
func IsAvailable(windows []Window, candidate time.Time, loc *time.Location) bool {
	local := candidate.In(loc)
	tod := local.Hour()*3600 + local.Minute()*60 + local.Second()

	for _, w := range windows {
		if w.Start <= tod && tod <= w.End {
			return true
		}
	}

	return false
}

func parseTimeOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*3600 + t.Minute()*60, nil
}
