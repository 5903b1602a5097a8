package hours

import "time"

// civilDate identifies a calendar day independent of location.
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}

// addDays moves t by whole calendar days, keeping its location and wall
// clock across daylight-saving changes.
func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// inRange reports whether lo <= t <= hi.
func inRange(t, lo, hi time.Time) bool {
	return !t.Before(lo) && !t.After(hi)
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
