// Package domain defines the core value types shared across openhours:
// opening rules, weekday classifications, wall-clock times and resolved
// opening outcomes.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// WeekDay classifies a calendar day for rule matching: one of the seven
// ordinary weekdays or the synthetic Holiday category.
type WeekDay int

const (
	// NoWeekday is the zero value, used when an outcome has no matched day.
	NoWeekday WeekDay = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
	// Holiday is a public or bank holiday, independent of the real weekday.
	Holiday
)

var weekdayNames = [...]string{
	NoWeekday: "",
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
	Saturday:  "SATURDAY",
	Sunday:    "SUNDAY",
	Holiday:   "HOLIDAY",
}

// String returns the upper-case token used in rule files and APIs.
func (d WeekDay) String() string {
	if d < NoWeekday || d > Holiday {
		return fmt.Sprintf("WeekDay(%d)", int(d))
	}
	return weekdayNames[d]
}

// Weekday returns the calendar weekday wrapped by d. The boolean is false
// for Holiday and NoWeekday, which have no calendar counterpart.
func (d WeekDay) Weekday() (time.Weekday, bool) {
	if d < Monday || d > Sunday {
		return 0, false
	}
	// time.Weekday starts the week on Sunday.
	return time.Weekday(int(d) % 7), true
}

// FromWeekday maps a calendar weekday onto its ordinary WeekDay.
func FromWeekday(w time.Weekday) WeekDay {
	if w == time.Sunday {
		return Sunday
	}
	return WeekDay(w)
}

// Classify returns Holiday when holiday is set, otherwise the ordinary
// weekday of w.
func Classify(w time.Weekday, holiday bool) WeekDay {
	if holiday {
		return Holiday
	}
	return FromWeekday(w)
}

// ParseWeekDay parses a weekday token. Full names and three-letter
// abbreviations are accepted in any case.
func ParseWeekDay(s string) (WeekDay, error) {
	token := strings.ToUpper(strings.TrimSpace(s))
	if token == "" {
		return NoWeekday, fmt.Errorf("empty weekday")
	}
	for d := Monday; d <= Holiday; d++ {
		name := weekdayNames[d]
		if token == name || token == name[:3] {
			return d, nil
		}
	}
	return NoWeekday, fmt.Errorf("unknown weekday %q", s)
}

// WeekdaySet is a set of WeekDay values stored as a bit mask.
type WeekdaySet uint16

// NewWeekdaySet returns a set holding the given days.
func NewWeekdaySet(days ...WeekDay) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

// Add returns a copy of s that also contains d. NoWeekday is ignored.
func (s WeekdaySet) Add(d WeekDay) WeekdaySet {
	if d < Monday || d > Holiday {
		return s
	}
	return s | 1<<uint(d)
}

// Has reports whether d is a member of s.
func (s WeekdaySet) Has(d WeekDay) bool {
	if d < Monday || d > Holiday {
		return false
	}
	return s&(1<<uint(d)) != 0
}

// Empty reports whether s has no members.
func (s WeekdaySet) Empty() bool { return s == 0 }

// Days returns the members of s in Monday..Holiday order.
func (s WeekdaySet) Days() []WeekDay {
	var out []WeekDay
	for d := Monday; d <= Holiday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// Strings returns the member tokens in Monday..Holiday order.
func (s WeekdaySet) Strings() []string {
	days := s.Days()
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}

func (s WeekdaySet) String() string {
	return strings.Join(s.Strings(), ",")
}

// ParseWeekdaySet parses weekday tokens. Each element may itself be a
// comma-separated list, which is how the SQLite store persists sets.
func ParseWeekdaySet(tokens ...string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, tok := range tokens {
		for _, part := range strings.Split(tok, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			d, err := ParseWeekDay(part)
			if err != nil {
				return 0, err
			}
			s = s.Add(d)
		}
	}
	return s, nil
}
