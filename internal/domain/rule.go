package domain

import (
	"fmt"
	"strings"
	"time"
)

// Clock is a wall-clock time of day in seconds after midnight. EndOfDay
// (24:00) is the largest valid value.
type Clock int

// EndOfDay is the "24:00" sentinel accepted as a closing time.
const EndOfDay Clock = 24 * 60 * 60

// ParseClock parses a zero-padded 24-hour "HH:MM" string. "24:00" is
// accepted as EndOfDay.
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	h, okH := twoDigits(s[0:2])
	m, okM := twoDigits(s[3:5])
	if !okH || !okM {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	if h == 24 && m == 0 {
		return EndOfDay, nil
	}
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("time out of range: %q", s)
	}
	return Clock(h*3600 + m*60), nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// ClockOf returns the wall-clock time of t in its own location, to the
// second.
func ClockOf(t time.Time) Clock {
	h, m, s := t.Clock()
	return Clock(h*3600 + m*60 + s)
}

// Hour returns the hour component (24 for EndOfDay).
func (c Clock) Hour() int { return int(c) / 3600 }

// Minute returns the minute component.
func (c Clock) Minute() int { return int(c) % 3600 / 60 }

// String formats c as "HH:MM", dropping seconds.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On returns the instant at clock c on the calendar date of day, in loc.
// EndOfDay lands on midnight of the following day.
func (c Clock) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), int(c)%60, 0, loc)
}

// InvalidRuleError reports a rule whose opening hours cannot be parsed.
type InvalidRuleError struct {
	RuleID string
	Field  string
	Value  string
	Err    error
}

func (e *InvalidRuleError) Error() string {
	id := e.RuleID
	if id == "" {
		id = "<unnamed>"
	}
	return fmt.Sprintf("rule %s: invalid %s %q: %v", id, e.Field, e.Value, e.Err)
}

func (e *InvalidRuleError) Unwrap() error { return e.Err }

// Rule is a recurring weekly opening-hours definition, in effect between
// ValidFrom and ValidTo. A zero ValidTo means the rule is open-ended.
type Rule struct {
	ID        string
	Label     string
	ValidFrom time.Time
	ValidTo   time.Time
	StartTime string // "HH:MM"
	EndTime   string // "HH:MM" or "24:00"
	Weekdays  WeekdaySet
}

// OpenEnded reports whether the rule has no ValidTo bound.
func (r Rule) OpenEnded() bool { return r.ValidTo.IsZero() }

// Inverted reports whether ValidTo lies before ValidFrom. Such a rule
// never applies.
func (r Rule) Inverted() bool {
	return !r.OpenEnded() && r.ValidTo.Before(r.ValidFrom)
}

// Hours parses the daily opening window of the rule.
func (r Rule) Hours() (start, end Clock, err error) {
	start, err = ParseClock(r.StartTime)
	if err != nil {
		return 0, 0, &InvalidRuleError{RuleID: r.ID, Field: "start time", Value: r.StartTime, Err: err}
	}
	end, err = ParseClock(r.EndTime)
	if err != nil {
		return 0, 0, &InvalidRuleError{RuleID: r.ID, Field: "end time", Value: r.EndTime, Err: err}
	}
	return start, end, nil
}

// Validate checks the rule's opening window.
func (r Rule) Validate() error {
	start, end, err := r.Hours()
	if err != nil {
		return err
	}
	if start > end {
		return &InvalidRuleError{
			RuleID: r.ID,
			Field:  "opening window",
			Value:  r.StartTime + "-" + r.EndTime,
			Err:    fmt.Errorf("start after end"),
		}
	}
	return nil
}

func (r Rule) String() string {
	to := "open"
	if !r.OpenEnded() {
		to = r.ValidTo.Format(InstantLayout)
	}
	return fmt.Sprintf("%s - %s: %s - %s: [%s]",
		r.ValidFrom.Format(InstantLayout), to, r.StartTime, r.EndTime, r.Weekdays)
}

// InstantLayout is the canonical text form of rule validity bounds.
const InstantLayout = "2006-01-02 15:04:05 -0700"

var instantLayouts = []string{
	InstantLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseInstant parses a rule validity bound. Values without an explicit
// offset are interpreted in loc (UTC when loc is nil).
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised instant %q", s)
}

// RuleSpec is the text form of a Rule used by YAML rule files, the
// configuration and the HTTP API.
type RuleSpec struct {
	ID        string   `yaml:"id,omitempty" json:"id,omitempty"`
	Label     string   `yaml:"label,omitempty" json:"label,omitempty"`
	ValidFrom string   `yaml:"valid_from" json:"validFrom"`
	ValidTo   string   `yaml:"valid_to,omitempty" json:"validTo,omitempty"`
	Start     string   `yaml:"start" json:"start"`
	End       string   `yaml:"end" json:"end"`
	Weekdays  []string `yaml:"weekdays" json:"weekdays"`
}

// Rule converts the spec, interpreting offset-less bounds in loc. Opening
// times are carried verbatim; they are checked when the rule is used.
func (s RuleSpec) Rule(loc *time.Location) (Rule, error) {
	from, err := ParseInstant(s.ValidFrom, loc)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: valid_from: %w", s.ID, err)
	}
	var to time.Time
	if s.ValidTo != "" {
		to, err = ParseInstant(s.ValidTo, loc)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: valid_to: %w", s.ID, err)
		}
	}
	days, err := ParseWeekdaySet(s.Weekdays...)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: weekdays: %w", s.ID, err)
	}
	return Rule{
		ID:        s.ID,
		Label:     s.Label,
		ValidFrom: from,
		ValidTo:   to,
		StartTime: s.Start,
		EndTime:   s.End,
		Weekdays:  days,
	}, nil
}

// SpecOf returns the text form of r.
func SpecOf(r Rule) RuleSpec {
	spec := RuleSpec{
		ID:        r.ID,
		Label:     r.Label,
		ValidFrom: r.ValidFrom.Format(InstantLayout),
		Start:     r.StartTime,
		End:       r.EndTime,
		Weekdays:  r.Weekdays.Strings(),
	}
	if !r.OpenEnded() {
		spec.ValidTo = r.ValidTo.Format(InstantLayout)
	}
	return spec
}

// ParseRules converts a list of specs.
func ParseRules(specs []RuleSpec, loc *time.Location) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		r, err := s.Rule(loc)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
