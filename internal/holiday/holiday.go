// Package holiday provides holiday oracles for opening-hours resolution:
// computed regional calendars, explicit date lists, exchange trading
// calendars and a memoizing wrapper.
package holiday

import (
	"fmt"
	"sync"
	"time"

	"openhours/internal/hours"
)

// Compile-time interface checks.
var _ hours.HolidayOracle = None{}
var _ hours.HolidayOracle = (*Dates)(nil)
var _ hours.HolidayOracle = (*Memo)(nil)

// None never reports a holiday.
type None struct{}

// IsHoliday always returns false.
func (None) IsHoliday(time.Time) (bool, error) { return false, nil }

// date is a comparable calendar-day key.
type date struct {
	year  int
	month time.Month
	day   int
}

// dateOf takes the calendar date of t in t's own location.
func dateOf(t time.Time) date {
	y, m, d := t.Date()
	return date{year: y, month: m, day: d}
}

// Dates is a fixed set of holiday dates.
type Dates struct {
	days map[date]bool
}

// NewDates parses "YYYY-MM-DD" strings into a Dates oracle.
func NewDates(days []string) (*Dates, error) {
	d := &Dates{days: make(map[date]bool, len(days))}
	for _, s := range days {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("holiday date %q: %w", s, err)
		}
		d.days[dateOf(t)] = true
	}
	return d, nil
}

// IsHoliday reports whether t's calendar date is in the set.
func (d *Dates) IsHoliday(t time.Time) (bool, error) {
	return d.days[dateOf(t)], nil
}

// Memo caches successful answers of another oracle per calendar date.
// Errors are not cached. Safe for concurrent use.
type Memo struct {
	oracle hours.HolidayOracle

	mu    sync.RWMutex
	cache map[date]bool
}

// NewMemo wraps oracle.
func NewMemo(oracle hours.HolidayOracle) *Memo {
	return &Memo{oracle: oracle, cache: make(map[date]bool)}
}

// IsHoliday answers from the cache or asks the wrapped oracle.
func (m *Memo) IsHoliday(t time.Time) (bool, error) {
	key := dateOf(t)
	m.mu.RLock()
	v, ok := m.cache[key]
	m.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err := m.oracle.IsHoliday(t)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	m.cache[key] = v
	m.mu.Unlock()
	return v, nil
}
