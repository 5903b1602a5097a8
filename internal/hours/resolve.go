package hours

import (
	"sort"
	"time"

	"openhours/internal/domain"
)

// Resolve determines the opening status at q. All day boundaries are taken
// in q's location. The rules slice is not modified.
//
// Only rules overlapping [q, q+8 days] are considered. Each is projected
// onto the days it covers; when several rules match a day, the one opening
// earliest wins, ties going to the rule that starts being valid first. The
// first day from q's date on that still has an opening (or is open at q)
// determines the outcome.
func Resolve(rules []domain.Rule, oracle HolidayOracle, q time.Time) (domain.Outcome, error) {
	relevant := RelevantRules(rules, q)
	if len(relevant) == 0 {
		return domain.ClosedOutcome(q), nil
	}

	holidays := holidayLookup{oracle: oracle}
	winners, err := project(relevant, holidays, q)
	if err != nil {
		return domain.Outcome{}, err
	}
	return scan(winners, holidays, q)
}

// RelevantRules returns the rules whose validity overlaps [q, q+8 days],
// sorted by ValidFrom. Rules with equal ValidFrom keep their input order.
func RelevantRules(rules []domain.Rule, q time.Time) []domain.Rule {
	w := addDays(q, LookaheadDays)
	var out []domain.Rule
	for _, r := range rules {
		if relevant(r, q, w) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ValidFrom.Before(out[j].ValidFrom)
	})
	return out
}

func relevant(r domain.Rule, q, w time.Time) bool {
	if r.OpenEnded() {
		return !r.ValidFrom.After(w)
	}
	if r.Inverted() {
		return false
	}
	return inRange(r.ValidFrom, q, w) ||
		inRange(r.ValidTo, q, w) ||
		(r.ValidFrom.Before(q) && r.ValidTo.After(w))
}

// slot is the rule governing one calendar day together with its parsed
// opening window.
type slot struct {
	rule       *domain.Rule
	start, end domain.Clock
}

// project builds the per-day winner map for the window [q, q+8 days).
func project(rules []domain.Rule, holidays holidayLookup, q time.Time) (map[civilDate]slot, error) {
	loc := q.Location()
	w := addDays(q, LookaheadDays)
	winners := make(map[civilDate]slot)

	for i := range rules {
		r := &rules[i]
		if r.Weekdays.Empty() {
			continue
		}
		var parsed bool
		var start, end domain.Clock

		for d := later(q, r.ValidFrom.In(loc)); d.Before(w); d = addDays(d, 1) {
			// ValidTo is exclusive here, unlike in RelevantRules.
			if !r.OpenEnded() && !d.Before(r.ValidTo) {
				continue
			}
			ok, err := matches(r, d, holidays)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if !parsed {
				start, end, err = r.Hours()
				if err != nil {
					return nil, err
				}
				parsed = true
			}

			key := dateOf(d)
			if prev, ok := winners[key]; ok && prev.start <= start {
				continue
			}
			winners[key] = slot{rule: r, start: start, end: end}
		}
	}
	return winners, nil
}

// matches reports whether r applies on day d: either d's weekday is listed
// or r listens for holidays and d is one.
func matches(r *domain.Rule, d time.Time, holidays holidayLookup) (bool, error) {
	if r.Weekdays.Has(domain.FromWeekday(d.Weekday())) {
		return true, nil
	}
	if !r.Weekdays.Has(domain.Holiday) {
		return false, nil
	}
	return holidays.isHoliday(d)
}

// scan walks the window day by day and returns the first opening.
func scan(winners map[civilDate]slot, holidays holidayLookup, q time.Time) (domain.Outcome, error) {
	loc := q.Location()
	w := addDays(q, LookaheadDays)
	today := dateOf(q)
	now := domain.ClockOf(q)

	for d := q; d.Before(w); d = addDays(d, 1) {
		s, ok := winners[dateOf(d)]
		if !ok {
			continue
		}
		holiday, err := holidays.isHoliday(d)
		if err != nil {
			return domain.Outcome{}, err
		}
		weekday := domain.Classify(d.Weekday(), holiday)

		if dateOf(d) != today || s.start > now {
			return domain.Outcome{
				Status:    domain.StatusOpeningSoon,
				Weekday:   weekday,
				OpensAt:   s.start.On(d, loc),
				QueriedAt: q,
				Rule:      s.rule,
			}, nil
		}
		if now <= s.end {
			return domain.Outcome{
				Status:    domain.StatusOpen,
				Weekday:   weekday,
				QueriedAt: q,
				Rule:      s.rule,
			}, nil
		}
		// Closed for today; a later day may still open.
	}
	return domain.ClosedOutcome(q), nil
}

// holidayLookup wraps the oracle so that failures carry the date.
type holidayLookup struct {
	oracle HolidayOracle
}

func (h holidayLookup) isHoliday(d time.Time) (bool, error) {
	if h.oracle == nil {
		return false, nil
	}
	ok, err := h.oracle.IsHoliday(d)
	if err != nil {
		return false, &HolidayLookupError{Date: d, Err: err}
	}
	return ok, nil
}
