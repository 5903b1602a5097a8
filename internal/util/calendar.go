package util

import (
	"context"
	"time"

	"openhours/internal/domain"
	"openhours/internal/hours"
)

// FacilityCalendar answers opening-hours questions for one facility.
type FacilityCalendar struct {
	resolver *hours.Resolver
	loc      *time.Location
}

// NewFacilityCalendar creates a FacilityCalendar. Query instants are
// converted to loc before resolution; a nil loc keeps each query's own
// location.
func NewFacilityCalendar(resolver *hours.Resolver, loc *time.Location) *FacilityCalendar {
	return &FacilityCalendar{resolver: resolver, loc: loc}
}

// Status resolves the opening outcome at t.
func (fc *FacilityCalendar) Status(ctx context.Context, t time.Time) (domain.Outcome, error) {
	if fc.loc != nil {
		t = t.In(fc.loc)
	}
	return fc.resolver.Resolve(ctx, t)
}

// IsOpen returns whether the facility is open at time t.
func (fc *FacilityCalendar) IsOpen(ctx context.Context, t time.Time) (bool, error) {
	out, err := fc.Status(ctx, t)
	if err != nil {
		return false, err
	}
	return out.Open(), nil
}

// NextOpen returns the next opening at or after t: t itself when already
// open, the zero time when there is no opening within the lookahead window.
func (fc *FacilityCalendar) NextOpen(ctx context.Context, t time.Time) (time.Time, error) {
	out, err := fc.Status(ctx, t)
	if err != nil {
		return time.Time{}, err
	}
	switch out.Status {
	case domain.StatusOpen:
		return out.QueriedAt, nil
	case domain.StatusOpeningSoon:
		return out.OpensAt, nil
	default:
		return time.Time{}, nil
	}
}

// NextClose returns the end of the current or next opening window, or the
// zero time when there is none within the lookahead window.
func (fc *FacilityCalendar) NextClose(ctx context.Context, t time.Time) (time.Time, error) {
	out, err := fc.Status(ctx, t)
	if err != nil {
		return time.Time{}, err
	}
	return ClosingTime(out)
}

// ClosingTime returns the instant the window reported by out closes.
func ClosingTime(out domain.Outcome) (time.Time, error) {
	if out.Rule == nil {
		return time.Time{}, nil
	}
	_, end, err := out.Rule.Hours()
	if err != nil {
		return time.Time{}, err
	}
	day := out.QueriedAt
	if out.Status == domain.StatusOpeningSoon {
		day = out.OpensAt
	}
	return end.On(day, day.Location()), nil
}
