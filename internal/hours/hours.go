// Package hours resolves opening hours: given a set of date-bounded weekly
// rules, a holiday oracle and a query instant it reports whether a facility
// is open, opening soon or closed for the coming week.
package hours

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"openhours/internal/domain"
)

// LookaheadDays is the number of calendar days searched from the query
// instant.
const LookaheadDays = 8

// HolidayOracle reports whether the calendar date of t (in t's location) is
// a holiday. Implementations must be deterministic for a given date.
type HolidayOracle interface {
	IsHoliday(t time.Time) (bool, error)
}

// HolidayFunc adapts a plain function to HolidayOracle.
type HolidayFunc func(t time.Time) (bool, error)

// IsHoliday calls f(t).
func (f HolidayFunc) IsHoliday(t time.Time) (bool, error) { return f(t) }

// RuleSource supplies the rules of one facility, in no particular order.
type RuleSource interface {
	Rules(ctx context.Context) ([]domain.Rule, error)
}

// HolidayLookupError wraps a failure of the holiday oracle. It is never
// treated as "not a holiday".
type HolidayLookupError struct {
	Date time.Time
	Err  error
}

func (e *HolidayLookupError) Error() string {
	return fmt.Sprintf("holiday lookup for %s: %v", e.Date.Format("2006-01-02"), e.Err)
}

func (e *HolidayLookupError) Unwrap() error { return e.Err }

// Resolver binds a rule source and a holiday oracle.
type Resolver struct {
	source RuleSource
	oracle HolidayOracle
	log    *slog.Logger
}

// NewResolver creates a Resolver. A nil oracle never reports holidays; a nil
// logger falls back to slog.Default().
func NewResolver(source RuleSource, oracle HolidayOracle, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{source: source, oracle: oracle, log: log}
}

// Resolve reads the current rules and resolves them for q.
func (r *Resolver) Resolve(ctx context.Context, q time.Time) (domain.Outcome, error) {
	rules, err := r.source.Rules(ctx)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("reading rules: %w", err)
	}
	out, err := Resolve(rules, r.oracle, q)
	if err != nil {
		return domain.Outcome{}, err
	}
	r.log.Debug("resolved opening hours",
		"at", q.Format(time.RFC3339),
		"rules", len(rules),
		"status", out.Status,
		"weekday", out.Weekday.String(),
	)
	return out, nil
}
