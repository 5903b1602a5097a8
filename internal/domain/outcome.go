package domain

import "time"

// Status is the opening state reported for a query instant.
type Status string

const (
	StatusOpen        Status = "OPEN"
	StatusClosed      Status = "CLOSED"
	StatusOpeningSoon Status = "OPENING_SOON"
)

// Outcome is the result of resolving opening hours for one query instant.
type Outcome struct {
	Status Status
	// Weekday is the classification of the day the outcome refers to.
	// NoWeekday when closed.
	Weekday WeekDay
	// OpensAt is the next opening instant; set only for StatusOpeningSoon.
	OpensAt time.Time
	// QueriedAt echoes the query instant.
	QueriedAt time.Time
	// Rule is the winning rule, nil when closed.
	Rule *Rule
}

// ClosedOutcome returns the outcome for a query with no opening in sight.
func ClosedOutcome(queriedAt time.Time) Outcome {
	return Outcome{Status: StatusClosed, QueriedAt: queriedAt}
}

// Open reports whether the facility is open at the queried instant.
func (o Outcome) Open() bool { return o.Status == StatusOpen }
