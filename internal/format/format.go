// Package format renders resolved opening outcomes as short English text
// for CLIs and API responses.
package format

import (
	"strings"
	"time"

	"openhours/internal/domain"
)

// DateTimeLayout is the layout used for opening instants.
const DateTimeLayout = "02.01.2006 at 15:04"

// Outcome formats o as "open", "closed", or the next opening such as
// "Today, 06.05.2014 at 14:00" or "Bank holiday:Friday, 26.12.2014 at 10:00".
func Outcome(o domain.Outcome) string {
	switch o.Status {
	case domain.StatusOpen:
		return "open"
	case domain.StatusClosed:
		return "closed"
	case domain.StatusOpeningSoon:
		return Weekday(o) + ", " + DateTime(o.OpensAt)
	default:
		return string(o.Status)
	}
}

// Weekday names the day of the next opening relative to the query: "Today"
// or the English weekday, prefixed with "Bank holiday:" on holidays.
func Weekday(o domain.Outcome) string {
	var b strings.Builder
	if o.Weekday == domain.Holiday {
		b.WriteString("Bank holiday:")
	}
	if sameDate(o.QueriedAt, o.OpensAt) {
		b.WriteString("Today")
	} else {
		b.WriteString(o.OpensAt.Weekday().String())
	}
	return b.String()
}

// DateTime formats t as "dd.mm.yyyy at HH:MM".
func DateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// Window formats a rule's daily opening window as "14:00-20:00".
func Window(r *domain.Rule) string {
	if r == nil {
		return ""
	}
	return r.StartTime + "-" + r.EndTime
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
