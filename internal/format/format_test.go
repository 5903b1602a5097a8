package format

import (
	"testing"
	"time"

	"openhours/internal/domain"
)

func TestOutcome(t *testing.T) {
	loc := time.FixedZone("", 2*3600)
	queried := time.Date(2014, 5, 6, 10, 1, 0, 0, loc)

	cases := []struct {
		name string
		in   domain.Outcome
		want string
	}{
		{"open", domain.Outcome{Status: domain.StatusOpen, QueriedAt: queried}, "open"},
		{"closed", domain.ClosedOutcome(queried), "closed"},
		{
			"today",
			domain.Outcome{
				Status:    domain.StatusOpeningSoon,
				Weekday:   domain.Tuesday,
				OpensAt:   time.Date(2014, 5, 6, 14, 0, 0, 0, loc),
				QueriedAt: queried,
			},
			"Today, 06.05.2014 at 14:00",
		},
		{
			"later day",
			domain.Outcome{
				Status:    domain.StatusOpeningSoon,
				Weekday:   domain.Wednesday,
				OpensAt:   time.Date(2014, 5, 7, 14, 0, 0, 0, loc),
				QueriedAt: queried,
			},
			"Wednesday, 07.05.2014 at 14:00",
		},
		{
			"holiday today",
			domain.Outcome{
				Status:    domain.StatusOpeningSoon,
				Weekday:   domain.Holiday,
				OpensAt:   time.Date(2014, 5, 6, 12, 0, 0, 0, loc),
				QueriedAt: queried,
			},
			"Bank holiday:Today, 06.05.2014 at 12:00",
		},
	}
	for _, c := range cases {
		if got := Outcome(c.in); got != c.want {
			t.Errorf("%s: Outcome() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestWindow(t *testing.T) {
	if got := Window(&domain.Rule{StartTime: "10:00", EndTime: "24:00"}); got != "10:00-24:00" {
		t.Errorf("Window = %q", got)
	}
	if got := Window(nil); got != "" {
		t.Errorf("Window(nil) = %q, want empty", got)
	}
}
