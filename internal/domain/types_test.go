package domain

import (
	"errors"
	"testing"
	"time"
)

func TestWeekdayMapping(t *testing.T) {
	cases := []struct {
		in   time.Weekday
		want WeekDay
	}{
		{time.Monday, Monday},
		{time.Tuesday, Tuesday},
		{time.Wednesday, Wednesday},
		{time.Thursday, Thursday},
		{time.Friday, Friday},
		{time.Saturday, Saturday},
		{time.Sunday, Sunday},
	}
	for _, c := range cases {
		got := FromWeekday(c.in)
		if got != c.want {
			t.Errorf("FromWeekday(%v) = %v, want %v", c.in, got, c.want)
		}
		back, ok := got.Weekday()
		if !ok || back != c.in {
			t.Errorf("%v.Weekday() = %v, %v, want %v, true", got, back, ok, c.in)
		}
	}

	if _, ok := Holiday.Weekday(); ok {
		t.Error("Holiday.Weekday() reported a calendar weekday")
	}
	if got := Classify(time.Thursday, true); got != Holiday {
		t.Errorf("Classify(Thursday, holiday) = %v, want HOLIDAY", got)
	}
	if got := Classify(time.Thursday, false); got != Thursday {
		t.Errorf("Classify(Thursday, workday) = %v, want THURSDAY", got)
	}
}

func TestParseWeekdaySet(t *testing.T) {
	s, err := ParseWeekdaySet("monday", "TUE", "SATURDAY,sunday,holiday")
	if err != nil {
		t.Fatalf("ParseWeekdaySet: %v", err)
	}
	for _, d := range []WeekDay{Monday, Tuesday, Saturday, Sunday, Holiday} {
		if !s.Has(d) {
			t.Errorf("set missing %v", d)
		}
	}
	if s.Has(Wednesday) {
		t.Error("set unexpectedly has WEDNESDAY")
	}
	if got, want := s.String(), "MONDAY,TUESDAY,SATURDAY,SUNDAY,HOLIDAY"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	if _, err := ParseWeekdaySet("funday"); err == nil {
		t.Error("expected error for unknown weekday")
	}

	var empty WeekdaySet
	if !empty.Empty() || empty.Has(Monday) || empty.Has(NoWeekday) {
		t.Error("zero WeekdaySet should be empty")
	}
	if NewWeekdaySet(NoWeekday).Has(NoWeekday) {
		t.Error("NoWeekday must never be a member")
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"00:00", 0, false},
		{"14:00", 14 * 3600, false},
		{"09:59", 9*3600 + 59*60, false},
		{"23:59", 23*3600 + 59*60, false},
		{"24:00", EndOfDay, false},
		{"24:01", 0, true},
		{"25:00", 0, true},
		{"12:60", 0, true},
		{"9:00", 0, true},
		{"0900", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseClock(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if got != c.want {
			t.Errorf("ParseClock(%q) = %d, want %d", c.in, got, c.want)
		}
	}
	if got := Clock(14 * 3600).String(); got != "14:00" {
		t.Errorf("String() = %q, want %q", got, "14:00")
	}
}

func TestClockOn(t *testing.T) {
	loc := time.FixedZone("", 2*3600)
	day := time.Date(2014, 5, 6, 10, 1, 0, 0, loc)

	got := Clock(14 * 3600).On(day, loc)
	want := time.Date(2014, 5, 6, 14, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("On = %v, want %v", got, want)
	}

	got = EndOfDay.On(day, loc)
	want = time.Date(2014, 5, 7, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("EndOfDay.On = %v, want %v", got, want)
	}
}

func TestRuleHours(t *testing.T) {
	r := Rule{ID: "late", StartTime: "14:00", EndTime: "24:00"}
	start, end, err := r.Hours()
	if err != nil {
		t.Fatalf("Hours: %v", err)
	}
	if start != 14*3600 || end != EndOfDay {
		t.Errorf("Hours = %d, %d", start, end)
	}

	bad := Rule{ID: "broken", StartTime: "2pm", EndTime: "20:00"}
	_, _, err = bad.Hours()
	var ire *InvalidRuleError
	if !errors.As(err, &ire) {
		t.Fatalf("expected *InvalidRuleError, got %v", err)
	}
	if ire.RuleID != "broken" || ire.Field != "start time" || ire.Value != "2pm" {
		t.Errorf("unexpected error fields: %+v", ire)
	}

	if err := (Rule{StartTime: "20:00", EndTime: "14:00"}).Validate(); err == nil {
		t.Error("Validate should reject start after end")
	}
}

func TestRuleSpecRoundTrip(t *testing.T) {
	spec := RuleSpec{
		ID:        "autumn",
		ValidFrom: "2014-08-31 22:00:00 +0000",
		ValidTo:   "2014-09-30 21:59:59 +0000",
		Start:     "14:00",
		End:       "20:00",
		Weekdays:  []string{"SATURDAY", "SUNDAY", "HOLIDAY"},
	}
	r, err := spec.Rule(nil)
	if err != nil {
		t.Fatalf("Rule: %v", err)
	}
	if want := time.Date(2014, 8, 31, 22, 0, 0, 0, time.UTC); !r.ValidFrom.Equal(want) {
		t.Errorf("ValidFrom = %v, want %v", r.ValidFrom, want)
	}
	if r.OpenEnded() {
		t.Error("rule should not be open-ended")
	}
	if !r.Weekdays.Has(Holiday) || r.Weekdays.Has(Monday) {
		t.Errorf("Weekdays = %v", r.Weekdays)
	}

	back := SpecOf(r)
	if back.ValidFrom != spec.ValidFrom || back.ValidTo != spec.ValidTo {
		t.Errorf("SpecOf bounds = %q..%q, want %q..%q", back.ValidFrom, back.ValidTo, spec.ValidFrom, spec.ValidTo)
	}

	openEnded, err := RuleSpec{ValidFrom: "2014-01-01", Start: "10:00", End: "12:00"}.Rule(time.UTC)
	if err != nil {
		t.Fatalf("Rule: %v", err)
	}
	if !openEnded.OpenEnded() {
		t.Error("missing valid_to should give an open-ended rule")
	}
	if SpecOf(openEnded).ValidTo != "" {
		t.Error("open-ended rule should have empty ValidTo spec")
	}
}

func TestRuleInverted(t *testing.T) {
	from := time.Date(2014, 5, 1, 0, 0, 0, 0, time.UTC)
	r := Rule{ValidFrom: from, ValidTo: from.Add(-time.Hour)}
	if !r.Inverted() {
		t.Error("expected inverted rule")
	}
	r.ValidTo = time.Time{}
	if r.Inverted() {
		t.Error("open-ended rule is never inverted")
	}
}
