// Package httpapi provides the HTTP REST API of the opening-hours service:
// facility listing, status resolution and rule maintenance, in JSON.
package httpapi

import (
	"time"

	"openhours/internal/domain"
	"openhours/internal/facility"
	"openhours/internal/format"
	"openhours/internal/util"
	"openhours/pkg/openhours"
)

// ruleJSON converts a domain rule to its wire form.
func ruleJSON(r domain.Rule) openhours.Rule {
	spec := domain.SpecOf(r)
	return openhours.Rule{
		ID:        spec.ID,
		Label:     spec.Label,
		ValidFrom: spec.ValidFrom,
		ValidTo:   spec.ValidTo,
		Start:     spec.Start,
		End:       spec.End,
		Weekdays:  spec.Weekdays,
	}
}

// ruleSpec converts a wire rule to its text form.
func ruleSpec(r openhours.Rule) domain.RuleSpec {
	return domain.RuleSpec{
		ID:        r.ID,
		Label:     r.Label,
		ValidFrom: r.ValidFrom,
		ValidTo:   r.ValidTo,
		Start:     r.Start,
		End:       r.End,
		Weekdays:  r.Weekdays,
	}
}

func facilityJSON(f *facility.Facility) openhours.Facility {
	return openhours.Facility{ID: f.ID, Name: f.Name, Timezone: f.Location.String()}
}

// StatusResponse renders an outcome for the facility.
func StatusResponse(f *facility.Facility, out domain.Outcome) openhours.StatusResponse {
	resp := openhours.StatusResponse{
		Facility:  f.ID,
		Status:    string(out.Status),
		Open:      out.Open(),
		QueriedAt: out.QueriedAt.Format(time.RFC3339),
		Text:      format.Outcome(out),
	}
	if out.Weekday != domain.NoWeekday {
		resp.Weekday = out.Weekday.String()
	}
	if !out.OpensAt.IsZero() {
		resp.OpensAt = out.OpensAt.Format(time.RFC3339)
	}
	if closes, err := util.ClosingTime(out); err == nil && !closes.IsZero() {
		resp.ClosesAt = closes.Format(time.RFC3339)
	}
	if out.Rule != nil {
		r := ruleJSON(*out.Rule)
		resp.Rule = &r
	}
	return resp
}
