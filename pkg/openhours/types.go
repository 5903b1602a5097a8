package openhours

// Rule is the JSON form of an opening-hours rule. Instants use the layout
// "2006-01-02 15:04:05 -0700"; an empty ValidTo means open-ended.
type Rule struct {
	ID        string   `json:"id,omitempty"`
	Label     string   `json:"label,omitempty"`
	ValidFrom string   `json:"validFrom"`
	ValidTo   string   `json:"validTo,omitempty"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Weekdays  []string `json:"weekdays"`
}

// Facility describes one facility served by the API.
type Facility struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// FacilitiesResponse is returned by GET /api/facilities.
type FacilitiesResponse struct {
	Facilities []Facility `json:"facilities"`
}

// RulesResponse is returned by GET /api/facilities/{id}/rules.
type RulesResponse struct {
	Facility string `json:"facility"`
	Rules    []Rule `json:"rules"`
}

// StatusResponse is returned by GET /api/facilities/{id}/status.
type StatusResponse struct {
	Facility string `json:"facility"`
	// Status is OPEN, OPENING_SOON or CLOSED.
	Status string `json:"status"`
	Open   bool   `json:"open"`
	// Weekday is the day classification (MONDAY..SUNDAY or HOLIDAY) of the
	// day the status refers to; empty when closed.
	Weekday   string `json:"weekday,omitempty"`
	QueriedAt string `json:"queriedAt"`
	OpensAt   string `json:"opensAt,omitempty"`
	ClosesAt  string `json:"closesAt,omitempty"`
	// Text is a short English rendering, e.g. "Today, 06.05.2014 at 14:00".
	Text string `json:"text"`
	Rule *Rule  `json:"rule,omitempty"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status     string `json:"status"`
	Facilities int    `json:"facilities"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
