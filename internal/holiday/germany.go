package holiday

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"

	"openhours/internal/hours"
)

var _ hours.HolidayOracle = (*Germany)(nil)

// germanRegions maps state codes to their public holiday lists.
var germanRegions = map[string][]*cal.Holiday{
	"BB": de.HolidaysBB,
	"BE": de.HolidaysBE,
	"BW": de.HolidaysBW,
	"BY": de.HolidaysBY,
	"HB": de.HolidaysHB,
	"HE": de.HolidaysHE,
	"HH": de.HolidaysHH,
	"MV": de.HolidaysMV,
	"NI": de.HolidaysNI,
	"NW": de.HolidaysNW,
	"RP": de.HolidaysRP,
	"SH": de.HolidaysSH,
	"SL": de.HolidaysSL,
	"SN": de.HolidaysSN,
	"ST": de.HolidaysST,
	"TH": de.HolidaysTH,
}

// Regions returns the supported German state codes.
func Regions() []string {
	out := make([]string, 0, len(germanRegions))
	for k := range germanRegions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Germany reports the public holidays of one German state.
type Germany struct {
	region   string
	calendar *cal.BusinessCalendar
}

// NewGermany creates an oracle for the given state code, e.g. "NW" for
// North Rhine-Westphalia.
func NewGermany(region string) (*Germany, error) {
	code := strings.ToUpper(strings.TrimSpace(region))
	list, ok := germanRegions[code]
	if !ok {
		return nil, fmt.Errorf("unsupported German region %q (supported: %s)",
			region, strings.Join(Regions(), ", "))
	}
	calendar := cal.NewBusinessCalendar()
	calendar.AddHoliday(list...)
	return &Germany{region: code, calendar: calendar}, nil
}

// Region returns the state code.
func (g *Germany) Region() string { return g.region }

// IsHoliday reports whether t's calendar date is a public holiday.
func (g *Germany) IsHoliday(t time.Time) (bool, error) {
	actual, observed, _ := g.calendar.IsHoliday(t)
	return actual || observed, nil
}
