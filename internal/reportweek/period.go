package reportweek

import (
	"strings"
	"time"

	// Embedded zone database so period math does not depend on the host's
	// /usr/share/zoneinfo.
	_ "time/tzdata"
)

// Period is the absolute interval a report week covers. Overlap treats it
// as half-open [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Overlaps reports whether p and o share any instant.
func (p Period) Overlaps(o Period) bool {
	return p.Start.Before(o.End) && o.Start.Before(p.End)
}

// LoadZone resolves an IANA zone name. Empty and "Local" are refused because
// they would make period math depend on the host.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, Validationf("timezone %q is not an IANA zone name", name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, Validationf("unknown timezone %q", name)
	}
	return loc, nil
}

// ValidateTimezone is the tenant-configuration gate for zone names.
func ValidateTimezone(name string) error {
	_, err := LoadZone(name)
	return err
}

// OffsetMinutes returns the zone's UTC offset at instant in minutes,
// positive when local time is behind UTC (America/New_York in winter is 300).
func OffsetMinutes(loc *time.Location, instant time.Time) int {
	_, offset := instant.In(loc).Zone()
	return -offset / 60
}

// PeriodStart is Monday 00:00:00 local time of the week ending on friday.
func PeriodStart(friday Date, loc *time.Location) time.Time {
	return MondayOf(friday).In(loc, 0, 0, 0).UTC()
}

// PeriodEnd is Friday 23:59:59 local time. It is resolved independently of
// the start, so a DST change inside the week shifts only one boundary.
func PeriodEnd(friday Date, loc *time.Location) time.Time {
	return friday.In(loc, 23, 59, 59).UTC()
}

// PeriodFor computes both boundaries in loc.
func PeriodFor(friday Date, loc *time.Location) Period {
	return Period{
		Start: PeriodStart(friday, loc),
		End:   PeriodEnd(friday, loc),
	}
}

// PeriodForZone validates the Friday and the zone name before computing.
func PeriodForZone(friday Date, zone string) (Period, error) {
	if !IsFriday(friday) {
		return Period{}, Validationf("week_ending_date %s is a %s, must be a Friday", friday, friday.Weekday())
	}
	loc, err := LoadZone(zone)
	if err != nil {
		return Period{}, err
	}
	return PeriodFor(friday, loc), nil
}
