package services

import (
	"strings"
	"time"

	"github.com/6tail/lunar-go/HolidayUtil"
	"github.com/6tail/lunar-go/calendar"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/at"
	"github.com/rickar/cal/v2/au"
	"github.com/rickar/cal/v2/be"
	"github.com/rickar/cal/v2/br"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/ch"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/dk"
	"github.com/rickar/cal/v2/es"
	"github.com/rickar/cal/v2/fi"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/ie"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/no"
	"github.com/rickar/cal/v2/nz"
	"github.com/rickar/cal/v2/pl"
	"github.com/rickar/cal/v2/pt"
	"github.com/rickar/cal/v2/se"
	"github.com/rickar/cal/v2/us"

	"github.com/huangang/reportportal/internal/reportweek"
)

// CountryWeekdaysOnly counts Monday to Friday with no public holidays.
const CountryWeekdaysOnly = "NONE"

type CountryInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// HolidayService answers working-day questions for a tenant's holiday
// calendar. CN uses the lunar-go statutory calendar, which also knows the
// make-up working weekends; the rest use rickar/cal.
type HolidayService struct {
	calendars map[string]*cal.BusinessCalendar
	countries []CountryInfo
}

func NewHolidayService() *HolidayService {
	s := &HolidayService{
		calendars: make(map[string]*cal.BusinessCalendar),
	}
	s.initCalendars()
	return s
}

func (s *HolidayService) initCalendars() {
	s.add("US", "United States", us.Holidays...)
	s.add("GB", "United Kingdom", gb.Holidays...)
	s.add("DE", "Germany", de.Holidays...)
	s.add("FR", "France", fr.Holidays...)
	s.add("JP", "Japan", jp.Holidays...)
	s.add("AU", "Australia (NSW)", au.HolidaysNSW...)
	s.add("CA", "Canada", ca.Holidays...)
	s.add("NZ", "New Zealand", nz.Holidays...)
	s.add("IT", "Italy", it.Holidays...)
	s.add("ES", "Spain", es.Holidays...)
	s.add("NL", "Netherlands", nl.Holidays...)
	s.add("BE", "Belgium", be.Holidays...)
	s.add("AT", "Austria", at.Holidays...)
	s.add("CH", "Switzerland", ch.Holidays...)
	s.add("SE", "Sweden", se.Holidays...)
	s.add("NO", "Norway", no.Holidays...)
	s.add("DK", "Denmark", dk.Holidays...)
	s.add("FI", "Finland", fi.Holidays...)
	s.add("PL", "Poland", pl.Holidays...)
	s.add("PT", "Portugal", pt.Holidays...)
	s.add("IE", "Ireland", ie.Holidays...)
	s.add("BR", "Brazil", br.Holidays...)

	s.countries = append(s.countries,
		CountryInfo{Code: "CN", Name: "China"},
		CountryInfo{Code: CountryWeekdaysOnly, Name: "Weekdays only (Mon-Fri)"},
	)
}

func (s *HolidayService) add(code, name string, holidays ...*cal.Holiday) {
	c := cal.NewBusinessCalendar()
	c.Name = name
	c.AddHoliday(holidays...)
	s.calendars[code] = c
	s.countries = append(s.countries, CountryInfo{Code: code, Name: name})
}

func (s *HolidayService) IsWorkday(t time.Time, countryCode string) bool {
	code := strings.ToUpper(countryCode)
	switch code {
	case "CN":
		return isWorkdayChina(t)
	case CountryWeekdaysOnly:
		return !cal.IsWeekend(t)
	}

	c, ok := s.calendars[code]
	if !ok {
		return !cal.IsWeekend(t)
	}
	return c.IsWorkday(t)
}

func isWorkdayChina(t time.Time) bool {
	solar := calendar.NewSolarFromDate(t)
	holiday := HolidayUtil.GetHolidayByYmd(solar.GetYear(), solar.GetMonth(), solar.GetDay())
	if holiday != nil {
		return holiday.IsWork()
	}
	return !cal.IsWeekend(t)
}

// IsSupported reports whether countryCode names a known calendar.
func (s *HolidayService) IsSupported(countryCode string) bool {
	code := strings.ToUpper(countryCode)
	if code == "CN" || code == CountryWeekdaysOnly {
		return true
	}
	_, ok := s.calendars[code]
	return ok
}

// WorkingDays counts the working days from Monday through the week-ending
// Friday. Days are calendar dates, so the tenant's time zone plays no part.
func (s *HolidayService) WorkingDays(friday reportweek.Date, countryCode string) int {
	n := 0
	for d := reportweek.MondayOf(friday); !friday.Before(d); d = d.AddDays(1) {
		if s.IsWorkday(d.UTC(), countryCode) {
			n++
		}
	}
	return n
}

func (s *HolidayService) GetSupportedCountries() []CountryInfo {
	return s.countries
}
