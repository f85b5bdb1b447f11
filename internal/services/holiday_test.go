package services

import (
	"testing"
	"time"

	"github.com/huangang/reportportal/internal/reportweek"
	"github.com/stretchr/testify/assert"
)

func TestHolidayService_WorkingDays(t *testing.T) {
	s := NewHolidayService()

	tests := []struct {
		name    string
		friday  reportweek.Date
		country string
		want    int
	}{
		{"plain week weekdays only", reportweek.NewDate(2025, time.January, 24), CountryWeekdaysOnly, 5},
		{"US MLK day", reportweek.NewDate(2025, time.January, 24), "US", 4},
		{"US new year", reportweek.NewDate(2025, time.January, 3), "US", 4},
		{"GB christmas week", reportweek.NewDate(2024, time.December, 27), "GB", 3},
		{"unknown code falls back to weekdays", reportweek.NewDate(2024, time.December, 27), "XX", 5},
		{"lower case code", reportweek.NewDate(2025, time.January, 24), "us", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.WorkingDays(tt.friday, tt.country))
		})
	}
}

func TestHolidayService_ChinaNationalDay(t *testing.T) {
	s := NewHolidayService()
	// 2024-10-01..07 is the National Day holiday; Monday 09-30 is a workday.
	assert.Equal(t, 1, s.WorkingDays(reportweek.NewDate(2024, time.October, 4), "CN"))
	assert.Equal(t, 5, s.WorkingDays(reportweek.NewDate(2024, time.October, 18), "CN"))
}

func TestHolidayService_IsSupported(t *testing.T) {
	s := NewHolidayService()
	for _, code := range []string{"US", "gb", "CN", "NONE"} {
		assert.True(t, s.IsSupported(code), code)
	}
	assert.False(t, s.IsSupported("XX"))
	assert.Len(t, s.GetSupportedCountries(), 24)
}
