package reportweek

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidFridayDate_OnlyFridayAcrossWeek(t *testing.T) {
	friday := NewDate(2025, time.January, 24)

	for offset := -3; offset <= 3; offset++ {
		d := friday.AddDays(offset)
		got := IsValidFridayDate(d.String())
		if offset == 0 {
			assert.True(t, got, "%s should be accepted", d)
		} else {
			assert.False(t, got, "%s (%s) should be rejected", d, d.Weekday())
		}
	}
}

func TestIsValidFridayDate_FailsClosed(t *testing.T) {
	inputs := []string{
		"",
		"not-a-date",
		"2025-02-30",
		"2025-13-01",
		"2025-1-24",
		"24/01/2025",
		"2025-01-24T00:00:00Z",
		" 2025-01-24",
		"0000-00-00",
	}
	for _, in := range inputs {
		assert.False(t, IsValidFridayDate(in), "input %q", in)
	}
}

func TestIsFriday_IndependentOfCallerZone(t *testing.T) {
	// Late Friday in Auckland is still Thursday in UTC; the calendar date is
	// what counts, not the instant.
	auckland, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)
	localMorning := time.Date(2025, time.January, 24, 6, 0, 0, 0, auckland)

	assert.True(t, IsFriday(DateOf(localMorning)))
	assert.Equal(t, time.Thursday, localMorning.UTC().Weekday())
}

func TestParseFriday(t *testing.T) {
	d, err := ParseFriday("2025-01-24")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.January, 24), d)

	_, err = ParseFriday("2025-01-23")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "Thursday")

	_, err = ParseFriday("garbage")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestMondayOf_AcrossBoundaries(t *testing.T) {
	tests := []struct {
		friday string
		monday string
	}{
		{"2025-01-24", "2025-01-20"},
		{"2025-02-07", "2025-02-03"},
		{"2026-01-02", "2025-12-29"},
		{"2021-01-01", "2020-12-28"},
		{"2024-03-01", "2024-02-26"},
		{"2023-03-03", "2023-02-27"},
	}
	for _, tt := range tests {
		t.Run(tt.friday, func(t *testing.T) {
			friday, err := ParseFriday(tt.friday)
			require.NoError(t, err)
			monday := MondayOf(friday)
			assert.Equal(t, tt.monday, monday.String())
			assert.Equal(t, time.Monday, monday.Weekday())
		})
	}
}
