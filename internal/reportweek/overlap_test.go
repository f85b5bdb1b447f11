package reportweek

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(day, hour, min, sec int) time.Time {
	return time.Date(2025, time.January, day, hour, min, sec, 0, time.UTC)
}

func TestPeriod_Overlaps(t *testing.T) {
	base := Period{Start: at(20, 0, 0, 0), End: at(24, 23, 59, 59)}

	tests := []struct {
		name  string
		other Period
		want  bool
	}{
		{"identical", base, true},
		{"contained", Period{Start: at(21, 0, 0, 0), End: at(22, 0, 0, 0)}, true},
		{"containing", Period{Start: at(19, 0, 0, 0), End: at(26, 0, 0, 0)}, true},
		{"partial left", Period{Start: at(18, 0, 0, 0), End: at(20, 0, 0, 1)}, true},
		{"partial right", Period{Start: at(24, 23, 59, 58), End: at(27, 0, 0, 0)}, true},
		{"touching at start", Period{Start: at(17, 0, 0, 0), End: at(20, 0, 0, 0)}, false},
		{"touching at end", Period{Start: at(24, 23, 59, 59), End: at(28, 0, 0, 0)}, false},
		{"next week", Period{Start: at(27, 0, 0, 0), End: at(31, 23, 59, 59)}, false},
		{"previous week", Period{Start: at(13, 0, 0, 0), End: at(17, 23, 59, 59)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestHasOverlap_AdjacentWeeksInZone(t *testing.T) {
	loc := mustZone(t, "America/New_York")
	prev := Span{ID: "a", Period: PeriodFor(NewDate(2025, time.January, 17), loc)}
	next := Span{ID: "b", Period: PeriodFor(NewDate(2025, time.January, 31), loc)}

	candidate := PeriodFor(NewDate(2025, time.January, 24), loc)
	assert.False(t, HasOverlap(candidate, []Span{prev, next}, ""))
}

func TestHasOverlap_ExcludesOwnRecord(t *testing.T) {
	loc := mustZone(t, "Europe/Berlin")
	own := Span{ID: "self", Period: PeriodFor(NewDate(2025, time.January, 24), loc)}

	assert.True(t, HasOverlap(own.Period, []Span{own}, ""))
	assert.False(t, HasOverlap(own.Period, []Span{own}, "self"))
}

func TestFirstOverlap_ReturnsConflictingSpan(t *testing.T) {
	spans := []Span{
		{ID: "1", WeekEndingDate: NewDate(2025, time.January, 10), Period: Period{Start: at(6, 0, 0, 0), End: at(10, 23, 59, 59)}},
		{ID: "2", WeekEndingDate: NewDate(2025, time.January, 24), Period: Period{Start: at(20, 0, 0, 0), End: at(24, 23, 59, 59)}},
		{ID: "3", WeekEndingDate: NewDate(2025, time.January, 24), Period: Period{Start: at(20, 0, 0, 0), End: at(24, 23, 59, 59)}},
	}

	got, ok := FirstOverlap(Period{Start: at(22, 0, 0, 0), End: at(23, 0, 0, 0)}, spans, "")
	assert.True(t, ok)
	assert.Equal(t, "2", got.ID)

	_, ok = FirstOverlap(Period{Start: at(13, 0, 0, 0), End: at(17, 0, 0, 0)}, spans, "")
	assert.False(t, ok)

	_, ok = FirstOverlap(Period{Start: at(13, 0, 0, 0), End: at(17, 0, 0, 0)}, nil, "")
	assert.False(t, ok)
}
