package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHostingDay_Weekends(t *testing.T) {
	cal, err := NewHolidayCalendar(nil)
	require.NoError(t, err)

	// 2024-09-07 is a Saturday, 2024-09-08 a Sunday
	assert.False(t, cal.IsHostingDay(Date(2024, time.September, 7)))
	assert.False(t, cal.IsHostingDay(Date(2024, time.September, 8)))
	assert.True(t, cal.IsHostingDay(Date(2024, time.September, 9)))
}

func TestIsHostingDay_Holiday(t *testing.T) {
	cal, err := NewHolidayCalendar([]Holiday{
		{Date: "2024-09-02", Name: "Labor Day"},
	})
	require.NoError(t, err)

	// 2024-09-02 is a Monday, but the holiday list wins
	assert.False(t, cal.IsHostingDay(Date(2024, time.September, 2)))

	name, ok := cal.HolidayName(Date(2024, time.September, 2))
	assert.True(t, ok)
	assert.Equal(t, "Labor Day", name)

	// The same weekday one week later is unaffected
	assert.True(t, cal.IsHostingDay(Date(2024, time.September, 9)))
	_, ok = cal.HolidayName(Date(2024, time.September, 9))
	assert.False(t, ok)
}

func TestIsHostingDay_WeekendHolidayStaysNonHosting(t *testing.T) {
	cal, err := NewHolidayCalendar([]Holiday{
		{Date: "2024-09-07", Name: "Saturday Holiday"},
	})
	require.NoError(t, err)

	assert.False(t, cal.IsHostingDay(Date(2024, time.September, 7)))
}

func TestNewHolidayCalendar_InvalidDate(t *testing.T) {
	_, err := NewHolidayCalendar([]Holiday{{Date: "02/09/2024", Name: "Bad"}})
	assert.Error(t, err)
}

func TestSprintWindow_FirstSprint(t *testing.T) {
	anchor := DefaultAnchor()

	// October 1 2024 is a Tuesday, so sprint 1 starts Wednesday
	// October 2.
	window := anchor.SprintWindow(Date(2024, time.October, 2))
	assert.Equal(t, Date(2024, time.October, 2), window.Start)
	assert.Equal(t, Date(2024, time.October, 15), window.End)
	assert.Equal(t, 1, window.Number)

	// Every date of the window resolves to the same window.
	last := anchor.SprintWindow(Date(2024, time.October, 15))
	assert.Equal(t, window, last)
}

func TestSprintWindow_AugustAnchorsToPreviousYear(t *testing.T) {
	anchor := DefaultAnchor()

	// A date in August must tile from October of the previous
	// calendar year: October 1 2023 is a Sunday, so sprint 1 started
	// Wednesday October 4 2023.
	window := anchor.SprintWindow(Date(2024, time.August, 15))
	assert.Equal(t, Date(2024, time.August, 7), window.Start)
	assert.Equal(t, Date(2024, time.August, 20), window.End)
	assert.Equal(t, 23, window.Number)
}

func TestSprintWindow_AnchorDayBeforeFirstSprintRollsBack(t *testing.T) {
	anchor := DefaultAnchor()

	// October 1 2024 precedes sprint 1's start (October 2), so it
	// belongs to the previous financial year's final tiling.
	window := anchor.SprintWindow(Date(2024, time.October, 1))
	assert.Equal(t, Date(2024, time.September, 18), window.Start)
	assert.Equal(t, Date(2024, time.October, 1), window.End)
	assert.Equal(t, 26, window.Number)
}

func TestSprintWindow_AnchorWeekdayBeforeBoundaryNotSprintOne(t *testing.T) {
	anchor := DefaultAnchor()

	// September 25 2024 is a Wednesday, but it falls before the
	// financial year boundary and must not read as a sprint start.
	window := anchor.SprintWindow(Date(2024, time.September, 25))
	assert.Equal(t, Date(2024, time.September, 18), window.Start)
	assert.False(t, anchor.IsSprintStart(Date(2024, time.September, 25)))
	assert.True(t, anchor.IsSprintStart(Date(2024, time.September, 18)))
}

func TestSprintWindow_IdempotentAndMonotonic(t *testing.T) {
	anchor := DefaultAnchor()

	prevStart := time.Time{}
	for d := Date(2023, time.September, 1); d.Before(Date(2025, time.March, 1)); d = d.AddDate(0, 0, 1) {
		first := anchor.SprintWindow(d)
		second := anchor.SprintWindow(d)
		require.Equal(t, first, second, "sprint window must be idempotent for %s", FormatDate(d))

		require.True(t, first.Contains(d), "window %d must contain %s", first.Number, FormatDate(d))
		require.Equal(t, SprintLength-1, int(first.End.Sub(first.Start).Hours()/24))

		require.False(t, first.Start.Before(prevStart), "sprint start went backwards at %s", FormatDate(d))
		prevStart = first.Start
	}
}

func TestSprintWindow_RolloverYearTruncatesFinalSprint(t *testing.T) {
	anchor := DefaultAnchor()

	// FY2025 sprint 1 starts Wednesday October 1 2025 and FY2026's
	// starts Wednesday October 7 2026, 371 days later. The extra week
	// shortens the old year's final sprint instead of producing a
	// window that overlaps the new sprint 1.
	last := anchor.SprintWindow(Date(2026, time.October, 1))
	assert.Equal(t, Date(2026, time.September, 30), last.Start)
	assert.Equal(t, Date(2026, time.October, 6), last.End)
	assert.Equal(t, 27, last.Number)

	first := anchor.SprintWindow(Date(2026, time.October, 7))
	assert.Equal(t, Date(2026, time.October, 7), first.Start)
	assert.Equal(t, Date(2026, time.October, 20), first.End)
	assert.Equal(t, 1, first.Number)
}

func TestSprintWindow_ContiguousAcrossRollover(t *testing.T) {
	anchor := DefaultAnchor()

	// Stepping window by window from mid-2026 must cross the financial
	// year boundary without gaps or overlaps.
	window := anchor.SprintWindow(Date(2026, time.June, 3))
	sawShort := false
	for i := 0; i < 12; i++ {
		next := anchor.SprintWindow(window.End.AddDate(0, 0, 1))
		require.Equal(t, window.End.AddDate(0, 0, 1), next.Start,
			"window after %s must start the next day", FormatDate(window.End))
		if int(next.End.Sub(next.Start).Hours()/24) < SprintLength-1 {
			sawShort = true
		}
		window = next
	}
	assert.True(t, sawShort, "sweep must cross the truncated rollover sprint")
	assert.True(t, window.Start.After(Date(2026, time.October, 7)), "sweep must reach the new financial year")

	for d := Date(2026, time.September, 1); d.Before(Date(2026, time.November, 1)); d = d.AddDate(0, 0, 1) {
		w := anchor.SprintWindow(d)
		require.True(t, w.Contains(d), "window %d must contain %s", w.Number, FormatDate(d))
	}
}

func TestIsSprintStart(t *testing.T) {
	anchor := DefaultAnchor()

	assert.True(t, anchor.IsSprintStart(Date(2024, time.October, 2)))
	assert.True(t, anchor.IsSprintStart(Date(2024, time.October, 16)))
	assert.False(t, anchor.IsSprintStart(Date(2024, time.October, 3)))
	assert.False(t, anchor.IsSprintStart(Date(2024, time.October, 15)))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-10-02")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, time.October, 2), d)

	_, err = ParseDate("02-10-2024")
	assert.Error(t, err)
}

func TestDateOnly(t *testing.T) {
	ts := time.Date(2024, time.October, 2, 17, 45, 3, 0, time.UTC)
	assert.Equal(t, Date(2024, time.October, 2), DateOnly(ts))
}
