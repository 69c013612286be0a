package calendar

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/squadcal/squadcal/pkg/core/model"
)

// DateLayout is the wire format for calendar dates throughout the system
const DateLayout = "2006-01-02"

// SprintLength is the nominal sprint size in days; only the truncated
// final sprint of a 371-day financial year runs shorter
const SprintLength = 14

// Date constructs a UTC midnight time for the given calendar day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates t to its UTC calendar day
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date string
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsWeekend reports whether d falls on a Saturday or Sunday
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Holiday is one entry of the public holiday list
type Holiday struct {
	Date string `yaml:"date" validate:"required"`
	Name string `yaml:"name" validate:"required"`
}

// HolidayCalendar answers hosting-day questions against a holiday list.
// Holidays match by exact calendar date, not day of week.
type HolidayCalendar struct {
	names map[string]string
}

// NewHolidayCalendar builds a calendar from the given holiday entries
func NewHolidayCalendar(holidays []Holiday) (*HolidayCalendar, error) {
	names := make(map[string]string, len(holidays))
	for i, h := range holidays {
		d, err := ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %d: %w", i, err)
		}
		names[FormatDate(d)] = h.Name
	}
	return &HolidayCalendar{names: names}, nil
}

// LoadHolidays reads a YAML holiday list from path
func LoadHolidays(path string) ([]Holiday, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday file: %w", err)
	}

	var holidays []Holiday
	if err := yaml.Unmarshal(data, &holidays); err != nil {
		return nil, fmt.Errorf("failed to parse holiday file: %w", err)
	}

	return holidays, nil
}

// HolidayName returns the display name of the holiday on d, if any
func (c *HolidayCalendar) HolidayName(d time.Time) (string, bool) {
	name, ok := c.names[FormatDate(DateOnly(d))]
	return name, ok
}

// IsHostingDay reports whether d is eligible for a standup host
// assignment: a weekday that is not a recognized holiday
func (c *HolidayCalendar) IsHostingDay(d time.Time) bool {
	if IsWeekend(d) {
		return false
	}
	_, holiday := c.HolidayName(d)
	return !holiday
}

// Anchor defines where sprint 1 of a financial year begins: the first
// occurrence of Weekday on or after Month/Day
type Anchor struct {
	Month   time.Month
	Day     int
	Weekday time.Weekday
}

// DefaultAnchor is the production financial-year anchor: the first
// Wednesday on or after October 1
func DefaultAnchor() Anchor {
	return Anchor{Month: time.October, Day: 1, Weekday: time.Wednesday}
}

// sprintOneStart returns the start of sprint 1 for the financial year
// beginning in the given calendar year
func (a Anchor) sprintOneStart(year int) time.Time {
	anchor := Date(year, a.Month, a.Day)
	offset := (int(a.Weekday) - int(anchor.Weekday()) + 7) % 7
	return anchor.AddDate(0, 0, offset)
}

// SprintWindow returns the sprint window containing d together with
// its 1-indexed sprint number. Dates that precede the current financial
// year's first sprint start tile against the previous year's anchor, so
// the function is defined for any date and monotonic. Consecutive
// anchors are 364 or 371 days apart; in a 371-day year the old tiling's
// last window would spill into the new year's sprint 1, so it is cut
// short and the only sprint shorter than 14 days is that final one.
func (a Anchor) SprintWindow(d time.Time) model.SprintWindow {
	d = DateOnly(d)

	year := d.Year()
	start := a.sprintOneStart(year)
	if d.Before(start) {
		year--
		start = a.sprintOneStart(year)
	}

	daysSince := int(d.Sub(start).Hours() / 24)
	index := daysSince / SprintLength

	windowStart := start.AddDate(0, 0, index*SprintLength)
	end := windowStart.AddDate(0, 0, SprintLength-1)

	if nextStart := a.sprintOneStart(year + 1); !end.Before(nextStart) {
		end = nextStart.AddDate(0, 0, -1)
	}

	return model.SprintWindow{
		Start:  windowStart,
		End:    end,
		Number: index + 1,
	}
}

// IsSprintStart reports whether d is the first day of its sprint window
func (a Anchor) IsSprintStart(d time.Time) bool {
	return a.SprintWindow(d).Start.Equal(DateOnly(d))
}
