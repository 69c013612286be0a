// Package standup implements the daily standup host rotation: a
// deterministic round-robin over a squad's ordered member list, one
// advance per hosting weekday.
package standup

import (
	"time"

	"github.com/google/uuid"

	"github.com/squadcal/squadcal/pkg/core/calendar"
	"github.com/squadcal/squadcal/pkg/core/conflict"
	"github.com/squadcal/squadcal/pkg/core/model"
)

// HostForDate returns the standup host for d, or nil when d is not a
// hosting day. It is a pure function of (date, ordered member list):
// the same date always yields the same host for a fixed list, and
// changing the list reshuffles all subsequent assignments. That
// reshuffle is a documented limitation of the rotation scheme, not a
// defect; persisted hosting rows are authoritative for dates already
// generated.
func HostForDate(d time.Time, cal *calendar.HolidayCalendar, members []model.Member) (*model.Member, error) {
	d = calendar.DateOnly(d)

	if !cal.IsHostingDay(d) {
		return nil, nil
	}
	if len(members) == 0 {
		return nil, conflict.New(conflict.ReasonEmptyRoster, "no eligible members to host on %s", calendar.FormatDate(d))
	}

	count := weekdayCount(d)
	host := members[(count-1)%len(members)]
	return &host, nil
}

// weekdayCount counts weekdays from January 1 of d's year through d
// inclusive. Holidays do not reduce the count; they only gate whether
// the day itself gets a host. Keeping the counter holiday-independent
// means editing the holiday list never reshuffles surrounding
// assignments.
func weekdayCount(d time.Time) int {
	count := 0
	for cur := calendar.Date(d.Year(), time.January, 1); !cur.After(d); cur = cur.AddDate(0, 0, 1) {
		if !calendar.IsWeekend(cur) {
			count++
		}
	}
	return count
}

// GenerateHostings produces SCHEDULED hosting rows for every hosting
// day in [from, from+days). This is the generation algorithm used to
// populate rows over a forward horizon; duty lookup for already
// generated dates reads the persisted rows instead of recomputing.
func GenerateHostings(squad model.Squad, members []model.Member, cal *calendar.HolidayCalendar, from time.Time, days int) ([]model.StandupHosting, error) {
	if len(members) == 0 {
		return nil, conflict.New(conflict.ReasonEmptyRoster, "squad %s has no eligible members", squad.ID)
	}

	from = calendar.DateOnly(from)
	hostings := make([]model.StandupHosting, 0, days)

	for i := 0; i < days; i++ {
		d := from.AddDate(0, 0, i)

		host, err := HostForDate(d, cal, members)
		if err != nil {
			return nil, err
		}
		if host == nil {
			continue
		}

		hostings = append(hostings, model.StandupHosting{
			ID:       uuid.New().String(),
			SquadID:  squad.ID,
			MemberID: host.ID,
			Date:     d,
			Status:   model.HostingScheduled,
		})
	}

	return hostings, nil
}
