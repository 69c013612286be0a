package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/squadcal/squadcal/pkg/core/calendar"
	"github.com/squadcal/squadcal/pkg/core/incident"
	"github.com/squadcal/squadcal/pkg/core/model"
	"github.com/squadcal/squadcal/pkg/db"
)

const (
	// MaxRangeDays caps a single duty-range query. Unbounded ranges
	// are not supported; callers must page.
	MaxRangeDays = 370

	// NextDutyLookaheadDays caps the forward scan for a member's next
	// duty (roughly six sprints).
	NextDutyLookaheadDays = 90
)

var (
	// ErrInvalidRange is returned when a range query's start follows its end
	ErrInvalidRange = errors.New("services: range start must not follow range end")
	// ErrRangeTooLarge is returned when a range query exceeds MaxRangeDays
	ErrRangeTooLarge = errors.New("services: date range too large")
)

// ScheduleStore is the read surface the duty query service needs
type ScheduleStore interface {
	GetSquad(ctx context.Context, id string) (*db.Squad, error)
	GetMember(ctx context.Context, id string) (*db.Member, error)
	ListMembers(ctx context.Context, squadID string) ([]db.Member, error)
	ListHostings(ctx context.Context, squadID, from, to string) ([]db.StandupHosting, error)
	ListMemberHostings(ctx context.Context, memberID, before string, limit int) ([]db.StandupHosting, error)
	ListRotations(ctx context.Context, squadID string) ([]db.IncidentRotation, error)
	ListMemberRotations(ctx context.Context, memberID string) ([]db.IncidentRotation, error)
	ListSwaps(ctx context.Context, rotationID string) ([]db.RotationSwap, error)
}

// scheduleSnapshot is an immutable in-memory view of one squad's
// schedule over a date range. All duty resolution runs against a
// snapshot, so resolving a range touches the store once per record
// type rather than once per date.
type scheduleSnapshot struct {
	squad     model.Squad
	members   map[string]model.Member
	rotations []model.IncidentRotation
	hostings  map[string]model.StandupHosting // keyed by YYYY-MM-DD
	cal       *calendar.HolidayCalendar
}

func loadSnapshot(ctx context.Context, store ScheduleStore, cal *calendar.HolidayCalendar, squadID string, from, to time.Time) (*scheduleSnapshot, error) {
	squadRec, err := store.GetSquad(ctx, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load squad %s: %w", squadID, err)
	}

	memberRecs, err := store.ListMembers(ctx, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members for squad %s: %w", squadID, err)
	}

	rotationRecs, err := store.ListRotations(ctx, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rotations for squad %s: %w", squadID, err)
	}

	rotations := make([]model.IncidentRotation, 0, len(rotationRecs))
	for _, rec := range rotationRecs {
		swapRecs, err := store.ListSwaps(ctx, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load swaps for rotation %s: %w", rec.ID, err)
		}
		rotation, err := rotationFromRecord(rec, swapRecs)
		if err != nil {
			return nil, err
		}
		rotations = append(rotations, rotation)
	}

	hostingRecs, err := store.ListHostings(ctx, squadID, calendar.FormatDate(from), calendar.FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to load hostings for squad %s: %w", squadID, err)
	}

	hostings := make(map[string]model.StandupHosting, len(hostingRecs))
	for _, rec := range hostingRecs {
		hosting, err := hostingFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if hosting.Status == model.HostingCancelled {
			continue
		}
		hostings[calendar.FormatDate(hosting.Date)] = hosting
	}

	return &scheduleSnapshot{
		squad:     squadFromRecord(*squadRec),
		members:   indexMembersByID(membersFromRecords(memberRecs)),
		rotations: rotations,
		hostings:  hostings,
		cal:       cal,
	}, nil
}

// assignmentFor composes the duty assignment for one date: the
// persisted hosting row (pre-generated rows are authoritative), the
// resolved responder pair, and the holiday name if any.
func (s *scheduleSnapshot) assignmentFor(d time.Time) model.DutyAssignment {
	d = calendar.DateOnly(d)
	assignment := model.DutyAssignment{Date: d}

	if name, ok := s.cal.HolidayName(d); ok {
		assignment.HolidayName = name
	}

	if hosting, ok := s.hostings[calendar.FormatDate(d)]; ok {
		if m, ok := s.members[hosting.MemberID]; ok {
			assignment.Host = &m
		}
	}

	responders := incident.RespondersForDate(d, s.squad, s.rotations, s.members)
	assignment.Primary = responders.Primary
	assignment.Secondary = responders.Secondary

	return assignment
}

// DutyOnDate answers "who is on duty on date d for this squad"
func DutyOnDate(ctx context.Context, store ScheduleStore, cal *calendar.HolidayCalendar, squadID string, d time.Time) (model.DutyAssignment, error) {
	snapshot, err := loadSnapshot(ctx, store, cal, squadID, d, d)
	if err != nil {
		return model.DutyAssignment{}, err
	}
	return snapshot.assignmentFor(d), nil
}

// DutyRange answers "who is on duty for each date in [from, to]". The
// range is inclusive at both ends and must be bounded; assignments are
// composed date by date against a single snapshot.
func DutyRange(ctx context.Context, store ScheduleStore, cal *calendar.HolidayCalendar, squadID string, from, to time.Time) ([]model.DutyAssignment, error) {
	from, to = calendar.DateOnly(from), calendar.DateOnly(to)
	if from.After(to) {
		return nil, ErrInvalidRange
	}

	days := int(to.Sub(from).Hours()/24) + 1
	if days > MaxRangeDays {
		return nil, fmt.Errorf("%w: %d days exceeds the %d day limit", ErrRangeTooLarge, days, MaxRangeDays)
	}

	snapshot, err := loadSnapshot(ctx, store, cal, squadID, from, to)
	if err != nil {
		return nil, err
	}

	assignments := make([]model.DutyAssignment, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		assignments = append(assignments, snapshot.assignmentFor(d))
	}

	return assignments, nil
}

// NextDuty scans forward from the given date for the member's next
// duty of the given kind. Exhausting the lookahead window is not an
// error; it returns ok=false.
func NextDuty(ctx context.Context, store ScheduleStore, cal *calendar.HolidayCalendar, memberID string, kind model.DutyKind, from time.Time) (model.DutyAssignment, bool, error) {
	memberRec, err := store.GetMember(ctx, memberID)
	if err != nil {
		return model.DutyAssignment{}, false, fmt.Errorf("failed to load member %s: %w", memberID, err)
	}

	from = calendar.DateOnly(from)
	to := from.AddDate(0, 0, NextDutyLookaheadDays-1)

	snapshot, err := loadSnapshot(ctx, store, cal, memberRec.SquadID, from, to)
	if err != nil {
		return model.DutyAssignment{}, false, err
	}

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		assignment := snapshot.assignmentFor(d)
		if assignment.MemberHolds(memberID, kind) {
			return assignment, true, nil
		}
	}

	return model.DutyAssignment{}, false, nil
}

// DutyHistory returns the member's duty records of the given kind
// strictly before the given date, most recent first, capped to limit
// when limit is positive.
func DutyHistory(ctx context.Context, store ScheduleStore, memberID string, kind model.DutyKind, before time.Time, limit int) ([]model.DutyRecord, error) {
	before = calendar.DateOnly(before)

	var records []model.DutyRecord

	switch kind {
	case model.DutyHost:
		hostingRecs, err := store.ListMemberHostings(ctx, memberID, calendar.FormatDate(before), limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load hosting history for member %s: %w", memberID, err)
		}
		for _, rec := range hostingRecs {
			hosting, err := hostingFromRecord(rec)
			if err != nil {
				return nil, err
			}
			records = append(records, model.DutyRecord{Date: hosting.Date, Kind: model.DutyHost, SquadID: hosting.SquadID})
		}

	case model.DutyPrimary, model.DutySecondary:
		rotationRecs, err := store.ListMemberRotations(ctx, memberID)
		if err != nil {
			return nil, fmt.Errorf("failed to load rotation history for member %s: %w", memberID, err)
		}
		for _, rec := range rotationRecs {
			rotation, err := rotationFromRecord(rec, nil)
			if err != nil {
				return nil, err
			}
			if !rotation.StartDate.Before(before) {
				continue
			}
			if kind == model.DutyPrimary && rotation.PrimaryMemberID != memberID {
				continue
			}
			if kind == model.DutySecondary && rotation.SecondaryMemberID != memberID {
				continue
			}
			records = append(records, model.DutyRecord{Date: rotation.StartDate, Kind: kind, SquadID: rotation.SquadID})
		}

	default:
		return nil, fmt.Errorf("unknown duty kind %q", kind)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}
