package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squadcal/squadcal/pkg/core/calendar"
	"github.com/squadcal/squadcal/pkg/core/model"
	"github.com/squadcal/squadcal/pkg/db"
)

func seedSquad(store *fakeStore) {
	store.squads["squad-1"] = db.Squad{ID: "squad-1", Name: "Platform", Code: "PLT", HasIncidentRoster: true}
	store.members["alice"] = db.Member{ID: "alice", SquadID: "squad-1", FirstName: "Alice", LastName: "Smith", Status: "ACTIVE", Position: 1}
	store.members["bob"] = db.Member{ID: "bob", SquadID: "squad-1", FirstName: "Bob", LastName: "Jones", Status: "ACTIVE", Position: 2}
	store.members["carol"] = db.Member{ID: "carol", SquadID: "squad-1", FirstName: "Carol", LastName: "Brown", Status: "ACTIVE", Position: 3}
}

func testCalendar(t *testing.T) *calendar.HolidayCalendar {
	t.Helper()
	cal, err := calendar.NewHolidayCalendar([]calendar.Holiday{
		{Date: "2024-10-14", Name: "Autumn Holiday"},
	})
	require.NoError(t, err)
	return cal
}

func TestDutyOnDate_ComposedAssignment(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)
	store.hostings["host-1"] = db.StandupHosting{
		ID: "host-1", SquadID: "squad-1", MemberID: "carol", Date: "2024-10-09", Status: "SCHEDULED",
	}
	store.rotations["rot-1"] = db.IncidentRotation{
		ID: "rot-1", SquadID: "squad-1", SprintNumber: 1,
		StartDate: "2024-10-02", EndDate: "2024-10-15",
		PrimaryMemberID: "alice", SecondaryMemberID: "bob",
	}

	assignment, err := DutyOnDate(context.Background(), store, testCalendar(t), "squad-1", calendar.Date(2024, time.October, 9))
	require.NoError(t, err)

	require.NotNil(t, assignment.Host)
	assert.Equal(t, "carol", assignment.Host.ID)
	assert.Equal(t, "Carol Brown", assignment.Host.FullName())
	require.NotNil(t, assignment.Primary)
	assert.Equal(t, "alice", assignment.Primary.ID)
	require.NotNil(t, assignment.Secondary)
	assert.Equal(t, "bob", assignment.Secondary.ID)
	assert.Empty(t, assignment.HolidayName)
}

func TestDutyOnDate_NoPersistedHostingMeansNoHost(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)

	// Wednesday with no generated row: duty lookup does not recompute
	// the round-robin, it reports no host.
	assignment, err := DutyOnDate(context.Background(), store, testCalendar(t), "squad-1", calendar.Date(2024, time.October, 9))
	require.NoError(t, err)
	assert.Nil(t, assignment.Host)
}

func TestDutyOnDate_CancelledHostingIgnored(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)
	store.hostings["host-1"] = db.StandupHosting{
		ID: "host-1", SquadID: "squad-1", MemberID: "carol", Date: "2024-10-09", Status: "CANCELLED",
	}

	assignment, err := DutyOnDate(context.Background(), store, testCalendar(t), "squad-1", calendar.Date(2024, time.October, 9))
	require.NoError(t, err)
	assert.Nil(t, assignment.Host)
}

func TestDutyOnDate_HolidayKeepsResponders(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)
	store.rotations["rot-1"] = db.IncidentRotation{
		ID: "rot-1", SquadID: "squad-1", SprintNumber: 1,
		StartDate: "2024-10-02", EndDate: "2024-10-15",
		PrimaryMemberID: "alice", SecondaryMemberID: "bob",
	}

	// On-call duty covers holidays even though standup hosting does not.
	assignment, err := DutyOnDate(context.Background(), store, testCalendar(t), "squad-1", calendar.Date(2024, time.October, 14))
	require.NoError(t, err)
	assert.Equal(t, "Autumn Holiday", assignment.HolidayName)
	assert.Nil(t, assignment.Host)
	require.NotNil(t, assignment.Primary)
	assert.Equal(t, "alice", assignment.Primary.ID)
}

func TestDutyOnDate_UnknownSquad(t *testing.T) {
	store := newFakeStore()

	_, err := DutyOnDate(context.Background(), store, testCalendar(t), "squad-9", calendar.Date(2024, time.October, 9))
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDutyRange_SwapOverridesSingleDay(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)
	store.rotations["rot-1"] = db.IncidentRotation{
		ID: "rot-1", SquadID: "squad-1", SprintNumber: 1,
		StartDate: "2024-10-02", EndDate: "2024-10-15",
		PrimaryMemberID: "alice", SecondaryMemberID: "bob",
	}
	store.rotations["rot-2"] = db.IncidentRotation{
		ID: "rot-2", SquadID: "squad-1", SprintNumber: 2,
		StartDate: "2024-10-16", EndDate: "2024-10-29",
		PrimaryMemberID: "bob", SecondaryMemberID: "carol",
	}
	// Approved swap on day 3 of sprint 1: alice hands primary duty to
	// carol for that date only.
	store.swaps["swap-1"] = db.RotationSwap{
		ID: "swap-1", RotationID: "rot-1", RequesterID: "alice", AccepterID: "carol",
		SwapDate: "2024-10-04", Status: "APPROVED",
	}

	assignments, err := DutyRange(context.Background(), store, testCalendar(t), "squad-1",
		calendar.Date(2024, time.October, 3), calendar.Date(2024, time.October, 5))
	require.NoError(t, err)
	require.Len(t, assignments, 3)

	assert.Equal(t, "alice", assignments[0].Primary.ID)
	assert.Equal(t, "bob", assignments[0].Secondary.ID)

	assert.Equal(t, "carol", assignments[1].Primary.ID)
	assert.Equal(t, "bob", assignments[1].Secondary.ID)

	assert.Equal(t, "alice", assignments[2].Primary.ID)
	assert.Equal(t, "bob", assignments[2].Secondary.ID)

	// The next sprint's pair is untouched by the swap.
	assignment, err := DutyOnDate(context.Background(), store, testCalendar(t), "squad-1", calendar.Date(2024, time.October, 20))
	require.NoError(t, err)
	assert.Equal(t, "bob", assignment.Primary.ID)
	assert.Equal(t, "carol", assignment.Secondary.ID)
}

func TestDutyRange_ConsecutiveDates(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)

	from := calendar.Date(2024, time.October, 7)
	assignments, err := DutyRange(context.Background(), store, testCalendar(t), "squad-1", from, from.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, assignments, 7)

	for i, a := range assignments {
		assert.Equal(t, from.AddDate(0, 0, i), a.Date)
	}
}

func TestDutyRange_Bounds(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)
	from := calendar.Date(2024, time.October, 7)

	_, err := DutyRange(context.Background(), store, testCalendar(t), "squad-1", from, from.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = DutyRange(context.Background(), store, testCalendar(t), "squad-1", from, from.AddDate(0, 0, MaxRangeDays))
	assert.ErrorIs(t, err, ErrRangeTooLarge)

	// Exactly the cap is accepted.
	_, err = DutyRange(context.Background(), store, testCalendar(t), "squad-1", from, from.AddDate(0, 0, MaxRangeDays-1))
	assert.NoError(t, err)
}

func TestNextDuty_Host(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)
	store.hostings["host-1"] = db.StandupHosting{
		ID: "host-1", SquadID: "squad-1", MemberID: "carol", Date: "2024-10-10", Status: "SCHEDULED",
	}

	assignment, found, err := NextDuty(context.Background(), store, testCalendar(t), "carol", model.DutyHost, calendar.Date(2024, time.October, 8))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, calendar.Date(2024, time.October, 10), assignment.Date)
	assert.Equal(t, "carol", assignment.Host.ID)
}

func TestNextDuty_Primary(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)
	store.rotations["rot-2"] = db.IncidentRotation{
		ID: "rot-2", SquadID: "squad-1", SprintNumber: 2,
		StartDate: "2024-10-16", EndDate: "2024-10-29",
		PrimaryMemberID: "bob", SecondaryMemberID: "carol",
	}

	assignment, found, err := NextDuty(context.Background(), store, testCalendar(t), "bob", model.DutyPrimary, calendar.Date(2024, time.October, 8))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, calendar.Date(2024, time.October, 16), assignment.Date)
}

func TestNextDuty_NoneWithinLookahead(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)

	_, found, err := NextDuty(context.Background(), store, testCalendar(t), "carol", model.DutyPrimary, calendar.Date(2024, time.October, 8))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNextDuty_UnknownMember(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)

	_, _, err := NextDuty(context.Background(), store, testCalendar(t), "ghost", model.DutyHost, calendar.Date(2024, time.October, 8))
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDutyHistory_Host(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)
	store.hostings["host-1"] = db.StandupHosting{ID: "host-1", SquadID: "squad-1", MemberID: "carol", Date: "2024-09-30", Status: "COMPLETED", Completed: true}
	store.hostings["host-2"] = db.StandupHosting{ID: "host-2", SquadID: "squad-1", MemberID: "carol", Date: "2024-10-03", Status: "COMPLETED", Completed: true}
	store.hostings["host-3"] = db.StandupHosting{ID: "host-3", SquadID: "squad-1", MemberID: "carol", Date: "2024-10-10", Status: "SCHEDULED"}

	records, err := DutyHistory(context.Background(), store, "carol", model.DutyHost, calendar.Date(2024, time.October, 10), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, calendar.Date(2024, time.October, 3), records[0].Date)
	assert.Equal(t, calendar.Date(2024, time.September, 30), records[1].Date)
	assert.Equal(t, model.DutyHost, records[0].Kind)
	assert.Equal(t, "squad-1", records[0].SquadID)

	limited, err := DutyHistory(context.Background(), store, "carol", model.DutyHost, calendar.Date(2024, time.October, 10), 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, calendar.Date(2024, time.October, 3), limited[0].Date)
}

func TestDutyHistory_ResponderRoles(t *testing.T) {
	store := newFakeStore()
	seedSquad(store)
	store.rotations["rot-0"] = db.IncidentRotation{
		ID: "rot-0", SquadID: "squad-1", SprintNumber: 26,
		StartDate: "2024-09-18", EndDate: "2024-10-01",
		PrimaryMemberID: "carol", SecondaryMemberID: "alice",
	}
	store.rotations["rot-1"] = db.IncidentRotation{
		ID: "rot-1", SquadID: "squad-1", SprintNumber: 1,
		StartDate: "2024-10-02", EndDate: "2024-10-15",
		PrimaryMemberID: "alice", SecondaryMemberID: "bob",
	}

	cutoff := calendar.Date(2024, time.October, 20)

	primary, err := DutyHistory(context.Background(), store, "alice", model.DutyPrimary, cutoff, 0)
	require.NoError(t, err)
	require.Len(t, primary, 1)
	assert.Equal(t, calendar.Date(2024, time.October, 2), primary[0].Date)
	assert.Equal(t, model.DutyPrimary, primary[0].Kind)

	secondary, err := DutyHistory(context.Background(), store, "alice", model.DutySecondary, cutoff, 0)
	require.NoError(t, err)
	require.Len(t, secondary, 1)
	assert.Equal(t, calendar.Date(2024, time.September, 18), secondary[0].Date)

	// A rotation that starts on or after the cutoff is not history yet.
	none, err := DutyHistory(context.Background(), store, "alice", model.DutyPrimary, calendar.Date(2024, time.October, 2), 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDutyHistory_UnknownKind(t *testing.T) {
	store := newFakeStore()

	_, err := DutyHistory(context.Background(), store, "alice", model.DutyKind("janitor"), calendar.Date(2024, time.October, 2), 0)
	assert.Error(t, err)
}
