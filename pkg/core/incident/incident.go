// Package incident resolves and generates the sprint-based on-call
// rotation: a primary/secondary responder pair per 14-day sprint, with
// approved swaps overriding single dates.
package incident

import (
	"time"

	"github.com/google/uuid"

	"github.com/squadcal/squadcal/pkg/core/calendar"
	"github.com/squadcal/squadcal/pkg/core/conflict"
	"github.com/squadcal/squadcal/pkg/core/model"
)

// Responders is the resolved on-call pair for one date. Both fields
// are nil when no rotation covers the date or the squad has no
// incident roster.
type Responders struct {
	Primary   *model.Member
	Secondary *model.Member
}

// RespondersForDate resolves the on-call pair for d from the squad's
// rotation records. Swap resolution: an APPROVED swap whose date
// matches d exactly replaces the role held by its requester with its
// accepter. A swap whose requester holds neither role should have been
// rejected at creation; if one reaches the store anyway it is ignored.
func RespondersForDate(d time.Time, squad model.Squad, rotations []model.IncidentRotation, members map[string]model.Member) Responders {
	if !squad.HasIncidentRoster {
		return Responders{}
	}

	d = calendar.DateOnly(d)

	for _, rotation := range rotations {
		if rotation.SquadID != squad.ID || !rotation.Covers(d) {
			continue
		}

		primaryID := rotation.PrimaryMemberID
		secondaryID := rotation.SecondaryMemberID

		for _, swap := range rotation.Swaps {
			if swap.Status != model.SwapApproved || !swap.SwapDate.Equal(d) {
				continue
			}
			switch swap.RequesterID {
			case rotation.PrimaryMemberID:
				primaryID = swap.AccepterID
			case rotation.SecondaryMemberID:
				secondaryID = swap.AccepterID
			default:
				// Ignored swap must not shadow a later valid one
				// for the same date.
				continue
			}
			break
		}

		return Responders{
			Primary:   lookupMember(members, primaryID),
			Secondary: lookupMember(members, secondaryID),
		}
	}

	return Responders{}
}

func lookupMember(members map[string]model.Member, id string) *model.Member {
	if m, ok := members[id]; ok {
		return &m
	}
	// Member record missing from the snapshot; carry the ID so the
	// assignment is still attributable.
	return &model.Member{ID: id}
}

// GenerateRotations produces rotation rows for count consecutive
// sprints, the first being the sprint window containing from. The
// 0-based sprint index pairs members[i mod N] with members[(i+1) mod N],
// so the pair is always adjacent and distinct in rotation order. The
// index is taken from the sprint number rather than the loop position,
// which keeps pairing deterministic across runs with different horizon
// starts. Each step resolves the window containing the day after the
// previous window's end, so the sequence stays contiguous across the
// financial-year rollover, where the last sprint may run short.
// Requires at least two members.
func GenerateRotations(squad model.Squad, members []model.Member, anchor calendar.Anchor, from time.Time, count int) ([]model.IncidentRotation, error) {
	if len(members) < 2 {
		return nil, conflict.New(conflict.ReasonEmptyRoster, "squad %s needs at least two eligible members for incident rotation, have %d", squad.ID, len(members))
	}

	window := anchor.SprintWindow(from)
	rotations := make([]model.IncidentRotation, 0, count)

	for i := 0; i < count; i++ {
		index := window.Number - 1

		rotations = append(rotations, model.IncidentRotation{
			ID:                uuid.New().String(),
			SquadID:           squad.ID,
			SprintNumber:      window.Number,
			StartDate:         window.Start,
			EndDate:           window.End,
			PrimaryMemberID:   members[index%len(members)].ID,
			SecondaryMemberID: members[(index+1)%len(members)].ID,
		})

		window = anchor.SprintWindow(window.End.AddDate(0, 0, 1))
	}

	return rotations, nil
}
