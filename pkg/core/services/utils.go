package services

import (
	"fmt"

	"github.com/squadcal/squadcal/pkg/core/calendar"
	"github.com/squadcal/squadcal/pkg/core/model"
	"github.com/squadcal/squadcal/pkg/db"
)

func squadFromRecord(rec db.Squad) model.Squad {
	return model.Squad{
		ID:                rec.ID,
		Name:              rec.Name,
		Code:              rec.Code,
		HasIncidentRoster: rec.HasIncidentRoster,
	}
}

func memberFromRecord(rec db.Member) model.Member {
	return model.Member{
		ID:        rec.ID,
		SquadID:   rec.SquadID,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Email:     rec.Email,
		Status:    model.MemberStatus(rec.Status),
	}
}

func membersFromRecords(recs []db.Member) []model.Member {
	members := make([]model.Member, len(recs))
	for i, rec := range recs {
		members[i] = memberFromRecord(rec)
	}
	return members
}

// filterActiveMembers keeps ACTIVE members, preserving rotation order
func filterActiveMembers(members []model.Member) []model.Member {
	active := make([]model.Member, 0, len(members))
	for _, m := range members {
		if m.Status == model.MemberActive {
			active = append(active, m)
		}
	}
	return active
}

func indexMembersByID(members []model.Member) map[string]model.Member {
	byID := make(map[string]model.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	return byID
}

func hostingFromRecord(rec db.StandupHosting) (model.StandupHosting, error) {
	date, err := calendar.ParseDate(rec.Date)
	if err != nil {
		return model.StandupHosting{}, fmt.Errorf("hosting %s: %w", rec.ID, err)
	}
	return model.StandupHosting{
		ID:        rec.ID,
		SquadID:   rec.SquadID,
		MemberID:  rec.MemberID,
		Date:      date,
		Status:    model.HostingStatus(rec.Status),
		Completed: rec.Completed,
	}, nil
}

func hostingToRecord(h model.StandupHosting) db.StandupHosting {
	return db.StandupHosting{
		ID:        h.ID,
		SquadID:   h.SquadID,
		MemberID:  h.MemberID,
		Date:      calendar.FormatDate(h.Date),
		Status:    string(h.Status),
		Completed: h.Completed,
	}
}

func rotationFromRecord(rec db.IncidentRotation, swapRecs []db.RotationSwap) (model.IncidentRotation, error) {
	start, err := calendar.ParseDate(rec.StartDate)
	if err != nil {
		return model.IncidentRotation{}, fmt.Errorf("rotation %s: %w", rec.ID, err)
	}
	end, err := calendar.ParseDate(rec.EndDate)
	if err != nil {
		return model.IncidentRotation{}, fmt.Errorf("rotation %s: %w", rec.ID, err)
	}

	rotation := model.IncidentRotation{
		ID:                rec.ID,
		SquadID:           rec.SquadID,
		SprintNumber:      rec.SprintNumber,
		StartDate:         start,
		EndDate:           end,
		PrimaryMemberID:   rec.PrimaryMemberID,
		SecondaryMemberID: rec.SecondaryMemberID,
	}

	for _, swapRec := range swapRecs {
		swap, err := swapFromRecord(swapRec)
		if err != nil {
			return model.IncidentRotation{}, err
		}
		rotation.Swaps = append(rotation.Swaps, swap)
	}

	return rotation, nil
}

func rotationToRecord(r model.IncidentRotation) db.IncidentRotation {
	return db.IncidentRotation{
		ID:                r.ID,
		SquadID:           r.SquadID,
		SprintNumber:      r.SprintNumber,
		StartDate:         calendar.FormatDate(r.StartDate),
		EndDate:           calendar.FormatDate(r.EndDate),
		PrimaryMemberID:   r.PrimaryMemberID,
		SecondaryMemberID: r.SecondaryMemberID,
	}
}

func swapFromRecord(rec db.RotationSwap) (model.RotationSwap, error) {
	date, err := calendar.ParseDate(rec.SwapDate)
	if err != nil {
		return model.RotationSwap{}, fmt.Errorf("swap %s: %w", rec.ID, err)
	}
	return model.RotationSwap{
		ID:          rec.ID,
		RotationID:  rec.RotationID,
		RequesterID: rec.RequesterID,
		AccepterID:  rec.AccepterID,
		SwapDate:    date,
		Status:      model.SwapStatus(rec.Status),
	}, nil
}

func swapToRecord(s model.RotationSwap) db.RotationSwap {
	return db.RotationSwap{
		ID:          s.ID,
		RotationID:  s.RotationID,
		RequesterID: s.RequesterID,
		AccepterID:  s.AccepterID,
		SwapDate:    calendar.FormatDate(s.SwapDate),
		Status:      string(s.Status),
	}
}
