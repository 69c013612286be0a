package api

import (
	"github.com/squadcal/squadcal/pkg/core/calendar"
	"github.com/squadcal/squadcal/pkg/core/model"
)

type memberResponse struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Status   string `json:"status,omitempty"`
}

func memberToResponse(m *model.Member) *memberResponse {
	if m == nil {
		return nil
	}
	return &memberResponse{
		ID:       m.ID,
		FullName: m.FullName(),
		Email:    m.Email,
		Status:   string(m.Status),
	}
}

type squadResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Code              string `json:"code"`
	HasIncidentRoster bool   `json:"hasIncidentRoster"`
}

type squadMemberResponse struct {
	ID       string `json:"id"`
	SquadID  string `json:"squadId"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Status   string `json:"status"`
	Position int    `json:"position"`
}

type dutyResponse struct {
	Date        string          `json:"date"`
	Host        *memberResponse `json:"host"`
	Primary     *memberResponse `json:"primary"`
	Secondary   *memberResponse `json:"secondary"`
	HolidayName string          `json:"holidayName,omitempty"`
}

func dutyToResponse(a model.DutyAssignment) dutyResponse {
	return dutyResponse{
		Date:        calendar.FormatDate(a.Date),
		Host:        memberToResponse(a.Host),
		Primary:     memberToResponse(a.Primary),
		Secondary:   memberToResponse(a.Secondary),
		HolidayName: a.HolidayName,
	}
}

type sprintResponse struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Number int    `json:"sprintNumber"`
}

type rotationResponse struct {
	ID                string `json:"id"`
	SquadID           string `json:"squadId"`
	SprintNumber      int    `json:"sprintNumber"`
	StartDate         string `json:"startDate"`
	EndDate           string `json:"endDate"`
	PrimaryMemberID   string `json:"primaryMemberId"`
	SecondaryMemberID string `json:"secondaryMemberId"`
}

func rotationToResponse(r model.IncidentRotation) rotationResponse {
	return rotationResponse{
		ID:                r.ID,
		SquadID:           r.SquadID,
		SprintNumber:      r.SprintNumber,
		StartDate:         calendar.FormatDate(r.StartDate),
		EndDate:           calendar.FormatDate(r.EndDate),
		PrimaryMemberID:   r.PrimaryMemberID,
		SecondaryMemberID: r.SecondaryMemberID,
	}
}

type swapResponse struct {
	ID          string `json:"id"`
	RotationID  string `json:"rotationId"`
	RequesterID string `json:"requesterId"`
	AccepterID  string `json:"accepterId"`
	SwapDate    string `json:"swapDate"`
	Status      string `json:"status"`
}

func swapToResponse(s model.RotationSwap) swapResponse {
	return swapResponse{
		ID:          s.ID,
		RotationID:  s.RotationID,
		RequesterID: s.RequesterID,
		AccepterID:  s.AccepterID,
		SwapDate:    calendar.FormatDate(s.SwapDate),
		Status:      string(s.Status),
	}
}

type createRotationRequest struct {
	SquadID           string `json:"squadId" validate:"required,uuid"`
	StartDate         string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate           string `json:"endDate" validate:"required,datetime=2006-01-02"`
	PrimaryMemberID   string `json:"primaryMemberId" validate:"required,uuid"`
	SecondaryMemberID string `json:"secondaryMemberId" validate:"required,uuid"`
}

type createSwapRequest struct {
	RotationID  string `json:"rotationId" validate:"required,uuid"`
	RequesterID string `json:"requesterId" validate:"required,uuid"`
	AccepterID  string `json:"accepterId" validate:"required,uuid"`
	SwapDate    string `json:"swapDate" validate:"required,datetime=2006-01-02"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
