package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/squadcal/squadcal/pkg/core/calendar"
	"github.com/squadcal/squadcal/pkg/core/conflict"
	"github.com/squadcal/squadcal/pkg/core/model"
	"github.com/squadcal/squadcal/pkg/core/services"
	"github.com/squadcal/squadcal/pkg/db"
)

func (s *Server) handleStandupHosting(w http.ResponseWriter, r *http.Request) {
	squadID := chi.URLParam(r, "squadID")
	from, to, ok := s.parseRange(w, r)
	if !ok {
		return
	}

	assignments, err := services.DutyRange(r.Context(), s.store, s.cal, squadID, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]dutyResponse, 0, len(assignments))
	for _, a := range assignments {
		if a.Host == nil && a.HolidayName == "" {
			continue
		}
		out = append(out, dutyResponse{
			Date:        calendar.FormatDate(a.Date),
			Host:        memberToResponse(a.Host),
			HolidayName: a.HolidayName,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIncidentRotation(w http.ResponseWriter, r *http.Request) {
	squadID := chi.URLParam(r, "squadID")
	from, to, ok := s.parseRange(w, r)
	if !ok {
		return
	}

	assignments, err := services.DutyRange(r.Context(), s.store, s.cal, squadID, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]dutyResponse, 0, len(assignments))
	for _, a := range assignments {
		if a.Primary == nil && a.Secondary == nil {
			continue
		}
		out = append(out, dutyResponse{
			Date:      calendar.FormatDate(a.Date),
			Primary:   memberToResponse(a.Primary),
			Secondary: memberToResponse(a.Secondary),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDuty(w http.ResponseWriter, r *http.Request) {
	squadID := chi.URLParam(r, "squadID")

	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		d, err := calendar.ParseDate(dateStr)
		if err != nil {
			s.writeBadRequest(w, "invalid date parameter")
			return
		}
		assignment, err := services.DutyOnDate(r.Context(), s.store, s.cal, squadID, d)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, dutyToResponse(assignment))
		return
	}

	from, to, ok := s.parseRange(w, r)
	if !ok {
		return
	}
	assignments, err := services.DutyRange(r.Context(), s.store, s.cal, squadID, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]dutyResponse, len(assignments))
	for i, a := range assignments {
		out[i] = dutyToResponse(a)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSprint(w http.ResponseWriter, r *http.Request) {
	d := time.Now()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		var err error
		d, err = calendar.ParseDate(dateStr)
		if err != nil {
			s.writeBadRequest(w, "invalid date parameter")
			return
		}
	}

	window := s.anchor.SprintWindow(d)
	s.writeJSON(w, http.StatusOK, sprintResponse{
		Start:  calendar.FormatDate(window.Start),
		End:    calendar.FormatDate(window.End),
		Number: window.Number,
	})
}

func (s *Server) handleCreateRotation(w http.ResponseWriter, r *http.Request) {
	var req createRotationRequest
	if !s.decode(w, r, &req) {
		return
	}

	start, _ := calendar.ParseDate(req.StartDate)
	end, _ := calendar.ParseDate(req.EndDate)

	rotation, err := services.CreateRotation(r.Context(), s.store, s.anchor, s.logger, services.NewRotationInput{
		SquadID:           req.SquadID,
		StartDate:         start,
		EndDate:           end,
		PrimaryMemberID:   req.PrimaryMemberID,
		SecondaryMemberID: req.SecondaryMemberID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, rotationToResponse(*rotation))
}

func (s *Server) handleCreateSwap(w http.ResponseWriter, r *http.Request) {
	var req createSwapRequest
	if !s.decode(w, r, &req) {
		return
	}

	swapDate, _ := calendar.ParseDate(req.SwapDate)

	swap, err := services.RequestSwap(r.Context(), s.store, s.logger, services.NewSwapInput{
		RotationID:  req.RotationID,
		RequesterID: req.RequesterID,
		AccepterID:  req.AccepterID,
		SwapDate:    swapDate,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, swapToResponse(*swap))
}

func (s *Server) handleApproveSwap(w http.ResponseWriter, r *http.Request) {
	swapID := chi.URLParam(r, "swapID")
	if err := services.ApproveSwap(r.Context(), s.store, s.logger, swapID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRejectSwap(w http.ResponseWriter, r *http.Request) {
	swapID := chi.URLParam(r, "swapID")
	if err := services.RejectSwap(r.Context(), s.store, s.logger, swapID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteHosting(w http.ResponseWriter, r *http.Request) {
	hostingID := chi.URLParam(r, "hostingID")
	if err := services.CompleteHosting(r.Context(), s.store, s.logger, hostingID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSquads(w http.ResponseWriter, r *http.Request) {
	squads, err := s.store.ListSquads(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]squadResponse, len(squads))
	for i, squad := range squads {
		out[i] = squadResponse{
			ID:                squad.ID,
			Name:              squad.Name,
			Code:              squad.Code,
			HasIncidentRoster: squad.HasIncidentRoster,
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.store.ListMembers(r.Context(), chi.URLParam(r, "squadID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]squadMemberResponse, len(members))
	for i, m := range members {
		out[i] = squadMemberResponse{
			ID:       m.ID,
			SquadID:  m.SquadID,
			FullName: m.FirstName + " " + m.LastName,
			Email:    m.Email,
			Status:   m.Status,
			Position: m.Position,
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNextDuty(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")
	kind := model.DutyKind(r.URL.Query().Get("kind"))
	if !kind.IsValid() {
		s.writeBadRequest(w, "kind must be one of host, primary, secondary")
		return
	}

	assignment, found, err := services.NextDuty(r.Context(), s.store, s.cal, memberID, kind, time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !found {
		s.writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"found": true, "duty": dutyToResponse(assignment)})
}

func (s *Server) handleDutyHistory(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")
	kind := model.DutyKind(r.URL.Query().Get("kind"))
	if !kind.IsValid() {
		s.writeBadRequest(w, "kind must be one of host, primary, secondary")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			s.writeBadRequest(w, "invalid limit parameter")
			return
		}
	}

	records, err := services.DutyHistory(r.Context(), s.store, memberID, kind, time.Now(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	type historyEntry struct {
		Date    string `json:"date"`
		Kind    string `json:"kind"`
		SquadID string `json:"squadId"`
	}
	out := make([]historyEntry, len(records))
	for i, rec := range records {
		out[i] = historyEntry{Date: calendar.FormatDate(rec.Date), Kind: string(rec.Kind), SquadID: rec.SquadID}
	}
	s.writeJSON(w, http.StatusOK, out)
}

// parseRange reads startDate/endDate query parameters
func (s *Server) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := calendar.ParseDate(r.URL.Query().Get("startDate"))
	if err != nil {
		s.writeBadRequest(w, "invalid or missing startDate parameter")
		return time.Time{}, time.Time{}, false
	}
	to, err := calendar.ParseDate(r.URL.Query().Get("endDate"))
	if err != nil {
		s.writeBadRequest(w, "invalid or missing endDate parameter")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeBadRequest(w, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeBadRequest(w, err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// writeError maps service errors onto HTTP statuses: conflict reasons
// that indicate contention get 409, other validation failures 422,
// missing records 404, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if reason, ok := conflict.ReasonOf(err); ok {
		status := http.StatusUnprocessableEntity
		if reason == conflict.ReasonOverlappingRotation || reason == conflict.ReasonDuplicateApprovedSwap {
			status = http.StatusConflict
		}
		s.writeJSON(w, status, errorResponse{Error: err.Error(), Reason: string(reason)})
		return
	}

	switch {
	case errors.Is(err, db.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, services.ErrRangeTooLarge),
		errors.Is(err, services.ErrNoIncidentRoster),
		errors.Is(err, services.ErrInvalidResponderPair),
		errors.Is(err, services.ErrSwapAlreadyResolved):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("Request failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
