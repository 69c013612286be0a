// Package conflict validates proposed rotations and swaps against
// existing records before they are persisted. All checks are pure and
// side-effect-free; they return a typed error carrying a reason code
// that callers map onto their own response shape.
package conflict

import (
	"errors"
	"fmt"
	"time"

	"github.com/squadcal/squadcal/pkg/core/model"
)

// Reason is a machine-readable validation failure code
type Reason string

const (
	ReasonInvalidInterval       Reason = "invalid_interval"
	ReasonOverlappingRotation   Reason = "overlapping_rotation"
	ReasonSwapOutOfRange        Reason = "swap_out_of_range"
	ReasonInvalidSwapParty      Reason = "invalid_swap_party"
	ReasonDuplicateApprovedSwap Reason = "duplicate_approved_swap"
	ReasonEmptyRoster           Reason = "empty_roster"
)

// Error is a validation failure with a reason code
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// New builds a conflict error with the given reason
func New(reason Reason, format string, args ...any) *Error {
	return &Error{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the reason code from err, if it is a conflict error
func ReasonOf(err error) (Reason, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Reason, true
	}
	return "", false
}

// ValidateNewRotation checks a proposed rotation against the existing
// rotations of the same squad. Both interval endpoints are inclusive
// days, so two rotations overlap unless one ends strictly before the
// other starts.
func ValidateNewRotation(candidate model.IncidentRotation, existing []model.IncidentRotation) error {
	if !candidate.StartDate.Before(candidate.EndDate) {
		return New(ReasonInvalidInterval, "rotation start %s must precede end %s",
			candidate.StartDate.Format(time.DateOnly), candidate.EndDate.Format(time.DateOnly))
	}

	for _, ex := range existing {
		if ex.SquadID != candidate.SquadID || ex.ID == candidate.ID {
			continue
		}
		if candidate.EndDate.Before(ex.StartDate) || candidate.StartDate.After(ex.EndDate) {
			continue
		}
		return New(ReasonOverlappingRotation, "rotation overlaps existing rotation %s (%s to %s)",
			ex.ID, ex.StartDate.Format(time.DateOnly), ex.EndDate.Format(time.DateOnly))
	}

	return nil
}

// ValidateSwap checks a proposed swap against its parent rotation and
// the swaps already recorded on that rotation
func ValidateSwap(candidate model.RotationSwap, parent model.IncidentRotation, existing []model.RotationSwap) error {
	if !parent.Covers(candidate.SwapDate) {
		return New(ReasonSwapOutOfRange, "swap date %s outside rotation interval %s to %s",
			candidate.SwapDate.Format(time.DateOnly),
			parent.StartDate.Format(time.DateOnly), parent.EndDate.Format(time.DateOnly))
	}

	if !isRotationMember(parent, candidate.RequesterID) {
		return New(ReasonInvalidSwapParty, "requester %s is not the rotation's primary or secondary member", candidate.RequesterID)
	}
	if !isRotationMember(parent, candidate.AccepterID) {
		return New(ReasonInvalidSwapParty, "accepter %s is not the rotation's primary or secondary member", candidate.AccepterID)
	}

	for _, ex := range existing {
		if ex.ID == candidate.ID || ex.Status != model.SwapApproved {
			continue
		}
		if ex.SwapDate.Equal(candidate.SwapDate) {
			return New(ReasonDuplicateApprovedSwap, "swap %s is already approved for %s",
				ex.ID, ex.SwapDate.Format(time.DateOnly))
		}
	}

	return nil
}

func isRotationMember(r model.IncidentRotation, memberID string) bool {
	return memberID == r.PrimaryMemberID || memberID == r.SecondaryMemberID
}
