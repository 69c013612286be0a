package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/squadcal/squadcal/pkg/core/calendar"
	"github.com/squadcal/squadcal/pkg/core/conflict"
	"github.com/squadcal/squadcal/pkg/core/model"
	"github.com/squadcal/squadcal/pkg/db"
)

var (
	// ErrNoIncidentRoster is returned when a rotation is proposed for a
	// squad that does not participate in incident rotation
	ErrNoIncidentRoster = errors.New("services: squad has no incident roster")
	// ErrInvalidResponderPair is returned when the proposed primary and
	// secondary members are not two distinct active members of the squad
	ErrInvalidResponderPair = errors.New("services: invalid responder pair")
	// ErrSwapAlreadyResolved is returned on a status transition against
	// a swap that already reached a terminal status
	ErrSwapAlreadyResolved = errors.New("services: swap already resolved")
)

// RotationWriteStore is the store surface rotation and swap writes need
type RotationWriteStore interface {
	GetSquad(ctx context.Context, id string) (*db.Squad, error)
	GetMember(ctx context.Context, id string) (*db.Member, error)
	ListRotations(ctx context.Context, squadID string) ([]db.IncidentRotation, error)
	InsertRotation(ctx context.Context, rotation *db.IncidentRotation) error
	GetRotation(ctx context.Context, id string) (*db.IncidentRotation, error)
	GetSwap(ctx context.Context, id string) (*db.RotationSwap, error)
	ListSwaps(ctx context.Context, rotationID string) ([]db.RotationSwap, error)
	InsertSwap(ctx context.Context, swap *db.RotationSwap) error
	ApproveSwap(ctx context.Context, id string) error
	UpdateSwapStatus(ctx context.Context, id, status string) error
	GetHostingByID(ctx context.Context, id string) (*db.StandupHosting, error)
	UpdateHostingStatus(ctx context.Context, id, status string, completed bool) error
}

// NewRotationInput describes a proposed incident rotation
type NewRotationInput struct {
	SquadID           string
	StartDate         time.Time
	EndDate           time.Time
	PrimaryMemberID   string
	SecondaryMemberID string
}

// CreateRotation validates and persists a new incident rotation. The
// overlap check runs here against a snapshot and again inside the
// store's insert transaction, so concurrent writers for the same squad
// cannot both slip past validation.
func CreateRotation(ctx context.Context, store RotationWriteStore, anchor calendar.Anchor, logger *zap.Logger, input NewRotationInput) (*model.IncidentRotation, error) {
	squadRec, err := store.GetSquad(ctx, input.SquadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load squad %s: %w", input.SquadID, err)
	}
	if !squadRec.HasIncidentRoster {
		return nil, fmt.Errorf("%w: squad %s", ErrNoIncidentRoster, input.SquadID)
	}

	if err := checkResponderPair(ctx, store, input.SquadID, input.PrimaryMemberID, input.SecondaryMemberID); err != nil {
		return nil, err
	}

	candidate := model.IncidentRotation{
		ID:                uuid.New().String(),
		SquadID:           input.SquadID,
		SprintNumber:      anchor.SprintWindow(input.StartDate).Number,
		StartDate:         calendar.DateOnly(input.StartDate),
		EndDate:           calendar.DateOnly(input.EndDate),
		PrimaryMemberID:   input.PrimaryMemberID,
		SecondaryMemberID: input.SecondaryMemberID,
	}

	existingRecs, err := store.ListRotations(ctx, input.SquadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rotations for squad %s: %w", input.SquadID, err)
	}
	existing := make([]model.IncidentRotation, 0, len(existingRecs))
	for _, rec := range existingRecs {
		rotation, err := rotationFromRecord(rec, nil)
		if err != nil {
			return nil, err
		}
		existing = append(existing, rotation)
	}

	if err := conflict.ValidateNewRotation(candidate, existing); err != nil {
		return nil, err
	}

	rec := rotationToRecord(candidate)
	if err := store.InsertRotation(ctx, &rec); err != nil {
		return nil, fmt.Errorf("failed to insert rotation: %w", err)
	}

	logger.Info("Rotation created",
		zap.String("rotation_id", candidate.ID),
		zap.String("squad_id", candidate.SquadID),
		zap.Int("sprint", candidate.SprintNumber),
		zap.String("start", calendar.FormatDate(candidate.StartDate)),
		zap.String("end", calendar.FormatDate(candidate.EndDate)))

	return &candidate, nil
}

func checkResponderPair(ctx context.Context, store RotationWriteStore, squadID, primaryID, secondaryID string) error {
	if primaryID == secondaryID {
		return fmt.Errorf("%w: primary and secondary must be distinct", ErrInvalidResponderPair)
	}
	for _, id := range []string{primaryID, secondaryID} {
		member, err := store.GetMember(ctx, id)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return fmt.Errorf("%w: member %s not found", ErrInvalidResponderPair, id)
			}
			return fmt.Errorf("failed to load member %s: %w", id, err)
		}
		if member.SquadID != squadID {
			return fmt.Errorf("%w: member %s belongs to another squad", ErrInvalidResponderPair, id)
		}
		if member.Status != string(model.MemberActive) {
			return fmt.Errorf("%w: member %s is inactive", ErrInvalidResponderPair, id)
		}
	}
	return nil
}

// NewSwapInput describes a proposed rotation swap
type NewSwapInput struct {
	RotationID  string
	RequesterID string
	AccepterID  string
	SwapDate    time.Time
}

// RequestSwap validates and persists a new PENDING swap against an
// existing rotation
func RequestSwap(ctx context.Context, store RotationWriteStore, logger *zap.Logger, input NewSwapInput) (*model.RotationSwap, error) {
	rotationRec, err := store.GetRotation(ctx, input.RotationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rotation %s: %w", input.RotationID, err)
	}

	swapRecs, err := store.ListSwaps(ctx, input.RotationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load swaps for rotation %s: %w", input.RotationID, err)
	}

	rotation, err := rotationFromRecord(*rotationRec, swapRecs)
	if err != nil {
		return nil, err
	}

	candidate := model.RotationSwap{
		ID:          uuid.New().String(),
		RotationID:  input.RotationID,
		RequesterID: input.RequesterID,
		AccepterID:  input.AccepterID,
		SwapDate:    calendar.DateOnly(input.SwapDate),
		Status:      model.SwapPending,
	}

	if err := conflict.ValidateSwap(candidate, rotation, rotation.Swaps); err != nil {
		return nil, err
	}

	rec := swapToRecord(candidate)
	if err := store.InsertSwap(ctx, &rec); err != nil {
		return nil, fmt.Errorf("failed to insert swap: %w", err)
	}

	logger.Info("Swap requested",
		zap.String("swap_id", candidate.ID),
		zap.String("rotation_id", candidate.RotationID),
		zap.String("swap_date", calendar.FormatDate(candidate.SwapDate)))

	return &candidate, nil
}

// ApproveSwap transitions a PENDING swap to APPROVED. The
// one-approved-swap-per-date rule is checked here and re-checked
// inside the store's transaction.
func ApproveSwap(ctx context.Context, store RotationWriteStore, logger *zap.Logger, swapID string) error {
	swapRec, err := store.GetSwap(ctx, swapID)
	if err != nil {
		return fmt.Errorf("failed to load swap %s: %w", swapID, err)
	}
	if model.SwapStatus(swapRec.Status).IsTerminal() {
		return fmt.Errorf("%w: swap %s is %s", ErrSwapAlreadyResolved, swapID, swapRec.Status)
	}

	rotationRec, err := store.GetRotation(ctx, swapRec.RotationID)
	if err != nil {
		return fmt.Errorf("failed to load rotation %s: %w", swapRec.RotationID, err)
	}
	swapRecs, err := store.ListSwaps(ctx, swapRec.RotationID)
	if err != nil {
		return fmt.Errorf("failed to load swaps for rotation %s: %w", swapRec.RotationID, err)
	}

	rotation, err := rotationFromRecord(*rotationRec, swapRecs)
	if err != nil {
		return err
	}
	candidate, err := swapFromRecord(*swapRec)
	if err != nil {
		return err
	}

	if err := conflict.ValidateSwap(candidate, rotation, rotation.Swaps); err != nil {
		return err
	}

	if err := store.ApproveSwap(ctx, swapID); err != nil {
		return fmt.Errorf("failed to approve swap %s: %w", swapID, err)
	}

	logger.Info("Swap approved", zap.String("swap_id", swapID), zap.String("rotation_id", swapRec.RotationID))
	return nil
}

// RejectSwap transitions a PENDING swap to REJECTED
func RejectSwap(ctx context.Context, store RotationWriteStore, logger *zap.Logger, swapID string) error {
	swapRec, err := store.GetSwap(ctx, swapID)
	if err != nil {
		return fmt.Errorf("failed to load swap %s: %w", swapID, err)
	}
	if model.SwapStatus(swapRec.Status).IsTerminal() {
		return fmt.Errorf("%w: swap %s is %s", ErrSwapAlreadyResolved, swapID, swapRec.Status)
	}

	if err := store.UpdateSwapStatus(ctx, swapID, string(model.SwapRejected)); err != nil {
		return fmt.Errorf("failed to reject swap %s: %w", swapID, err)
	}

	logger.Info("Swap rejected", zap.String("swap_id", swapID))
	return nil
}

// CompleteHosting marks a scheduled hosting as completed
func CompleteHosting(ctx context.Context, store RotationWriteStore, logger *zap.Logger, hostingID string) error {
	hosting, err := store.GetHostingByID(ctx, hostingID)
	if err != nil {
		return fmt.Errorf("failed to load hosting %s: %w", hostingID, err)
	}
	if hosting.Status == string(model.HostingCancelled) {
		return fmt.Errorf("hosting %s is cancelled", hostingID)
	}

	if err := store.UpdateHostingStatus(ctx, hostingID, string(model.HostingCompleted), true); err != nil {
		return fmt.Errorf("failed to complete hosting %s: %w", hostingID, err)
	}

	logger.Info("Hosting completed", zap.String("hosting_id", hostingID))
	return nil
}
