package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/squadcal/squadcal/pkg/core/calendar"
	"github.com/squadcal/squadcal/pkg/core/conflict"
	"github.com/squadcal/squadcal/pkg/core/incident"
	"github.com/squadcal/squadcal/pkg/core/model"
	"github.com/squadcal/squadcal/pkg/core/standup"
	"github.com/squadcal/squadcal/pkg/db"
)

// GenerateStore is the store surface horizon generation needs
type GenerateStore interface {
	GetSquad(ctx context.Context, id string) (*db.Squad, error)
	ListSquads(ctx context.Context) ([]db.Squad, error)
	ListMembers(ctx context.Context, squadID string) ([]db.Member, error)
	ListHostings(ctx context.Context, squadID, from, to string) ([]db.StandupHosting, error)
	InsertHostings(ctx context.Context, hostings []db.StandupHosting) error
	ListRotations(ctx context.Context, squadID string) ([]db.IncidentRotation, error)
	InsertRotation(ctx context.Context, rotation *db.IncidentRotation) error
}

// GenerateStandupHorizon populates standup hosting rows for every
// hosting day in [from, from+days) that does not already have one.
// Existing rows are authoritative and are never regenerated, so the
// operation is idempotent. Returns the number of rows inserted.
func GenerateStandupHorizon(ctx context.Context, store GenerateStore, cal *calendar.HolidayCalendar, logger *zap.Logger, squadID string, from time.Time, days int) (int, error) {
	logger.Info("Generating standup horizon",
		zap.String("squad_id", squadID),
		zap.String("from", calendar.FormatDate(from)),
		zap.Int("days", days))

	squadRec, err := store.GetSquad(ctx, squadID)
	if err != nil {
		return 0, fmt.Errorf("failed to load squad %s: %w", squadID, err)
	}
	squad := squadFromRecord(*squadRec)

	memberRecs, err := store.ListMembers(ctx, squadID)
	if err != nil {
		return 0, fmt.Errorf("failed to load members for squad %s: %w", squadID, err)
	}
	members := filterActiveMembers(membersFromRecords(memberRecs))

	from = calendar.DateOnly(from)
	to := from.AddDate(0, 0, days-1)

	existingRecs, err := store.ListHostings(ctx, squadID, calendar.FormatDate(from), calendar.FormatDate(to))
	if err != nil {
		return 0, fmt.Errorf("failed to load existing hostings: %w", err)
	}
	covered := make(map[string]bool, len(existingRecs))
	for _, rec := range existingRecs {
		if rec.Status != string(model.HostingCancelled) {
			covered[rec.Date] = true
		}
	}

	generated, err := standup.GenerateHostings(squad, members, cal, from, days)
	if err != nil {
		return 0, err
	}

	fresh := make([]db.StandupHosting, 0, len(generated))
	for _, hosting := range generated {
		if covered[calendar.FormatDate(hosting.Date)] {
			continue
		}
		fresh = append(fresh, hostingToRecord(hosting))
	}

	if len(fresh) > 0 {
		if err := store.InsertHostings(ctx, fresh); err != nil {
			return 0, fmt.Errorf("failed to insert hostings: %w", err)
		}
	}

	logger.Info("Standup horizon generated",
		zap.String("squad_id", squadID),
		zap.Int("inserted", len(fresh)),
		zap.Int("already_covered", len(generated)-len(fresh)))

	return len(fresh), nil
}

// GenerateIncidentHorizon populates incident rotation rows for the
// given number of sprints starting at the sprint containing from.
// Sprints already covered by an existing rotation are left untouched.
// Squads without an incident roster are skipped. Returns the number of
// rotations inserted.
func GenerateIncidentHorizon(ctx context.Context, store GenerateStore, anchor calendar.Anchor, logger *zap.Logger, squadID string, from time.Time, sprints int) (int, error) {
	logger.Info("Generating incident horizon",
		zap.String("squad_id", squadID),
		zap.String("from", calendar.FormatDate(from)),
		zap.Int("sprints", sprints))

	squadRec, err := store.GetSquad(ctx, squadID)
	if err != nil {
		return 0, fmt.Errorf("failed to load squad %s: %w", squadID, err)
	}
	squad := squadFromRecord(*squadRec)

	if !squad.HasIncidentRoster {
		logger.Info("Squad has no incident roster, skipping", zap.String("squad_id", squadID))
		return 0, nil
	}

	memberRecs, err := store.ListMembers(ctx, squadID)
	if err != nil {
		return 0, fmt.Errorf("failed to load members for squad %s: %w", squadID, err)
	}
	members := filterActiveMembers(membersFromRecords(memberRecs))

	existingRecs, err := store.ListRotations(ctx, squadID)
	if err != nil {
		return 0, fmt.Errorf("failed to load existing rotations: %w", err)
	}
	existing := make([]model.IncidentRotation, 0, len(existingRecs))
	for _, rec := range existingRecs {
		rotation, err := rotationFromRecord(rec, nil)
		if err != nil {
			return 0, err
		}
		existing = append(existing, rotation)
	}

	candidates, err := incident.GenerateRotations(squad, members, anchor, from, sprints)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, candidate := range candidates {
		if err := conflict.ValidateNewRotation(candidate, existing); err != nil {
			// An existing rotation already covers this sprint; it
			// stays authoritative.
			if reason, ok := conflict.ReasonOf(err); ok && reason == conflict.ReasonOverlappingRotation {
				continue
			}
			return inserted, err
		}

		rec := rotationToRecord(candidate)
		if err := store.InsertRotation(ctx, &rec); err != nil {
			return inserted, fmt.Errorf("failed to insert rotation for sprint %d: %w", candidate.SprintNumber, err)
		}
		existing = append(existing, candidate)
		inserted++
	}

	logger.Info("Incident horizon generated",
		zap.String("squad_id", squadID),
		zap.Int("inserted", inserted),
		zap.Int("already_covered", len(candidates)-inserted))

	return inserted, nil
}

// GenerateAllSquads runs both horizon generators for every squad.
// Used by the cron-scheduled generation job.
func GenerateAllSquads(ctx context.Context, store GenerateStore, cal *calendar.HolidayCalendar, anchor calendar.Anchor, logger *zap.Logger, from time.Time, days, sprints int) error {
	squads, err := store.ListSquads(ctx)
	if err != nil {
		return fmt.Errorf("failed to list squads: %w", err)
	}

	for _, squad := range squads {
		if _, err := GenerateStandupHorizon(ctx, store, cal, logger, squad.ID, from, days); err != nil {
			logger.Error("Standup generation failed", zap.String("squad_id", squad.ID), zap.Error(err))
			continue
		}
		if _, err := GenerateIncidentHorizon(ctx, store, anchor, logger, squad.ID, from, sprints); err != nil {
			logger.Error("Incident generation failed", zap.String("squad_id", squad.ID), zap.Error(err))
		}
	}

	return nil
}
