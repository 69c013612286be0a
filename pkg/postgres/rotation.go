package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/squadcal/squadcal/pkg/core/conflict"
	"github.com/squadcal/squadcal/pkg/db"
)

const rotationColumns = `id, squad_id, sprint_number, start_date, end_date, primary_member_id, secondary_member_id`

func scanRotation(row pgx.Row) (*db.IncidentRotation, error) {
	var r db.IncidentRotation
	var start, end time.Time
	if err := row.Scan(&r.ID, &r.SquadID, &r.SprintNumber, &start, &end, &r.PrimaryMemberID, &r.SecondaryMemberID); err != nil {
		return nil, err
	}
	r.StartDate = start.Format("2006-01-02")
	r.EndDate = end.Format("2006-01-02")
	return &r, nil
}

// GetRotation retrieves a rotation by id
func (d *DB) GetRotation(ctx context.Context, id string) (*db.IncidentRotation, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+rotationColumns+`
		FROM incident_rotations WHERE id = $1
	`, id)
	r, err := scanRotation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rotation: %w", err)
	}
	return r, nil
}

// ListRotations retrieves a squad's rotations ordered by start date
func (d *DB) ListRotations(ctx context.Context, squadID string) ([]db.IncidentRotation, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+rotationColumns+`
		FROM incident_rotations WHERE squad_id = $1
		ORDER BY start_date
	`, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rotations: %w", err)
	}
	defer rows.Close()

	return collectRotations(rows)
}

// ListMemberRotations retrieves rotations where the member holds the
// primary or secondary role
func (d *DB) ListMemberRotations(ctx context.Context, memberID string) ([]db.IncidentRotation, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+rotationColumns+`
		FROM incident_rotations
		WHERE primary_member_id = $1 OR secondary_member_id = $1
		ORDER BY start_date DESC
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query member rotations: %w", err)
	}
	defer rows.Close()

	return collectRotations(rows)
}

func collectRotations(rows pgx.Rows) ([]db.IncidentRotation, error) {
	var rotations []db.IncidentRotation
	for rows.Next() {
		r, err := scanRotation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rotation: %w", err)
		}
		rotations = append(rotations, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rotations: %w", err)
	}
	return rotations, nil
}

// InsertRotation inserts a rotation after re-checking interval overlap
// under a per-squad advisory lock, so two concurrent writers for the
// same squad serialize here even though the service already validated
// against its own snapshot.
func (d *DB) InsertRotation(ctx context.Context, rotation *db.IncidentRotation) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rotation.SquadID); err != nil {
		return fmt.Errorf("failed to acquire squad lock: %w", err)
	}

	var overlapping int
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM incident_rotations
		WHERE squad_id = $1 AND start_date <= $3 AND end_date >= $2
	`, rotation.SquadID, rotation.StartDate, rotation.EndDate).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("failed to check rotation overlap: %w", err)
	}
	if overlapping > 0 {
		return conflict.New(conflict.ReasonOverlappingRotation,
			"rotation %s to %s overlaps an existing rotation for squad %s",
			rotation.StartDate, rotation.EndDate, rotation.SquadID)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO incident_rotations (id, squad_id, sprint_number, start_date, end_date, primary_member_id, secondary_member_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rotation.ID, rotation.SquadID, rotation.SprintNumber, rotation.StartDate, rotation.EndDate, rotation.PrimaryMemberID, rotation.SecondaryMemberID)
	if err != nil {
		return fmt.Errorf("failed to insert rotation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rotation: %w", err)
	}
	return nil
}

// GetSwap retrieves a swap by id
func (d *DB) GetSwap(ctx context.Context, id string) (*db.RotationSwap, error) {
	var s db.RotationSwap
	var date time.Time
	err := d.pool.QueryRow(ctx, `
		SELECT id, rotation_id, requester_id, accepter_id, swap_date, status
		FROM rotation_swaps WHERE id = $1
	`, id).Scan(&s.ID, &s.RotationID, &s.RequesterID, &s.AccepterID, &date, &s.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query swap: %w", err)
	}
	s.SwapDate = date.Format("2006-01-02")
	return &s, nil
}

// ListSwaps retrieves a rotation's swaps
func (d *DB) ListSwaps(ctx context.Context, rotationID string) ([]db.RotationSwap, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, rotation_id, requester_id, accepter_id, swap_date, status
		FROM rotation_swaps WHERE rotation_id = $1
		ORDER BY swap_date
	`, rotationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query swaps: %w", err)
	}
	defer rows.Close()

	var swaps []db.RotationSwap
	for rows.Next() {
		var s db.RotationSwap
		var date time.Time
		if err := rows.Scan(&s.ID, &s.RotationID, &s.RequesterID, &s.AccepterID, &date, &s.Status); err != nil {
			return nil, fmt.Errorf("failed to scan swap: %w", err)
		}
		s.SwapDate = date.Format("2006-01-02")
		swaps = append(swaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating swaps: %w", err)
	}

	return swaps, nil
}

// InsertSwap inserts a new swap record
func (d *DB) InsertSwap(ctx context.Context, swap *db.RotationSwap) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO rotation_swaps (id, rotation_id, requester_id, accepter_id, swap_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, swap.ID, swap.RotationID, swap.RequesterID, swap.AccepterID, swap.SwapDate, swap.Status)
	if err != nil {
		return fmt.Errorf("failed to insert swap: %w", err)
	}
	return nil
}

// ApproveSwap flips a pending swap to APPROVED after re-checking the
// one-approved-swap-per-date rule under a per-rotation advisory lock
func (d *DB) ApproveSwap(ctx context.Context, id string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var rotationID, swapDate, status string
	var date time.Time
	err = tx.QueryRow(ctx, `
		SELECT rotation_id, swap_date, status FROM rotation_swaps WHERE id = $1
	`, id).Scan(&rotationID, &date, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query swap: %w", err)
	}
	swapDate = date.Format("2006-01-02")

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rotationID); err != nil {
		return fmt.Errorf("failed to acquire rotation lock: %w", err)
	}

	var approved int
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM rotation_swaps
		WHERE rotation_id = $1 AND swap_date = $2 AND status = 'APPROVED' AND id <> $3
	`, rotationID, swapDate, id).Scan(&approved)
	if err != nil {
		return fmt.Errorf("failed to check approved swaps: %w", err)
	}
	if approved > 0 {
		return conflict.New(conflict.ReasonDuplicateApprovedSwap,
			"another swap is already approved for %s on rotation %s", swapDate, rotationID)
	}

	if _, err := tx.Exec(ctx, `UPDATE rotation_swaps SET status = 'APPROVED' WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to approve swap: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit swap approval: %w", err)
	}
	return nil
}

// UpdateSwapStatus updates a swap's status without further checks
func (d *DB) UpdateSwapStatus(ctx context.Context, id, status string) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE rotation_swaps SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update swap status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
