package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/squadcal/squadcal/pkg/db"
)

const hostingColumns = `id, squad_id, member_id, hosting_date, status, completed`

func scanHosting(row pgx.Row) (*db.StandupHosting, error) {
	var h db.StandupHosting
	var date time.Time
	if err := row.Scan(&h.ID, &h.SquadID, &h.MemberID, &date, &h.Status, &h.Completed); err != nil {
		return nil, err
	}
	h.Date = date.Format("2006-01-02")
	return &h, nil
}

// GetHostingByID retrieves a hosting by id
func (d *DB) GetHostingByID(ctx context.Context, id string) (*db.StandupHosting, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+hostingColumns+`
		FROM standup_hostings WHERE id = $1
	`, id)
	h, err := scanHosting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query hosting: %w", err)
	}
	return h, nil
}

// ListHostings retrieves a squad's hostings with dates in [from, to]
func (d *DB) ListHostings(ctx context.Context, squadID, from, to string) ([]db.StandupHosting, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+hostingColumns+`
		FROM standup_hostings
		WHERE squad_id = $1 AND hosting_date BETWEEN $2 AND $3
		ORDER BY hosting_date
	`, squadID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query hostings: %w", err)
	}
	defer rows.Close()

	return collectHostings(rows)
}

// ListMemberHostings retrieves a member's non-cancelled hostings before
// the given date, most recent first, capped to limit when positive
func (d *DB) ListMemberHostings(ctx context.Context, memberID, before string, limit int) ([]db.StandupHosting, error) {
	query := `
		SELECT ` + hostingColumns + `
		FROM standup_hostings
		WHERE member_id = $1 AND hosting_date < $2 AND status <> 'CANCELLED'
		ORDER BY hosting_date DESC
	`
	args := []any{memberID, before}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query member hostings: %w", err)
	}
	defer rows.Close()

	return collectHostings(rows)
}

func collectHostings(rows pgx.Rows) ([]db.StandupHosting, error) {
	var hostings []db.StandupHosting
	for rows.Next() {
		h, err := scanHosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hosting: %w", err)
		}
		hostings = append(hostings, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hostings: %w", err)
	}
	return hostings, nil
}

// InsertHostings inserts a batch of hosting rows in one transaction
func (d *DB) InsertHostings(ctx context.Context, hostings []db.StandupHosting) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, h := range hostings {
		_, err := tx.Exec(ctx, `
			INSERT INTO standup_hostings (id, squad_id, member_id, hosting_date, status, completed)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, h.ID, h.SquadID, h.MemberID, h.Date, h.Status, h.Completed)
		if err != nil {
			return fmt.Errorf("failed to insert hosting for %s: %w", h.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit hostings: %w", err)
	}
	return nil
}

// UpdateHostingStatus updates a hosting's status and completion flag
func (d *DB) UpdateHostingStatus(ctx context.Context, id, status string, completed bool) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE standup_hostings SET status = $2, completed = $3 WHERE id = $1
	`, id, status, completed)
	if err != nil {
		return fmt.Errorf("failed to update hosting status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
