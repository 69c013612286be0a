package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/squadcal/squadcal/pkg/db"
)

// GetSquad retrieves a squad by id
func (d *DB) GetSquad(ctx context.Context, id string) (*db.Squad, error) {
	var s db.Squad
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, code, has_incident_roster
		FROM squads WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Code, &s.HasIncidentRoster)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query squad: %w", err)
	}
	return &s, nil
}

// ListSquads retrieves all squads ordered by code
func (d *DB) ListSquads(ctx context.Context) ([]db.Squad, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, code, has_incident_roster
		FROM squads ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query squads: %w", err)
	}
	defer rows.Close()

	var squads []db.Squad
	for rows.Next() {
		var s db.Squad
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.HasIncidentRoster); err != nil {
			return nil, fmt.Errorf("failed to scan squad: %w", err)
		}
		squads = append(squads, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating squads: %w", err)
	}

	return squads, nil
}

// GetMember retrieves a member by id
func (d *DB) GetMember(ctx context.Context, id string) (*db.Member, error) {
	var m db.Member
	err := d.pool.QueryRow(ctx, `
		SELECT id, squad_id, first_name, last_name, email, status, position
		FROM members WHERE id = $1
	`, id).Scan(&m.ID, &m.SquadID, &m.FirstName, &m.LastName, &m.Email, &m.Status, &m.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query member: %w", err)
	}
	return &m, nil
}

// ListMembers retrieves a squad's members in rotation order
func (d *DB) ListMembers(ctx context.Context, squadID string) ([]db.Member, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, squad_id, first_name, last_name, email, status, position
		FROM members WHERE squad_id = $1
		ORDER BY position, id
	`, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []db.Member
	for rows.Next() {
		var m db.Member
		if err := rows.Scan(&m.ID, &m.SquadID, &m.FirstName, &m.LastName, &m.Email, &m.Status, &m.Position); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}
