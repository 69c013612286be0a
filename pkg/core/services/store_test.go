package services

import (
	"context"
	"sort"

	"github.com/squadcal/squadcal/pkg/db"
)

// fakeStore is an in-memory stand-in for the postgres store, used by
// the service tests. List methods sort the way the real queries do.
type fakeStore struct {
	squads    map[string]db.Squad
	members   map[string]db.Member
	hostings  map[string]db.StandupHosting
	rotations map[string]db.IncidentRotation
	swaps     map[string]db.RotationSwap
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		squads:    make(map[string]db.Squad),
		members:   make(map[string]db.Member),
		hostings:  make(map[string]db.StandupHosting),
		rotations: make(map[string]db.IncidentRotation),
		swaps:     make(map[string]db.RotationSwap),
	}
}

func (s *fakeStore) GetSquad(_ context.Context, id string) (*db.Squad, error) {
	squad, ok := s.squads[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &squad, nil
}

func (s *fakeStore) ListSquads(_ context.Context) ([]db.Squad, error) {
	squads := make([]db.Squad, 0, len(s.squads))
	for _, squad := range s.squads {
		squads = append(squads, squad)
	}
	sort.Slice(squads, func(i, j int) bool { return squads[i].Code < squads[j].Code })
	return squads, nil
}

func (s *fakeStore) GetMember(_ context.Context, id string) (*db.Member, error) {
	member, ok := s.members[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &member, nil
}

func (s *fakeStore) ListMembers(_ context.Context, squadID string) ([]db.Member, error) {
	var members []db.Member
	for _, m := range s.members {
		if m.SquadID == squadID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Position != members[j].Position {
			return members[i].Position < members[j].Position
		}
		return members[i].ID < members[j].ID
	})
	return members, nil
}

func (s *fakeStore) GetHostingByID(_ context.Context, id string) (*db.StandupHosting, error) {
	hosting, ok := s.hostings[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &hosting, nil
}

func (s *fakeStore) ListHostings(_ context.Context, squadID, from, to string) ([]db.StandupHosting, error) {
	var hostings []db.StandupHosting
	for _, h := range s.hostings {
		if h.SquadID == squadID && h.Date >= from && h.Date <= to {
			hostings = append(hostings, h)
		}
	}
	sort.Slice(hostings, func(i, j int) bool { return hostings[i].Date < hostings[j].Date })
	return hostings, nil
}

func (s *fakeStore) ListMemberHostings(_ context.Context, memberID, before string, limit int) ([]db.StandupHosting, error) {
	var hostings []db.StandupHosting
	for _, h := range s.hostings {
		if h.MemberID == memberID && h.Date < before && h.Status != "CANCELLED" {
			hostings = append(hostings, h)
		}
	}
	sort.Slice(hostings, func(i, j int) bool { return hostings[i].Date > hostings[j].Date })
	if limit > 0 && len(hostings) > limit {
		hostings = hostings[:limit]
	}
	return hostings, nil
}

func (s *fakeStore) InsertHostings(_ context.Context, hostings []db.StandupHosting) error {
	for _, h := range hostings {
		s.hostings[h.ID] = h
	}
	return nil
}

func (s *fakeStore) UpdateHostingStatus(_ context.Context, id, status string, completed bool) error {
	hosting, ok := s.hostings[id]
	if !ok {
		return db.ErrNotFound
	}
	hosting.Status = status
	hosting.Completed = completed
	s.hostings[id] = hosting
	return nil
}

func (s *fakeStore) GetRotation(_ context.Context, id string) (*db.IncidentRotation, error) {
	rotation, ok := s.rotations[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &rotation, nil
}

func (s *fakeStore) ListRotations(_ context.Context, squadID string) ([]db.IncidentRotation, error) {
	var rotations []db.IncidentRotation
	for _, r := range s.rotations {
		if r.SquadID == squadID {
			rotations = append(rotations, r)
		}
	}
	sort.Slice(rotations, func(i, j int) bool { return rotations[i].StartDate < rotations[j].StartDate })
	return rotations, nil
}

func (s *fakeStore) ListMemberRotations(_ context.Context, memberID string) ([]db.IncidentRotation, error) {
	var rotations []db.IncidentRotation
	for _, r := range s.rotations {
		if r.PrimaryMemberID == memberID || r.SecondaryMemberID == memberID {
			rotations = append(rotations, r)
		}
	}
	sort.Slice(rotations, func(i, j int) bool { return rotations[i].StartDate > rotations[j].StartDate })
	return rotations, nil
}

func (s *fakeStore) InsertRotation(_ context.Context, rotation *db.IncidentRotation) error {
	s.rotations[rotation.ID] = *rotation
	return nil
}

func (s *fakeStore) GetSwap(_ context.Context, id string) (*db.RotationSwap, error) {
	swap, ok := s.swaps[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &swap, nil
}

func (s *fakeStore) ListSwaps(_ context.Context, rotationID string) ([]db.RotationSwap, error) {
	var swaps []db.RotationSwap
	for _, swap := range s.swaps {
		if swap.RotationID == rotationID {
			swaps = append(swaps, swap)
		}
	}
	sort.Slice(swaps, func(i, j int) bool { return swaps[i].ID < swaps[j].ID })
	return swaps, nil
}

func (s *fakeStore) InsertSwap(_ context.Context, swap *db.RotationSwap) error {
	s.swaps[swap.ID] = *swap
	return nil
}

func (s *fakeStore) ApproveSwap(_ context.Context, id string) error {
	return s.UpdateSwapStatus(context.Background(), id, "APPROVED")
}

func (s *fakeStore) UpdateSwapStatus(_ context.Context, id, status string) error {
	swap, ok := s.swaps[id]
	if !ok {
		return db.ErrNotFound
	}
	swap.Status = status
	s.swaps[id] = swap
	return nil
}
