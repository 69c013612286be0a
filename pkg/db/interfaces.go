package db

import "context"

// SquadStore defines squad and member read operations
type SquadStore interface {
	GetSquad(ctx context.Context, id string) (*Squad, error)
	ListSquads(ctx context.Context) ([]Squad, error)
	GetMember(ctx context.Context, id string) (*Member, error)
	// ListMembers returns a squad's members in rotation order.
	ListMembers(ctx context.Context, squadID string) ([]Member, error)
}

// HostingStore defines standup hosting database operations
type HostingStore interface {
	GetHostingByID(ctx context.Context, id string) (*StandupHosting, error)
	ListHostings(ctx context.Context, squadID, from, to string) ([]StandupHosting, error)
	ListMemberHostings(ctx context.Context, memberID, before string, limit int) ([]StandupHosting, error)
	InsertHostings(ctx context.Context, hostings []StandupHosting) error
	UpdateHostingStatus(ctx context.Context, id, status string, completed bool) error
}

// RotationStore defines incident rotation and swap database operations
type RotationStore interface {
	GetRotation(ctx context.Context, id string) (*IncidentRotation, error)
	ListRotations(ctx context.Context, squadID string) ([]IncidentRotation, error)
	ListMemberRotations(ctx context.Context, memberID string) ([]IncidentRotation, error)
	// InsertRotation must re-check interval overlap under a per-squad
	// lock so concurrent writers cannot both pass validation.
	InsertRotation(ctx context.Context, rotation *IncidentRotation) error
	GetSwap(ctx context.Context, id string) (*RotationSwap, error)
	ListSwaps(ctx context.Context, rotationID string) ([]RotationSwap, error)
	InsertSwap(ctx context.Context, swap *RotationSwap) error
	// ApproveSwap must re-check the one-approved-swap-per-date rule
	// under a per-rotation lock before flipping the status.
	ApproveSwap(ctx context.Context, id string) error
	UpdateSwapStatus(ctx context.Context, id, status string) error
}

// Store combines all store interfaces.
// The postgres-backed implementation satisfies it.
type Store interface {
	SquadStore
	HostingStore
	RotationStore
}
