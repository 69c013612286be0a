package db

// Squad represents a database squad record
type Squad struct {
	ID                string
	Name              string
	Code              string
	HasIncidentRoster bool
}

// Member represents a database member record
type Member struct {
	ID        string
	SquadID   string
	FirstName string
	LastName  string
	Email     string
	Status    string
	Position  int // rotation order within the squad
}

// StandupHosting represents a database standup hosting record
type StandupHosting struct {
	ID        string
	SquadID   string
	MemberID  string
	Date      string // YYYY-MM-DD
	Status    string
	Completed bool
}

// IncidentRotation represents a database incident rotation record
type IncidentRotation struct {
	ID                string
	SquadID           string
	SprintNumber      int
	StartDate         string // YYYY-MM-DD
	EndDate           string // YYYY-MM-DD
	PrimaryMemberID   string
	SecondaryMemberID string
}

// RotationSwap represents a database rotation swap record
type RotationSwap struct {
	ID          string
	RotationID  string
	RequesterID string
	AccepterID  string
	SwapDate    string // YYYY-MM-DD
	Status      string
}
