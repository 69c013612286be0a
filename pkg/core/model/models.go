package model

import "time"

// MemberStatus indicates whether a member participates in rotations
type MemberStatus string

const (
	MemberActive   MemberStatus = "ACTIVE"
	MemberInactive MemberStatus = "INACTIVE"
)

func (s MemberStatus) IsValid() bool {
	return s == MemberActive || s == MemberInactive
}

// HostingStatus is the lifecycle state of a standup hosting assignment
type HostingStatus string

const (
	HostingScheduled HostingStatus = "SCHEDULED"
	HostingCompleted HostingStatus = "COMPLETED"
	HostingCancelled HostingStatus = "CANCELLED"
)

// SwapStatus is the lifecycle state of a rotation swap request.
// PENDING transitions to exactly one of APPROVED or REJECTED.
type SwapStatus string

const (
	SwapPending  SwapStatus = "PENDING"
	SwapApproved SwapStatus = "APPROVED"
	SwapRejected SwapStatus = "REJECTED"
)

// IsTerminal reports whether the status permits no further transitions
func (s SwapStatus) IsTerminal() bool {
	return s == SwapApproved || s == SwapRejected
}

// DutyKind identifies one of the three duty roles a member can hold
type DutyKind string

const (
	DutyHost      DutyKind = "host"
	DutyPrimary   DutyKind = "primary"
	DutySecondary DutyKind = "secondary"
)

func (k DutyKind) IsValid() bool {
	return k == DutyHost || k == DutyPrimary || k == DutySecondary
}

// Squad represents a team unit owning members and rotation schedules
type Squad struct {
	ID                string
	Name              string
	Code              string
	HasIncidentRoster bool
}

// Member represents a squad member
type Member struct {
	ID        string
	SquadID   string
	FirstName string
	LastName  string
	Email     string
	Status    MemberStatus
}

// FullName returns the member's display name
func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// StandupHosting assigns a member to host a squad's standup on one weekday
type StandupHosting struct {
	ID        string
	SquadID   string
	MemberID  string
	Date      time.Time
	Status    HostingStatus
	Completed bool
}

// IncidentRotation is one sprint-long on-call window with a responder pair.
// StartDate and EndDate are both inclusive days.
type IncidentRotation struct {
	ID                string
	SquadID           string
	SprintNumber      int
	StartDate         time.Time
	EndDate           time.Time
	PrimaryMemberID   string
	SecondaryMemberID string
	Swaps             []RotationSwap
}

// Covers reports whether d falls inside the rotation's interval
func (r IncidentRotation) Covers(d time.Time) bool {
	return !d.Before(r.StartDate) && !d.After(r.EndDate)
}

// RotationSwap reassigns one responder's duty for a single date.
// Only APPROVED swaps affect duty resolution.
type RotationSwap struct {
	ID          string
	RotationID  string
	RequesterID string
	AccepterID  string
	SwapDate    time.Time
	Status      SwapStatus
}

// SprintWindow is a fixed 14-day scheduling window, 1-indexed within a
// financial year
type SprintWindow struct {
	Start  time.Time
	End    time.Time
	Number int
}

// Contains reports whether d falls inside the window
func (w SprintWindow) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// DutyAssignment is the composed per-date answer to "who is on duty".
// Nil pointers mean no duty of that kind on the date.
type DutyAssignment struct {
	Date        time.Time
	Host        *Member
	Primary     *Member
	Secondary   *Member
	HolidayName string
}

// MemberHolds reports whether the given member holds the given duty kind
// in this assignment
func (d DutyAssignment) MemberHolds(memberID string, kind DutyKind) bool {
	switch kind {
	case DutyHost:
		return d.Host != nil && d.Host.ID == memberID
	case DutyPrimary:
		return d.Primary != nil && d.Primary.ID == memberID
	case DutySecondary:
		return d.Secondary != nil && d.Secondary.ID == memberID
	}
	return false
}

// DutyRecord is one historical duty entry for a member
type DutyRecord struct {
	Date    time.Time
	Kind    DutyKind
	SquadID string
}
