package domain

import "time"

// RequestStatus enumerates lifecycle states for citizen service requests.
type RequestStatus string

const (
	StatusDraft      RequestStatus = "DRAFT"
	StatusSubmitted  RequestStatus = "SUBMITTED"
	StatusReceived   RequestStatus = "RECEIVED"
	StatusAssigned   RequestStatus = "ASSIGNED"
	StatusAccepted   RequestStatus = "ACCEPTED"
	StatusInProgress RequestStatus = "IN_PROGRESS"
	StatusResolved   RequestStatus = "RESOLVED"
	StatusClosed     RequestStatus = "CLOSED"
	StatusRejected   RequestStatus = "REJECTED"
	StatusReopened   RequestStatus = "REOPENED"
	StatusEscalated  RequestStatus = "ESCALATED"
)

// IsTerminal reports whether no further work happens on the request.
// CLOSED still allows the single reopen transition.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusRejected
}

// IsInFlight reports whether the request is actively being worked and
// therefore subject to SLA escalation.
func (s RequestStatus) IsInFlight() bool {
	return s == StatusAssigned || s == StatusAccepted || s == StatusInProgress
}

// RequestPriority enumerates SLA urgency, ordered low to critical.
type RequestPriority string

const (
	PriorityLow      RequestPriority = "LOW"
	PriorityMedium   RequestPriority = "MEDIUM"
	PriorityHigh     RequestPriority = "HIGH"
	PriorityUrgent   RequestPriority = "URGENT"
	PriorityCritical RequestPriority = "CRITICAL"
)

// Weight returns a numeric rank for priority comparison.
func (p RequestPriority) Weight() int {
	switch p {
	case PriorityCritical:
		return 5
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Request is the aggregate for a citizen complaint tracked from submission
// to closure. Status, assignment and timestamps are written only by the
// lifecycle service.
type Request struct {
	ID               string
	TrackingCode     string
	CitizenID        string
	Category         string
	Subcategory      string
	Title            string
	Description      string
	Priority         RequestPriority
	Status           RequestStatus
	WardID           string
	DepartmentID     string
	AssignedStaffID  *string
	SubmittedAt      time.Time
	SLADueAt         *time.Time
	ResolvedAt       *time.Time
	ClosedAt         *time.Time
	Escalated        bool
	WorkloadReleased bool
	ResolutionNotes  *string
	RejectionReason  *string
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
