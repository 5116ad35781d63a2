package events

import (
	"time"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestSubmitted   EventType = "request_submitted"
	EventStatusChanged      EventType = "request_status_changed"
	EventRequestAssigned    EventType = "request_assigned"
	EventRequestEscalated   EventType = "request_escalated"
	EventEscalationResolved EventType = "escalation_resolved"
	EventProgressNoted      EventType = "request_progress_noted"
)

// AllTypes lists every event the engine can emit, for fan-out subscribers.
func AllTypes() []EventType {
	return []EventType{
		EventRequestSubmitted,
		EventStatusChanged,
		EventRequestAssigned,
		EventRequestEscalated,
		EventEscalationResolved,
		EventProgressNoted,
	}
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string           `json:"id"`
	Role domain.ActorRole `json:"role"`
}

// Event represents a domain event emitted after a committed transition.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestSubmittedPayload payload.
type RequestSubmittedPayload struct {
	TrackingCode string                 `json:"tracking_code"`
	Category     string                 `json:"category"`
	Priority     domain.RequestPriority `json:"priority"`
	WardID       string                 `json:"ward_id"`
	DepartmentID string                 `json:"department_id"`
	SLADueAt     *time.Time             `json:"sla_due_at,omitempty"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
	Note      string               `json:"note,omitempty"`
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	StaffID           string `json:"staff_id"`
	ActiveAssignments int    `json:"active_assignments"`
	Manual            bool   `json:"manual"`
}

// RequestEscalatedPayload payload.
type RequestEscalatedPayload struct {
	EscalationID string `json:"escalation_id"`
	Reason       string `json:"reason"`
	SLABreached  bool   `json:"sla_breached"`
}

// EscalationResolvedPayload payload.
type EscalationResolvedPayload struct {
	EscalationID   string `json:"escalation_id"`
	ResolutionNote string `json:"resolution_note"`
}

// ProgressNotedPayload payload.
type ProgressNotedPayload struct {
	Note string `json:"note"`
}
