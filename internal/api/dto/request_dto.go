package dto

import (
	"time"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

// SubmitRequestRequest payload for POST /requests.
type SubmitRequestRequest struct {
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Priority     string `json:"priority"`
	WardID       string `json:"ward_id"`
	DepartmentID string `json:"department_id"`
}

// AssignRequestRequest optionally pins the assignment to one staff member.
type AssignRequestRequest struct {
	StaffID *string `json:"staff_id,omitempty"`
}

// RejectRequestRequest payload.
type RejectRequestRequest struct {
	Reason string `json:"reason"`
}

// ResolveRequestRequest payload.
type ResolveRequestRequest struct {
	Notes string `json:"notes"`
}

// ReopenRequestRequest payload.
type ReopenRequestRequest struct {
	Reason string `json:"reason"`
}

// ProgressNoteRequest payload.
type ProgressNoteRequest struct {
	Note string `json:"note"`
}

// EscalateRequestRequest payload.
type EscalateRequestRequest struct {
	Reason string `json:"reason"`
}

// ResolveEscalationRequest payload.
type ResolveEscalationRequest struct {
	Note string `json:"note"`
}

// RequestSummary is the list representation of a request.
type RequestSummary struct {
	ID              string                 `json:"id"`
	TrackingCode    string                 `json:"tracking_code"`
	Category        string                 `json:"category"`
	Title           string                 `json:"title"`
	Priority        domain.RequestPriority `json:"priority"`
	Status          domain.RequestStatus   `json:"status"`
	WardID          string                 `json:"ward_id"`
	DepartmentID    string                 `json:"department_id"`
	AssignedStaffID *string                `json:"assigned_staff_id,omitempty"`
	SubmittedAt     time.Time              `json:"submitted_at"`
	SLADueAt        *time.Time             `json:"sla_due_at,omitempty"`
	Escalated       bool                   `json:"escalated"`
}

// RequestDetailResponse is the full representation including audit history.
type RequestDetailResponse struct {
	RequestSummary
	Subcategory     string                 `json:"subcategory,omitempty"`
	Description     string                 `json:"description"`
	ResolvedAt      *time.Time             `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time             `json:"closed_at,omitempty"`
	ResolutionNotes *string                `json:"resolution_notes,omitempty"`
	RejectionReason *string                `json:"rejection_reason,omitempty"`
	History         []HistoryEntryResponse `json:"history,omitempty"`
}

// HistoryEntryResponse is one audit trail row.
type HistoryEntryResponse struct {
	ID        string                   `json:"id"`
	Kind      domain.StatusHistoryKind `json:"kind"`
	OldStatus domain.RequestStatus     `json:"old_status,omitempty"`
	NewStatus domain.RequestStatus     `json:"new_status,omitempty"`
	ActorID   string                   `json:"actor_id"`
	ActorRole domain.ActorRole         `json:"actor_role"`
	Note      *string                  `json:"note,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

// EscalationResponse represents an escalation record.
type EscalationResponse struct {
	ID             string     `json:"id"`
	RequestID      string     `json:"request_id"`
	EscalatedAt    time.Time  `json:"escalated_at"`
	EscalatedBy    string     `json:"escalated_by"`
	Reason         string     `json:"reason"`
	SLABreached    bool       `json:"sla_breached"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolutionNote *string    `json:"resolution_note,omitempty"`
}
