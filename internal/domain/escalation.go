package domain

import "time"

// EscalationReasonSLA is the reason recorded by the automatic sweep.
const EscalationReasonSLA = "SLA deadline exceeded"

// Escalation flags a request needing elevated attention. A request has at
// most one open escalation at any time.
type Escalation struct {
	ID                      string
	RequestID               string
	EscalatedAt             time.Time
	EscalatedBy             string // actor id, or SystemActorID for the sweep
	Reason                  string
	SLABreached             bool
	EscalatedToStaffID      *string
	EscalatedToDepartmentID *string
	ResolvedAt              *time.Time
	ResolutionNote          *string
}

// Open reports whether the escalation is still unresolved.
func (e *Escalation) Open() bool {
	return e.ResolvedAt == nil
}
