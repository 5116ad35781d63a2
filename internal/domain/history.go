package domain

import "time"

// StatusHistoryKind distinguishes status moves from progress annotations.
type StatusHistoryKind string

const (
	HistoryKindTransition   StatusHistoryKind = "TRANSITION"
	HistoryKindProgressNote StatusHistoryKind = "PROGRESS_NOTE"
)

// StatusHistoryEntry is an immutable audit record. The sequence of
// TRANSITION entries for a request, in order, is always a walk the
// transition table accepts; entries are never updated or deleted.
type StatusHistoryEntry struct {
	ID        string
	RequestID string
	Kind      StatusHistoryKind
	OldStatus RequestStatus
	NewStatus RequestStatus
	ActorID   string
	ActorRole ActorRole
	Note      *string
	CreatedAt time.Time
}
