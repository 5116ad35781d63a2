package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

// Sentinel errors surfaced by store implementations.
var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("request version conflict")
	ErrStaffAtCapacity = errors.New("staff member at maximum concurrent assignments")
)

// RequestFilter captures request listing parameters.
type RequestFilter struct {
	CitizenID       *string
	WardID          *string
	DepartmentID    *string
	AssignedStaffID *string
	Statuses        []domain.RequestStatus
	DueBefore       *time.Time
	SubmittedFrom   *time.Time
	SubmittedTo     *time.Time
	Escalated       *bool
	Limit           int
	Offset          int
}

// StaffFilter captures staff listing parameters.
type StaffFilter struct {
	DepartmentID *string
	WardID       *string
	Availability *domain.StaffAvailability
	Limit        int
}

// Store bundles persistence for the lifecycle aggregates. Implementations
// obtained through Atomically commit all writes together or not at all; the
// request row plus its latest history entry is the unit of atomicity.
type Store interface {
	CreateRequest(ctx context.Context, req *domain.Request) error
	GetRequest(ctx context.Context, id string) (*domain.Request, error)
	GetRequestByTrackingCode(ctx context.Context, code string) (*domain.Request, error)
	// UpdateRequest writes the request only when the stored version matches
	// req.Version, then bumps it. A mismatch returns ErrVersionConflict.
	UpdateRequest(ctx context.Context, req *domain.Request) error
	ListRequests(ctx context.Context, filter RequestFilter) ([]domain.Request, error)

	AppendHistory(ctx context.Context, entry *domain.StatusHistoryEntry) error
	ListHistory(ctx context.Context, requestID string) ([]domain.StatusHistoryEntry, error)

	CreateEscalation(ctx context.Context, esc *domain.Escalation) error
	GetEscalation(ctx context.Context, id string) (*domain.Escalation, error)
	// GetOpenEscalation returns ErrNotFound when the request has no
	// unresolved escalation.
	GetOpenEscalation(ctx context.Context, requestID string) (*domain.Escalation, error)
	UpdateEscalation(ctx context.Context, esc *domain.Escalation) error

	CreateStaff(ctx context.Context, staff *domain.StaffWorkload) error
	GetStaff(ctx context.Context, id string) (*domain.StaffWorkload, error)
	GetStaffByEmail(ctx context.Context, email string) (*domain.StaffWorkload, error)
	ListStaff(ctx context.Context, filter StaffFilter) ([]domain.StaffWorkload, error)
	// ReserveStaffCapacity increments the active counter only while it is
	// below the maximum, as a single conditional write. Returns
	// ErrStaffAtCapacity when the member is full.
	ReserveStaffCapacity(ctx context.Context, staffID string) error
	// ReleaseStaffCapacity decrements the active counter, flooring at zero.
	ReleaseStaffCapacity(ctx context.Context, staffID string) error
	UpdateStaffAvailability(ctx context.Context, staffID string, availability domain.StaffAvailability) error
}

// TxStore is a Store that can run a function transactionally. The callback
// receives a Store view scoped to one request-id-sized transaction; no
// global locks.
type TxStore interface {
	Store
	Atomically(ctx context.Context, fn func(Store) error) error
}
