package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Sandesh225/smartpokhara-sub002/internal/auth"
	"github.com/Sandesh225/smartpokhara-sub002/internal/config"
	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
	"github.com/Sandesh225/smartpokhara-sub002/internal/repository"
	apperrors "github.com/Sandesh225/smartpokhara-sub002/pkg/util"
)

// StaffService manages the staff directory and availability flags the
// assignment balancer reads.
type StaffService struct {
	store      repository.Store
	bcryptCost int
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	DepartmentID *string
	WardID       *string
	Availability *domain.StaffAvailability
	Limit        int
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, store repository.Store) *StaffService {
	return &StaffService{store: store, bcryptCost: cfg.Auth.BcryptCost}
}

func requireSupervisor(actor domain.Actor) error {
	if actor.Role != domain.RoleSupervisor {
		return apperrors.NewForbidden("supervisor role required")
	}
	return nil
}

// CreateStaffMember adds a new staff account.
func (s *StaffService) CreateStaffMember(ctx context.Context, actor domain.Actor, staff *domain.StaffWorkload, password string) (*domain.StaffWorkload, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(staff.Email) == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if existing, err := s.store.GetStaffByEmail(ctx, staff.Email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": staff.Email})
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	staff.PasswordHash = hash
	if staff.Role == "" {
		staff.Role = domain.StaffRoleField
	}
	if staff.Availability == "" {
		staff.Availability = domain.AvailabilityAvailable
	}
	if staff.MaxConcurrent <= 0 {
		staff.MaxConcurrent = 5
	}

	if err := s.store.CreateStaff(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ListStaffMembers lists staff with their live workload counters.
func (s *StaffService) ListStaffMembers(ctx context.Context, actor domain.Actor, filters StaffListFilters) ([]domain.StaffWorkload, error) {
	if err := requireSupervisor(actor); err != nil {
		return nil, err
	}
	return s.store.ListStaff(ctx, repository.StaffFilter{
		DepartmentID: filters.DepartmentID,
		WardID:       filters.WardID,
		Availability: filters.Availability,
		Limit:        filters.Limit,
	})
}

// GetStaffMember fetches one staff member. Staff may read their own record;
// anything else requires a supervisor.
func (s *StaffService) GetStaffMember(ctx context.Context, actor domain.Actor, id string) (*domain.StaffWorkload, error) {
	if actor.Role != domain.RoleSupervisor && actor.ID != id {
		return nil, apperrors.NewForbidden("supervisor role required")
	}
	staff, err := s.store.GetStaff(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("staff member", map[string]any{"staff_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// SetAvailability updates a staff member's availability flag. Staff may set
// their own; supervisors may set anyone's.
func (s *StaffService) SetAvailability(ctx context.Context, actor domain.Actor, staffID string, availability domain.StaffAvailability) error {
	if actor.Role != domain.RoleSupervisor && actor.ID != staffID {
		return apperrors.NewForbidden("cannot change another staff member's availability")
	}
	switch availability {
	case domain.AvailabilityAvailable, domain.AvailabilityBusy, domain.AvailabilityOffline, domain.AvailabilityOnLeave:
	default:
		return apperrors.NewValidationError("unknown availability", map[string]any{"availability": availability})
	}
	if err := s.store.UpdateStaffAvailability(ctx, staffID, availability); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("staff member", map[string]any{"staff_id": staffID})
		}
		return apperrors.MapError(err)
	}
	return nil
}
