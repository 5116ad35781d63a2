package domain

import "time"

// StaffAvailability enumerates whether a staff member can take work.
type StaffAvailability string

const (
	AvailabilityAvailable StaffAvailability = "AVAILABLE"
	AvailabilityBusy      StaffAvailability = "BUSY"
	AvailabilityOffline   StaffAvailability = "OFFLINE"
	AvailabilityOnLeave   StaffAvailability = "ON_LEAVE"
)

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleField      StaffRole = "STAFF"
	StaffRoleSupervisor StaffRole = "SUPERVISOR"
)

// ActorRole maps the staff role onto the lifecycle actor model.
func (r StaffRole) ActorRole() ActorRole {
	if r == StaffRoleSupervisor {
		return RoleSupervisor
	}
	return RoleStaff
}

// StaffWorkload models a municipal staff member together with the live
// assignment counters the balancer reads and writes.
type StaffWorkload struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	Role              StaffRole
	DepartmentID      string
	WardID            string
	Availability      StaffAvailability
	ActiveAssignments int
	MaxConcurrent     int
	PerformanceRating float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasCapacity reports whether the member can take one more assignment.
func (s *StaffWorkload) HasCapacity() bool {
	return s.ActiveAssignments < s.MaxConcurrent
}
