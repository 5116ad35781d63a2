package dto

import (
	"time"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Staff     StaffResponse `json:"staff"`
}

// CreateStaffRequest payload for adding a staff account.
type CreateStaffRequest struct {
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Password          string  `json:"password"`
	Role              string  `json:"role"`
	DepartmentID      string  `json:"department_id"`
	WardID            string  `json:"ward_id"`
	MaxConcurrent     int     `json:"max_concurrent"`
	PerformanceRating float64 `json:"performance_rating"`
}

// SetAvailabilityRequest payload.
type SetAvailabilityRequest struct {
	Availability string `json:"availability"`
}

// StaffResponse is the API view of a staff member and their workload.
type StaffResponse struct {
	ID                string                   `json:"id"`
	Name              string                   `json:"name"`
	Email             string                   `json:"email"`
	Role              domain.StaffRole         `json:"role"`
	DepartmentID      string                   `json:"department_id"`
	WardID            string                   `json:"ward_id"`
	Availability      domain.StaffAvailability `json:"availability"`
	ActiveAssignments int                      `json:"active_assignments"`
	MaxConcurrent     int                      `json:"max_concurrent"`
	PerformanceRating float64                  `json:"performance_rating"`
}
