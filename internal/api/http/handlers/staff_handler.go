package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Sandesh225/smartpokhara-sub002/internal/api/dto"
	"github.com/Sandesh225/smartpokhara-sub002/internal/auth"
	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
	"github.com/Sandesh225/smartpokhara-sub002/internal/service"
	apperrors "github.com/Sandesh225/smartpokhara-sub002/pkg/util"
)

// StaffHandler exposes staff directory and auth endpoints.
type StaffHandler struct {
	authService  *service.AuthService
	staffService *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService, staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{authService: authService, staffService: staffService}
}

// Login handles POST /auth/staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	staff, token, exp, err := h.authService.LoginStaff(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     token,
		ExpiresAt: exp,
		Staff:     staffResponse(staff),
	}})
}

// Create handles POST /staff.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email and password required", nil)
	}

	staff, err := h.staffService.CreateStaffMember(c.UserContext(), actor, &domain.StaffWorkload{
		Name:              req.Name,
		Email:             req.Email,
		Role:              domain.StaffRole(req.Role),
		DepartmentID:      req.DepartmentID,
		WardID:            req.WardID,
		MaxConcurrent:     req.MaxConcurrent,
		PerformanceRating: req.PerformanceRating,
	}, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(staff)})
}

// List handles GET /staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filters := service.StaffListFilters{Limit: parseInt(c.Query("limit"), 100)}
	if dept := c.Query("department_id"); dept != "" {
		filters.DepartmentID = &dept
	}
	if ward := c.Query("ward_id"); ward != "" {
		filters.WardID = &ward
	}
	if avail := c.Query("availability"); avail != "" {
		availability := domain.StaffAvailability(avail)
		filters.Availability = &availability
	}

	staff, err := h.staffService.ListStaffMembers(c.UserContext(), actor, filters)
	if err != nil {
		return err
	}
	items := make([]dto.StaffResponse, 0, len(staff))
	for i := range staff {
		items = append(items, staffResponse(&staff[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /staff/:id.
func (h *StaffHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	staff, err := h.staffService.GetStaffMember(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(staff)})
}

// SetAvailability handles PUT /staff/:id/availability.
func (h *StaffHandler) SetAvailability(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SetAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.staffService.SetAvailability(c.UserContext(), actor, c.Params("id"), domain.StaffAvailability(req.Availability)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "updated"}})
}

func staffResponse(staff *domain.StaffWorkload) dto.StaffResponse {
	return dto.StaffResponse{
		ID:                staff.ID,
		Name:              staff.Name,
		Email:             staff.Email,
		Role:              staff.Role,
		DepartmentID:      staff.DepartmentID,
		WardID:            staff.WardID,
		Availability:      staff.Availability,
		ActiveAssignments: staff.ActiveAssignments,
		MaxConcurrent:     staff.MaxConcurrent,
		PerformanceRating: staff.PerformanceRating,
	}
}
