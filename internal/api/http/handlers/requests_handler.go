package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Sandesh225/smartpokhara-sub002/internal/api/dto"
	"github.com/Sandesh225/smartpokhara-sub002/internal/auth"
	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
	"github.com/Sandesh225/smartpokhara-sub002/internal/repository"
	"github.com/Sandesh225/smartpokhara-sub002/internal/service"
	apperrors "github.com/Sandesh225/smartpokhara-sub002/pkg/util"
)

// RequestsHandler exposes the complaint lifecycle endpoints.
type RequestsHandler struct {
	lifecycle   *service.LifecycleService
	assignments *service.AssignmentService
	escalations *service.EscalationService
}

// NewRequestsHandler constructs the handler.
func NewRequestsHandler(lifecycle *service.LifecycleService, assignments *service.AssignmentService, escalations *service.EscalationService) *RequestsHandler {
	return &RequestsHandler{lifecycle: lifecycle, assignments: assignments, escalations: escalations}
}

// Submit POST /requests.
func (h *RequestsHandler) Submit(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SubmitRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.lifecycle.Submit(c.UserContext(), actor, service.SubmitInput{
		Category:     req.Category,
		Subcategory:  req.Subcategory,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     domain.RequestPriority(strings.ToUpper(req.Priority)),
		WardID:       req.WardID,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestSummary(request)})
}

// List GET /requests. Citizens see only their own submissions.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseRequestQuery(c)
	switch actor.Role {
	case domain.RoleCitizen:
		citizenID := actor.ID
		filter.CitizenID = &citizenID
	case domain.RoleStaff:
		staffID := actor.ID
		filter.AssignedStaffID = &staffID
	}

	requests, err := h.lifecycle.ListRequests(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.RequestSummary, 0, len(requests))
	for i := range requests {
		items = append(items, requestSummary(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	request, err := h.lifecycle.GetRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if actor.Role == domain.RoleCitizen && request.CitizenID != actor.ID {
		return apperrors.NewForbidden("not the owning citizen")
	}
	history, err := h.lifecycle.History(c.UserContext(), request.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(request, history)})
}

// Track GET /track/:code resolves a request by its public tracking code.
func (h *RequestsHandler) Track(c *fiber.Ctx) error {
	request, err := h.lifecycle.GetRequestByTrackingCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

// History GET /requests/:id/history.
func (h *RequestsHandler) History(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	request, err := h.lifecycle.GetRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if actor.Role == domain.RoleCitizen && request.CitizenID != actor.ID {
		return apperrors.NewForbidden("not the owning citizen")
	}
	history, err := h.lifecycle.History(c.UserContext(), request.ID)
	if err != nil {
		return err
	}
	items := make([]dto.HistoryEntryResponse, 0, len(history))
	for i := range history {
		items = append(items, historyEntry(&history[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Intake POST /requests/:id/intake.
func (h *RequestsHandler) Intake(c *fiber.Ctx) error {
	return h.simpleTransition(c, h.lifecycle.Intake)
}

// Accept POST /requests/:id/accept.
func (h *RequestsHandler) Accept(c *fiber.Ctx) error {
	return h.simpleTransition(c, h.lifecycle.Accept)
}

// Assign POST /requests/:id/assign.
func (h *RequestsHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	request, err := h.assignments.Assign(c.UserContext(), actor, c.Params("id"), req.StaffID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

// Reject POST /requests/:id/reject.
func (h *RequestsHandler) Reject(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RejectRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := h.lifecycle.Reject(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

// Progress POST /requests/:id/progress.
func (h *RequestsHandler) Progress(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ProgressNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := h.lifecycle.UpdateProgress(c.UserContext(), actor, c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

// Resolve POST /requests/:id/resolve.
func (h *RequestsHandler) Resolve(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ResolveRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := h.lifecycle.Resolve(c.UserContext(), actor, c.Params("id"), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

// Close POST /requests/:id/close.
func (h *RequestsHandler) Close(c *fiber.Ctx) error {
	return h.simpleTransition(c, h.lifecycle.Close)
}

// Reopen POST /requests/:id/reopen.
func (h *RequestsHandler) Reopen(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReopenRequestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	request, err := h.lifecycle.Reopen(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

// Escalate POST /requests/:id/escalate.
func (h *RequestsHandler) Escalate(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.EscalateRequestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	escalation, err := h.escalations.Escalate(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": escalationResponse(escalation)})
}

// OpenEscalation GET /requests/:id/escalation.
func (h *RequestsHandler) OpenEscalation(c *fiber.Ctx) error {
	escalation, err := h.escalations.OpenEscalation(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": escalationResponse(escalation)})
}

// ResolveEscalation POST /escalations/:id/resolve.
func (h *RequestsHandler) ResolveEscalation(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ResolveEscalationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	escalation, err := h.escalations.ResolveEscalation(c.UserContext(), actor, c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": escalationResponse(escalation)})
}

// Sweep POST /escalations/sweep runs the overdue sweep on demand.
func (h *RequestsHandler) Sweep(c *fiber.Ctx) error {
	escalated, err := h.escalations.SweepNow(c.UserContext())
	if err != nil {
		return err
	}
	if escalated == nil {
		escalated = []string{}
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"escalated_request_ids": escalated}})
}

func (h *RequestsHandler) simpleTransition(c *fiber.Ctx, fn func(ctx context.Context, actor domain.Actor, requestID string) (*domain.Request, error)) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	request, err := fn(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

func parseRequestQuery(c *fiber.Ctx) repository.RequestFilter {
	filter := repository.RequestFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.RequestStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if ward := c.Query("ward_id"); ward != "" {
		filter.WardID = &ward
	}
	if dept := c.Query("department_id"); dept != "" {
		filter.DepartmentID = &dept
	}
	if escalated := c.Query("escalated"); escalated != "" {
		val := escalated == "true"
		filter.Escalated = &val
	}
	if from := parseTime(c.Query("submitted_from")); from != nil {
		filter.SubmittedFrom = from
	}
	if to := parseTime(c.Query("submitted_to")); to != nil {
		filter.SubmittedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func requestSummary(request *domain.Request) dto.RequestSummary {
	return dto.RequestSummary{
		ID:              request.ID,
		TrackingCode:    request.TrackingCode,
		Category:        request.Category,
		Title:           request.Title,
		Priority:        request.Priority,
		Status:          request.Status,
		WardID:          request.WardID,
		DepartmentID:    request.DepartmentID,
		AssignedStaffID: request.AssignedStaffID,
		SubmittedAt:     request.SubmittedAt,
		SLADueAt:        request.SLADueAt,
		Escalated:       request.Escalated,
	}
}

func requestDetail(request *domain.Request, history []domain.StatusHistoryEntry) dto.RequestDetailResponse {
	entries := make([]dto.HistoryEntryResponse, 0, len(history))
	for i := range history {
		entries = append(entries, historyEntry(&history[i]))
	}
	return dto.RequestDetailResponse{
		RequestSummary:  requestSummary(request),
		Subcategory:     request.Subcategory,
		Description:     request.Description,
		ResolvedAt:      request.ResolvedAt,
		ClosedAt:        request.ClosedAt,
		ResolutionNotes: request.ResolutionNotes,
		RejectionReason: request.RejectionReason,
		History:         entries,
	}
}

func historyEntry(entry *domain.StatusHistoryEntry) dto.HistoryEntryResponse {
	return dto.HistoryEntryResponse{
		ID:        entry.ID,
		Kind:      entry.Kind,
		OldStatus: entry.OldStatus,
		NewStatus: entry.NewStatus,
		ActorID:   entry.ActorID,
		ActorRole: entry.ActorRole,
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt,
	}
}

func escalationResponse(esc *domain.Escalation) dto.EscalationResponse {
	return dto.EscalationResponse{
		ID:             esc.ID,
		RequestID:      esc.RequestID,
		EscalatedAt:    esc.EscalatedAt,
		EscalatedBy:    esc.EscalatedBy,
		Reason:         esc.Reason,
		SLABreached:    esc.SLABreached,
		ResolvedAt:     esc.ResolvedAt,
		ResolutionNote: esc.ResolutionNote,
	}
}
