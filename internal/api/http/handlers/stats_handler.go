package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
	"github.com/Sandesh225/smartpokhara-sub002/internal/observability"
	"github.com/Sandesh225/smartpokhara-sub002/internal/repository"
	"github.com/Sandesh225/smartpokhara-sub002/internal/service"
	apperrors "github.com/Sandesh225/smartpokhara-sub002/pkg/util"
)

const statsFetchLimit = 5000

// StatsHandler serves supervisor compliance reporting.
type StatsHandler struct {
	lifecycle *service.LifecycleService
	metrics   *observability.Metrics
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(lifecycle *service.LifecycleService, metrics *observability.Metrics) *StatsHandler {
	return &StatsHandler{lifecycle: lifecycle, metrics: metrics}
}

// Compliance GET /stats/compliance summarizes SLA compliance over resolved
// requests in the submitted window.
func (h *StatsHandler) Compliance(c *fiber.Ctx) error {
	requests, err := h.fetchWindow(c, []domain.RequestStatus{domain.StatusResolved, domain.StatusClosed})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": service.Summarize(requests)})
}

// Groups GET /stats/groups?by=category|ward|staff breaks request volume down
// by one dimension.
func (h *StatsHandler) Groups(c *fiber.Ctx) error {
	requests, err := h.fetchWindow(c, nil)
	if err != nil {
		return err
	}
	limit := parseInt(c.Query("top"), 10)

	var groups []service.GroupCount
	switch c.Query("by", "category") {
	case "category":
		groups = service.GroupByCategory(requests, limit)
	case "ward":
		groups = service.GroupByWard(requests, limit)
	case "staff":
		groups = service.GroupByStaff(requests, limit)
	default:
		return apperrors.NewValidationError("unknown grouping dimension", map[string]any{"by": c.Query("by")})
	}
	return c.JSON(fiber.Map{"data": groups})
}

// Trend GET /stats/trend returns daily submission counts.
func (h *StatsHandler) Trend(c *fiber.Ctx) error {
	days := parseInt(c.Query("days"), 30)
	from := time.Now().UTC().AddDate(0, 0, -days+1)
	if parsed := parseTime(c.Query("from")); parsed != nil {
		from = *parsed
	}
	to := from.AddDate(0, 0, days)

	requests, err := h.lifecycle.ListRequests(c.UserContext(), repository.RequestFilter{
		SubmittedFrom: &from,
		SubmittedTo:   &to,
		Limit:         statsFetchLimit,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": service.DailyTrend(requests, from, days)})
}

// Metrics GET /stats/metrics exposes the in-memory counters.
func (h *StatsHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

func (h *StatsHandler) fetchWindow(c *fiber.Ctx, statuses []domain.RequestStatus) ([]domain.Request, error) {
	filter := repository.RequestFilter{Statuses: statuses, Limit: statsFetchLimit}
	if from := parseTime(c.Query("from")); from != nil {
		filter.SubmittedFrom = from
	}
	if to := parseTime(c.Query("to")); to != nil {
		filter.SubmittedTo = to
	}
	if ward := c.Query("ward_id"); ward != "" {
		filter.WardID = &ward
	}
	if dept := c.Query("department_id"); dept != "" {
		filter.DepartmentID = &dept
	}
	return h.lifecycle.ListRequests(c.UserContext(), filter)
}
