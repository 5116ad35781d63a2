package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sandesh225/smartpokhara-sub002/internal/clock"
	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
	"github.com/Sandesh225/smartpokhara-sub002/internal/events"
	"github.com/Sandesh225/smartpokhara-sub002/internal/observability"
	"github.com/Sandesh225/smartpokhara-sub002/internal/repository"
	"github.com/Sandesh225/smartpokhara-sub002/internal/sla"
	apperrors "github.com/Sandesh225/smartpokhara-sub002/pkg/util"
)

var (
	testStart = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	citizen    = domain.Actor{ID: "citizen-1", Role: domain.RoleCitizen}
	intaker    = domain.Actor{ID: "staff-front", Role: domain.RoleStaff}
	supervisor = domain.Actor{ID: "sup-1", Role: domain.RoleSupervisor}
)

type testEnv struct {
	store       *repository.MemoryStore
	clock       *clock.Fixed
	lifecycle   *LifecycleService
	assignments *AssignmentService
	escalations *EscalationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repository.NewMemoryStore()
	fixed := &clock.Fixed{Instant: testStart}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	calc := sla.NewCalculator(sla.NewPolicySet(sla.DefaultPolicies(), 72*time.Hour), logger)

	return &testEnv{
		store: store,
		clock: fixed,
		lifecycle: NewLifecycleService(LifecycleDependencies{
			Store:          store,
			SLACalculator:  calc,
			Clock:          fixed,
			Dispatcher:     dispatcher,
			Metrics:        metrics,
			Logger:         logger,
			FeedbackWindow: 72 * time.Hour,
			ReopenWindow:   7 * 24 * time.Hour,
		}),
		assignments: NewAssignmentService(AssignmentDependencies{
			Store:         store,
			SLACalculator: calc,
			Clock:         fixed,
			Dispatcher:    dispatcher,
			Metrics:       metrics,
			Logger:        logger,
		}),
		escalations: NewEscalationService(EscalationDependencies{
			Store:      store,
			Clock:      fixed,
			Dispatcher: dispatcher,
			Metrics:    metrics,
			Logger:     logger,
		}),
	}
}

func (e *testEnv) addStaff(t *testing.T, id string, active, max int, rating float64) domain.Actor {
	t.Helper()
	err := e.store.CreateStaff(context.Background(), &domain.StaffWorkload{
		ID:                id,
		Name:              id,
		Email:             id + "@pokhara.gov.np",
		Role:              domain.StaffRoleField,
		DepartmentID:      "roads",
		WardID:            "ward-7",
		Availability:      domain.AvailabilityAvailable,
		ActiveAssignments: active,
		MaxConcurrent:     max,
		PerformanceRating: rating,
	})
	require.NoError(t, err)
	return domain.Actor{ID: id, Role: domain.RoleStaff}
}

func (e *testEnv) submitPothole(t *testing.T) *domain.Request {
	t.Helper()
	req, err := e.lifecycle.Submit(context.Background(), citizen, SubmitInput{
		Category:     "pothole",
		Title:        "pothole on lakeside road",
		Description:  "deep pothole near the bakery",
		Priority:     domain.PriorityMedium,
		WardID:       "ward-7",
		DepartmentID: "roads",
	})
	require.NoError(t, err)
	return req
}

func (e *testEnv) staffCount(t *testing.T, id string) int {
	t.Helper()
	staff, err := e.store.GetStaff(context.Background(), id)
	require.NoError(t, err)
	return staff.ActiveAssignments
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	require.Equal(t, code, domainErr.Code, "unexpected error code: %v", err)
}
