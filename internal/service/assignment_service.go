package service

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sandesh225/smartpokhara-sub002/internal/clock"
	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
	"github.com/Sandesh225/smartpokhara-sub002/internal/events"
	"github.com/Sandesh225/smartpokhara-sub002/internal/observability"
	"github.com/Sandesh225/smartpokhara-sub002/internal/repository"
	"github.com/Sandesh225/smartpokhara-sub002/internal/sla"
	apperrors "github.com/Sandesh225/smartpokhara-sub002/pkg/util"
)

// AssignmentService routes requests to staff using workload balancing.
type AssignmentService struct {
	store      repository.TxStore
	slaCalc    *sla.Calculator
	clock      clock.Clock
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Store         repository.TxStore
	SLACalculator *sla.Calculator
	Clock         clock.Clock
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		store:      deps.Store,
		slaCalc:    deps.SLACalculator,
		clock:      deps.Clock,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// RankCandidates orders eligible staff: fewest active assignments first,
// then highest performance rating, then staff id for determinism. Members at
// capacity or not available are discarded.
func RankCandidates(candidates []domain.StaffWorkload) []domain.StaffWorkload {
	eligible := make([]domain.StaffWorkload, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Availability != domain.AvailabilityAvailable {
			continue
		}
		if !candidate.HasCapacity() {
			continue
		}
		eligible = append(eligible, candidate)
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].ActiveAssignments != eligible[j].ActiveAssignments {
			return eligible[i].ActiveAssignments < eligible[j].ActiveAssignments
		}
		if eligible[i].PerformanceRating != eligible[j].PerformanceRating {
			return eligible[i].PerformanceRating > eligible[j].PerformanceRating
		}
		return eligible[i].ID < eligible[j].ID
	})
	return eligible
}

// Assign routes a request to a staff member and moves it to ASSIGNED. When
// explicitStaffID is nil the balancer picks from available staff in the
// request's department and ward; an explicit id bypasses ranking but keeps
// the same workload bookkeeping. Assignment out of ESCALATED or REOPENED
// releases the previous assignee's slot first.
func (s *AssignmentService) Assign(ctx context.Context, actor domain.Actor, requestID string, explicitStaffID *string) (*domain.Request, error) {
	var updated *domain.Request
	var oldStatus domain.RequestStatus
	var assignee *domain.StaffWorkload
	manual := explicitStaffID != nil

	err := s.store.Atomically(ctx, func(store repository.Store) error {
		req, err := store.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if err := domain.ValidateTransition(req, domain.StatusAssigned, actor, domain.TransitionInput{}); err != nil {
			return err
		}

		// Reassignment away from the current assignee decrements exactly once.
		if req.AssignedStaffID != nil && !req.WorkloadReleased {
			if err := store.ReleaseStaffCapacity(ctx, *req.AssignedStaffID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}

		assignee, err = s.selectAndReserve(ctx, store, req, explicitStaffID)
		if err != nil {
			return err
		}

		oldStatus = req.Status
		req.Status = domain.StatusAssigned
		req.AssignedStaffID = &assignee.ID
		req.WorkloadReleased = false
		if req.SLADueAt == nil {
			dueAt := s.slaCalc.DueAt(req.Category, req.Priority, req.SubmittedAt)
			req.SLADueAt = &dueAt
		}
		if err := store.UpdateRequest(ctx, req); err != nil {
			return err
		}
		note := "assigned to " + assignee.Name
		if err := store.AppendHistory(ctx, &domain.StatusHistoryEntry{
			RequestID: req.ID,
			Kind:      domain.HistoryKindTransition,
			OldStatus: oldStatus,
			NewStatus: domain.StatusAssigned,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
			Note:      &note,
		}); err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		s.metrics.RecordAssignment(false)
		return nil, s.mapAssignError(err, requestID)
	}

	s.metrics.RecordAssignment(true)
	s.metrics.RecordTransition(oldStatus, domain.StatusAssigned)
	s.publish(ctx, events.Event{
		Type:      events.EventRequestAssigned,
		RequestID: updated.ID,
		Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.RequestAssignedPayload{
			StaffID:           assignee.ID,
			ActiveAssignments: assignee.ActiveAssignments + 1,
			Manual:            manual,
		},
	})
	return updated, nil
}

// selectAndReserve picks the assignee and reserves a workload slot as one
// conditional write, so two concurrent assignments cannot oversubscribe a
// member.
func (s *AssignmentService) selectAndReserve(ctx context.Context, store repository.Store, req *domain.Request, explicitStaffID *string) (*domain.StaffWorkload, error) {
	if explicitStaffID != nil {
		staff, err := store.GetStaff(ctx, *explicitStaffID)
		if err != nil {
			return nil, err
		}
		if err := store.ReserveStaffCapacity(ctx, staff.ID); err != nil {
			return nil, err
		}
		return staff, nil
	}

	availability := domain.AvailabilityAvailable
	filter := repository.StaffFilter{Availability: &availability}
	if req.DepartmentID != "" {
		filter.DepartmentID = &req.DepartmentID
	}
	if req.WardID != "" {
		filter.WardID = &req.WardID
	}
	candidates, err := store.ListStaff(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, candidate := range RankCandidates(candidates) {
		staff := candidate
		if err := store.ReserveStaffCapacity(ctx, staff.ID); err != nil {
			if errors.Is(err, repository.ErrStaffAtCapacity) {
				continue
			}
			return nil, err
		}
		return &staff, nil
	}
	return nil, repository.ErrStaffAtCapacity
}

func (s *AssignmentService) mapAssignError(err error, requestID string) error {
	var transitionErr *domain.TransitionError
	if errors.As(err, &transitionErr) {
		return apperrors.NewInvalidTransition(string(transitionErr.From), string(transitionErr.To), map[string]any{"request_id": requestID})
	}
	if errors.Is(err, repository.ErrStaffAtCapacity) {
		return apperrors.NewNoEligibleStaff(map[string]any{"request_id": requestID})
	}
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperrors.NewConflictingTransition(requestID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("request or staff", map[string]any{"request_id": requestID})
	}
	return apperrors.MapError(err)
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
