package service

import (
	"context"
	"errors"
	"strings"
	"time"

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

// LifecycleService is the sole writer of request status, assignment and
// timestamps. Every mutation re-reads the request inside one transaction,
// validates against the fresh status, and commits the new status together
// with its history entry.
type LifecycleService struct {
	store      repository.TxStore
	slaCalc    *sla.Calculator
	clock      clock.Clock
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger

	feedbackWindow time.Duration
	reopenWindow   time.Duration
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	Store          repository.TxStore
	SLACalculator  *sla.Calculator
	Clock          clock.Clock
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	FeedbackWindow time.Duration
	ReopenWindow   time.Duration
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		store:          deps.Store,
		slaCalc:        deps.SLACalculator,
		clock:          deps.Clock,
		dispatcher:     deps.Dispatcher,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		feedbackWindow: deps.FeedbackWindow,
		reopenWindow:   deps.ReopenWindow,
	}
}

// SubmitInput describes a citizen-authored request draft.
type SubmitInput struct {
	Category     string
	Subcategory  string
	Title        string
	Description  string
	Priority     domain.RequestPriority
	WardID       string
	DepartmentID string
}

// Submit creates a request in SUBMITTED and computes its SLA deadline from
// the category/priority policy. The history starts with the accepted
// DRAFT -> SUBMITTED edge so the audit trail reads as a valid walk from the
// first entry.
func (s *LifecycleService) Submit(ctx context.Context, actor domain.Actor, input SubmitInput) (*domain.Request, error) {
	if !actor.Can(domain.CapSubmitRequest) {
		return nil, apperrors.NewForbidden("submitting requests requires the citizen role")
	}
	if strings.TrimSpace(input.Category) == "" || strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("category, title and description are required", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}

	now := s.clock.Now()
	dueAt := s.slaCalc.DueAt(input.Category, input.Priority, now)
	req := &domain.Request{
		TrackingCode: generateTrackingCode(),
		CitizenID:    actor.ID,
		Category:     strings.TrimSpace(input.Category),
		Subcategory:  strings.TrimSpace(input.Subcategory),
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Priority:     input.Priority,
		Status:       domain.StatusSubmitted,
		WardID:       input.WardID,
		DepartmentID: input.DepartmentID,
		SubmittedAt:  now,
		SLADueAt:     &dueAt,
	}

	err := s.store.Atomically(ctx, func(store repository.Store) error {
		if err := store.CreateRequest(ctx, req); err != nil {
			return err
		}
		return store.AppendHistory(ctx, &domain.StatusHistoryEntry{
			RequestID: req.ID,
			Kind:      domain.HistoryKindTransition,
			OldStatus: domain.StatusDraft,
			NewStatus: domain.StatusSubmitted,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordTransition(domain.StatusDraft, domain.StatusSubmitted)
	s.publish(ctx, events.Event{
		Type:      events.EventRequestSubmitted,
		RequestID: req.ID,
		Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.RequestSubmittedPayload{
			TrackingCode: req.TrackingCode,
			Category:     req.Category,
			Priority:     req.Priority,
			WardID:       req.WardID,
			DepartmentID: req.DepartmentID,
			SLADueAt:     req.SLADueAt,
		},
	})
	return req, nil
}

// Intake moves a submitted request to RECEIVED.
func (s *LifecycleService) Intake(ctx context.Context, actor domain.Actor, requestID string) (*domain.Request, error) {
	return s.Transition(ctx, actor, requestID, domain.StatusReceived, domain.TransitionInput{}, nil)
}

// Accept lets the assigned staff member take on an assigned request.
func (s *LifecycleService) Accept(ctx context.Context, actor domain.Actor, requestID string) (*domain.Request, error) {
	return s.Transition(ctx, actor, requestID, domain.StatusAccepted, domain.TransitionInput{}, nil)
}

// Reject moves a request to REJECTED with a mandatory reason. The assigned
// staff member may reject from ASSIGNED; a supervisor may reject any
// non-terminal request.
func (s *LifecycleService) Reject(ctx context.Context, actor domain.Actor, requestID, reason string) (*domain.Request, error) {
	return s.Transition(ctx, actor, requestID, domain.StatusRejected, domain.TransitionInput{Reason: reason},
		func(store repository.Store, req *domain.Request) error {
			trimmed := strings.TrimSpace(reason)
			req.RejectionReason = &trimmed
			return s.releaseWorkload(ctx, store, req)
		})
}

// UpdateProgress appends a progress note. An ACCEPTED request advances to
// IN_PROGRESS on the first note; an IN_PROGRESS request keeps its status.
func (s *LifecycleService) UpdateProgress(ctx context.Context, actor domain.Actor, requestID, note string) (*domain.Request, error) {
	if strings.TrimSpace(note) == "" {
		return nil, apperrors.NewValidationError("progress note is required", nil)
	}

	var updated *domain.Request
	err := s.store.Atomically(ctx, func(store repository.Store) error {
		req, err := store.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		switch req.Status {
		case domain.StatusAccepted:
			if err := domain.ValidateTransition(req, domain.StatusInProgress, actor, domain.TransitionInput{}); err != nil {
				return err
			}
			oldStatus := req.Status
			req.Status = domain.StatusInProgress
			if err := store.UpdateRequest(ctx, req); err != nil {
				return err
			}
			if err := store.AppendHistory(ctx, &domain.StatusHistoryEntry{
				RequestID: req.ID,
				Kind:      domain.HistoryKindTransition,
				OldStatus: oldStatus,
				NewStatus: req.Status,
				ActorID:   actor.ID,
				ActorRole: actor.Role,
			}); err != nil {
				return err
			}
			s.metrics.RecordTransition(oldStatus, req.Status)
		case domain.StatusInProgress:
			if actor.Role == domain.RoleStaff && (req.AssignedStaffID == nil || *req.AssignedStaffID != actor.ID) {
				return &domain.TransitionError{From: req.Status, To: req.Status, Detail: "only the assigned staff member may do this"}
			}
		default:
			return &domain.TransitionError{From: req.Status, To: domain.StatusInProgress, Detail: "progress notes require an accepted or in-progress request"}
		}

		trimmed := strings.TrimSpace(note)
		if err := store.AppendHistory(ctx, &domain.StatusHistoryEntry{
			RequestID: req.ID,
			Kind:      domain.HistoryKindProgressNote,
			OldStatus: req.Status,
			NewStatus: req.Status,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
			Note:      &trimmed,
		}); err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, s.mapTransitionError(err, requestID)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventProgressNoted,
		RequestID: updated.ID,
		Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
		Payload:   events.ProgressNotedPayload{Note: strings.TrimSpace(note)},
	})
	return updated, nil
}

// Resolve completes the work on an in-progress request. Resolution notes are
// mandatory and resolved_at is stamped inside the same transaction.
func (s *LifecycleService) Resolve(ctx context.Context, actor domain.Actor, requestID, notes string) (*domain.Request, error) {
	return s.Transition(ctx, actor, requestID, domain.StatusResolved, domain.TransitionInput{Notes: notes},
		func(store repository.Store, req *domain.Request) error {
			now := s.clock.Now()
			trimmed := strings.TrimSpace(notes)
			req.ResolvedAt = &now
			req.ResolutionNotes = &trimmed
			return s.releaseWorkload(ctx, store, req)
		})
}

// Close finalizes a resolved request. The system actor must wait out the
// citizen feedback window; a supervisor may close immediately.
func (s *LifecycleService) Close(ctx context.Context, actor domain.Actor, requestID string) (*domain.Request, error) {
	return s.Transition(ctx, actor, requestID, domain.StatusClosed, domain.TransitionInput{},
		func(store repository.Store, req *domain.Request) error {
			if actor.Role == domain.RoleSystem && req.ResolvedAt != nil {
				if s.clock.Now().Before(req.ResolvedAt.Add(s.feedbackWindow)) {
					return &domain.TransitionError{From: domain.StatusResolved, To: domain.StatusClosed, Detail: "feedback window still open"}
				}
			}
			now := s.clock.Now()
			req.ClosedAt = &now
			return nil
		})
}

// Reopen brings a closed request back, within the reopen window. Only the
// owning citizen or a supervisor may reopen.
func (s *LifecycleService) Reopen(ctx context.Context, actor domain.Actor, requestID, reason string) (*domain.Request, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("reopen reason is required", nil)
	}
	return s.Transition(ctx, actor, requestID, domain.StatusReopened, domain.TransitionInput{Reason: reason},
		func(store repository.Store, req *domain.Request) error {
			if req.ClosedAt != nil && s.reopenWindow > 0 && s.clock.Now().After(req.ClosedAt.Add(s.reopenWindow)) {
				return &domain.TransitionError{From: domain.StatusClosed, To: domain.StatusReopened, Detail: "reopen window elapsed"}
			}
			req.ResolvedAt = nil
			req.ResolutionNotes = nil
			req.ClosedAt = nil
			req.Escalated = false
			return nil
		})
}

// GetRequest fetches a request by id.
func (s *LifecycleService) GetRequest(ctx context.Context, requestID string) (*domain.Request, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	return req, nil
}

// GetRequestByTrackingCode fetches a request by its citizen-facing code.
func (s *LifecycleService) GetRequestByTrackingCode(ctx context.Context, code string) (*domain.Request, error) {
	req, err := s.store.GetRequestByTrackingCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("request", map[string]any{"tracking_code": code})
		}
		return nil, apperrors.MapError(err)
	}
	return req, nil
}

// ListRequests lists requests for dashboards.
func (s *LifecycleService) ListRequests(ctx context.Context, filter repository.RequestFilter) ([]domain.Request, error) {
	result, err := s.store.ListRequests(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// History returns the append-only audit trail for a request.
func (s *LifecycleService) History(ctx context.Context, requestID string) ([]domain.StatusHistoryEntry, error) {
	if _, err := s.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}
	entries, err := s.store.ListHistory(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Transition runs the shared transactional transition path: fresh read,
// table validation, mutate hook, versioned write plus history append. The
// mutate hook runs after validation and may touch workload counters or
// escalations that must commit with the status change.
func (s *LifecycleService) Transition(ctx context.Context, actor domain.Actor, requestID string, next domain.RequestStatus, input domain.TransitionInput, mutate func(repository.Store, *domain.Request) error) (*domain.Request, error) {
	var updated *domain.Request
	var oldStatus domain.RequestStatus

	err := s.store.Atomically(ctx, func(store repository.Store) error {
		req, err := store.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if err := domain.ValidateTransition(req, next, actor, input); err != nil {
			return err
		}
		oldStatus = req.Status
		req.Status = next
		if mutate != nil {
			if err := mutate(store, req); err != nil {
				return err
			}
		}
		if err := store.UpdateRequest(ctx, req); err != nil {
			return err
		}
		note := historyNote(input)
		if err := store.AppendHistory(ctx, &domain.StatusHistoryEntry{
			RequestID: req.ID,
			Kind:      domain.HistoryKindTransition,
			OldStatus: oldStatus,
			NewStatus: next,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
			Note:      note,
		}); err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, s.mapTransitionError(err, requestID)
	}

	s.metrics.RecordTransition(oldStatus, next)
	s.publish(ctx, events.Event{
		Type:      events.EventStatusChanged,
		RequestID: updated.ID,
		Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.StatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: next,
			Note:      strings.TrimSpace(input.Reason + input.Notes),
		},
	})
	return updated, nil
}

// releaseWorkload decrements the assignee's counter exactly once per
// assignment, keeping retried terminal transitions idempotent.
func (s *LifecycleService) releaseWorkload(ctx context.Context, store repository.Store, req *domain.Request) error {
	if req.WorkloadReleased || req.AssignedStaffID == nil {
		return nil
	}
	if err := store.ReleaseStaffCapacity(ctx, *req.AssignedStaffID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	req.WorkloadReleased = true
	return nil
}

func (s *LifecycleService) mapTransitionError(err error, requestID string) error {
	var transitionErr *domain.TransitionError
	if errors.As(err, &transitionErr) {
		details := map[string]any{"request_id": requestID}
		if transitionErr.Detail != "" {
			details["detail"] = transitionErr.Detail
		}
		return apperrors.NewInvalidTransition(string(transitionErr.From), string(transitionErr.To), details)
	}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return apperrors.NewValidationError(validationErr.Error(), map[string]any{"request_id": requestID})
	}
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperrors.NewConflictingTransition(requestID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
	}
	return apperrors.MapError(err)
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
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

func historyNote(input domain.TransitionInput) *string {
	note := strings.TrimSpace(input.Notes)
	if note == "" {
		note = strings.TrimSpace(input.Reason)
	}
	if note == "" {
		return nil
	}
	return &note
}

func generateTrackingCode() string {
	return "SPK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
