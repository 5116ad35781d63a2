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

// EscalationService detects SLA breaches, records escalations and serves
// supervisor escalation actions. A request carries at most one open
// escalation; attempts to add a second return the existing record.
type EscalationService struct {
	store      repository.TxStore
	clock      clock.Clock
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// EscalationDependencies bundles collaborators.
type EscalationDependencies struct {
	Store      repository.TxStore
	Clock      clock.Clock
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewEscalationService creates the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	return &EscalationService{
		store:      deps.Store,
		clock:      deps.Clock,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// Escalate raises an escalation on an in-flight request. The system sweep
// escalates only breached requests; a supervisor may escalate a non-overdue
// request with an explicit reason. Raising on a request that already has an
// open escalation is an idempotent no-op returning the existing record.
func (s *EscalationService) Escalate(ctx context.Context, actor domain.Actor, requestID, reason string) (*domain.Escalation, error) {
	if !actor.Can(domain.CapEscalateRequest) {
		return nil, apperrors.NewForbidden("escalation requires supervisor or system role")
	}

	var escalation *domain.Escalation
	var reused bool
	now := s.clock.Now()

	err := s.store.Atomically(ctx, func(store repository.Store) error {
		req, err := store.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if existing, err := store.GetOpenEscalation(ctx, requestID); err == nil {
			escalation = existing
			reused = true
			return nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		breached := sla.IsOverdue(req, now)
		trimmed := strings.TrimSpace(reason)
		if trimmed == "" {
			if !breached {
				return &domain.ValidationError{Field: "escalation reason"}
			}
			trimmed = domain.EscalationReasonSLA
		}

		if err := domain.ValidateTransition(req, domain.StatusEscalated, actor, domain.TransitionInput{}); err != nil {
			return err
		}

		escalation = &domain.Escalation{
			RequestID:               req.ID,
			EscalatedAt:             now,
			EscalatedBy:             actor.ID,
			Reason:                  trimmed,
			SLABreached:             breached,
			EscalatedToDepartmentID: &req.DepartmentID,
		}
		if err := store.CreateEscalation(ctx, escalation); err != nil {
			return err
		}

		oldStatus := req.Status
		req.Status = domain.StatusEscalated
		req.Escalated = true
		if err := store.UpdateRequest(ctx, req); err != nil {
			return err
		}
		return store.AppendHistory(ctx, &domain.StatusHistoryEntry{
			RequestID: req.ID,
			Kind:      domain.HistoryKindTransition,
			OldStatus: oldStatus,
			NewStatus: domain.StatusEscalated,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
			Note:      &trimmed,
		})
	})
	if err != nil {
		return nil, s.mapError(err, requestID)
	}
	if reused {
		return escalation, nil
	}

	s.metrics.RecordEscalation(escalation.SLABreached)
	s.publish(ctx, events.Event{
		Type:      events.EventRequestEscalated,
		RequestID: requestID,
		Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.RequestEscalatedPayload{
			EscalationID: escalation.ID,
			Reason:       escalation.Reason,
			SLABreached:  escalation.SLABreached,
		},
	})
	return escalation, nil
}

// SweepOverdue scans in-flight requests past their deadline and escalates
// each one that has no open escalation yet. Every candidate is re-validated
// inside its own transaction, so the sweep tolerates racing with staff
// resolving the request. Returns the ids of newly escalated requests.
func (s *EscalationService) SweepOverdue(ctx context.Context, now time.Time) ([]string, error) {
	candidates, err := s.store.ListRequests(ctx, repository.RequestFilter{
		Statuses:  []domain.RequestStatus{domain.StatusAssigned, domain.StatusAccepted, domain.StatusInProgress},
		DueBefore: &now,
		Limit:     500,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	actor := domain.SystemActor()
	escalated := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		requestID := candidate.ID
		var escalation *domain.Escalation

		err := s.store.Atomically(ctx, func(store repository.Store) error {
			req, err := store.GetRequest(ctx, requestID)
			if err != nil {
				return err
			}
			// The request may have been resolved or escalated between the
			// listing read and this transaction.
			if !req.Status.IsInFlight() || !sla.IsOverdue(req, now) {
				return nil
			}
			if _, err := store.GetOpenEscalation(ctx, requestID); err == nil {
				return nil
			} else if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if err := domain.ValidateTransition(req, domain.StatusEscalated, actor, domain.TransitionInput{}); err != nil {
				return err
			}

			escalation = &domain.Escalation{
				RequestID:               req.ID,
				EscalatedAt:             now,
				EscalatedBy:             domain.SystemActorID,
				Reason:                  domain.EscalationReasonSLA,
				SLABreached:             true,
				EscalatedToDepartmentID: &req.DepartmentID,
			}
			if err := store.CreateEscalation(ctx, escalation); err != nil {
				return err
			}

			oldStatus := req.Status
			req.Status = domain.StatusEscalated
			req.Escalated = true
			if err := store.UpdateRequest(ctx, req); err != nil {
				return err
			}
			reason := domain.EscalationReasonSLA
			return store.AppendHistory(ctx, &domain.StatusHistoryEntry{
				RequestID: req.ID,
				Kind:      domain.HistoryKindTransition,
				OldStatus: oldStatus,
				NewStatus: domain.StatusEscalated,
				ActorID:   actor.ID,
				ActorRole: actor.Role,
				Note:      &reason,
			})
		})
		if err != nil {
			// A lost race is expected here; the next sweep retries.
			s.logger.Debug("sweep skipped request", zap.String("request_id", requestID), zap.Error(err))
			continue
		}
		if escalation == nil {
			continue
		}

		escalated = append(escalated, requestID)
		s.metrics.RecordEscalation(true)
		s.publish(ctx, events.Event{
			Type:      events.EventRequestEscalated,
			RequestID: requestID,
			Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
			Payload: events.RequestEscalatedPayload{
				EscalationID: escalation.ID,
				Reason:       escalation.Reason,
				SLABreached:  true,
			},
		})
	}
	return escalated, nil
}

// SweepNow runs SweepOverdue against the service clock. Used by the
// on-demand sweep endpoint; the background worker passes its own timestamps.
func (s *EscalationService) SweepNow(ctx context.Context) ([]string, error) {
	return s.SweepOverdue(ctx, s.clock.Now())
}

// ResolveEscalation closes the escalation record with a note. It never
// touches the request's status; moving the request out of ESCALATED is a
// separate, explicit transition. Resolving an already-resolved escalation
// is an idempotent no-op.
func (s *EscalationService) ResolveEscalation(ctx context.Context, actor domain.Actor, escalationID, note string) (*domain.Escalation, error) {
	if !actor.Can(domain.CapResolveEscalation) {
		return nil, apperrors.NewForbidden("resolving escalations requires supervisor role")
	}
	if strings.TrimSpace(note) == "" {
		return nil, apperrors.NewValidationError("resolution note is required", nil)
	}

	var escalation *domain.Escalation
	var alreadyResolved bool
	err := s.store.Atomically(ctx, func(store repository.Store) error {
		esc, err := store.GetEscalation(ctx, escalationID)
		if err != nil {
			return err
		}
		if !esc.Open() {
			escalation = esc
			alreadyResolved = true
			return nil
		}
		now := s.clock.Now()
		trimmed := strings.TrimSpace(note)
		esc.ResolvedAt = &now
		esc.ResolutionNote = &trimmed
		if err := store.UpdateEscalation(ctx, esc); err != nil {
			return err
		}

		// The escalation flag mirrors open-escalation existence.
		req, err := store.GetRequest(ctx, esc.RequestID)
		if err != nil {
			return err
		}
		req.Escalated = false
		if err := store.UpdateRequest(ctx, req); err != nil {
			return err
		}
		escalation = esc
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("escalation", map[string]any{"escalation_id": escalationID})
		}
		return nil, apperrors.MapError(err)
	}
	if alreadyResolved {
		return escalation, nil
	}

	s.publish(ctx, events.Event{
		Type:      events.EventEscalationResolved,
		RequestID: escalation.RequestID,
		Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.EscalationResolvedPayload{
			EscalationID:   escalation.ID,
			ResolutionNote: *escalation.ResolutionNote,
		},
	})
	return escalation, nil
}

// OpenEscalation returns the open escalation for a request, if any.
func (s *EscalationService) OpenEscalation(ctx context.Context, requestID string) (*domain.Escalation, error) {
	esc, err := s.store.GetOpenEscalation(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("escalation", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	return esc, nil
}

func (s *EscalationService) mapError(err error, requestID string) error {
	var transitionErr *domain.TransitionError
	if errors.As(err, &transitionErr) {
		return apperrors.NewInvalidTransition(string(transitionErr.From), string(transitionErr.To), map[string]any{"request_id": requestID})
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

func (s *EscalationService) publish(ctx context.Context, event events.Event) {
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
