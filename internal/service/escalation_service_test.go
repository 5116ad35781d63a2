package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

func (e *testEnv) assignedRequest(t *testing.T) *domain.Request {
	t.Helper()
	ctx := context.Background()
	env := e

	req := env.submitPothole(t)
	_, err := env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)
	assigned, err := env.assignments.Assign(ctx, supervisor, req.ID, nil)
	require.NoError(t, err)
	return assigned
}

func TestSweepEscalatesOverdueRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.assignedRequest(t)

	// Before the deadline nothing happens.
	escalated, err := env.escalations.SweepOverdue(ctx, env.clock.Now())
	require.NoError(t, err)
	require.Empty(t, escalated)

	env.clock.Advance(49 * time.Hour)
	escalated, err = env.escalations.SweepOverdue(ctx, env.clock.Now())
	require.NoError(t, err)
	require.Equal(t, []string{req.ID}, escalated)

	fresh, err := env.lifecycle.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusEscalated, fresh.Status)
	require.True(t, fresh.Escalated)

	esc, err := env.escalations.OpenEscalation(ctx, req.ID)
	require.NoError(t, err)
	require.True(t, esc.SLABreached)
	require.Equal(t, domain.SystemActorID, esc.EscalatedBy)
	require.Equal(t, domain.EscalationReasonSLA, esc.Reason)
}

func TestSweepIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.assignedRequest(t)
	env.clock.Advance(49 * time.Hour)

	first, err := env.escalations.SweepOverdue(ctx, env.clock.Now())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A second sweep finds the request already escalated and out of the
	// in-flight set; no duplicate records appear.
	second, err := env.escalations.SweepOverdue(ctx, env.clock.Now())
	require.NoError(t, err)
	require.Empty(t, second)

	esc, err := env.escalations.OpenEscalation(ctx, req.ID)
	require.NoError(t, err)
	require.True(t, esc.Open())
}

func TestManualEscalationRequiresReasonUnlessBreached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.assignedRequest(t)

	// Not yet overdue: a reason is mandatory.
	_, err := env.escalations.Escalate(ctx, supervisor, req.ID, "")
	requireCode(t, err, "VALIDATION_FAILED")

	esc, err := env.escalations.Escalate(ctx, supervisor, req.ID, "citizen called twice, no progress")
	require.NoError(t, err)
	require.False(t, esc.SLABreached)
	require.Equal(t, supervisor.ID, esc.EscalatedBy)
}

func TestEscalationCapability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	worker := env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.assignedRequest(t)
	_, err := env.escalations.Escalate(ctx, worker, req.ID, "escalate please")
	requireCode(t, err, "FORBIDDEN")

	_, err = env.escalations.Escalate(ctx, citizen, req.ID, "escalate please")
	requireCode(t, err, "FORBIDDEN")
}

func TestEscalateIsIdempotentPerOpenEscalation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.assignedRequest(t)
	first, err := env.escalations.Escalate(ctx, supervisor, req.ID, "no progress")
	require.NoError(t, err)

	second, err := env.escalations.Escalate(ctx, supervisor, req.ID, "still no progress")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "raising again must return the existing open escalation")
}

func TestResolveEscalationLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.assignedRequest(t)
	env.clock.Advance(49 * time.Hour)
	_, err := env.escalations.SweepOverdue(ctx, env.clock.Now())
	require.NoError(t, err)
	esc, err := env.escalations.OpenEscalation(ctx, req.ID)
	require.NoError(t, err)

	_, err = env.escalations.ResolveEscalation(ctx, supervisor, esc.ID, "")
	requireCode(t, err, "VALIDATION_FAILED")

	resolved, err := env.escalations.ResolveEscalation(ctx, supervisor, esc.ID, "assigned extra crew")
	require.NoError(t, err)
	require.False(t, resolved.Open())
	require.Equal(t, "assigned extra crew", *resolved.ResolutionNote)

	// Resolving again is a no-op returning the same record.
	again, err := env.escalations.ResolveEscalation(ctx, supervisor, esc.ID, "different note")
	require.NoError(t, err)
	require.Equal(t, "assigned extra crew", *again.ResolutionNote)

	// The request keeps its ESCALATED status but drops the flag.
	fresh, err := env.lifecycle.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusEscalated, fresh.Status)
	require.False(t, fresh.Escalated)

	_, err = env.escalations.OpenEscalation(ctx, req.ID)
	requireCode(t, err, "NOT_FOUND")
}

func TestReassignedOverdueRequestEscalatesAgain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.assignedRequest(t)
	env.clock.Advance(49 * time.Hour)
	_, err := env.escalations.SweepOverdue(ctx, env.clock.Now())
	require.NoError(t, err)

	esc, err := env.escalations.OpenEscalation(ctx, req.ID)
	require.NoError(t, err)
	_, err = env.escalations.ResolveEscalation(ctx, supervisor, esc.ID, "rerouted")
	require.NoError(t, err)

	// Back into the in-flight set, still past the original deadline.
	_, err = env.assignments.Assign(ctx, supervisor, req.ID, nil)
	require.NoError(t, err)

	escalated, err := env.escalations.SweepOverdue(ctx, env.clock.Now())
	require.NoError(t, err)
	require.Equal(t, []string{req.ID}, escalated)

	second, err := env.escalations.OpenEscalation(ctx, req.ID)
	require.NoError(t, err)
	require.NotEqual(t, esc.ID, second.ID, "a new escalation record must be created")
}

func TestEscalationBlockedFromSettledStates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	worker := env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.assignedRequest(t)
	_, err := env.lifecycle.Accept(ctx, worker, req.ID)
	require.NoError(t, err)
	_, err = env.lifecycle.UpdateProgress(ctx, worker, req.ID, "working")
	require.NoError(t, err)
	_, err = env.lifecycle.Resolve(ctx, worker, req.ID, "done")
	require.NoError(t, err)

	_, err = env.escalations.Escalate(ctx, supervisor, req.ID, "too late")
	requireCode(t, err, "INVALID_TRANSITION")
}
