package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

func TestSubmitComputesDeadlineAndHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.submitPothole(t)

	require.Equal(t, domain.StatusSubmitted, req.Status)
	require.NotEmpty(t, req.TrackingCode)
	require.NotNil(t, req.SLADueAt)
	require.Equal(t, testStart.Add(48*time.Hour), *req.SLADueAt)

	history, err := env.lifecycle.History(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, domain.StatusDraft, history[0].OldStatus)
	require.Equal(t, domain.StatusSubmitted, history[0].NewStatus)

	byCode, err := env.lifecycle.GetRequestByTrackingCode(ctx, req.TrackingCode)
	require.NoError(t, err)
	require.Equal(t, req.ID, byCode.ID)
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.lifecycle.Submit(ctx, citizen, SubmitInput{Category: "pothole"})
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = env.lifecycle.Submit(ctx, supervisor, SubmitInput{
		Category: "pothole", Title: "t", Description: "d",
	})
	requireCode(t, err, "FORBIDDEN")
}

func TestFullLifecycleHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	worker := env.addStaff(t, "staff-field", 0, 5, 4.5)

	req := env.submitPothole(t)

	req, err := env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusReceived, req.Status)

	req, err = env.assignments.Assign(ctx, supervisor, req.ID, nil)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAssigned, req.Status)
	require.Equal(t, worker.ID, *req.AssignedStaffID)
	require.Equal(t, 1, env.staffCount(t, worker.ID))

	req, err = env.lifecycle.Accept(ctx, worker, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, req.Status)

	// First progress note advances ACCEPTED to IN_PROGRESS.
	req, err = env.lifecycle.UpdateProgress(ctx, worker, req.ID, "crew dispatched")
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, req.Status)

	env.clock.Advance(24 * time.Hour)
	req, err = env.lifecycle.Resolve(ctx, worker, req.ID, "pothole filled and compacted")
	require.NoError(t, err)
	require.Equal(t, domain.StatusResolved, req.Status)
	require.NotNil(t, req.ResolvedAt)
	require.Equal(t, 0, env.staffCount(t, worker.ID), "resolve must release the workload slot")

	req, err = env.lifecycle.Close(ctx, supervisor, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusClosed, req.Status)
	require.NotNil(t, req.ClosedAt)

	history, err := env.lifecycle.History(ctx, req.ID)
	require.NoError(t, err)
	statuses := []domain.RequestStatus{}
	for _, entry := range history {
		if entry.Kind == domain.HistoryKindTransition {
			statuses = append(statuses, entry.NewStatus)
		}
	}
	require.Equal(t, []domain.RequestStatus{
		domain.StatusSubmitted,
		domain.StatusReceived,
		domain.StatusAssigned,
		domain.StatusAccepted,
		domain.StatusInProgress,
		domain.StatusResolved,
		domain.StatusClosed,
	}, statuses)
}

func TestInvalidTransitionSkipsStages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.submitPothole(t)

	_, err := env.lifecycle.Resolve(ctx, supervisor, req.ID, "nope")
	requireCode(t, err, "INVALID_TRANSITION")

	// Nothing changed.
	fresh, getErr := env.lifecycle.GetRequest(ctx, req.ID)
	require.NoError(t, getErr)
	require.Equal(t, domain.StatusSubmitted, fresh.Status)
	require.Nil(t, fresh.ResolvedAt)
}

func TestRejectRequiresReasonAndReleasesWorkload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	worker := env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.submitPothole(t)
	_, err := env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)
	_, err = env.assignments.Assign(ctx, supervisor, req.ID, nil)
	require.NoError(t, err)

	_, err = env.lifecycle.Reject(ctx, worker, req.ID, "  ")
	requireCode(t, err, "VALIDATION_FAILED")

	rejected, err := env.lifecycle.Reject(ctx, worker, req.ID, "duplicate of an existing report")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, rejected.Status)
	require.Equal(t, "duplicate of an existing report", *rejected.RejectionReason)
	require.Equal(t, 0, env.staffCount(t, worker.ID))

	// REJECTED is terminal even for supervisors outside the override.
	_, err = env.lifecycle.Reopen(ctx, citizen, req.ID, "try again")
	requireCode(t, err, "INVALID_TRANSITION")
}

func TestSupervisorOverrideRejectMidFlight(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	worker := env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.submitPothole(t)
	_, err := env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)
	_, err = env.assignments.Assign(ctx, supervisor, req.ID, nil)
	require.NoError(t, err)
	_, err = env.lifecycle.Accept(ctx, worker, req.ID)
	require.NoError(t, err)

	rejected, err := env.lifecycle.Reject(ctx, supervisor, req.ID, "reported location does not exist")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, rejected.Status)
	require.Equal(t, 0, env.staffCount(t, worker.ID))
}

func TestProgressNoteRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	worker := env.addStaff(t, "staff-field", 0, 5, 4.0)
	other := env.addStaff(t, "staff-other", 0, 5, 4.0)

	req := env.submitPothole(t)
	_, err := env.lifecycle.UpdateProgress(ctx, worker, req.ID, "too early")
	requireCode(t, err, "INVALID_TRANSITION")

	_, err = env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)
	staffID := worker.ID
	_, err = env.assignments.Assign(ctx, supervisor, req.ID, &staffID)
	require.NoError(t, err)
	_, err = env.lifecycle.Accept(ctx, worker, req.ID)
	require.NoError(t, err)

	_, err = env.lifecycle.UpdateProgress(ctx, worker, req.ID, "")
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = env.lifecycle.UpdateProgress(ctx, other, req.ID, "not my job")
	requireCode(t, err, "INVALID_TRANSITION")

	updated, err := env.lifecycle.UpdateProgress(ctx, worker, req.ID, "started digging")
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, updated.Status)

	// Subsequent notes keep the status and append to the trail.
	updated, err = env.lifecycle.UpdateProgress(ctx, worker, req.ID, "asphalt poured")
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, updated.Status)

	history, err := env.lifecycle.History(ctx, req.ID)
	require.NoError(t, err)
	notes := 0
	for _, entry := range history {
		if entry.Kind == domain.HistoryKindProgressNote {
			notes++
		}
	}
	require.Equal(t, 2, notes)
}

func TestSystemCloseWaitsForFeedbackWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	worker := env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.submitPothole(t)
	_, err := env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)
	_, err = env.assignments.Assign(ctx, supervisor, req.ID, nil)
	require.NoError(t, err)
	_, err = env.lifecycle.Accept(ctx, worker, req.ID)
	require.NoError(t, err)
	_, err = env.lifecycle.UpdateProgress(ctx, worker, req.ID, "working")
	require.NoError(t, err)
	_, err = env.lifecycle.Resolve(ctx, worker, req.ID, "done")
	require.NoError(t, err)

	system := domain.SystemActor()
	_, err = env.lifecycle.Close(ctx, system, req.ID)
	requireCode(t, err, "INVALID_TRANSITION")

	env.clock.Advance(73 * time.Hour)
	closed, err := env.lifecycle.Close(ctx, system, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusClosed, closed.Status)
}

func TestReopenWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	worker := env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.submitPothole(t)
	_, err := env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)
	_, err = env.assignments.Assign(ctx, supervisor, req.ID, nil)
	require.NoError(t, err)
	_, err = env.lifecycle.Accept(ctx, worker, req.ID)
	require.NoError(t, err)
	_, err = env.lifecycle.UpdateProgress(ctx, worker, req.ID, "working")
	require.NoError(t, err)
	_, err = env.lifecycle.Resolve(ctx, worker, req.ID, "done")
	require.NoError(t, err)
	_, err = env.lifecycle.Close(ctx, supervisor, req.ID)
	require.NoError(t, err)

	_, err = env.lifecycle.Reopen(ctx, citizen, req.ID, "")
	requireCode(t, err, "VALIDATION_FAILED")

	env.clock.Advance(8 * 24 * time.Hour)
	_, err = env.lifecycle.Reopen(ctx, citizen, req.ID, "pothole is back")
	requireCode(t, err, "INVALID_TRANSITION")
}

func TestReopenWithinWindowClearsResolution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	worker := env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.submitPothole(t)
	_, err := env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)
	_, err = env.assignments.Assign(ctx, supervisor, req.ID, nil)
	require.NoError(t, err)
	_, err = env.lifecycle.Accept(ctx, worker, req.ID)
	require.NoError(t, err)
	_, err = env.lifecycle.UpdateProgress(ctx, worker, req.ID, "working")
	require.NoError(t, err)
	_, err = env.lifecycle.Resolve(ctx, worker, req.ID, "done")
	require.NoError(t, err)
	_, err = env.lifecycle.Close(ctx, supervisor, req.ID)
	require.NoError(t, err)

	env.clock.Advance(48 * time.Hour)
	reopened, err := env.lifecycle.Reopen(ctx, citizen, req.ID, "pothole is back")
	require.NoError(t, err)
	require.Equal(t, domain.StatusReopened, reopened.Status)
	require.Nil(t, reopened.ResolvedAt)
	require.Nil(t, reopened.ResolutionNotes)
	require.Nil(t, reopened.ClosedAt)

	// The trail must continue with a valid walk through reassignment.
	assigned, err := env.assignments.Assign(ctx, supervisor, req.ID, nil)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAssigned, assigned.Status)
	require.Equal(t, 1, env.staffCount(t, worker.ID))
}

func TestConcurrentTransitionConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.submitPothole(t)

	// Simulate a racing writer by updating with a stale version directly.
	stale, err := env.store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	current, err := env.store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	require.NoError(t, env.store.UpdateRequest(ctx, current))

	stale.Status = domain.StatusReceived
	err = env.store.UpdateRequest(ctx, stale)
	requireCode(t, env.lifecycle.mapTransitionError(err, req.ID), "CONFLICTING_TRANSITION")
}

func TestNotFoundMapping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.lifecycle.GetRequest(ctx, "missing")
	requireCode(t, err, "NOT_FOUND")

	_, err = env.lifecycle.Intake(ctx, intaker, "missing")
	requireCode(t, err, "NOT_FOUND")

	_, err = env.lifecycle.GetRequestByTrackingCode(ctx, "SPK-NOPE")
	requireCode(t, err, "NOT_FOUND")
}
