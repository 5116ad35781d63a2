package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

func TestRankCandidatesOrdering(t *testing.T) {
	candidates := []domain.StaffWorkload{
		{ID: "c", Availability: domain.AvailabilityAvailable, ActiveAssignments: 2, MaxConcurrent: 5, PerformanceRating: 5.0},
		{ID: "a", Availability: domain.AvailabilityAvailable, ActiveAssignments: 1, MaxConcurrent: 5, PerformanceRating: 3.0},
		{ID: "b", Availability: domain.AvailabilityAvailable, ActiveAssignments: 1, MaxConcurrent: 5, PerformanceRating: 4.5},
		{ID: "full", Availability: domain.AvailabilityAvailable, ActiveAssignments: 5, MaxConcurrent: 5, PerformanceRating: 5.0},
		{ID: "away", Availability: domain.AvailabilityOnLeave, ActiveAssignments: 0, MaxConcurrent: 5, PerformanceRating: 5.0},
	}

	ranked := RankCandidates(candidates)
	ids := make([]string, 0, len(ranked))
	for _, staff := range ranked {
		ids = append(ids, staff.ID)
	}
	// Fewest active first, then higher rating, at-capacity and unavailable dropped.
	require.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestRankCandidatesDeterministicTieBreak(t *testing.T) {
	candidates := []domain.StaffWorkload{
		{ID: "zeta", Availability: domain.AvailabilityAvailable, ActiveAssignments: 1, MaxConcurrent: 5, PerformanceRating: 4.0},
		{ID: "alpha", Availability: domain.AvailabilityAvailable, ActiveAssignments: 1, MaxConcurrent: 5, PerformanceRating: 4.0},
	}
	for i := 0; i < 5; i++ {
		ranked := RankCandidates(candidates)
		require.Equal(t, "alpha", ranked[0].ID)
		require.Equal(t, "zeta", ranked[1].ID)
	}
}

func TestAssignPicksLeastLoaded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStaff(t, "staff-busy", 3, 5, 5.0)
	env.addStaff(t, "staff-idle", 0, 5, 2.0)

	req := env.submitPothole(t)
	_, err := env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)

	assigned, err := env.assignments.Assign(ctx, supervisor, req.ID, nil)
	require.NoError(t, err)
	require.Equal(t, "staff-idle", *assigned.AssignedStaffID)
	require.Equal(t, 1, env.staffCount(t, "staff-idle"))
	require.Equal(t, 3, env.staffCount(t, "staff-busy"))
}

func TestAssignNoEligibleStaff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStaff(t, "staff-full", 5, 5, 5.0)

	req := env.submitPothole(t)
	_, err := env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)

	_, err = env.assignments.Assign(ctx, supervisor, req.ID, nil)
	requireCode(t, err, "NO_ELIGIBLE_STAFF")

	// The failed assignment must leave the request untouched.
	fresh, getErr := env.lifecycle.GetRequest(ctx, req.ID)
	require.NoError(t, getErr)
	require.Equal(t, domain.StatusReceived, fresh.Status)
	require.Nil(t, fresh.AssignedStaffID)
	require.Equal(t, 5, env.staffCount(t, "staff-full"))
}

func TestAssignExplicitStaffRespectsCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStaff(t, "staff-full", 2, 2, 5.0)
	env.addStaff(t, "staff-free", 0, 5, 1.0)

	req := env.submitPothole(t)
	_, err := env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)

	full := "staff-full"
	_, err = env.assignments.Assign(ctx, supervisor, req.ID, &full)
	requireCode(t, err, "NO_ELIGIBLE_STAFF")

	free := "staff-free"
	assigned, err := env.assignments.Assign(ctx, supervisor, req.ID, &free)
	require.NoError(t, err)
	require.Equal(t, "staff-free", *assigned.AssignedStaffID)
}

func TestAssignRequiresCapability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStaff(t, "staff-field", 0, 5, 4.0)

	req := env.submitPothole(t)
	_, err := env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)

	_, err = env.assignments.Assign(ctx, citizen, req.ID, nil)
	requireCode(t, err, "INVALID_TRANSITION")
}

func TestReassignmentAfterEscalationSwapsWorkload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.addStaff(t, "staff-first", 0, 5, 4.0)
	env.addStaff(t, "staff-second", 1, 5, 4.0)

	req := env.submitPothole(t)
	_, err := env.lifecycle.Intake(ctx, intaker, req.ID)
	require.NoError(t, err)
	firstID := first.ID
	_, err = env.assignments.Assign(ctx, supervisor, req.ID, &firstID)
	require.NoError(t, err)
	require.Equal(t, 1, env.staffCount(t, "staff-first"))

	env.clock.Advance(72 * time.Hour)
	_, err = env.escalations.Escalate(ctx, supervisor, req.ID, "no movement on this request")
	require.NoError(t, err)

	second := "staff-second"
	assigned, err := env.assignments.Assign(ctx, supervisor, req.ID, &second)
	require.NoError(t, err)
	require.Equal(t, "staff-second", *assigned.AssignedStaffID)
	require.Equal(t, 0, env.staffCount(t, "staff-first"), "previous assignee slot must be released")
	require.Equal(t, 2, env.staffCount(t, "staff-second"))
}
