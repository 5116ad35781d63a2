package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

func resolvedRequest(submitted time.Time, slaHours, resolutionHours int) domain.Request {
	due := submitted.Add(time.Duration(slaHours) * time.Hour)
	resolved := submitted.Add(time.Duration(resolutionHours) * time.Hour)
	return domain.Request{
		Status:      domain.StatusResolved,
		SubmittedAt: submitted,
		SLADueAt:    &due,
		ResolvedAt:  &resolved,
	}
}

func TestSummarizeEmptySetIsFullyCompliant(t *testing.T) {
	summary := Summarize(nil)
	require.Equal(t, 0, summary.TotalResolved)
	require.Equal(t, 100.0, summary.ComplianceRatePercent)

	// Unresolved requests contribute nothing either.
	summary = Summarize([]domain.Request{{Status: domain.StatusInProgress, SubmittedAt: testStart}})
	require.Equal(t, 0, summary.TotalResolved)
	require.Equal(t, 100.0, summary.ComplianceRatePercent)
}

func TestSummarizeComputesRateAndAverage(t *testing.T) {
	requests := []domain.Request{
		resolvedRequest(testStart, 48, 24),              // compliant
		resolvedRequest(testStart, 48, 72),              // breached
		resolvedRequest(testStart, 48, 48),              // exactly on time, compliant
		{Status: domain.StatusInProgress, SubmittedAt: testStart}, // ignored
	}

	summary := Summarize(requests)
	require.Equal(t, 3, summary.TotalResolved)
	require.Equal(t, 48, summary.AverageResolutionHours)
	require.InDelta(t, 66.67, summary.ComplianceRatePercent, 0.01)
}

func TestSummarizeNoDeadlineCountsAsCompliant(t *testing.T) {
	resolved := testStart.Add(10 * time.Hour)
	requests := []domain.Request{
		{Status: domain.StatusResolved, SubmittedAt: testStart, ResolvedAt: &resolved},
	}
	summary := Summarize(requests)
	require.Equal(t, 1, summary.TotalResolved)
	require.Equal(t, 100.0, summary.ComplianceRatePercent)
}

func TestGroupCountsOrderAndFold(t *testing.T) {
	requests := []domain.Request{
		{Category: "pothole"}, {Category: "pothole"}, {Category: "pothole"},
		{Category: "waste"}, {Category: "waste"},
		{Category: "sewerage"},
		{Category: "street_light"},
	}

	groups := GroupByCategory(requests, 2)
	require.Len(t, groups, 3)
	require.Equal(t, GroupCount{Key: "pothole", Count: 3}, groups[0])
	require.Equal(t, GroupCount{Key: "waste", Count: 2}, groups[1])
	require.Equal(t, GroupCount{Key: OtherGroupKey, Count: 2}, groups[2])

	// Without a cap every group appears, ties broken by key.
	all := GroupByCategory(requests, 0)
	require.Len(t, all, 4)
	require.Equal(t, "sewerage", all[2].Key)
	require.Equal(t, "street_light", all[3].Key)
}

func TestGroupByStaffSkipsUnassigned(t *testing.T) {
	staffA := "staff-a"
	requests := []domain.Request{
		{AssignedStaffID: &staffA},
		{AssignedStaffID: &staffA},
		{},
	}
	groups := GroupByStaff(requests, 0)
	require.Equal(t, []GroupCount{{Key: "staff-a", Count: 2}}, groups)
}

func TestDailyTrendZeroFillsGaps(t *testing.T) {
	day0 := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	requests := []domain.Request{
		{SubmittedAt: day0.Add(9 * time.Hour)},
		{SubmittedAt: day0.Add(10 * time.Hour)},
		{SubmittedAt: day0.AddDate(0, 0, 2).Add(23 * time.Hour)},
		{SubmittedAt: day0.AddDate(0, 0, 5)}, // outside window
		{SubmittedAt: day0.Add(-time.Hour)},  // before window
	}

	trend := DailyTrend(requests, day0, 4)
	require.Len(t, trend, 4)
	require.Equal(t, 2, trend[0].Count)
	require.Equal(t, 0, trend[1].Count, "empty days must appear with zero counts")
	require.Equal(t, 1, trend[2].Count)
	require.Equal(t, 0, trend[3].Count)
	require.Equal(t, day0, trend[0].Day)
	require.Equal(t, day0.AddDate(0, 0, 3), trend[3].Day)
}

func TestDailyTrendRejectsEmptyWindow(t *testing.T) {
	require.Nil(t, DailyTrend(nil, testStart, 0))
}
