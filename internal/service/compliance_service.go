package service

import (
	"math"
	"sort"
	"time"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
	"github.com/Sandesh225/smartpokhara-sub002/internal/sla"
)

// OtherGroupKey labels the fold of groups beyond the requested cap.
const OtherGroupKey = "other"

// ComplianceSummary aggregates resolution and SLA facts for a set of
// resolved requests.
type ComplianceSummary struct {
	TotalResolved          int     `json:"total_resolved"`
	AverageResolutionHours int     `json:"average_resolution_hours"`
	ComplianceRatePercent  float64 `json:"compliance_rate_percent"`
}

// GroupCount is a (key, count) aggregation pair.
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// TrendBucket is one day of the time-bucketed trend.
type TrendBucket struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// Summarize folds resolved requests into compliance metrics. Pure function:
// no I/O, no side effects. An empty set reports a 100% compliance rate;
// absence of data never implies failure.
func Summarize(requests []domain.Request) ComplianceSummary {
	if len(requests) == 0 {
		return ComplianceSummary{ComplianceRatePercent: 100}
	}

	var totalHours float64
	compliant := 0
	counted := 0
	for i := range requests {
		req := &requests[i]
		if req.ResolvedAt == nil {
			continue
		}
		counted++
		totalHours += req.ResolvedAt.Sub(req.SubmittedAt).Hours()
		if sla.Compliant(req) {
			compliant++
		}
	}
	if counted == 0 {
		return ComplianceSummary{ComplianceRatePercent: 100}
	}

	return ComplianceSummary{
		TotalResolved:          counted,
		AverageResolutionHours: int(math.Round(totalHours / float64(counted))),
		ComplianceRatePercent:  100 * float64(compliant) / float64(counted),
	}
}

// GroupByCategory counts requests per category.
func GroupByCategory(requests []domain.Request, cap int) []GroupCount {
	return countBy(requests, cap, func(req *domain.Request) string { return req.Category })
}

// GroupByWard counts requests per ward.
func GroupByWard(requests []domain.Request, cap int) []GroupCount {
	return countBy(requests, cap, func(req *domain.Request) string { return req.WardID })
}

// GroupByStaff counts requests per assigned staff member. Unassigned
// requests are skipped.
func GroupByStaff(requests []domain.Request, cap int) []GroupCount {
	return countBy(requests, cap, func(req *domain.Request) string {
		if req.AssignedStaffID == nil {
			return ""
		}
		return *req.AssignedStaffID
	})
}

// countBy produces (key, count) pairs sorted by descending count with ties
// broken by key. With cap > 0 the tail folds into the "other" group.
func countBy(requests []domain.Request, cap int, keyFn func(*domain.Request) string) []GroupCount {
	counts := map[string]int{}
	for i := range requests {
		key := keyFn(&requests[i])
		if key == "" {
			continue
		}
		counts[key]++
	}

	groups := make([]GroupCount, 0, len(counts))
	for key, count := range counts {
		groups = append(groups, GroupCount{Key: key, Count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})

	if cap <= 0 || len(groups) <= cap {
		return groups
	}
	folded := GroupCount{Key: OtherGroupKey}
	for _, group := range groups[cap:] {
		folded.Count += group.Count
	}
	return append(groups[:cap], folded)
}

// DailyTrend buckets submissions per day over a window of days starting at
// from (truncated to midnight UTC). Days with zero requests appear with a
// zero count; omitting them would be a correctness bug for chart consumers.
func DailyTrend(requests []domain.Request, from time.Time, days int) []TrendBucket {
	if days <= 0 {
		return nil
	}
	start := from.UTC().Truncate(24 * time.Hour)
	buckets := make([]TrendBucket, days)
	for i := range buckets {
		buckets[i] = TrendBucket{Day: start.AddDate(0, 0, i)}
	}
	end := start.AddDate(0, 0, days)
	for i := range requests {
		submitted := requests[i].SubmittedAt.UTC()
		if submitted.Before(start) || !submitted.Before(end) {
			continue
		}
		index := int(submitted.Sub(start).Hours() / 24)
		buckets[index].Count++
	}
	return buckets
}
