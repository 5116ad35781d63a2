// Package sla owns every deadline computation in the engine. All consumers
// (handlers, analytics, the escalation sweep) call into this package; overdue
// and compliance answers are never re-derived elsewhere.
package sla

import (
	"time"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

// PolicyKey identifies a policy entry.
type PolicyKey struct {
	Category string
	Priority domain.RequestPriority
}

// PolicySet is the immutable (category, priority) -> duration table, with a
// default duration for combinations that have no entry. Built once at
// startup; changes only affect requests that have not been given a due date.
type PolicySet struct {
	entries         map[PolicyKey]time.Duration
	defaultDuration time.Duration
}

// NewPolicySet builds the table. A nil or empty entries map means every
// lookup falls through to the default.
func NewPolicySet(entries map[PolicyKey]time.Duration, defaultDuration time.Duration) *PolicySet {
	copied := make(map[PolicyKey]time.Duration, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &PolicySet{entries: copied, defaultDuration: defaultDuration}
}

// Duration returns the policy duration for the key and whether an explicit
// entry existed. When found is false the default duration was used.
func (p *PolicySet) Duration(category string, priority domain.RequestPriority) (time.Duration, bool) {
	if d, ok := p.entries[PolicyKey{Category: category, Priority: priority}]; ok {
		return d, true
	}
	return p.defaultDuration, false
}

// DefaultDuration exposes the fallback duration.
func (p *PolicySet) DefaultDuration() time.Duration {
	return p.defaultDuration
}

// DefaultPolicies is the municipal baseline table shipped with the service.
// Operations can replace it through configuration without code changes.
func DefaultPolicies() map[PolicyKey]time.Duration {
	policies := map[PolicyKey]time.Duration{}
	base := map[string]time.Duration{
		"pothole":       48 * time.Hour,
		"street_light":  96 * time.Hour,
		"water_supply":  48 * time.Hour,
		"sewerage":      48 * time.Hour,
		"waste":         24 * time.Hour,
		"encroachment":  168 * time.Hour,
		"stray_animals": 72 * time.Hour,
	}
	// Higher priorities tighten the category baseline.
	factors := map[domain.RequestPriority]float64{
		domain.PriorityLow:      1.5,
		domain.PriorityMedium:   1.0,
		domain.PriorityHigh:     0.5,
		domain.PriorityUrgent:   0.25,
		domain.PriorityCritical: 0.125,
	}
	for category, d := range base {
		for priority, factor := range factors {
			policies[PolicyKey{Category: category, Priority: priority}] = time.Duration(float64(d) * factor)
		}
	}
	return policies
}
