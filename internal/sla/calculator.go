package sla

import (
	"time"

	"go.uber.org/zap"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

// Calculator derives SLA facts for requests. It is the only place overdue,
// compliance and time-remaining answers come from.
type Calculator struct {
	policies *PolicySet
	logger   *zap.Logger
}

// NewCalculator builds a calculator over an immutable policy set.
func NewCalculator(policies *PolicySet, logger *zap.Logger) *Calculator {
	return &Calculator{policies: policies, logger: logger}
}

// DueAt computes the deadline for a submission. A missing policy entry falls
// back to the default duration; the fallback is logged, never silent.
func (c *Calculator) DueAt(category string, priority domain.RequestPriority, submittedAt time.Time) time.Time {
	duration, found := c.policies.Duration(category, priority)
	if !found && c.logger != nil {
		c.logger.Warn("sla policy missing, using default duration",
			zap.String("category", category),
			zap.String("priority", string(priority)),
			zap.Duration("default", c.policies.DefaultDuration()))
	}
	return submittedAt.Add(duration)
}

// IsOverdue reports whether the request has blown past its deadline and is
// still open. Monotonic in now for a fixed due date: once true it stays true
// until the status leaves the open set.
func IsOverdue(req *domain.Request, now time.Time) bool {
	if req.SLADueAt == nil {
		return false
	}
	switch req.Status {
	case domain.StatusResolved, domain.StatusClosed, domain.StatusRejected:
		return false
	}
	return now.After(*req.SLADueAt)
}

// Compliant reports whether a resolved request met its deadline. A request
// without a due date counts as compliant: no deadline means no breach. That
// is a product-policy default, not arithmetic.
func Compliant(req *domain.Request) bool {
	if req.SLADueAt == nil {
		return true
	}
	if req.ResolvedAt == nil {
		return false
	}
	return !req.ResolvedAt.After(*req.SLADueAt)
}

// TimeRemaining returns the signed duration until the deadline, negative
// once overdue. Zero when the request has no deadline.
func TimeRemaining(req *domain.Request, now time.Time) time.Duration {
	if req.SLADueAt == nil {
		return 0
	}
	return req.SLADueAt.Sub(now)
}
