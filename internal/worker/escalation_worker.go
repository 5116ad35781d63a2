package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Sandesh225/smartpokhara-sub002/internal/clock"
	"github.com/Sandesh225/smartpokhara-sub002/internal/service"
)

// EscalationWorker periodically sweeps overdue requests and escalates them.
type EscalationWorker struct {
	escalations *service.EscalationService
	clock       clock.Clock
	interval    time.Duration
	logger      *zap.Logger
}

// NewEscalationWorker builds the worker.
func NewEscalationWorker(escalations *service.EscalationService, clk clock.Clock, interval time.Duration, logger *zap.Logger) *EscalationWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &EscalationWorker{
		escalations: escalations,
		clock:       clk,
		interval:    interval,
		logger:      logger,
	}
}

// Start launches the sweep loop. It returns immediately; the loop stops when
// the context is cancelled. One sweep runs at startup so a restarted service
// does not wait a full interval to catch up on breached deadlines.
func (w *EscalationWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.sweep(ctx)
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("escalation worker stopped")
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
}

func (w *EscalationWorker) sweep(ctx context.Context) {
	now := w.clock.Now()
	escalated, err := w.escalations.SweepOverdue(ctx, now)
	if err != nil {
		w.logger.Error("overdue sweep failed", zap.Error(err))
		return
	}
	if len(escalated) > 0 {
		w.logger.Info("overdue sweep escalated requests",
			zap.Int("count", len(escalated)),
			zap.Strings("request_ids", escalated))
	}
}
