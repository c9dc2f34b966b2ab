package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maxfuntrading/maxfun-evt/internal/alert"
	"github.com/maxfuntrading/maxfun-evt/internal/metrics"
)

// Job is one periodic reconciliation sweep.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// RunPeriodic drives job on a fixed interval until ctx ends. One failed
// run alerts and waits for the next tick; it never stops the loop.
func RunPeriodic(ctx context.Context, job Job, interval time.Duration, alerter alert.Alerter, logger *slog.Logger) error {
	logger = logger.With("component", "reconcile", "job", job.Name())
	logger.Info("reconcile loop starting", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		runID := uuid.New().String()
		start := time.Now()
		err := job.Run(ctx)
		elapsed := time.Since(start)

		metrics.ReconcileRunsTotal.WithLabelValues(job.Name()).Inc()
		metrics.ReconcileDuration.WithLabelValues(job.Name()).Observe(elapsed.Seconds())

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.ReconcileErrorsTotal.WithLabelValues(job.Name()).Inc()
			logger.Error("reconcile run failed", "run_id", runID, "elapsed", elapsed.String(), "error", err)
			alerter.Send(ctx, alert.Alert{
				Type:      alert.AlertTypeReconcileErr,
				Component: "reconcile",
				Title:     fmt.Sprintf("%s sweep failed", job.Name()),
				Message:   err.Error(),
				Fields:    map[string]string{"run_id": runID},
			})
			continue
		}

		logger.Info("reconcile run completed", "run_id", runID, "elapsed", elapsed.String())
	}
}
