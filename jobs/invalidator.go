package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// VersionBumper bumps the report cache version so stale entries stop serving.
type VersionBumper interface {
	InvalidateReports(ctx context.Context) error
}

// refreshEnqueuer is satisfied by *Client.
type refreshEnqueuer interface {
	EnqueueReportRefresh(ctx context.Context, reason string) (*asynq.TaskInfo, error)
}

// ReportInvalidator bumps the report cache version and queues a refresh task
// so the worker rebuilds the reports before the next read has to.
type ReportInvalidator struct {
	bumper   VersionBumper
	enqueuer refreshEnqueuer
	logger   *slog.Logger
}

// NewReportInvalidator wires the cache bump to an eager background refresh.
func NewReportInvalidator(bumper VersionBumper, enqueuer refreshEnqueuer, logger *slog.Logger) *ReportInvalidator {
	return &ReportInvalidator{bumper: bumper, enqueuer: enqueuer, logger: logger}
}

// InvalidateReports bumps the cache version, then enqueues a report refresh.
// An enqueue failure is logged, not returned: the bump already retired the
// stale entries, and the next read recomputes lazily.
func (r *ReportInvalidator) InvalidateReports(ctx context.Context) error {
	if err := r.bumper.InvalidateReports(ctx); err != nil {
		return err
	}
	if r.enqueuer == nil {
		return nil
	}
	if _, err := r.enqueuer.EnqueueReportRefresh(ctx, "invoice write"); err != nil && r.logger != nil {
		r.logger.Warn("enqueue report refresh", slog.Any("error", err))
	}
	return nil
}
