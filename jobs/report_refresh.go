package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// ReportRefresher recomputes and re-caches the ledger reports.
type ReportRefresher interface {
	Refresh(ctx context.Context) error
}

// ReportRefreshJob warms the report cache after invalidations.
type ReportRefreshJob struct {
	reports ReportRefresher
	logger  *slog.Logger
}

// NewReportRefreshJob constructs a ReportRefreshJob.
func NewReportRefreshJob(reports ReportRefresher, logger *slog.Logger) *ReportRefreshJob {
	return &ReportRefreshJob{reports: reports, logger: logger}
}

// Handle processes TaskReportRefresh tasks.
func (j *ReportRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReportRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := j.reports.Refresh(ctx); err != nil {
		j.logger.Error("report refresh", slog.Any("error", err), slog.String("reason", payload.Reason))
		return err
	}
	j.logger.Info("report cache warmed", slog.String("reason", payload.Reason))
	return nil
}
