package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// ActivityPruner trims aged activity rows and reports how many were removed.
type ActivityPruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ActivityPruneJob keeps the activity log bounded.
type ActivityPruneJob struct {
	activities ActivityPruner
	retention  time.Duration
	logger     *slog.Logger
}

// NewActivityPruneJob constructs an ActivityPruneJob. The retention is the
// fallback when a task arrives without one.
func NewActivityPruneJob(activities ActivityPruner, retention time.Duration, logger *slog.Logger) *ActivityPruneJob {
	return &ActivityPruneJob{activities: activities, retention: retention, logger: logger}
}

// Handle processes TaskActivityPrune tasks.
func (j *ActivityPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ActivityPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = j.retention
	}
	removed, err := j.activities.Prune(ctx, retention)
	if err != nil {
		j.logger.Error("activity prune", slog.Any("error", err))
		return err
	}
	j.logger.Info("activity log pruned",
		slog.Int64("removed", removed),
		slog.Duration("retention", retention))
	return nil
}
