package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportRefresh recomputes and re-caches the ledger reports.
	TaskReportRefresh = "report:refresh"
	// TaskActivityPrune trims aged rows from the activity log.
	TaskActivityPrune = "activity:prune"
)

// ReportRefreshPayload carries the reason a refresh was requested, kept for
// queue inspection.
type ReportRefreshPayload struct {
	Reason string `json:"reason"`
}

// ActivityPrunePayload bounds which activity rows get pruned.
type ActivityPrunePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewReportRefreshTask constructs an Asynq task.
func NewReportRefreshTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(ReportRefreshPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportRefresh, data), nil
}

// NewActivityPruneTask constructs an Asynq task.
func NewActivityPruneTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(ActivityPrunePayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityPrune, data), nil
}
