package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Activity is an append-only audit entry shown on UI timelines.
type Activity struct {
	ID       int64
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// ActivityLogger writes records into activities. Entries are never mutated.
type ActivityLogger struct {
	pool *pgxpool.Pool
}

// NewActivityLogger returns a new ActivityLogger.
func NewActivityLogger(pool *pgxpool.Pool) *ActivityLogger {
	return &ActivityLogger{pool: pool}
}

// Record persists the activity entry.
func (l *ActivityLogger) Record(ctx context.Context, act Activity) error {
	if l == nil {
		return errors.New("activity logger not initialised")
	}
	if act.Action == "" || act.Entity == "" || act.EntityID == "" {
		return errors.New("activity requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(act.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO activities (actor_id, action, entity, entity_id, meta, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6, '0001-01-01'::timestamptz), NOW()))`,
		act.ActorID, act.Action, act.Entity, act.EntityID, metaJSON, act.At)
	return err
}

// Prune deletes activity entries older than the retention window.
func (l *ActivityLogger) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if l == nil {
		return 0, errors.New("activity logger not initialised")
	}
	tag, err := l.pool.Exec(ctx,
		`DELETE FROM activities WHERE occurred_at < NOW() - make_interval(secs => $1)`,
		olderThan.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
