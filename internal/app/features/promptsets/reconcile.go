// internal/app/features/promptsets/reconcile.go
package promptsets

import (
	"context"
	"time"

	badgedraftstore "github.com/twennie/twennie/internal/app/store/badgedrafts"
	progressstore "github.com/twennie/twennie/internal/app/store/progress"
	"github.com/twennie/twennie/internal/app/system/tasks"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ReconcileJob removes progress rows left behind next to a completion.
// Completion and progress removal share a transaction, but deployments
// without transactions can still be interrupted between the two writes.
func ReconcileJob(db *mongo.Database, logger *zap.Logger, every time.Duration) tasks.Job {
	store := progressstore.New(db)
	return tasks.Job{
		Name:     "reconcile-completions",
		Interval: every,
		Run: func(ctx context.Context) error {
			n, err := store.DeleteShadowed(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Warn("removed progress shadowed by completions", zap.Int64("count", n))
			}
			return nil
		},
	}
}

// DraftCleanupJob deletes expired badge drafts ahead of the TTL monitor.
func DraftCleanupJob(db *mongo.Database, logger *zap.Logger, every time.Duration) tasks.Job {
	store := badgedraftstore.New(db)
	return tasks.Job{
		Name:     "badge-draft-cleanup",
		Interval: every,
		Run: func(ctx context.Context) error {
			n, err := store.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			logger.Debug("expired badge drafts removed", zap.Int64("count", n))
			return nil
		},
	}
}
