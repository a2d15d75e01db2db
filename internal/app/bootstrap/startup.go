// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/twennie/twennie/internal/app/features/promptsets"
	"github.com/twennie/twennie/internal/app/system/ratelimit"
	"github.com/twennie/twennie/internal/app/system/tasks"
	"go.uber.org/zap"
)

// Process-wide state shared between Startup, BuildHandler and Shutdown.
// The guards are shared so the sweep job prunes the same buckets the
// login and join handlers fill.
var (
	runner     *tasks.Runner
	loginGuard = ratelimit.NewLoginGuard()
	joinGuard  = ratelimit.NewJoinGuard()
)

// guardSweepEvery is how often idle rate-limit buckets are dropped.
const guardSweepEvery = 5 * time.Minute

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// registers and starts the background jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase
	runner = tasks.NewRunner(logger)

	for _, j := range []tasks.Job{
		promptsets.ReconcileJob(db, logger, appCfg.ReconcileInterval),
		promptsets.DraftCleanupJob(db, logger, appCfg.BadgeDraftTTL),
		ratelimit.SweepJob(guardSweepEvery, loginGuard, joinGuard),
	} {
		if err := runner.Add(j); err != nil {
			logger.Error("background job registration failed", zap.String("job", j.Name), zap.Error(err))
			return err
		}
	}
	runner.Start()
	logger.Info("background jobs started", zap.Strings("jobs", runner.JobNames()))
	return nil
}
