// Package tasks runs periodic maintenance jobs on a gocron scheduler.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Job is a named periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration // per run; defaults to 30s
	Run      func(ctx context.Context) error
}

// Runner schedules jobs. Each job runs in singleton mode, so a slow run is
// never overlapped by the next tick.
type Runner struct {
	sched *gocron.Scheduler
	log   *zap.Logger
	names []string
}

// NewRunner creates a runner using UTC.
func NewRunner(logger *zap.Logger) *Runner {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Runner{sched: s, log: logger}
}

// Add registers a job. Jobs added after Start begin on the next tick.
func (r *Runner) Add(j Job) error {
	if j.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive, got %s", j.Name, j.Interval)
	}
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	_, err := r.sched.Every(j.Interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		if err := j.Run(ctx); err != nil {
			r.log.Error("job failed", zap.String("job", j.Name), zap.Error(err))
			return
		}
		r.log.Debug("job finished", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return err
	}
	r.names = append(r.names, j.Name)
	r.log.Info("job scheduled", zap.String("job", j.Name), zap.Duration("interval", j.Interval))
	return nil
}

// JobNames lists the registered jobs in the order they were added.
func (r *Runner) JobNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Start runs the scheduler in the background.
func (r *Runner) Start() {
	r.sched.StartAsync()
	r.log.Info("task runner started", zap.Int("jobs", len(r.sched.Jobs())))
}

// Stop halts the scheduler and waits for running jobs.
func (r *Runner) Stop() {
	r.sched.Stop()
	r.log.Info("task runner stopped")
}
