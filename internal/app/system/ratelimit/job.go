package ratelimit

import (
	"context"
	"time"

	"github.com/twennie/twennie/internal/app/system/tasks"
)

// SweepJob periodically drops expired counters from the guards.
func SweepJob(every time.Duration, guards ...*Guard) tasks.Job {
	return tasks.Job{
		Name:     "ratelimit-sweep",
		Interval: every,
		Run: func(ctx context.Context) error {
			for _, g := range guards {
				if err := ctx.Err(); err != nil {
					return err
				}
				g.Sweep()
			}
			return nil
		},
	}
}
