package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BatchRunner is satisfied by *Dispatcher.
type BatchRunner interface {
	Run(ctx context.Context) (Summary, error)
}

type Runner struct {
	log  *zap.Logger
	jobs BatchRunner
	tick time.Duration
}

func NewRunner(log *zap.Logger, jobs BatchRunner, tick time.Duration) *Runner {
	if log == nil {
		log = zap.L()
	}
	if tick <= 0 {
		tick = 5 * time.Minute
	}
	return &Runner{log: log.With(zap.String("component", "scheduler.runner")), jobs: jobs, tick: tick}
}

func (r *Runner) runOnce(ctx context.Context) {
	sum, err := r.jobs.Run(ctx)
	if err != nil {
		r.log.Warn("dispatch run failed", zap.Error(err))
		return
	}
	if sum.FailedCount > 0 {
		r.log.Warn("dispatch run had failures",
			zap.Int("failed", sum.FailedCount),
			zap.Int("due", sum.DueCount),
		)
	}
}

// Run dispatches once immediately, then on every tick until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	r.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}
