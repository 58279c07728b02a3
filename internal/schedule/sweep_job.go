package schedule

import (
	"context"

	"jobscout/internal/usecase"
)

type Sweeper interface {
	SweepPending(ctx context.Context, limit int) (usecase.DispatchSummary, error)
}

// SweepJob retries notification hand-offs that are still pending.
type SweepJob struct {
	sweeper Sweeper
	limit   int
}

func NewSweepJob(sweeper Sweeper, limit int) *SweepJob {
	return &SweepJob{sweeper: sweeper, limit: limit}
}

func (j *SweepJob) Name() string { return "notification_sweep" }

func (j *SweepJob) Run(ctx context.Context) error {
	_, err := j.sweeper.SweepPending(ctx, j.limit)
	return err
}
