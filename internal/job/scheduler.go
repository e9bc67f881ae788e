package job

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Scheduler is a Runner decorator that admits jobs by CPU weight against a
// fixed total, so parallel submission from many goroutines cannot
// oversubscribe the machine. A job asking for more CPUs than the total is
// clamped to the total rather than deadlocking.
type Scheduler struct {
	inner Runner
	sem   *semaphore.Weighted
	total int64
}

func NewScheduler(inner Runner, totalCPUs int) *Scheduler {
	if totalCPUs < 1 {
		totalCPUs = 1
	}
	return &Scheduler{
		inner: inner,
		sem:   semaphore.NewWeighted(int64(totalCPUs)),
		total: int64(totalCPUs),
	}
}

func (s *Scheduler) Submit(ctx context.Context, spec Spec) error {
	weight := int64(spec.Resources.CPUs)
	if weight < 1 {
		weight = 1
	}
	if weight > s.total {
		weight = s.total
	}
	if err := s.sem.Acquire(ctx, weight); err != nil {
		return &ExternalJobFailure{
			Stage:   spec.Stage,
			Key:     spec.Key,
			Program: spec.Program,
			Err:     fmt.Errorf("waiting for job slot: %w", err),
		}
	}
	defer s.sem.Release(weight)
	return s.inner.Submit(ctx, spec)
}
