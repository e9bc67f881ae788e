package job

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRunner tracks how many Submits run at once.
type countingRunner struct {
	current atomic.Int64
	peak    atomic.Int64
}

func (r *countingRunner) Submit(ctx context.Context, spec Spec) error {
	n := r.current.Add(1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	r.current.Add(-1)
	return nil
}

func TestScheduler_BoundsConcurrentCPUWeight(t *testing.T) {
	inner := &countingRunner{}
	s := NewScheduler(inner, 2)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Submit(context.Background(), Spec{
				Stage:     "stacking",
				Key:       fmt.Sprintf("sceneA/R%d", i),
				Resources: Resources{CPUs: 1},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, inner.peak.Load(), int64(2))
}

func TestScheduler_ClampsOversizedJobsInsteadOfDeadlocking(t *testing.T) {
	inner := &countingRunner{}
	s := NewScheduler(inner, 2)

	done := make(chan error, 1)
	go func() {
		done <- s.Submit(context.Background(), Spec{
			Stage:     "stitching",
			Key:       "sceneA",
			Resources: Resources{CPUs: 64},
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("oversized job never admitted")
	}
}

type failingRunner struct{}

func (failingRunner) Submit(context.Context, Spec) error {
	return &ExternalJobFailure{Stage: "unmixing", Key: "R0", Program: "make_unmixing_mosaic", ExitCode: 1}
}

func TestScheduler_PropagatesInnerFailure(t *testing.T) {
	s := NewScheduler(failingRunner{}, 4)

	err := s.Submit(context.Background(), Spec{Stage: "unmixing", Key: "R0"})

	var failure *ExternalJobFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 1, failure.ExitCode)
}
