package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsJobImmediatelyAndOnTicks(t *testing.T) {
	var runs atomic.Int64
	job := &Job{
		Name:     "test",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	New(job).Run(ctx)

	if got := runs.Load(); got < 2 {
		t.Errorf("runs = %d, want at least 2 (startup + ticks)", got)
	}
}

func TestScheduler_SkipsTickWhileBusy(t *testing.T) {
	var runs atomic.Int64
	release := make(chan struct{})
	job := &Job{
		Name:     "slow",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(job).Run(ctx)
		close(done)
	}()

	// Several intervals pass while the first run is still in flight.
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(release)
	<-done

	// Roughly ten intervals elapsed; without the busy guard each would
	// have started a run. Allow one racing tick around shutdown.
	if got := runs.Load(); got > 2 {
		t.Errorf("runs = %d, want at most 2 (ticks skipped while busy)", got)
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	job := &Job{
		Name:     "noop",
		Interval: time.Hour,
		Run:      func(ctx context.Context) error { return nil },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(job).Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler should stop when the context is canceled")
	}
}

func TestScheduler_MultipleJobs(t *testing.T) {
	var a, b atomic.Int64
	jobs := []*Job{
		{Name: "a", Interval: time.Hour, Run: func(ctx context.Context) error { a.Add(1); return nil }},
		{Name: "b", Interval: time.Hour, Run: func(ctx context.Context) error { b.Add(1); return nil }},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	New(jobs...).Run(ctx)

	if a.Load() != 1 || b.Load() != 1 {
		t.Errorf("runs = %d, %d, want 1 each (startup run)", a.Load(), b.Load())
	}
}
