// Package scheduler runs the batch jobs on in-process tickers for
// deployments without an external cron.
package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Job is one periodically invoked batch job.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	busy atomic.Bool
}

// Scheduler drives a set of jobs, one ticker each. A tick is skipped when
// the previous run of the same job is still in flight, preserving the
// single-runner-per-tick assumption.
type Scheduler struct {
	jobs []*Job
}

// New creates a scheduler for the given jobs.
func New(jobs ...*Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

// Run blocks, executing each job at its interval, until the context is
// canceled. Each job also runs once immediately at startup.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		job := job
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runJob(ctx, job)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, job *Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.tick(ctx, job)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, job)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, job *Job) {
	if !job.busy.CompareAndSwap(false, true) {
		log.Printf("scheduler: %s still running, skipping tick", job.Name)
		return
	}
	defer job.busy.Store(false)

	if err := job.Run(ctx); err != nil {
		log.Printf("scheduler: %s failed: %v", job.Name, err)
	}
}
