package oauth

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/champtrack/champtrack/internal/metrics"
	"github.com/champtrack/champtrack/internal/models"
	"github.com/champtrack/champtrack/internal/storage"
)

// Options configures the refresher.
type Options struct {
	// Workers bounds concurrent refresh exchanges (default: 4).
	Workers int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Refresher iterates all stored credentials and exchanges refresh tokens
// for fresh access tokens. A failed refresh never aborts the remaining
// credentials and never destroys the prior, possibly-stale, token.
type Refresher struct {
	integrations storage.IntegrationRepository
	registry     Registry
	workers      int
	now          func() time.Time
}

// Report summarizes one refresh run.
type Report struct {
	Checked   int `json:"checked"`
	Refreshed int `json:"refreshed"`
	Skipped   int `json:"skipped"` // no refresh token or no registered provider
	Failed    int `json:"failed"`
}

// NewRefresher creates a refresher over the given storage and registry.
func NewRefresher(store storage.Storage, registry Registry, opts Options) *Refresher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Refresher{
		integrations: store.Integrations(),
		registry:     registry,
		workers:      opts.Workers,
		now:          opts.Now,
	}
}

// Run refreshes every credential with a refresh token. Per-credential work
// runs with bounded parallelism; each credential's success or failure is
// independent and individually recorded.
func (r *Refresher) Run(ctx context.Context) (Report, error) {
	var report Report
	start := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues("refresh").Observe(time.Since(start).Seconds())
	}()

	integrations, err := r.integrations.List(ctx)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues("refresh", "error").Inc()
		return report, fmt.Errorf("list integrations: %w", err)
	}
	report.Checked = len(integrations)

	var refreshed, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, integ := range integrations {
		integ := integ
		g.Go(func() error {
			switch r.refreshOne(gctx, integ) {
			case refreshOK:
				refreshed.Add(1)
			case refreshSkipped:
				skipped.Add(1)
			case refreshFailed:
				failed.Add(1)
			}
			// Failures are recorded per credential, never propagated.
			return nil
		})
	}
	g.Wait()

	report.Refreshed = int(refreshed.Load())
	report.Skipped = int(skipped.Load())
	report.Failed = int(failed.Load())

	metrics.JobRunsTotal.WithLabelValues("refresh", "ok").Inc()
	return report, nil
}

type refreshResult int

const (
	refreshOK refreshResult = iota
	refreshSkipped
	refreshFailed
)

func (r *Refresher) refreshOne(ctx context.Context, integ *models.Integration) refreshResult {
	refreshToken := integ.Access.RefreshToken()
	if refreshToken == "" {
		return refreshSkipped
	}

	provider, ok := r.registry[integ.Provider]
	if !ok {
		// Chat webhooks and unknown providers have nothing to refresh.
		return refreshSkipped
	}

	fields, err := provider.Refresh(ctx, refreshToken)
	if err != nil {
		// Keep the prior token in place: a stale token beats no token.
		metrics.RefreshesTotal.WithLabelValues(integ.Provider, "error").Inc()
		log.Printf("refresh: %s credential for org %s failed: %v", integ.Provider, integ.OrgID, err)
		return refreshFailed
	}

	merged := integ.Access.Merge(fields)
	merged["refreshed_at"] = r.now().UTC().Format(time.RFC3339)

	if err := r.integrations.UpdateAccess(ctx, integ.ID, merged); err != nil {
		metrics.RefreshesTotal.WithLabelValues(integ.Provider, "error").Inc()
		log.Printf("refresh: could not store refreshed %s credential for org %s: %v", integ.Provider, integ.OrgID, err)
		return refreshFailed
	}

	metrics.RefreshesTotal.WithLabelValues(integ.Provider, "ok").Inc()
	return refreshOK
}
