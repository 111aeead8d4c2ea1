// Package detector infers champion employment-change events by diffing
// recently recorded positions against each champion's prior position.
package detector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/champtrack/champtrack/internal/metrics"
	"github.com/champtrack/champtrack/internal/models"
	"github.com/champtrack/champtrack/internal/storage"
)

// DefaultWindow is the lookback window for recently recorded positions.
const DefaultWindow = 24 * time.Hour

// Options configures the detector.
type Options struct {
	// Window is the lookback for current positions (default: 24h).
	Window time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Detector scans recent current positions and emits one company_change
// event per detected move.
type Detector struct {
	positions storage.PositionRepository
	champions storage.ChampionRepository
	events    storage.EventRepository

	window time.Duration
	now    func() time.Time
}

// Report summarizes one detection run.
type Report struct {
	Checked int `json:"checked"` // candidate positions examined
	Moves   int `json:"moves"`   // events emitted
	Skipped int `json:"skipped"` // candidates skipped due to lookup failures
}

// New creates a detector over the given storage.
func New(store storage.Storage, opts Options) *Detector {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Detector{
		positions: store.Positions(),
		champions: store.Champions(),
		events:    store.Events(),
		window:    opts.Window,
		now:       opts.Now,
	}
}

// Run scans current positions created within the lookback window and emits
// a company_change event for each champion whose most recent non-current
// position names a different company. A failure on one candidate never
// aborts the scan; the candidate is counted as skipped and the batch
// continues.
func (d *Detector) Run(ctx context.Context) (Report, error) {
	var report Report
	now := d.now()
	start := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())
	}()

	recents, err := d.positions.ListCurrentSince(ctx, now.Add(-d.window))
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues("detect", "error").Inc()
		return report, fmt.Errorf("list recent positions: %w", err)
	}

	for _, pos := range recents {
		report.Checked++

		emitted, err := d.checkPosition(ctx, pos, now)
		if err != nil {
			report.Skipped++
			metrics.JobItemsTotal.WithLabelValues("detect", "skipped").Inc()
			log.Printf("detect: skipping position %s (champion %s): %v", pos.ID, pos.ChampionID, err)
			continue
		}
		if emitted {
			report.Moves++
			metrics.JobItemsTotal.WithLabelValues("detect", "move").Inc()
		}
	}

	metrics.JobRunsTotal.WithLabelValues("detect", "ok").Inc()
	return report, nil
}

// checkPosition compares one current position against the champion's most
// recent non-current position and emits an event when the company changed.
func (d *Detector) checkPosition(ctx context.Context, pos *models.Position, now time.Time) (bool, error) {
	prev, err := d.positions.LatestPrevious(ctx, pos.ChampionID)
	if err != nil {
		return false, fmt.Errorf("lookup previous position: %w", err)
	}
	// The first known position is not a move.
	if prev == nil || prev.Company == "" {
		return false, nil
	}
	// Title-only changes are not moves.
	if prev.Company == pos.Company {
		return false, nil
	}

	// Re-running over a static window must not re-emit the same move.
	seen, err := d.events.HasCompanyChange(ctx, pos.ChampionID, pos.Company, pos.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("check prior events: %w", err)
	}
	if seen {
		return false, nil
	}

	// Org resolution is best-effort: an event with an unresolved org is
	// still worth recording.
	var orgID string
	champ, err := d.champions.GetByID(ctx, pos.ChampionID)
	if err != nil || champ == nil {
		log.Printf("detect: could not resolve org for champion %s: %v", pos.ChampionID, err)
	} else {
		orgID = champ.OrgID
	}

	event := &models.Event{
		OrgID:      orgID,
		ChampionID: pos.ChampionID,
		Type:       models.EventTypeCompanyChange,
		OccurredAt: now,
	}
	if err := event.SetPayload(models.CompanyChangePayload{
		OldCompany: prev.Company,
		NewCompany: pos.Company,
		Title:      pos.Title,
	}); err != nil {
		return false, fmt.Errorf("encode payload: %w", err)
	}

	if err := d.events.Create(ctx, event); err != nil {
		return false, fmt.Errorf("record event: %w", err)
	}
	return true, nil
}
