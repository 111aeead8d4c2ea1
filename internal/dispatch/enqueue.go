package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/champtrack/champtrack/internal/metrics"
	"github.com/champtrack/champtrack/internal/models"
	"github.com/champtrack/champtrack/internal/storage"
)

// Enqueuer creates one pending alert per company_change event that has no
// alert yet. It is the explicit bridge between the event log and the alert
// queue; keeping it a separate job leaves the detector and dispatcher
// rendezvousing only through the store.
type Enqueuer struct {
	events storage.EventRepository
	alerts storage.AlertRepository
	now    func() time.Time
}

// EnqueueReport summarizes one enqueue run.
type EnqueueReport struct {
	Enqueued int `json:"enqueued"`
	Failed   int `json:"failed"`
}

// NewEnqueuer creates an enqueuer over the given storage.
func NewEnqueuer(store storage.Storage, now func() time.Time) *Enqueuer {
	if now == nil {
		now = time.Now
	}
	return &Enqueuer{
		events: store.Events(),
		alerts: store.Alerts(),
		now:    now,
	}
}

// Run creates pending alerts for unalerted company_change events. Creation
// failures are isolated per event.
func (e *Enqueuer) Run(ctx context.Context) (EnqueueReport, error) {
	var report EnqueueReport
	start := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues("enqueue").Observe(time.Since(start).Seconds())
	}()

	events, err := e.events.ListUnalerted(ctx, models.EventTypeCompanyChange)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues("enqueue", "error").Inc()
		return report, fmt.Errorf("list unalerted events: %w", err)
	}

	for _, event := range events {
		alert := &models.Alert{
			OrgID:      event.OrgID,
			ChampionID: event.ChampionID,
			EventID:    event.ID,
			Channel:    models.AlertChannelSlack,
			Status:     models.AlertStatusPending,
			CreatedAt:  e.now(),
		}
		if err := e.alerts.Create(ctx, alert); err != nil {
			report.Failed++
			metrics.JobItemsTotal.WithLabelValues("enqueue", "failed").Inc()
			log.Printf("enqueue: could not create alert for event %s: %v", event.ID, err)
			continue
		}
		report.Enqueued++
		metrics.JobItemsTotal.WithLabelValues("enqueue", "enqueued").Inc()
	}

	metrics.JobRunsTotal.WithLabelValues("enqueue", "ok").Inc()
	return report, nil
}
