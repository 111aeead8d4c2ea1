// Package dispatch drains the pending alert queue and delivers
// notifications to each organization's configured channel.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/champtrack/champtrack/internal/metrics"
	"github.com/champtrack/champtrack/internal/models"
	"github.com/champtrack/champtrack/internal/notifier"
	"github.com/champtrack/champtrack/internal/storage"
)

// DefaultBatchSize is the maximum number of pending alerts per run.
const DefaultBatchSize = 50

// Options configures the dispatcher.
type Options struct {
	// BatchSize caps pending alerts fetched per run (default: 50).
	BatchSize int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Dispatcher drains pending alerts and transitions each to sent or error.
// Alerts whose organization has no configured destination are left pending:
// a missing destination is a configuration gap that may be fixed later, not
// a delivery failure.
type Dispatcher struct {
	alerts       storage.AlertRepository
	champions    storage.ChampionRepository
	events       storage.EventRepository
	integrations storage.IntegrationRepository
	sender       notifier.Sender

	batchSize int
	now       func() time.Time
}

// Report summarizes one dispatch run.
type Report struct {
	Processed int `json:"processed"` // pending alerts fetched
	Sent      int `json:"sent"`
	Skipped   int `json:"skipped"` // left pending (no destination)
	Failed    int `json:"failed"`  // transitioned to error
}

// New creates a dispatcher over the given storage and sender.
func New(store storage.Storage, sender notifier.Sender, opts Options) *Dispatcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{
		alerts:       store.Alerts(),
		champions:    store.Champions(),
		events:       store.Events(),
		integrations: store.Integrations(),
		sender:       sender,
		batchSize:    opts.BatchSize,
		now:          opts.Now,
	}
}

// Run fetches up to the batch size of pending alerts, resolves destinations,
// champions, and events once for the whole batch, then delivers each alert
// independently. A failure on one alert marks only that alert and the batch
// continues. Each alert is attempted at most once per run.
func (d *Dispatcher) Run(ctx context.Context) (Report, error) {
	var report Report
	start := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues("dispatch").Observe(time.Since(start).Seconds())
	}()

	pending, err := d.alerts.ListPending(ctx, d.batchSize)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues("dispatch", "error").Inc()
		return report, fmt.Errorf("list pending alerts: %w", err)
	}
	report.Processed = len(pending)
	if len(pending) == 0 {
		metrics.JobRunsTotal.WithLabelValues("dispatch", "ok").Inc()
		return report, nil
	}

	batch, err := d.resolveBatch(ctx, pending)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues("dispatch", "error").Inc()
		return report, err
	}

	for _, alert := range pending {
		switch d.dispatchOne(ctx, alert, batch) {
		case outcomeSent:
			report.Sent++
			metrics.JobItemsTotal.WithLabelValues("dispatch", "sent").Inc()
		case outcomeSkipped:
			report.Skipped++
			metrics.JobItemsTotal.WithLabelValues("dispatch", "skipped").Inc()
		case outcomeFailed:
			report.Failed++
			metrics.JobItemsTotal.WithLabelValues("dispatch", "failed").Inc()
		}
	}

	metrics.JobRunsTotal.WithLabelValues("dispatch", "ok").Inc()
	return report, nil
}

// batchContext holds the per-run lookups resolved once for the whole batch,
// so a dispatch run issues O(1) queries rather than O(batch size).
type batchContext struct {
	destinations map[string]string // org_id -> webhook URL
	champions    map[string]*models.Champion
	events       map[string]*models.Event
}

func (d *Dispatcher) resolveBatch(ctx context.Context, pending []*models.Alert) (*batchContext, error) {
	orgSet := make(map[string]struct{})
	champSet := make(map[string]struct{})
	eventSet := make(map[string]struct{})
	for _, a := range pending {
		orgSet[a.OrgID] = struct{}{}
		champSet[a.ChampionID] = struct{}{}
		if a.EventID != "" {
			eventSet[a.EventID] = struct{}{}
		}
	}

	integrations, err := d.integrations.ListByOrgsAndProvider(ctx, keys(orgSet), models.ProviderSlack)
	if err != nil {
		return nil, fmt.Errorf("resolve destinations: %w", err)
	}
	destinations := make(map[string]string, len(integrations))
	for _, integ := range integrations {
		if url := integ.Access.WebhookURL(); url != "" {
			destinations[integ.OrgID] = url
		}
	}

	champions, err := d.champions.ListByIDs(ctx, keys(champSet))
	if err != nil {
		return nil, fmt.Errorf("resolve champions: %w", err)
	}

	events, err := d.events.ListByIDs(ctx, keys(eventSet))
	if err != nil {
		return nil, fmt.Errorf("resolve events: %w", err)
	}

	return &batchContext{
		destinations: destinations,
		champions:    champions,
		events:       events,
	}, nil
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (d *Dispatcher) dispatchOne(ctx context.Context, alert *models.Alert, batch *batchContext) outcome {
	if alert.Channel != models.AlertChannelSlack {
		return d.fail(ctx, alert, fmt.Sprintf("unsupported channel %q", alert.Channel))
	}

	url, ok := batch.destinations[alert.OrgID]
	if !ok {
		// Leave pending: the org may configure a webhook later.
		log.Printf("dispatch: no destination for org %s, alert %s left pending", alert.OrgID, alert.ID)
		return outcomeSkipped
	}

	event, ok := batch.events[alert.EventID]
	if !ok {
		return d.fail(ctx, alert, fmt.Sprintf("event %s not found", alert.EventID))
	}

	text, err := RenderMessage(batch.champions[alert.ChampionID], event)
	if err != nil {
		return d.fail(ctx, alert, fmt.Sprintf("render message: %v", err))
	}

	if err := d.sender.Send(ctx, url, text); err != nil {
		return d.fail(ctx, alert, fmt.Sprintf("deliver: %v", err))
	}

	updated, err := d.alerts.MarkSent(ctx, alert.ID, d.now())
	if err != nil {
		log.Printf("dispatch: delivered alert %s but failed to mark sent: %v", alert.ID, err)
		return outcomeFailed
	}
	if !updated {
		// A concurrent run already transitioned it; the delivery above was
		// a duplicate, which at-least-once allows.
		log.Printf("dispatch: alert %s was already transitioned by another run", alert.ID)
	}
	return outcomeSent
}

func (d *Dispatcher) fail(ctx context.Context, alert *models.Alert, msg string) outcome {
	log.Printf("dispatch: alert %s failed: %s", alert.ID, msg)
	if _, err := d.alerts.MarkError(ctx, alert.ID, msg); err != nil {
		log.Printf("dispatch: could not mark alert %s as error: %v", alert.ID, err)
	}
	return outcomeFailed
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
