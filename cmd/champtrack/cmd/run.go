package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/champtrack/champtrack/internal/api"
	"github.com/champtrack/champtrack/internal/scheduler"
)

// runCmd starts the API server with in-process job scheduling
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the API server with in-process scheduling",
	Long: `Start the champtrack HTTP API server and run the pipeline jobs on
internal tickers, for deployments without an external cron.

Intervals come from the scheduler section of the config file. Each job
also runs once at startup, and a tick is skipped while the previous run
of the same job is still in flight.

Example:
  champtrack run --config champtrack.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := openStorage(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		p := buildPipeline(cfg, store)
		defer p.close()

		server, err := api.NewServer(cfg.API, api.Deps{
			Storage:    store,
			Detector:   p.detector,
			Enqueuer:   p.enqueuer,
			Dispatcher: p.dispatcher,
			Refresher:  p.refresher,
			Ingest:     p.ingest,
			Mailer:     p.mailer,
		})
		if err != nil {
			return err
		}

		sched := scheduler.New(
			&scheduler.Job{
				Name:     "detect",
				Interval: cfg.Scheduler.DetectInterval,
				Run: func(ctx context.Context) error {
					_, err := p.detector.Run(ctx)
					return err
				},
			},
			&scheduler.Job{
				Name:     "enqueue",
				Interval: cfg.Scheduler.DispatchInterval,
				Run: func(ctx context.Context) error {
					_, err := p.enqueuer.Run(ctx)
					return err
				},
			},
			&scheduler.Job{
				Name:     "dispatch",
				Interval: cfg.Scheduler.DispatchInterval,
				Run: func(ctx context.Context) error {
					_, err := p.dispatcher.Run(ctx)
					return err
				},
			},
			&scheduler.Job{
				Name:     "refresh",
				Interval: cfg.Scheduler.RefreshInterval,
				Run: func(ctx context.Context) error {
					_, err := p.refresher.Run(ctx)
					return err
				},
			},
		)

		return serveUntilSignal(server, sched.Run)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
