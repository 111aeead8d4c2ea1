package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/champtrack/champtrack/internal/api"
)

// serveCmd starts the HTTP API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the champtrack HTTP API server.

Exposes job triggers, CRM webhooks, contact import, and outbound mail
under /api/v1 (JWT protected) plus /health and /metrics. Jobs are only
run when triggered; use "champtrack run" for in-process scheduling.

Example:
  champtrack serve --config champtrack.yaml`,
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

		return serveUntilSignal(server, nil)
	},
}

// serveUntilSignal runs the API server, and optionally a background
// function, until SIGINT or SIGTERM.
func serveUntilSignal(server *api.Server, background func(ctx context.Context)) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if background != nil {
		go background(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
