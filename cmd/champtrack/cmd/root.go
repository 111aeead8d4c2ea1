// Package cmd contains the CLI commands for champtrack.
package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/champtrack/champtrack/internal/config"
	"github.com/champtrack/champtrack/internal/detector"
	"github.com/champtrack/champtrack/internal/dispatch"
	"github.com/champtrack/champtrack/internal/ingest"
	"github.com/champtrack/champtrack/internal/mailer"
	"github.com/champtrack/champtrack/internal/notifier"
	"github.com/champtrack/champtrack/internal/oauth"
	"github.com/champtrack/champtrack/internal/storage"
)

var (
	// Used for flags
	configPath string
	verbose    bool
	output     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "champtrack",
	Short: "ChampTrack - Champion Move Tracking",
	Long: `ChampTrack tracks your champions (former buyers, power users, internal
advocates) across job changes and alerts your team when one lands at a
new company.

Pipeline:
  - CRM sync and webhooks keep champion profiles and positions current
  - Move detection diffs new current positions against employment history
  - Alerts are enqueued per move and delivered to chat webhooks
  - Stored OAuth credentials are refreshed before they expire

Examples:
  # Initialize or upgrade the database schema
  champtrack migrate

  # Run the full pipeline once
  champtrack job detect && champtrack job enqueue && champtrack job dispatch

  # Serve the HTTP API with in-process scheduling
  champtrack run --config champtrack.yaml`,
	// Run when no subcommand is specified
	Run: func(cmd *cobra.Command, args []string) {
		// Show help by default
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

// PrintError prints an error message and exits if fatal is true.
func PrintError(msg string, fatal bool) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	if fatal {
		os.Exit(1)
	}
}

// loadConfig loads the configuration from --config, falling back to
// defaults with environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Verbose = verbose
	return cfg, nil
}

// openStorage opens the database and applies pending migrations.
func openStorage(cfg *config.Config) (storage.Storage, error) {
	store := storage.NewSQLiteStorage(cfg.Database.Path)
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}

// pipeline bundles the job runners built from one config and store.
type pipeline struct {
	detector   *detector.Detector
	enqueuer   *dispatch.Enqueuer
	dispatcher *dispatch.Dispatcher
	refresher  *oauth.Refresher
	ingest     *ingest.Service
	mailer     *mailer.Mailer
	sender     notifier.Sender
}

// buildPipeline wires the job runners from configuration.
func buildPipeline(cfg *config.Config, store storage.Storage) *pipeline {
	sender := notifier.NewChatSender(notifier.ChatConfig{
		RatePerMinute: cfg.Dispatch.RatePerMinute,
	})

	httpClient := &http.Client{Timeout: 30 * time.Second}

	return &pipeline{
		detector: detector.New(store, detector.Options{
			Window: cfg.Detector.Window,
		}),
		enqueuer: dispatch.NewEnqueuer(store, nil),
		dispatcher: dispatch.New(store, sender, dispatch.Options{
			BatchSize: cfg.Dispatch.BatchSize,
		}),
		refresher: oauth.NewRefresher(store, oauth.NewRegistry(cfg.Providers, httpClient), oauth.Options{
			Workers: cfg.Refresh.Workers,
		}),
		ingest: ingest.NewService(store, httpClient),
		mailer: mailer.New(store, httpClient),
		sender: sender,
	}
}

func (p *pipeline) close() {
	if p.sender != nil {
		p.sender.Close()
	}
}
