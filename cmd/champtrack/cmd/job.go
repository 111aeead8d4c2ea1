package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// jobCmd represents the job command group
var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Run pipeline jobs once",
	Long: `Commands that run one pipeline job to completion and exit.

Intended for external schedulers (cron, systemd timers). Each job prints
its report and exits non-zero on failure.

Examples:
  # Detect champion moves from recent position changes
  champtrack job detect

  # Create pending alerts for events that have none
  champtrack job enqueue

  # Deliver a batch of pending alerts
  champtrack job dispatch

  # Refresh stored OAuth credentials
  champtrack job refresh`,
}

var jobDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect champion moves",
	Long: `Scan positions that became current within the detection window and
emit a company_change event for each champion whose employer differs
from their previous position. Re-running over the same window does not
emit duplicate events.

Example:
  champtrack job detect`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(func(ctx context.Context, p *pipeline) (any, error) {
			return p.detector.Run(ctx)
		})
	},
}

var jobEnqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Enqueue alerts for unalerted events",
	Long: `Create one pending alert per company_change event that has no alert
yet.

Example:
  champtrack job enqueue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(func(ctx context.Context, p *pipeline) (any, error) {
			return p.enqueuer.Run(ctx)
		})
	},
}

var jobDispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Deliver pending alerts",
	Long: `Fetch a batch of pending alerts and deliver each to its
organization's chat webhook. Alerts without a configured destination
are left pending; delivery failures are marked with an error status.

Example:
  champtrack job dispatch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(func(ctx context.Context, p *pipeline) (any, error) {
			return p.dispatcher.Run(ctx)
		})
	},
}

var jobRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh stored OAuth credentials",
	Long: `Exchange stored refresh tokens for fresh access tokens across all
connected integrations. A failed exchange leaves the stored credential
untouched and does not abort the remaining integrations.

Example:
  champtrack job refresh`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(func(ctx context.Context, p *pipeline) (any, error) {
			return p.refresher.Run(ctx)
		})
	},
}

// runJob opens storage, builds the pipeline, runs one job, and prints
// its report.
func runJob(run func(ctx context.Context, p *pipeline) (any, error)) error {
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

	report, err := run(context.Background(), p)
	if err != nil {
		return err
	}

	return printReport(report)
}

// printReport renders a job report per the --output flag.
func printReport(report any) error {
	if GetOutput() == "json" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	var fields map[string]int
	if err := json.Unmarshal(data, &fields); err != nil {
		fmt.Printf("%+v\n", report)
		return nil
	}
	for _, key := range sortedKeys(fields) {
		fmt.Printf("%-10s %d\n", key, fields[key])
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	jobCmd.AddCommand(jobDetectCmd)
	jobCmd.AddCommand(jobEnqueueCmd)
	jobCmd.AddCommand(jobDispatchCmd)
	jobCmd.AddCommand(jobRefreshCmd)
	rootCmd.AddCommand(jobCmd)
}
