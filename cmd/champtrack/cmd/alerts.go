package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/champtrack/champtrack/internal/models"
)

var (
	alertsStatus string
	alertsLimit  int
)

// alertsCmd represents the alerts command group
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Alert queue inspection commands",
	Long: `Commands for inspecting and repairing the alert queue.

Examples:
  # Show failed deliveries
  champtrack alerts list --status error

  # Put a failed alert back in the queue
  champtrack alerts requeue <alert-id>`,
}

// alertsListCmd lists alerts by status
var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts by status",
	Long: `List alerts in the given status (pending, sent, error), newest last.

Example:
  champtrack alerts list --status error --limit 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		status := models.AlertStatus(alertsStatus)
		switch status {
		case models.AlertStatusPending, models.AlertStatusSent, models.AlertStatusError:
		default:
			return fmt.Errorf("unknown status %q", alertsStatus)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStorage(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		alerts, err := store.Alerts().ListByStatus(context.Background(), status, alertsLimit)
		if err != nil {
			return fmt.Errorf("list alerts: %w", err)
		}

		if len(alerts) == 0 {
			fmt.Printf("No %s alerts found.\n", status)
			return nil
		}

		// Print header
		fmt.Printf("\n%-36s  %-20s  %-8s  %-19s  %s\n", "ID", "ORG", "CHANNEL", "CREATED", "ERROR")
		fmt.Println(strings.Repeat("-", 100))

		for _, alert := range alerts {
			fmt.Printf("%-36s  %-20s  %-8s  %-19s  %s\n",
				alert.ID,
				truncate(alert.OrgID, 20),
				alert.Channel,
				alert.CreatedAt.Format("2006-01-02 15:04:05"),
				truncate(alert.Error, 40),
			)
		}
		fmt.Printf("\nTotal: %d alert(s)\n", len(alerts))

		return nil
	},
}

// alertsRequeueCmd resets an error alert back to pending
var alertsRequeueCmd = &cobra.Command{
	Use:   "requeue <alert-id>",
	Short: "Put a failed alert back in the queue",
	Long: `Reset an alert in the error state back to pending so the next
dispatch run retries its delivery.

Example:
  champtrack alerts requeue 6a1f0c9e-9f1d-4f3a-b8d2-0c7f4f4f4f4f`,
	Args: cobra.ExactArgs(1),
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

		ok, err := store.Alerts().Requeue(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("requeue alert: %w", err)
		}
		if !ok {
			return fmt.Errorf("alert %s is not in the error state", args[0])
		}

		fmt.Printf("Alert %s requeued.\n", args[0])
		return nil
	},
}

func init() {
	alertsListCmd.Flags().StringVar(&alertsStatus, "status", "error", "alert status (pending, sent, error)")
	alertsListCmd.Flags().IntVar(&alertsLimit, "limit", 50, "maximum alerts to list")

	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsRequeueCmd)
	rootCmd.AddCommand(alertsCmd)
}
