package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/champtrack/champtrack/internal/models"
)

var (
	channelOrgID    string
	channelProvider string
	channelWebhook  string
)

// channelCmd represents the channel command group
var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Alert channel and integration management commands",
	Long: `Commands for managing an organization's connected channels.

A channel connection is one (organization, provider) pair holding a
chat webhook URL or OAuth credentials. These commands operate directly
on the database file.

Examples:
  # Point an org's slack channel at a webhook
  champtrack channel set --org acme-corp --provider slack --webhook https://hooks.slack.com/services/T000/B000/XXX

  # Store a refresh token for a CRM provider (prompted, not echoed)
  champtrack channel set --org acme-corp --provider salesforce

  # List all connections
  champtrack channel list`,
}

// channelSetCmd creates or replaces a connection
var channelSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or replace a channel connection",
	Long: `Create or replace the connection for an (organization, provider)
pair.

For the slack provider, pass the webhook destination via --webhook.
For OAuth providers (gmail, outlook, salesforce, hubspot), the refresh
token is prompted for without echo; the next refresh job exchanges it
for an access token.

Examples:
  champtrack channel set --org acme-corp --provider slack --webhook https://hooks.slack.com/services/T000/B000/XXX
  champtrack channel set --org acme-corp --provider hubspot`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if channelOrgID == "" {
			return fmt.Errorf("--org is required")
		}

		access := models.Access{}
		switch channelProvider {
		case models.ProviderSlack:
			if channelWebhook == "" {
				return fmt.Errorf("--webhook is required for the slack provider")
			}
			access["webhook_url"] = channelWebhook
		case models.ProviderGmail, models.ProviderOutlook, models.ProviderSalesforce, models.ProviderHubSpot:
			token, err := promptSecret(fmt.Sprintf("Refresh token for %s: ", channelProvider))
			if err != nil {
				return err
			}
			if token == "" {
				return fmt.Errorf("refresh token must not be empty")
			}
			access["refresh_token"] = token
		default:
			return fmt.Errorf("unknown provider %q", channelProvider)
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

		integ := &models.Integration{
			OrgID:    channelOrgID,
			Provider: channelProvider,
			Access:   access,
		}
		if err := store.Integrations().Upsert(context.Background(), integ); err != nil {
			return fmt.Errorf("save connection: %w", err)
		}

		fmt.Printf("Connection %s/%s saved (id %s).\n", channelOrgID, channelProvider, integ.ID)
		return nil
	},
}

// channelListCmd lists all connections
var channelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all channel connections",
	Long: `List every (organization, provider) connection in the database.

Secrets are not printed; only whether a token or webhook is present.

Example:
  champtrack channel list`,
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

		integrations, err := store.Integrations().List(context.Background())
		if err != nil {
			return fmt.Errorf("list connections: %w", err)
		}

		if len(integrations) == 0 {
			fmt.Println("No connections found.")
			return nil
		}

		// Print header
		fmt.Printf("\n%-20s  %-12s  %-24s  %s\n", "ORG", "PROVIDER", "CREDENTIALS", "UPDATED")
		fmt.Println(strings.Repeat("-", 78))

		for _, integ := range integrations {
			fmt.Printf("%-20s  %-12s  %-24s  %s\n",
				truncate(integ.OrgID, 20),
				integ.Provider,
				describeAccess(integ.Access),
				integ.UpdatedAt.Format("2006-01-02 15:04"),
			)
		}
		fmt.Printf("\nTotal: %d connection(s)\n", len(integrations))

		return nil
	},
}

// describeAccess summarizes a credential blob without exposing secrets.
func describeAccess(access models.Access) string {
	var parts []string
	if access.WebhookURL() != "" {
		parts = append(parts, "webhook")
	}
	if access.AccessToken() != "" {
		parts = append(parts, "access token")
	}
	if access.RefreshToken() != "" {
		parts = append(parts, "refresh token")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// promptSecret reads a secret from stdin, without echo when stdin is a
// terminal.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secretBytes, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(secretBytes)), nil
	}

	// Piped input, e.g. in scripts.
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-2] + ".."
}

func init() {
	channelSetCmd.Flags().StringVar(&channelOrgID, "org", "", "organization ID")
	channelSetCmd.Flags().StringVar(&channelProvider, "provider", models.ProviderSlack, "provider (slack, gmail, outlook, salesforce, hubspot)")
	channelSetCmd.Flags().StringVar(&channelWebhook, "webhook", "", "webhook destination URL (slack provider)")

	channelCmd.AddCommand(channelSetCmd)
	channelCmd.AddCommand(channelListCmd)
	rootCmd.AddCommand(channelCmd)
}
