package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/champtrack/champtrack/internal/ingest"
)

var (
	importOrgID string
	importLimit int
)

// importCmd pulls contacts from a connected CRM
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import contacts from a connected CRM",
	Long: `Commands that pull contacts from a connected CRM into the champion
roster.

Examples:
  # Import HubSpot contacts for an org
  champtrack import hubspot --org acme-corp`,
}

var importHubSpotCmd = &cobra.Command{
	Use:   "hubspot",
	Short: "Import HubSpot contacts",
	Long: `Pull contacts from the HubSpot API for one organization using its
stored access token. Contacts with employment data also record a
current position, which the next detect run diffs against history.

Example:
  champtrack import hubspot --org acme-corp --limit 200`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if importOrgID == "" {
			return fmt.Errorf("--org is required")
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

		p := buildPipeline(cfg, store)
		defer p.close()

		imported, err := p.ingest.ImportHubSpot(context.Background(), importOrgID, importLimit)
		if err != nil {
			return fmt.Errorf("import contacts: %w", err)
		}

		fmt.Printf("Imported %d contact(s) for %s.\n", imported, importOrgID)
		return nil
	},
}

func init() {
	importHubSpotCmd.Flags().StringVar(&importOrgID, "org", "", "organization ID")
	importHubSpotCmd.Flags().IntVar(&importLimit, "limit", ingest.DefaultImportLimit, "maximum contacts to fetch")

	importCmd.AddCommand(importHubSpotCmd)
	rootCmd.AddCommand(importCmd)
}
