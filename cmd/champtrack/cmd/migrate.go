package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// migrateCmd initializes or upgrades the database schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Initialize or upgrade the database schema",
	Long: `Apply pending database migrations.

Creates the database file if it does not exist. Safe to run repeatedly;
already-applied migrations are skipped.

Example:
  champtrack migrate --config champtrack.yaml`,
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

		fmt.Printf("Database at %s is up to date.\n", cfg.Database.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
