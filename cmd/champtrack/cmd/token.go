package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/champtrack/champtrack/internal/api"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

// tokenCmd mints API access tokens
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "API token management commands",
	Long: `Commands for managing champtrack API access tokens.

Examples:
  # Mint a token for an external scheduler
  champtrack token create --subject cron --ttl 8760h`,
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an API access token",
	Long: `Create a signed JWT for calling the protected API endpoints.

Requires the JWT secret in config or CHAMPTRACK_JWT_SECRET.

Example:
  champtrack token create --subject cron --ttl 720h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.API.JWTSecret == "" {
			return fmt.Errorf("api.jwt_secret is required")
		}

		jwtService := api.NewJWTService([]byte(cfg.API.JWTSecret), 24*time.Hour)
		token, err := jwtService.GenerateToken(tokenSubject, tokenTTL)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}

		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCreateCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "token subject")
	tokenCreateCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	tokenCmd.AddCommand(tokenCreateCmd)
	rootCmd.AddCommand(tokenCmd)
}
