package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeremiapane/shopfloor-app/config"
	"github.com/yeremiapane/shopfloor-app/database"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed the admin account",
		Long: `Runs ORM auto-migration against DB_DRIVER/DB_DSN and creates the
ADMIN_EMAIL account when ADMIN_PASSWORD is set and the account is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema ready (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}
