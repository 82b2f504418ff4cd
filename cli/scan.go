package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yeremiapane/shopfloor-app/config"
	"github.com/yeremiapane/shopfloor-app/models"
	"github.com/yeremiapane/shopfloor-app/services"
)

// ScanCmd returns the scan command
func ScanCmd() *cobra.Command {
	var scannerID string

	cmd := &cobra.Command{
		Use:   "scan <token>",
		Short: "Record a badge scan as if made at a terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := openDB(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			result, err := services.NewPresenceService(db).RecordScan(ctx, args[0], scannerID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s (%s)\n", stateLabel(result.Worker.LoginState), result.Worker.Name, result.Worker.TokenID)
			for _, forced := range result.ForcedLogouts {
				fmt.Fprintf(out, "%s  %s (%s) forced out\n", stateLabel(models.LoginStateOut), forced.Name, forced.TokenID)
			}
			if b := result.Bundle; b != nil {
				fmt.Fprintf(out, "Bundle %d of %s: %d pieces remaining\n", b.BundleNumber, b.OrderNumber, b.PiecesRemaining)
			}
			fmt.Fprintln(out, result.Message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scannerID, "scanner", "s", "CLI", "scanner id to record")
	return cmd
}

func stateLabel(state string) string {
	if state == models.LoginStateIn {
		return color.New(color.FgGreen, color.Bold).Sprint(state)
	}
	return color.New(color.FgRed).Sprint(state)
}
