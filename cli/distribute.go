package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yeremiapane/shopfloor-app/config"
	"github.com/yeremiapane/shopfloor-app/services"
)

// DistributeCmd returns the distribute command
func DistributeCmd() *cobra.Command {
	var bundles int

	cmd := &cobra.Command{
		Use:   "distribute <total-pieces>",
		Short: "Preview how an order splits into bundles",
		Long: `Prints the pieces per bundle for an order without touching the database.

Examples:
  floorctl distribute 1119              # uses BUNDLE_COUNT (default 12)
  floorctl distribute 1119 --bundles 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("total pieces must be an integer: %w", err)
			}
			if !cmd.Flags().Changed("bundles") {
				bundles = config.Load().BundleCount
			}

			pieces, err := services.DistributePieces(total, bundles)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d pieces in %d bundles\n", total, bundles)
			for i, p := range pieces {
				fmt.Fprintf(out, "  bundle %2d  %s\n", i+1, color.New(color.FgCyan).Sprint(p))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&bundles, "bundles", "n", 12, "number of bundles")
	return cmd
}
