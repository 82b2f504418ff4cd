package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeremiapane/shopfloor-app/config"
	"github.com/yeremiapane/shopfloor-app/services"
)

var demoWorkers = []services.WorkerInput{
	{Name: "Ana Putri", TokenID: "ABC123", Department: "sewing"},
	{Name: "Budi Santoso", TokenID: "XYZ999", Department: "sewing"},
	{Name: "Citra Lestari", TokenID: "QWE555", Department: "cutting"},
	{Name: "Dewi Anggraini", TokenID: "RTY777", Department: "finishing"},
}

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	var (
		orderNumber string
		pieces      int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo workers and a production order",
		Long: `Registers a few demo workers (ABC123, XYZ999, ...) and one production
order split into BUNDLE_COUNT bundles. Records that already exist are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := openDB(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()
			out := cmd.OutOrStdout()

			var conflict *services.ConflictError
			workerSvc := services.NewWorkerService(db)
			for _, in := range demoWorkers {
				_, err := workerSvc.RegisterWorker(ctx, in)
				switch {
				case errors.As(err, &conflict):
					fmt.Fprintf(out, "- worker %s exists\n", in.TokenID)
				case err != nil:
					return err
				default:
					fmt.Fprintf(out, "✓ worker %s (%s)\n", in.TokenID, in.Name)
				}
			}

			order, err := services.NewBundleService(db, cfg.Operations).CreateOrderWithBundles(ctx, services.OrderInput{
				OrderNumber: orderNumber,
				TotalPieces: pieces,
				BundleCount: cfg.BundleCount,
				Brand:       "Demo",
				SourceFile:  "seed",
			})
			switch {
			case errors.As(err, &conflict):
				fmt.Fprintf(out, "- order %s exists\n", orderNumber)
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "✓ order %s with %d bundles\n", order.OrderNumber, len(order.Bundles))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&orderNumber, "order", "DEMO-001", "order number")
	cmd.Flags().IntVar(&pieces, "pieces", 1119, "total pieces")
	return cmd
}
