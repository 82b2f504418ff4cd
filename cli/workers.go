package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yeremiapane/shopfloor-app/config"
	"github.com/yeremiapane/shopfloor-app/services"
)

// WorkersCmd returns the workers command
func WorkersCmd() *cobra.Command {
	var (
		state      string
		department string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "workers",
		Short: "List workers and whether they are logged in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := openDB(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			workers, err := services.NewWorkerService(db).ListWorkers(ctx, services.WorkerFilter{
				State:           state,
				Department:      department,
				IncludeInactive: all,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(workers) == 0 {
				fmt.Fprintln(out, "No workers found")
				return nil
			}
			for _, w := range workers {
				line := fmt.Sprintf("%-4s %-14s %-24s %-12s %s", stateLabel(w.LoginState()), w.TokenID, w.Name, w.Department, w.LastScannerID)
				if !w.Active {
					line = color.New(color.Faint).Sprint(line + " (inactive)")
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "filter by IN or OUT")
	cmd.Flags().StringVar(&department, "department", "", "filter by department")
	cmd.Flags().BoolVar(&all, "all", false, "include deactivated workers")
	return cmd
}
