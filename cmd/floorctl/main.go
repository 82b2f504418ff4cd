package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yeremiapane/shopfloor-app/cli"
	"github.com/yeremiapane/shopfloor-app/utils"
)

func main() {
	utils.InitLogger()
	utils.SetLogLevel("warn")

	rootCmd := &cobra.Command{
		Use:   "floorctl",
		Short: "Shop-floor administration tool",
		Long: `floorctl manages the shop-floor database directly: migrate the schema,
load demo data, preview bundle splits, record scans and list workers.
It reads the same environment (.env, DB_DRIVER, DB_DSN, ...) as the server.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.DistributeCmd())
	rootCmd.AddCommand(cli.ScanCmd())
	rootCmd.AddCommand(cli.WorkersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
