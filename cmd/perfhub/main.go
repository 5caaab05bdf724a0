package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"perfhub/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "perfhub",
		Short: "Performance review service",
		Long: `perfhub serves the review cycle, KPI and feedback API and runs its
maintenance tasks: migrations, seed data, bulk KPI imports and reminder ticks.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.ImportKPIsCmd())
	rootCmd.AddCommand(cli.RemindCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
