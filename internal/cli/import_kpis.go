package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"perfhub/internal/app/server"
	"perfhub/internal/domain/kpiimport"
	"perfhub/internal/platform/clock"
)

// ImportKPIsCmd runs a bulk KPI upload from a local CSV file and writes the result file
// next to it (or into --out).
func ImportKPIsCmd() *cobra.Command {
	var (
		orgID   string
		actorID string
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "import-kpis <file.csv>",
		Short: "Import KPIs from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read upload: %w", err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			app := server.NewWithPool(pool, cfg, clock.System{})
			defer app.Close()

			res, err := app.Importer.Import(cmd.Context(), orgID, actorID, data)
			var file kpiimport.File
			var rejected *kpiimport.RejectionError
			switch {
			case errors.As(err, &rejected):
				file = kpiimport.RejectionReport(rejected)
			case err != nil:
				return err
			case res.Outcome == kpiimport.OutcomeAllSucceeded:
				file, err = kpiimport.BuildSuccessReport(res)
			default:
				file, err = kpiimport.BuildErrorReport(res)
			}
			if err != nil {
				return fmt.Errorf("build report: %w", err)
			}

			if outDir == "" {
				outDir = filepath.Dir(args[0])
			}
			target := filepath.Join(outDir, file.Name)
			if err := os.WriteFile(target, file.Data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Message())
			fmt.Fprintf(out, "rows: %d  failed: %d  report: %s\n", res.FileCount, res.ErrorCount, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "organisation id (required)")
	cmd.Flags().StringVar(&actorID, "actor", "", "user id recorded as the creator (required)")
	cmd.Flags().StringVar(&outDir, "out", "", "directory for the result file (defaults to the upload's directory)")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}
