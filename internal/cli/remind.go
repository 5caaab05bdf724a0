package cli

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"perfhub/internal/app/server"
	"perfhub/internal/platform/clock"
	"perfhub/internal/platform/jobs"
)

// RemindCmd runs one reminder pass synchronously, for every organisation or for one.
func RemindCmd() *cobra.Command {
	var orgID string

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run one reminder tick now",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			var details any
			if orgID == "" {
				details, err = app.Jobs.RunNow(cmd.Context(), jobs.JobReminderTick, "", func(ctx context.Context) (any, error) {
					return app.Reminders.Tick(ctx)
				})
			} else {
				details, err = app.Jobs.RunNow(cmd.Context(), jobs.JobReminderRun, orgID, func(ctx context.Context) (any, error) {
					return app.Reminders.RunOnce(ctx, orgID)
				})
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(details)
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "limit the pass to one organisation id")
	return cmd
}
