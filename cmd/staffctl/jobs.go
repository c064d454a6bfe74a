package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/staff-portal/internal/app"
	"github.com/spec-kit/staff-portal/internal/service"
)

var jobsAt string

var jobsCmd = &cobra.Command{
	Use:       "jobs <daily-summary|overdue-tasks>",
	Short:     "Run a scheduled job once",
	Long:      `Run a scheduled job once. Intended to be invoked by cron or a Kubernetes CronJob.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{service.JobDailySummary, service.JobOverdueTasks},
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		if jobsAt != "" {
			parsed, err := time.Parse(time.RFC3339, jobsAt)
			if err != nil {
				return fmt.Errorf("--at must be RFC3339: %w", err)
			}
			now = parsed
		}
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			n, err := c.Jobs.Run(ctx, args[0], now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d processed\n", args[0], n)
			return nil
		})
	},
}

func init() {
	jobsCmd.Flags().StringVar(&jobsAt, "at", "", "run as of this RFC3339 time instead of now")
	rootCmd.AddCommand(jobsCmd)
}
