package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/staff-portal/internal/app"
	"github.com/spec-kit/staff-portal/internal/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load approval workflows and grade level allowances",
	Long: `Load approval workflows and grade level allowances from YAML.

Without --file the embedded defaults are used, or APP_SEED_FILE when set.
Record types that already have an active workflow are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			path := seedFile
			if path == "" {
				path = c.Config.App.SeedFile
			}
			file, err := seed.Load(path)
			if err != nil {
				return err
			}
			res, err := seed.Apply(ctx, file, c.Workflows, c.Org, c.Logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "workflows defined: %d, skipped: %d, grade levels: %d\n",
				res.WorkflowsDefined, res.WorkflowsSkipped, res.GradeLevels)
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "path to a seed YAML file")
	rootCmd.AddCommand(seedCmd)
}
