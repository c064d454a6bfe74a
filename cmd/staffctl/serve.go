package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/spec-kit/staff-portal/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server until SIGINT or SIGTERM.

Pending migrations are applied first unless POSTGRES_RUN_MIGRATIONS=false.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			return c.Serve(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
