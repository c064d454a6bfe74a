// Command staffctl runs the staff portal server and its operational tasks:
// schema migrations, reference data seeding, bulk employee import and the
// scheduled jobs.
//
//	staffctl migrate up
//	staffctl seed
//	staffctl import employees staff.csv
//	staffctl jobs daily-summary
//	staffctl serve
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/app"
	"github.com/spec-kit/staff-portal/internal/config"
	"github.com/spec-kit/staff-portal/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:           "staffctl",
	Short:         "Operate the staff portal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadRuntime reads configuration and builds the logger.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// withContainer builds the full application, runs fn and releases it.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) error) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	container, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()
	return fn(ctx, container)
}
