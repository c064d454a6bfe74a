package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/staff-portal/internal/app"
	"github.com/spec-kit/staff-portal/internal/service"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-load records from files",
}

var importEmployeesCmd = &cobra.Command{
	Use:   "employees <csv>",
	Short: "Create or update employees from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			res, err := c.Import.ImportEmployees(ctx, service.SystemActor(), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created: %d, updated: %d, errored: %d\n", res.Created, res.Updated, res.Errored)
			for _, rowErr := range res.Errors {
				fmt.Fprintf(out, "  row %d (%s): %s\n", rowErr.Row, rowErr.EmployeeID, rowErr.Error)
			}
			return nil
		})
	},
}

func init() {
	importCmd.AddCommand(importEmployeesCmd)
	rootCmd.AddCommand(importCmd)
}
