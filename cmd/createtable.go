package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sales_records/internal/sales"
)

func newCreateTableCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create-table",
		Short: "Create the sales table",
		Long: `Create the sales table in the configured database.

The command fails if a table named "sales" already exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			svc, storage, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer storage.Close()

			if err := svc.CreateTable(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created table %s (%s)\n", sales.TableName, a.cfg.Database.Driver)
			return nil
		},
	}
}
