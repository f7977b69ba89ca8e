package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"sales_records/internal/config"
	"sales_records/internal/exporter"
	"sales_records/internal/sales"
)

func newExportCommand(a *app) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		fileFlag: &cobraflags.StringFlag{
			Name:  fileFlag,
			Value: "",
			Usage: "CSV file to write (default: standard output)",
		},
		delimiterFlag: &cobraflags.StringFlag{
			Name:  delimiterFlag,
			Value: ",",
			Usage: "Field delimiter",
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export every sales line item as CSV",
		Long: `Export every sales line item as CSV, ordered by id.

The first row is a header of column names. Prices are written with two
decimal places and timestamps as UTC ISO 8601, so the file can be loaded
again with "salesctl import".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd, map[string]string{delimiterFlag: config.KeyImportDelimiter}); err != nil {
				return err
			}

			svc, storage, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer storage.Close()
			if a.cfg.Database.Driver == sales.DriverMemory {
				if err := svc.CreateTable(cmd.Context()); err != nil {
					return err
				}
			}

			var out io.Writer = cmd.OutOrStdout()
			path, _ := cmd.Flags().GetString(fileFlag)
			if path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create %s: %w", path, err)
				}
				defer f.Close()
				out = f
			}

			exp := exporter.New(svc,
				exporter.WithDelimiter(a.cfg.DelimiterRune()),
				exporter.WithLogger(a.logger),
			)
			n, err := exp.Export(cmd.Context(), out)
			if err != nil {
				return err
			}
			if path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d line items to %s\n", n, path)
			}
			return nil
		},
	}
	cobraflags.RegisterMap(exportCmd, flags)
	return exportCmd
}
