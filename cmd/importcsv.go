package cmd

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"sales_records/internal/config"
	"sales_records/internal/importer"
	"sales_records/internal/sales"
)

const (
	fileFlag      = "file"
	batchSizeFlag = "batch-size"
	delimiterFlag = "delimiter"
)

func newImportCommand(a *app) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		fileFlag: &cobraflags.StringFlag{
			Name:  fileFlag,
			Value: "",
			Usage: "CSV file to import (required)",
		},
		batchSizeFlag: &cobraflags.IntFlag{
			Name:  batchSizeFlag,
			Value: importer.DefaultBatchSize,
			Usage: "Rows per all-or-nothing batch",
		},
		delimiterFlag: &cobraflags.StringFlag{
			Name:  delimiterFlag,
			Value: ",",
			Usage: "Field delimiter",
		},
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import sales line items from a CSV file",
		Long: `Import sales line items from a CSV file whose first row is a header.

Headers may be column names (order_id, price_each, ...) or their spelled-out
forms (Order ID, Price Each, ...). Rows are inserted in batches; a batch with
a bad value is rejected as a whole and stops the import.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := a.setup(cmd, map[string]string{
				batchSizeFlag: config.KeyImportBatchSize,
				delimiterFlag: config.KeyImportDelimiter,
			})
			if err != nil {
				return err
			}

			path, _ := cmd.Flags().GetString(fileFlag)
			if path == "" {
				return fmt.Errorf("file is required (use --file flag)")
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

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

			imp := importer.New(svc,
				importer.WithBatchSize(a.cfg.Import.BatchSize),
				importer.WithDelimiter(a.cfg.DelimiterRune()),
				importer.WithLogger(a.logger),
			)
			res, err := imp.Import(cmd.Context(), f)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rows read: %d\n", res.Rows)
			fmt.Fprintf(out, "Rows skipped: %d\n", res.Skipped)
			fmt.Fprintf(out, "Rows inserted: %d in %d batches\n", res.Inserted, res.Batches)
			return err
		},
	}
	cobraflags.RegisterMap(importCmd, flags)
	return importCmd
}
