package cmd

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"sales_records/internal/config"
	"sales_records/internal/sales"
	"sales_records/internal/seed"
)

const (
	countFlag      = "count"
	randomSeedFlag = "random-seed"
)

func newSeedCommand(a *app) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		countFlag: &cobraflags.IntFlag{
			Name:  countFlag,
			Value: 1000,
			Usage: "Number of line items to generate",
		},
		batchSizeFlag: &cobraflags.IntFlag{
			Name:  batchSizeFlag,
			Value: 500,
			Usage: "Rows per all-or-nothing batch",
		},
		randomSeedFlag: &cobraflags.IntFlag{
			Name:  randomSeedFlag,
			Value: 0,
			Usage: "Seed for the generator; 0 picks one from the clock",
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert generated sample line items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd, map[string]string{batchSizeFlag: config.KeyImportBatchSize}); err != nil {
				return err
			}
			count, _ := cmd.Flags().GetInt(countFlag)
			randomSeed, _ := cmd.Flags().GetInt(randomSeedFlag)
			if randomSeed == 0 {
				randomSeed = int(time.Now().UnixNano())
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

			rnd := rand.New(rand.NewPCG(uint64(randomSeed), 0))
			ids, err := seed.Run(cmd.Context(), svc, count, a.cfg.Import.BatchSize, rnd)
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d sample line items\n", len(ids))
			return err
		},
	}
	cobraflags.RegisterMap(seedCmd, flags)
	return seedCmd
}
