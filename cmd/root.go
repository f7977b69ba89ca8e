// Package cmd implements the salesctl command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"sales_records/internal/config"
	"sales_records/internal/sales"
)

const (
	configFlag = "config"
	driverFlag = "driver"
	dsnFlag    = "dsn"
)

// app carries state shared by every subcommand.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *zap.Logger
}

// NewRootCommand builds salesctl with all subcommands attached.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "salesctl",
		Short: "Manage the sales line item table",
		Long: `salesctl creates the sales table, loads line items into it from CSV files
or generated sample data, exports them back to CSV, and serves an HTTP API
for inserting and reading them.

Settings come from flags, SALES_* environment variables and an optional
config file (--config).`,
		SilenceUsage: true,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, configFlag, "", "Path to a YAML, TOML or JSON config file")
	flags.String(driverFlag, "", "Storage driver (memory, postgres, mysql)")
	flags.String(dsnFlag, "", "Database connection string")
	mustBind(a.v, config.KeyDatabaseDriver, flags.Lookup(driverFlag))
	mustBind(a.v, config.KeyDatabaseDSN, flags.Lookup(dsnFlag))

	rootCmd.AddCommand(
		newServeCommand(a),
		newCreateTableCommand(a),
		newImportCommand(a),
		newExportCommand(a),
		newSeedCommand(a),
	)
	return rootCmd
}

// setup binds the running command's flags to their config keys, then loads
// the configuration and the logger. Binding happens here rather than at
// construction because several commands share a key.
func (a *app) setup(cmd *cobra.Command, bindings map[string]string) error {
	for flagName, key := range bindings {
		f := cmd.Flags().Lookup(flagName)
		if f == nil {
			return fmt.Errorf("flag --%s is not registered", flagName)
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", flagName, err)
		}
	}

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.logger = logger.With(zap.String("driver", cfg.Database.Driver))
	return nil
}

// openService opens the configured storage. The caller closes the returned
// storage.
func (a *app) openService(ctx context.Context) (*sales.Service, sales.Storage, error) {
	storage, err := sales.OpenStorage(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	svc := sales.NewService(storage, a.logger, sales.WithDateLayouts(a.cfg.Import.DateLayouts...))
	return svc, storage, nil
}

func mustBind(v *viper.Viper, key string, f *pflag.Flag) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Errorf("bind flag for %s: %w", key, err))
	}
}
