package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sales_records/api"
	"sales_records/internal/config"
	"sales_records/internal/importer"
	"sales_records/internal/sales"
)

const addrFlag = "addr"

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		addrFlag: &cobraflags.StringFlag{
			Name:  addrFlag,
			Value: ":8081",
			Usage: "Address the HTTP API listens on",
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sales HTTP API",
		Long: `Serve the HTTP API for inserting and reading sales line items.

With the memory driver the table is created at startup; with postgres or
mysql run "salesctl create-table" first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd, map[string]string{addrFlag: config.KeyServerAddr}); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cobraflags.RegisterMap(serveCmd, flags)
	return serveCmd
}

func (a *app) serve(ctx context.Context) error {
	svc, storage, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()

	if a.cfg.Database.Driver == sales.DriverMemory {
		if err := svc.CreateTable(ctx); err != nil {
			return err
		}
	}

	imp := importer.New(svc,
		importer.WithBatchSize(a.cfg.Import.BatchSize),
		importer.WithDelimiter(a.cfg.DelimiterRune()),
		importer.WithLogger(a.logger),
	)

	r := gin.Default()
	api.InitRoutes(r, svc, imp, a.logger)

	srv := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("sales API listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error trying to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down sales API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
