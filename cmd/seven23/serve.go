package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"seven23/internal/cli"
	"seven23/internal/config"
	"seven23/internal/core"
	apphttp "seven23/internal/http"
	"seven23/internal/log"
	"seven23/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server, and the ingest worker when AMQP is configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	app, err := cli.Bootstrap(cli.Options{EnvFiles: opts.envFiles, Broker: true})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := cli.SignalContext(ctx, app.Logger)
	defer cancel()

	srvOpts, err := serverOptions(app.Config, app.Logger)
	if err != nil {
		return err
	}
	srv := apphttp.NewServer(":"+app.Config.Port, app.Series, app.Transactions, app.Store, srvOpts)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	// Transactions ingested from the broker change the data too.
	app.Transactions.OnChange(srv.InvalidateRenders)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("Starting seven23 server", "port", app.Config.Port, "amqp", app.Broker != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Server shutdown error", log.FieldError, err)
			return err
		}
		return nil
	})
	if app.Broker != nil {
		w := worker.NewIngestWorker(app.Transactions, app.Broker)
		g.Go(func() error { return w.Run(gctx) })
	}

	err = g.Wait()
	app.Logger.Info("Server stopped gracefully")
	return err
}

func serverOptions(cfg *config.Config, logger *log.Logger) (apphttp.Options, error) {
	cur, err := core.LookupCurrency(cfg.Currency)
	if err != nil {
		return apphttp.Options{}, err
	}
	return apphttp.Options{
		Currency: cur,
		Theme:    cfg.Theme(),
		Color:    cfg.CalendarColor,
		Quantile: cfg.CalendarQuantile,
		Calendar: apphttp.CalendarParams{
			Width:         cfg.CalendarWidth,
			MonthsPerLine: cfg.CalendarMonthsPerLine,
			Weekday:       cfg.WeekConvention(),
		},
		CacheSize: cfg.RenderCacheSize,
		CacheTTL:  cfg.RenderCacheTTL,
		Logger:    logger,
	}, nil
}
