// Package cli provides the start-up steps shared by the seven23 commands:
// environment, logging, storage, broker and signal handling.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"seven23/internal/amqp"
	"seven23/internal/config"
	"seven23/internal/log"
	"seven23/internal/services"
	"seven23/internal/storage"
)

// Options select what Bootstrap opens.
type Options struct {
	// EnvFiles are loaded before the configuration is read. Missing files
	// are skipped.
	EnvFiles []string
	// LogOutput defaults to stdout.
	LogOutput io.Writer
	// Broker connects to AMQP when AMQP_URL is set.
	Broker bool
}

// App is the wired application shared by every command.
type App struct {
	Config       *config.Config
	Logger       *log.Logger
	Store        *storage.SQLiteRepository
	Broker       *amqp.Client
	Transactions *services.TransactionService
	Series       *services.SeriesService
}

// Bootstrap loads the configuration and opens the store and, when asked
// for and configured, the broker.
func Bootstrap(opts Options) (*App, error) {
	if err := config.LoadDotEnv(opts.EnvFiles...); err != nil {
		return nil, err
	}

	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}

	logger, err := SetupLogger(cfg.LogLevel, opts.LogOutput)
	if err != nil {
		return nil, err
	}

	store, err := InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, Store: store}
	var publisher services.Publisher
	if opts.Broker {
		broker, err := InitAMQP(logger, cfg)
		if err != nil {
			store.Close()
			return nil, err
		}
		if broker != nil {
			app.Broker = broker
			publisher = broker
		}
	}

	app.Transactions = services.NewTransactionService(store, publisher)
	app.Series = services.NewSeriesService(store)
	return app, nil
}

// Close releases the broker and the store.
func (a *App) Close() {
	if a.Broker != nil {
		if err := a.Broker.Close(); err != nil {
			a.Logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("Failed to close SQLite repository", log.FieldError, err)
	}
}

// SetupLogger builds the application logger at the given level and makes
// it the slog default.
func SetupLogger(level string, out io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	cfg.Output = out
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger, nil
}

func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func InitSQLite(logger *log.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Info("SQLite repository ready", "path", dbPath)
	return repo, nil
}

// InitAMQP connects to the broker. It returns nil without error when no
// AMQP_URL is configured: transactions are then only stored locally.
func InitAMQP(logger *log.Logger, cfg *config.Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return nil, fmt.Errorf("connect broker: %w", err)
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, nil
}

// ErrNoBroker is returned by commands that cannot run without AMQP.
var ErrNoBroker = errors.New("AMQP_URL is required")

// SignalContext returns a context cancelled on SIGINT or SIGTERM, or when
// cancel is called.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
