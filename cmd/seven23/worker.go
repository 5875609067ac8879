package main

import (
	"context"

	"github.com/spf13/cobra"

	"seven23/internal/cli"
	"seven23/internal/worker"
)

func newWorkerCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume TransactionRecorded messages and store them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context(), opts)
		},
	}
}

func runWorker(ctx context.Context, opts *rootOptions) error {
	app, err := cli.Bootstrap(cli.Options{EnvFiles: opts.envFiles, Broker: true})
	if err != nil {
		return err
	}
	defer app.Close()
	if app.Broker == nil {
		return cli.ErrNoBroker
	}

	ctx, cancel := cli.SignalContext(ctx, app.Logger)
	defer cancel()

	app.Logger.Info("Starting seven23 worker", "queue", app.Config.AMQPQueue)
	return worker.NewIngestWorker(app.Transactions, app.Broker).Run(ctx)
}
