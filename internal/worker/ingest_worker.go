package worker

import (
	"context"
	"fmt"
	"log/slog"

	"seven23/internal/amqp"
	"seven23/internal/core"
)

type Ingester interface {
	Ingest(ctx context.Context, t core.Transaction) (bool, error)
}

type Consumer interface {
	ConsumeTransactions(ctx context.Context, handler func(context.Context, *amqp.TransactionRecorded) error) error
}

// IngestWorker persists TransactionRecorded messages published by other
// producers. Duplicates are acknowledged without effect.
type IngestWorker struct {
	ingester Ingester
	consumer Consumer
}

func NewIngestWorker(ingester Ingester, consumer Consumer) *IngestWorker {
	return &IngestWorker{ingester: ingester, consumer: consumer}
}

// Run consumes until ctx is cancelled.
func (w *IngestWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Ingest worker started")
	err := w.consumer.ConsumeTransactions(ctx, w.HandleMessage)
	if ctx.Err() != nil {
		slog.InfoContext(ctx, "Ingest worker stopped")
		return nil
	}
	return err
}

// HandleMessage stores one message. Malformed messages are logged and
// acknowledged: requeueing them would only loop.
func (w *IngestWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionRecorded) error {
	t, err := msg.Transaction()
	if err != nil {
		slog.WarnContext(ctx, "Dropping invalid transaction message",
			"ref", msg.Ref,
			"error", err)
		return nil
	}

	created, err := w.ingester.Ingest(ctx, t)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", msg.Ref, err)
	}

	slog.InfoContext(ctx, "Processed transaction message",
		"ref", msg.Ref,
		"day", msg.Day,
		"amount_cents", msg.AmountCents,
		"created", created)
	return nil
}
