package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"seven23/internal/amqp"
	"seven23/internal/core"
)

type TransactionStore interface {
	Insert(ctx context.Context, t core.Transaction) (core.Transaction, bool, error)
	ListByDay(ctx context.Context, d core.Date) ([]core.Transaction, error)
}

type Publisher interface {
	PublishTransaction(ctx context.Context, msg *amqp.TransactionRecorded) error
}

// TransactionService stores transactions locally first and announces them
// on the broker afterwards.
type TransactionService struct {
	store     TransactionStore
	publisher Publisher
	onChange  []func()
}

// NewTransactionService wires the store and an optional publisher. With a
// nil publisher transactions are only stored.
func NewTransactionService(store TransactionStore, publisher Publisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

// OnChange registers a hook run after a new transaction is stored.
func (s *TransactionService) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

// Record validates and stores a transaction, assigning a ref when missing.
// A failed publish is logged and does not fail the call: the transaction is
// already safe in the store.
func (s *TransactionService) Record(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.Ref == "" {
		t.Ref = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	stored, created, err := s.store.Insert(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	if !created {
		return stored, nil
	}

	for _, fn := range s.onChange {
		fn()
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping transaction message", "ref", stored.Ref)
		return stored, nil
	}
	if err := s.publisher.PublishTransaction(ctx, amqp.NewTransactionRecorded(stored)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction message",
			"ref", stored.Ref, "error", err)
	}
	return stored, nil
}

// Ingest stores a transaction received from the broker without
// republishing it. It reports whether the transaction was new.
func (s *TransactionService) Ingest(ctx context.Context, t core.Transaction) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	_, created, err := s.store.Insert(ctx, t)
	if err != nil {
		return false, fmt.Errorf("save transaction: %w", err)
	}
	if created {
		for _, fn := range s.onChange {
			fn()
		}
	}
	return created, nil
}

// DayReport lists and totals the transactions of one day.
func (s *TransactionService) DayReport(ctx context.Context, d core.Date) (core.DaySummary, error) {
	if err := d.Validate(); err != nil {
		return core.DaySummary{}, err
	}
	txs, err := s.store.ListByDay(ctx, d)
	if err != nil {
		return core.DaySummary{}, fmt.Errorf("list day %s: %w", d, err)
	}
	return core.Summarize(d, txs), nil
}
