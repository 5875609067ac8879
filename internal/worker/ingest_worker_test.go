package worker

import (
	"context"
	"errors"
	"testing"

	"seven23/internal/amqp"
	"seven23/internal/core"
)

type fakeIngester struct {
	got []core.Transaction
	err error
}

func (f *fakeIngester) Ingest(_ context.Context, t core.Transaction) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.got = append(f.got, t)
	return true, nil
}

// fakeConsumer delivers its messages, then blocks until cancelled.
type fakeConsumer struct {
	msgs    []*amqp.TransactionRecorded
	results []error
}

func (f *fakeConsumer) ConsumeTransactions(ctx context.Context, handler func(context.Context, *amqp.TransactionRecorded) error) error {
	for _, m := range f.msgs {
		f.results = append(f.results, handler(ctx, m))
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestIngestWorker_Run(t *testing.T) {
	ing := &fakeIngester{}
	cons := &fakeConsumer{msgs: []*amqp.TransactionRecorded{
		{Ref: "a", Day: "2026-10-19", Description: "coffee", AmountCents: -350},
		{Ref: "b", Day: "not-a-day", Description: "broken", AmountCents: -1},
		{Ref: "c", Day: "2026-10-18", Description: "salary", AmountCents: 250000},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewIngestWorker(ing, cons).Run(ctx) }()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run should stop cleanly on cancel, got %v", err)
	}

	if len(ing.got) != 2 || ing.got[0].Ref != "a" || ing.got[1].Ref != "c" {
		t.Fatalf("unexpected ingested transactions %+v", ing.got)
	}
	for i, err := range cons.results {
		if err != nil {
			t.Errorf("message %d should be acknowledged, got %v", i, err)
		}
	}
}

func TestIngestWorker_HandleMessageRequeuesStoreErrors(t *testing.T) {
	w := NewIngestWorker(&fakeIngester{err: errors.New("database is locked")}, nil)
	err := w.HandleMessage(context.Background(), &amqp.TransactionRecorded{
		Ref: "a", Day: "2026-10-19", Description: "x", AmountCents: 1,
	})
	if err == nil {
		t.Fatal("store errors must be returned so the message is requeued")
	}
}
