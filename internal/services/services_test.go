package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"seven23/internal/amqp"
	"seven23/internal/core"
)

// memoryStore keeps transactions in a slice, deduplicated on ref.
type memoryStore struct {
	mu  sync.Mutex
	txs []core.Transaction
	err error

	dailyCalls int
}

func (m *memoryStore) Insert(_ context.Context, t core.Transaction) (core.Transaction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return core.Transaction{}, false, m.err
	}
	for _, x := range m.txs {
		if x.Ref == t.Ref {
			return x, false, nil
		}
	}
	t.ID = int64(len(m.txs) + 1)
	m.txs = append(m.txs, t)
	return t, true, nil
}

func (m *memoryStore) ListByDay(_ context.Context, d core.Date) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Transaction
	for _, x := range m.txs {
		if x.Date.Equal(d.Time) {
			out = append(out, x)
		}
	}
	return out, nil
}

func (m *memoryStore) DailyTotals(_ context.Context, from, to core.Date) ([]core.DailyTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyCalls++
	byDay := map[string]*core.DailyTotal{}
	for _, x := range m.txs {
		if x.Date.Before(from.Time) || x.Date.After(to.Time) {
			continue
		}
		k := x.Date.String()
		if byDay[k] == nil {
			byDay[k] = &core.DailyTotal{Date: x.Date}
		}
		byDay[k].Total = byDay[k].Total.Add(x.Amount)
		byDay[k].Count++
	}
	var out []core.DailyTotal
	for _, v := range byDay {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (m *memoryStore) Bounds(context.Context) (core.Date, core.Date, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.txs) == 0 {
		return core.Date{}, core.Date{}, false, nil
	}
	first, last := m.txs[0].Date, m.txs[0].Date
	for _, x := range m.txs {
		if x.Date.Before(first.Time) {
			first = x.Date
		}
		if x.Date.After(last.Time) {
			last = x.Date
		}
	}
	return first, last, true, nil
}

func (m *memoryStore) Version(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.txs)), nil
}

type recordingPublisher struct {
	msgs []*amqp.TransactionRecorded
	err  error
}

func (p *recordingPublisher) PublishTransaction(_ context.Context, msg *amqp.TransactionRecorded) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func newTx(y, m, d int, cents int64) core.Transaction {
	return core.Transaction{Date: core.NewDate(y, m, d), Description: "test", Amount: core.Money{Cents: cents}}
}

func TestTransactionService_Record(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)
	changes := 0
	svc.OnChange(func() { changes++ })

	stored, err := svc.Record(ctx, newTx(2026, 10, 19, -1200))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if stored.Ref == "" || stored.ID == 0 {
		t.Fatalf("expected ref and id, got %+v", stored)
	}
	if len(pub.msgs) != 1 || pub.msgs[0].Ref != stored.Ref || pub.msgs[0].AmountCents != -1200 {
		t.Fatalf("unexpected published messages %+v", pub.msgs)
	}
	if changes != 1 {
		t.Fatalf("expected one change notification, got %d", changes)
	}

	// Replaying the same ref stores and publishes nothing new.
	again := newTx(2026, 10, 19, -1200)
	again.Ref = stored.Ref
	if _, err := svc.Record(ctx, again); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 1 || changes != 1 {
		t.Fatalf("duplicate must be ignored: msgs=%d changes=%d", len(pub.msgs), changes)
	}
}

func TestTransactionService_RecordSurvivesPublishFailure(t *testing.T) {
	store := &memoryStore{}
	svc := NewTransactionService(store, &recordingPublisher{err: errors.New("broker down")})

	if _, err := svc.Record(context.Background(), newTx(2026, 10, 19, -1)); err != nil {
		t.Fatalf("publish failure must not fail Record: %v", err)
	}
	if len(store.txs) != 1 {
		t.Fatal("transaction should be stored")
	}

	svc = NewTransactionService(store, nil)
	if _, err := svc.Record(context.Background(), newTx(2026, 10, 20, -1)); err != nil {
		t.Fatalf("nil publisher: %v", err)
	}
}

func TestTransactionService_RecordErrors(t *testing.T) {
	svc := NewTransactionService(&memoryStore{}, nil)
	if _, err := svc.Record(context.Background(), newTx(2026, 10, 19, 0)); !errors.Is(err, core.ErrZeroAmount) {
		t.Fatalf("expected ErrZeroAmount, got %v", err)
	}

	svc = NewTransactionService(&memoryStore{err: errors.New("disk full")}, nil)
	if _, err := svc.Record(context.Background(), newTx(2026, 10, 19, 5)); err == nil {
		t.Fatal("expected store error")
	}
}

func TestTransactionService_IngestAndDayReport(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)

	for i, cents := range []int64{-1000, -250, 4000} {
		tx := newTx(2026, 10, 19, cents)
		tx.Ref = string(rune('a' + i))
		created, err := svc.Ingest(ctx, tx)
		if err != nil || !created {
			t.Fatalf("Ingest %d: created=%v err=%v", i, created, err)
		}
	}
	if len(pub.msgs) != 0 {
		t.Fatal("ingested transactions must not be republished")
	}

	report, err := svc.DayReport(ctx, core.NewDate(2026, 10, 19))
	if err != nil {
		t.Fatal(err)
	}
	if report.Total.Cents != 2750 || len(report.Transactions) != 3 {
		t.Fatalf("unexpected report %+v", report)
	}

	if _, err := svc.DayReport(ctx, core.Date{}); err == nil {
		t.Fatal("expected error for zero date")
	}
}

func TestSeriesService_ZeroFills(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	svc := NewTransactionService(store, nil)
	for _, tx := range []core.Transaction{newTx(2026, 10, 1, -500), newTx(2026, 10, 3, -150), newTx(2026, 10, 3, 50)} {
		if _, err := svc.Record(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}

	series, err := NewSeriesService(store).Series(ctx, core.NewDate(2026, 9, 30), core.NewDate(2026, 10, 4))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, -5, 0, -1, 0}
	if len(series) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(series))
	}
	for i, w := range want {
		if series[i].Amount != w {
			t.Errorf("day %d: got %v, want %v", i, series[i].Amount, w)
		}
	}
	if !series[0].Date.Equal(time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected first date %v", series[0].Date)
	}

	if _, err := NewSeriesService(store).Series(ctx, core.NewDate(2026, 10, 4), core.NewDate(2026, 10, 1)); err == nil {
		t.Fatal("expected error for inverted range")
	}
	calls := store.dailyCalls
	_, err = NewSeriesService(store).Series(ctx, core.NewDate(1, 1, 1), core.NewDate(9999, 12, 31))
	if !errors.Is(err, core.ErrRangeTooLong) {
		t.Fatalf("expected ErrRangeTooLong, got %v", err)
	}
	if store.dailyCalls != calls {
		t.Errorf("store queried for a rejected range")
	}
}

func TestSeriesService_Recent(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	series := NewSeriesService(store)
	series.now = func() time.Time { return time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC) }

	empty, err := series.Recent(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty store: %v %v", empty, err)
	}

	svc := NewTransactionService(store, nil)
	if _, err := svc.Record(ctx, newTx(2026, 10, 10, -1)); err != nil {
		t.Fatal(err)
	}
	recent, err := series.Recent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 10 {
		t.Fatalf("expected 10 days from the first transaction, got %d", len(recent))
	}

	if _, err := svc.Record(ctx, newTx(2020, 1, 1, -1)); err != nil {
		t.Fatal(err)
	}
	recent, err = series.Recent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != DefaultWindowDays {
		t.Fatalf("expected a full window, got %d", len(recent))
	}
	if got := recent[len(recent)-1].Date.Format(time.DateOnly); got != "2026-10-19" {
		t.Fatalf("window must end today, got %s", got)
	}
}
