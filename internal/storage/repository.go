package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"seven23/internal/core"

	_ "modernc.org/sqlite"
)

var ErrMissingRef = errors.New("transaction ref is required")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := Migrate(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection, for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert stores a transaction. A transaction whose ref is already stored is
// not inserted again: the stored row is returned with created=false.
func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (stored core.Transaction, created bool, err error) {
	if t.Ref == "" {
		return core.Transaction{}, false, ErrMissingRef
	}
	id, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Ref:         t.Ref,
		Day:         t.Date.String(),
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
	})
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("create transaction: %w", err)
	}

	if id == 0 {
		existing, err := r.queries.GetTransactionByRef(ctx, t.Ref)
		if err != nil {
			return core.Transaction{}, false, fmt.Errorf("get transaction by ref: %w", err)
		}
		slog.DebugContext(ctx, "Duplicate transaction ignored", "ref", t.Ref, "id", existing.ID)
		stored, err := toCore(existing)
		return stored, false, err
	}

	t.ID = id
	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"ref", t.Ref,
		"day", t.Date.String(),
		"amount_cents", t.Amount.Cents)
	return t, true, nil
}

// ListByDay returns the transactions of one day in insertion order.
func (r *SQLiteRepository) ListByDay(ctx context.Context, d core.Date) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByDay(ctx, d.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions by day: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// DailyTotals returns the net amount of every day in [from, to] that has at
// least one transaction, oldest first.
func (r *SQLiteRepository) DailyTotals(ctx context.Context, from, to core.Date) ([]core.DailyTotal, error) {
	rows, err := r.queries.GetDailyTotals(ctx, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("get daily totals: %w", err)
	}
	out := make([]core.DailyTotal, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Day)
		if err != nil {
			return nil, fmt.Errorf("parse stored day %q: %w", row.Day, err)
		}
		out = append(out, core.DailyTotal{Date: d, Total: core.Money{Cents: row.TotalCents}, Count: int(row.Count)})
	}
	return out, nil
}

// Bounds returns the first and last day holding a transaction. ok is false
// when the store is empty.
func (r *SQLiteRepository) Bounds(ctx context.Context) (first, last core.Date, ok bool, err error) {
	f, l, err := r.queries.GetBounds(ctx)
	if err != nil {
		return core.Date{}, core.Date{}, false, fmt.Errorf("get bounds: %w", err)
	}
	if f == "" {
		return core.Date{}, core.Date{}, false, nil
	}
	if first, err = core.ParseDate(f); err != nil {
		return core.Date{}, core.Date{}, false, err
	}
	if last, err = core.ParseDate(l); err != nil {
		return core.Date{}, core.Date{}, false, err
	}
	return first, last, true, nil
}

// Version changes whenever a transaction is stored. Render caches key on it.
func (r *SQLiteRepository) Version(ctx context.Context) (int64, error) {
	v, err := r.queries.GetVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

func toCore(row Transaction) (core.Transaction, error) {
	d, err := core.ParseDate(row.Day)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored day %q: %w", row.Day, err)
	}
	return core.Transaction{
		ID:          row.ID,
		Ref:         row.Ref,
		Date:        d,
		Description: row.Description,
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    row.Category,
	}, nil
}
