package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type Transaction struct {
	ID          int64
	Ref         string
	Day         string
	Description string
	AmountCents int64
	Category    string
}

const createTransaction = `INSERT OR IGNORE INTO transactions (ref, day, description, amount_cents, category)
VALUES (?, ?, ?, ?, ?)`

type CreateTransactionParams struct {
	Ref         string
	Day         string
	Description string
	AmountCents int64
	Category    string
}

// CreateTransaction reports the new row id, or 0 when the ref already exists.
func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createTransaction,
		arg.Ref, arg.Day, arg.Description, arg.AmountCents, arg.Category)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return 0, err
	}
	return res.LastInsertId()
}

const getTransactionByRef = `SELECT id, ref, day, description, amount_cents, category
FROM transactions WHERE ref = ?`

func (q *Queries) GetTransactionByRef(ctx context.Context, ref string) (Transaction, error) {
	var t Transaction
	err := q.db.QueryRowContext(ctx, getTransactionByRef, ref).Scan(
		&t.ID, &t.Ref, &t.Day, &t.Description, &t.AmountCents, &t.Category)
	return t, err
}

const listTransactionsByDay = `SELECT id, ref, day, description, amount_cents, category
FROM transactions WHERE day = ? ORDER BY id`

func (q *Queries) ListTransactionsByDay(ctx context.Context, day string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByDay, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Ref, &t.Day, &t.Description, &t.AmountCents, &t.Category); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const getDailyTotals = `SELECT day, SUM(amount_cents), COUNT(*)
FROM transactions WHERE day >= ? AND day <= ?
GROUP BY day ORDER BY day`

type GetDailyTotalsRow struct {
	Day        string
	TotalCents int64
	Count      int64
}

func (q *Queries) GetDailyTotals(ctx context.Context, from, to string) ([]GetDailyTotalsRow, error) {
	rows, err := q.db.QueryContext(ctx, getDailyTotals, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetDailyTotalsRow
	for rows.Next() {
		var r GetDailyTotalsRow
		if err := rows.Scan(&r.Day, &r.TotalCents, &r.Count); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getBounds = `SELECT COALESCE(MIN(day), ''), COALESCE(MAX(day), '') FROM transactions`

func (q *Queries) GetBounds(ctx context.Context) (first, last string, err error) {
	err = q.db.QueryRowContext(ctx, getBounds).Scan(&first, &last)
	return first, last, err
}

const getVersion = `SELECT COALESCE(MAX(id), 0) FROM transactions`

func (q *Queries) GetVersion(ctx context.Context) (int64, error) {
	var v int64
	err := q.db.QueryRowContext(ctx, getVersion).Scan(&v)
	return v, err
}
