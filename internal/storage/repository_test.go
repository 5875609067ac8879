package storage

import (
	"context"
	"path/filepath"
	"testing"

	"seven23/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "seven23.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func tx(ref string, y, m, d int, cents int64) core.Transaction {
	return core.Transaction{
		Ref:         ref,
		Date:        core.NewDate(y, m, d),
		Description: "tx " + ref,
		Amount:      core.Money{Cents: cents},
		Category:    "misc",
	}
}

func TestInsertIsIdempotentOnRef(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first, created, err := repo.Insert(ctx, tx("a", 2026, 10, 19, -1250))
	if err != nil || !created || first.ID == 0 {
		t.Fatalf("first insert: %+v created=%v err=%v", first, created, err)
	}

	again, created, err := repo.Insert(ctx, tx("a", 2026, 10, 18, -9999))
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if created {
		t.Fatal("duplicate ref must not be inserted")
	}
	if again.ID != first.ID || again.Amount.Cents != -1250 || again.Date.String() != "2026-10-19" {
		t.Fatalf("expected stored row back, got %+v", again)
	}

	if _, _, err := repo.Insert(ctx, tx("", 2026, 10, 19, 1)); err != ErrMissingRef {
		t.Fatalf("expected ErrMissingRef, got %v", err)
	}
}

func TestDailyTotalsAndListByDay(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, x := range []core.Transaction{
		tx("1", 2026, 10, 17, -500),
		tx("2", 2026, 10, 19, -1000),
		tx("3", 2026, 10, 19, 250),
		tx("4", 2026, 11, 2, -42),
	} {
		if _, _, err := repo.Insert(ctx, x); err != nil {
			t.Fatalf("insert %s: %v", x.Ref, err)
		}
	}

	totals, err := repo.DailyTotals(ctx, core.NewDate(2026, 10, 1), core.NewDate(2026, 10, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 days, got %d", len(totals))
	}
	if totals[0].Date.String() != "2026-10-17" || totals[0].Total.Cents != -500 {
		t.Errorf("unexpected first total %+v", totals[0])
	}
	if totals[1].Total.Cents != -750 || totals[1].Count != 2 {
		t.Errorf("unexpected second total %+v", totals[1])
	}

	day, err := repo.ListByDay(ctx, core.NewDate(2026, 10, 19))
	if err != nil {
		t.Fatal(err)
	}
	if len(day) != 2 || day[0].Ref != "2" || day[1].Ref != "3" {
		t.Fatalf("unexpected day listing %+v", day)
	}

	first, last, ok, err := repo.Bounds(ctx)
	if err != nil || !ok {
		t.Fatalf("bounds: ok=%v err=%v", ok, err)
	}
	if first.String() != "2026-10-17" || last.String() != "2026-11-02" {
		t.Errorf("unexpected bounds %s..%s", first, last)
	}
}

func TestVersionChangesOnInsert(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	v0, err := repo.Version(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok, _ := repo.Bounds(ctx); ok {
		t.Fatal("empty store must have no bounds")
	}

	if _, _, err := repo.Insert(ctx, tx("x", 2026, 1, 1, 100)); err != nil {
		t.Fatal(err)
	}
	v1, _ := repo.Version(ctx)
	if v1 == v0 {
		t.Fatal("version must change after insert")
	}

	if _, _, err := repo.Insert(ctx, tx("x", 2026, 1, 1, 100)); err != nil {
		t.Fatal(err)
	}
	if v2, _ := repo.Version(ctx); v2 != v1 {
		t.Fatal("duplicate insert must not change the version")
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seven23.db")
	for run := 1; run <= 2; run++ {
		version, err := Migrate(path)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if version != 1 {
			t.Errorf("run %d: schema version %d, want 1", run, version)
		}
	}
}
