package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"moneytracker/internal/core"
	"moneytracker/internal/ledger"
	"moneytracker/internal/ledger/memory"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "ledger.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustMoney(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	if err != nil {
		t.Fatalf("parse money %q: %v", s, err)
	}
	return m
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	v1, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	v2, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if v1 != 1 || v2 != 1 {
		t.Fatalf("expected version 1 twice, got %d and %d", v1, v2)
	}
}

func TestSQLiteRepository_SameDateOrderWithSubSecondTimestamps(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	mem := memory.New()

	uid, err := repo.CreateUser(ctx, core.User{Email: "bo@example.com", Name: "Bo"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	mem.AddUser(core.User{ID: uid, Email: "bo@example.com", Name: "Bo"})

	// RFC 3339 with trimmed fractions would sort these as C D A B
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	offsets := []time.Duration{0, 500 * time.Millisecond, 1100 * time.Millisecond, 1150 * time.Millisecond}
	for i, off := range offsets {
		m := core.Movement{
			UserID:    uid,
			Type:      core.Expense,
			Amount:    mustMoney(t, "1"),
			Category:  string(rune('A' + i)),
			Date:      core.NewDate(2024, 3, 15),
			CreatedAt: base.Add(off),
		}
		if _, err := repo.AddMovement(ctx, m); err != nil {
			t.Fatalf("add movement %d: %v", i, err)
		}
		if _, err := mem.AddMovement(m); err != nil {
			t.Fatalf("memory add movement %d: %v", i, err)
		}
	}

	order := func(ms []core.Movement) string {
		var b []byte
		for _, m := range ms {
			b = append(b, m.Category...)
		}
		return string(b)
	}

	day := core.DateRange{Start: core.NewDate(2024, 3, 15), End: core.NewDate(2024, 3, 15)}
	got, err := repo.FindMovements(ctx, uid, ledger.RangeFilter(day))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if order(got) != "DCBA" {
		t.Fatalf("sqlite order = %s, want DCBA", order(got))
	}
	if !got[0].CreatedAt.Equal(base.Add(1150 * time.Millisecond)) {
		t.Errorf("created_at round trip: got %v", got[0].CreatedAt)
	}

	fromMemory, err := mem.FindMovements(ctx, uid, ledger.RangeFilter(day))
	if err != nil {
		t.Fatalf("memory find: %v", err)
	}
	if order(fromMemory) != order(got) {
		t.Fatalf("memory order %s differs from sqlite order %s", order(fromMemory), order(got))
	}
}

func TestSQLiteRepository_ReportQueries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	uid, err := repo.CreateUser(ctx, core.User{Email: "ana@example.com", Name: "Ana", Currency: "USD"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	base := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	seed := []core.Movement{
		{Type: core.Income, Amount: mustMoney(t, "1000"), Category: "Salary", Date: core.NewDate(2024, 3, 1)},
		{Type: core.Expense, Amount: mustMoney(t, "250.50"), Category: "Rent", Date: core.NewDate(2024, 3, 15)},
		{Type: core.Expense, Amount: mustMoney(t, "49.50"), Category: "Food", Date: core.NewDate(2024, 3, 15)},
		{Type: core.Expense, Amount: mustMoney(t, "10"), Category: "Outside", Date: core.NewDate(2024, 4, 1)},
	}
	for i, m := range seed {
		m.UserID = uid
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := repo.AddMovement(ctx, m); err != nil {
			t.Fatalf("add movement %d: %v", i, err)
		}
	}

	march := core.DateRange{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}

	t.Run("find orders by date then creation descending", func(t *testing.T) {
		got, err := repo.FindMovements(ctx, uid, ledger.RangeFilter(march))
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		want := []string{"Food", "Rent", "Salary"}
		if len(got) != len(want) {
			t.Fatalf("expected %d movements, got %d", len(want), len(got))
		}
		for i, c := range want {
			if got[i].Category != c {
				t.Errorf("row %d: expected %s, got %s", i, c, got[i].Category)
			}
		}
		if got[1].Amount.Fixed() != "250.50" {
			t.Errorf("amount round trip: got %s", got[1].Amount.Fixed())
		}
	})

	t.Run("find by type", func(t *testing.T) {
		got, err := repo.FindMovements(ctx, uid, ledger.MovementFilter{Type: core.Income})
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got) != 1 || got[0].Category != "Salary" {
			t.Fatalf("unexpected result %+v", got)
		}
	})

	t.Run("summarize", func(t *testing.T) {
		aggs, err := repo.Summarize(ctx, uid, march)
		if err != nil {
			t.Fatalf("summarize: %v", err)
		}
		s := core.NewSummary(aggs)
		if s.Income.Total.Fixed() != "1000.00" || s.Income.Count != 1 {
			t.Errorf("income: %s/%d", s.Income.Total.Fixed(), s.Income.Count)
		}
		if s.Expenses.Total.Fixed() != "300.00" || s.Expenses.Count != 2 {
			t.Errorf("expenses: %s/%d", s.Expenses.Total.Fixed(), s.Expenses.Count)
		}
		if s.Balance.Fixed() != "700.00" {
			t.Errorf("balance: %s", s.Balance.Fixed())
		}
	})

	t.Run("other users see nothing", func(t *testing.T) {
		got, err := repo.FindMovements(ctx, uid+1, ledger.RangeFilter(march))
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no movements, got %d", len(got))
		}
	})
}

func TestSQLiteRepository_Users(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a, _ := repo.CreateUser(ctx, core.User{Email: "a@example.com", Name: "A"})
	b, _ := repo.CreateUser(ctx, core.User{Email: "b@example.com"})

	ids, err := repo.ListUserIDs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Fatalf("unexpected ids %v", ids)
	}

	u, err := repo.GetUser(ctx, a)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Email != "a@example.com" || u.Currency != "EUR" {
		t.Fatalf("unexpected user %+v", u)
	}

	if _, err := repo.GetUser(ctx, 999); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSQLiteRepository_ClosedDatabaseIsUnavailable(t *testing.T) {
	repo := newTestRepo(t)
	repo.Close()

	_, err := repo.ListUserIDs(context.Background())
	if !errors.Is(err, core.ErrLedgerUnavailable) {
		t.Fatalf("expected ErrLedgerUnavailable, got %v", err)
	}
}
