package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"moneytracker/internal/core"
	"moneytracker/internal/ledger"
)

func mustAdd(t *testing.T, s *Store, m core.Movement) int64 {
	t.Helper()
	id, err := s.AddMovement(m)
	if err != nil {
		t.Fatalf("add movement: %v", err)
	}
	return id
}

func TestFindMovementsOrderAndFilter(t *testing.T) {
	s := New()
	s.AddUser(core.User{ID: 1, Email: "a@example.com", Name: "A"})

	first := mustAdd(t, s, core.Movement{UserID: 1, Type: core.Expense, Amount: core.MoneyFromCents(100), Category: "x", Date: core.NewDate(2024, 3, 15)})
	older := mustAdd(t, s, core.Movement{UserID: 1, Type: core.Income, Amount: core.MoneyFromCents(100), Category: "x", Date: core.NewDate(2024, 3, 1)})
	second := mustAdd(t, s, core.Movement{UserID: 1, Type: core.Expense, Amount: core.MoneyFromCents(200), Category: "y", Date: core.NewDate(2024, 3, 15)})
	mustAdd(t, s, core.Movement{UserID: 2, Type: core.Expense, Amount: core.MoneyFromCents(200), Category: "y", Date: core.NewDate(2024, 3, 15)})
	mustAdd(t, s, core.Movement{UserID: 1, Type: core.Expense, Amount: core.MoneyFromCents(200), Category: "y", Date: core.NewDate(2024, 4, 1)})

	got, err := s.FindMovements(context.Background(), 1, ledger.MovementFilter{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want := []int64{second, first, older}
	if len(got) != len(want) {
		t.Fatalf("expected %d movements, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: want id %d, got %d", i, id, got[i].ID)
		}
	}

	incomes, _ := s.FindMovements(context.Background(), 1, ledger.MovementFilter{Type: core.Income})
	if len(incomes) != 1 || incomes[0].ID != older {
		t.Fatalf("type filter: %+v", incomes)
	}
}

func TestSummarizeOnlyPresentTypes(t *testing.T) {
	s := New()
	mustAdd(t, s, core.Movement{UserID: 1, Type: core.Expense, Amount: core.MoneyFromCents(25050), Category: "x", Date: core.NewDate(2024, 3, 15)})
	mustAdd(t, s, core.Movement{UserID: 1, Type: core.Expense, Amount: core.MoneyFromCents(4950), Category: "x", Date: core.NewDate(2024, 3, 15)})

	aggs, err := s.Summarize(context.Background(), 1, core.DateRange{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Type != core.Expense || aggs[0].Count != 2 || aggs[0].Total.Fixed() != "300.00" {
		t.Fatalf("unexpected aggregates: %+v", aggs)
	}
}

func TestUsers(t *testing.T) {
	s := New()
	s.AddUser(core.User{ID: 7, Email: "x@example.com"})
	s.AddUser(core.User{ID: 3, Email: "y@example.com"})

	ids, _ := s.ListUserIDs(context.Background())
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 3 {
		t.Fatalf("ids = %v", ids)
	}
	if _, err := s.GetUser(context.Background(), 99); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	s.RemoveUser(7)
	ids, _ = s.ListUserIDs(context.Background())
	if len(ids) != 1 || ids[0] != 3 {
		t.Fatalf("ids after remove = %v", ids)
	}
}

func TestAddMovementRejectsInvalid(t *testing.T) {
	s := New()
	if _, err := s.AddMovement(core.Movement{UserID: 1, Type: core.Income, Category: "x", Date: core.NewDate(2024, 1, 1)}); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing file should yield empty store: %v", err)
	}
	if ids, _ := s.ListUserIDs(context.Background()); len(ids) != 0 {
		t.Fatalf("expected empty store")
	}

	path := filepath.Join(dir, "seed.json")
	content := `{
  "users": [{"id": 1, "email": "ana@example.com", "name": "Ana", "currency": "EUR"}],
  "movements": [
    {"userId": 1, "type": "income", "amount": 1000, "category": "Salary", "date": "2024-03-01"},
    {"userId": 1, "type": "expense", "amount": "250.50", "category": "Rent", "date": "2024-03-15"}
  ]
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	u, err := s.GetUser(context.Background(), 1)
	if err != nil || u.Currency != "EUR" {
		t.Fatalf("user = %+v, err = %v", u, err)
	}
	ms, _ := s.FindMovements(context.Background(), 1, ledger.MovementFilter{})
	if len(ms) != 2 || ms[0].Amount.Fixed() != "250.50" {
		t.Fatalf("movements = %+v", ms)
	}

	if err := os.WriteFile(path, []byte(`{"movements":[{"userId":1,"type":"gift","amount":1,"category":"x","date":"2024-01-01"}]}`), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatalf("expected invalid movement to fail seeding")
	}
}
