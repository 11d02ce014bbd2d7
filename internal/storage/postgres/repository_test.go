package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"moneytracker/internal/core"
	"moneytracker/internal/ledger"
)

func TestFindQuery(t *testing.T) {
	tests := []struct {
		name     string
		filter   ledger.MovementFilter
		contains []string
		args     int
	}{
		{
			name:     "user only",
			filter:   ledger.MovementFilter{},
			contains: []string{"WHERE user_id = $1 ORDER BY"},
			args:     1,
		},
		{
			name:     "type and range",
			filter:   ledger.MovementFilter{Type: core.Expense, Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)},
			contains: []string{"type = $2", "date >= $3", "date <= $4"},
			args:     4,
		},
		{
			name:     "end only",
			filter:   ledger.MovementFilter{End: core.NewDate(2024, 3, 31)},
			contains: []string{"date <= $2"},
			args:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := findQuery(7, tt.filter)
			for _, c := range tt.contains {
				if !strings.Contains(q, c) {
					t.Errorf("query %q missing %q", q, c)
				}
			}
			if !strings.HasSuffix(q, "ORDER BY date DESC, created_at DESC, id DESC") {
				t.Errorf("unexpected ordering in %q", q)
			}
			if len(args) != tt.args {
				t.Errorf("expected %d args, got %d", tt.args, len(args))
			}
			if args[0] != int64(7) {
				t.Errorf("first arg should be the user id, got %v", args[0])
			}
		})
	}
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

// Runs against a live database only when POSTGRES_TEST_URL is set.
func TestRepositoryIntegration(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	ctx := context.Background()
	repo, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer repo.Close()

	if _, err := repo.ListUserIDs(ctx); err != nil {
		t.Fatalf("list users: %v", err)
	}
	if _, err := repo.GetUser(ctx, -1); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
