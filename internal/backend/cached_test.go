package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"moneytracker/internal/core"
	"moneytracker/internal/ledger/memory"
)

type countingBackend struct {
	*memory.Store
	lookups int
}

func (c *countingBackend) GetUser(ctx context.Context, id int64) (core.User, error) {
	c.lookups++
	return c.Store.GetUser(ctx, id)
}

func TestCachedBackend_GetUser(t *testing.T) {
	ctx := context.Background()
	inner := &countingBackend{Store: memory.New()}
	inner.AddUser(core.User{ID: 1, Email: "ana@example.com", Name: "Ana"})
	b := NewCachedBackend(inner, 8, time.Minute)

	for range 3 {
		u, err := b.GetUser(ctx, 1)
		if err != nil || u.Email != "ana@example.com" {
			t.Fatalf("GetUser(1) = %+v, %v", u, err)
		}
	}
	if inner.lookups != 1 {
		t.Fatalf("backend hit %d times, want 1", inner.lookups)
	}

	for range 2 {
		if _, err := b.GetUser(ctx, 2); !errors.Is(err, core.ErrUserNotFound) {
			t.Fatalf("GetUser(2) error = %v, want ErrUserNotFound", err)
		}
	}
	if inner.lookups != 3 {
		t.Fatalf("unknown users must not be cached, backend hit %d times", inner.lookups)
	}
}

func TestCreateBackend_WrapsWithUserCache(t *testing.T) {
	res, err := testFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend, UserCacheTTL: time.Second})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if _, ok := res.Backend.(*CachedBackend); !ok {
		t.Fatalf("backend is %T, want *CachedBackend", res.Backend)
	}

	res, err = testFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if _, ok := res.Backend.(*CachedBackend); ok {
		t.Fatal("zero TTL must not cache")
	}
}

func TestUncachedSeesDeletedUsers(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	inner.AddUser(core.User{ID: 1, Email: "ana@example.com"})
	cached := NewCachedBackend(inner, 8, time.Hour)

	if _, err := cached.GetUser(ctx, 1); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	inner.RemoveUser(1)

	if _, err := cached.GetUser(ctx, 1); err != nil {
		t.Fatalf("cached lookup should still hit, got %v", err)
	}
	if _, err := Uncached(cached).GetUser(ctx, 1); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("Uncached().GetUser error = %v, want ErrUserNotFound", err)
	}
	if Uncached(inner) != Backend(inner) {
		t.Fatal("Uncached must return a plain backend unchanged")
	}
}
