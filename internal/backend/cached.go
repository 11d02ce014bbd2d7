package backend

import (
	"context"
	"time"

	"moneytracker/internal/cache"
	"moneytracker/internal/core"
)

const userCacheSize = 1024

// CachedBackend serves GetUser from a short-lived LRU. Unknown users are
// never cached, so a newly created user is visible on the next lookup.
type CachedBackend struct {
	Backend
	users *cache.LRUCache[int64, core.User]
}

func NewCachedBackend(b Backend, size int, ttl time.Duration) *CachedBackend {
	return &CachedBackend{
		Backend: b,
		users:   cache.NewLRUCache[int64, core.User](size, ttl),
	}
}

func (c *CachedBackend) GetUser(ctx context.Context, id int64) (core.User, error) {
	if u, ok := c.users.Get(id); ok {
		return u, nil
	}
	u, err := c.Backend.GetUser(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	c.users.Set(id, u)
	return u, nil
}

// CleanExpired implements cache.Cleaner.
func (c *CachedBackend) CleanExpired() int {
	return c.users.CleanExpired()
}

// Uncached returns the backend beneath any user cache. Callers that must see
// deletions immediately, like the scheduler's existence check, use it.
func Uncached(b Backend) Backend {
	if c, ok := b.(*CachedBackend); ok {
		return c.Backend
	}
	return b
}
