package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"moneytracker/internal/core"
	"moneytracker/internal/ledger"
)

// Store is an in-process ledger and user directory. Movements remember their
// insertion sequence, which stands in for creation order.
type Store struct {
	mu        sync.Mutex
	users     map[int64]core.User
	userOrder []int64
	items     []core.Movement
	seq       int64
	now       func() time.Time
}

var _ ledger.Ledger = (*Store)(nil)

func New() *Store {
	return &Store{users: map[int64]core.User{}, now: time.Now}
}

// seedFile is the on-disk shape accepted by NewFromFile.
type seedFile struct {
	Users     []core.User     `json:"users"`
	Movements []core.Movement `json:"movements"`
}

// NewFromFile seeds a store from a JSON document with "users" and "movements"
// arrays. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for _, u := range seed.Users {
		s.AddUser(u)
	}
	for i, m := range seed.Movements {
		if _, err := s.AddMovement(m); err != nil {
			return nil, fmt.Errorf("seed movement %d: %w", i, err)
		}
	}
	return s, nil
}

// AddUser registers or replaces a user.
func (s *Store) AddUser(u core.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		s.userOrder = append(s.userOrder, u.ID)
	}
	s.users[u.ID] = u
}

// RemoveUser drops a user; its movements stay, as with an orphaned ledger row.
func (s *Store) RemoveUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	for i, v := range s.userOrder {
		if v == id {
			s.userOrder = append(s.userOrder[:i], s.userOrder[i+1:]...)
			break
		}
	}
}

// AddMovement validates and stores a movement, returning its assigned id.
func (s *Store) AddMovement(m core.Movement) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if m.ID == 0 {
		m.ID = s.seq
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	s.items = append(s.items, m)
	return m.ID, nil
}

// FindMovements implements ledger.MovementFinder.
func (s *Store) FindMovements(_ context.Context, userID int64, f ledger.MovementFilter) ([]core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type indexed struct {
		m   core.Movement
		pos int
	}
	var out []indexed
	for i, m := range s.items {
		if m.UserID != userID || !f.Matches(m) {
			continue
		}
		out = append(out, indexed{m: m, pos: i})
	}
	// date descending, then most recently inserted first
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].m.Date.Equal(out[j].m.Date.Time) {
			return out[i].m.Date.After(out[j].m.Date)
		}
		return out[i].pos > out[j].pos
	})
	res := make([]core.Movement, len(out))
	for i, v := range out {
		res[i] = v.m
	}
	return res, nil
}

// Summarize implements ledger.Summarizer.
func (s *Store) Summarize(_ context.Context, userID int64, r core.DateRange) ([]core.TypeAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byType := map[core.MovementType]*core.TypeAggregate{}
	var order []core.MovementType
	f := ledger.RangeFilter(r)
	for _, m := range s.items {
		if m.UserID != userID || !f.Matches(m) {
			continue
		}
		agg, ok := byType[m.Type]
		if !ok {
			agg = &core.TypeAggregate{Type: m.Type}
			byType[m.Type] = agg
			order = append(order, m.Type)
		}
		agg.Total = agg.Total.Add(m.Amount)
		agg.Count++
	}
	out := make([]core.TypeAggregate, 0, len(order))
	for _, t := range order {
		out = append(out, *byType[t])
	}
	return out, nil
}

// GetUser implements ledger.UserDirectory.
func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrUserNotFound)
	}
	return u, nil
}

// ListUserIDs implements ledger.UserDirectory, in registration order.
func (s *Store) ListUserIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.userOrder...), nil
}

// Ping always succeeds; the store lives in process.
func (s *Store) Ping(context.Context) error { return nil }
