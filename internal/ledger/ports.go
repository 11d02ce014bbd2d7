// Package ledger declares the read-side ports the reporting engine consumes.
// The ledger and the user directory are owned elsewhere; implementations live
// in ledger/memory and storage.
package ledger

import (
	"context"

	"moneytracker/internal/core"
)

// MovementFilter narrows FindMovements. Zero values mean "no constraint".
type MovementFilter struct {
	Type  core.MovementType
	Start core.Date
	End   core.Date
}

// RangeFilter is the filter covering exactly r, any type.
func RangeFilter(r core.DateRange) MovementFilter {
	return MovementFilter{Start: r.Start, End: r.End}
}

// Matches reports whether m passes the filter.
func (f MovementFilter) Matches(m core.Movement) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if !f.Start.IsZero() && m.Date.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && m.Date.After(f.End) {
		return false
	}
	return true
}

// Ports for outbound adapters.
type (
	MovementFinder interface {
		// FindMovements returns the user's movements ordered by date descending,
		// then by creation order descending.
		FindMovements(ctx context.Context, userID int64, filter MovementFilter) ([]core.Movement, error)
	}

	Summarizer interface {
		// Summarize returns one aggregate per movement type present in r.
		Summarize(ctx context.Context, userID int64, r core.DateRange) ([]core.TypeAggregate, error)
	}

	UserDirectory interface {
		// GetUser returns core.ErrUserNotFound when id is unknown.
		GetUser(ctx context.Context, id int64) (core.User, error)
		ListUserIDs(ctx context.Context) ([]int64, error)
	}

	// Ledger is the full read surface used by report generation.
	Ledger interface {
		MovementFinder
		Summarizer
		UserDirectory
	}
)
