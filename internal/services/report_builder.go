package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"moneytracker/internal/core"
	"moneytracker/internal/ledger"
)

// ReportBuilder derives reports from the ledger. It holds no state of its own
// and is safe for concurrent use.
type ReportBuilder struct {
	movements ledger.MovementFinder
	summaries ledger.Summarizer
	users     ledger.UserDirectory
}

func NewReportBuilder(l ledger.Ledger) *ReportBuilder {
	return &ReportBuilder{movements: l, summaries: l, users: l}
}

// Build fetches the movements and per-type aggregates of userID inside r and
// assembles them into a report. It never writes to the ledger.
func (b *ReportBuilder) Build(ctx context.Context, userID int64, period core.Period, r core.DateRange) (core.Report, error) {
	var (
		movements []core.Movement
		aggs      []core.TypeAggregate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movements, err = b.movements.FindMovements(gctx, userID, ledger.RangeFilter(r))
		return err
	})
	g.Go(func() error {
		var err error
		aggs, err = b.summaries.Summarize(gctx, userID, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Report{}, fmt.Errorf("build %s report for user %d: %w", period, userID, err)
	}

	if movements == nil {
		movements = []core.Movement{}
	}
	report := core.Report{
		Period:    period,
		Range:     r,
		Movements: movements,
		Summary:   core.NewSummary(aggs),
	}

	slog.DebugContext(ctx, "Report built",
		"user_id", userID,
		"period", period,
		"range", r.String(),
		"movements", len(movements))
	return report, nil
}

// BuildForPeriod resolves a named period around now and builds it.
func (b *ReportBuilder) BuildForPeriod(ctx context.Context, userID int64, period core.Period, now time.Time) (core.Report, error) {
	r, err := core.Resolve(period, now)
	if err != nil {
		return core.Report{}, err
	}
	return b.Build(ctx, userID, period, r)
}

// BuildForUser looks the user up and builds the named period for them.
// A deleted user yields core.ErrUserNotFound and no ledger reads.
func (b *ReportBuilder) BuildForUser(ctx context.Context, userID int64, period core.Period, now time.Time) (core.User, core.Report, error) {
	r, err := core.Resolve(period, now)
	if err != nil {
		return core.User{}, core.Report{}, err
	}
	user, err := b.users.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, core.Report{}, err
	}
	report, err := b.Build(ctx, userID, period, r)
	if err != nil {
		return user, core.Report{}, err
	}
	return user, report, nil
}

// GetUser exposes the user directory to callers that only hold a builder.
func (b *ReportBuilder) GetUser(ctx context.Context, userID int64) (core.User, error) {
	return b.users.GetUser(ctx, userID)
}

// ListUserIDs exposes the user directory to callers that only hold a builder.
func (b *ReportBuilder) ListUserIDs(ctx context.Context) ([]int64, error) {
	return b.users.ListUserIDs(ctx)
}
