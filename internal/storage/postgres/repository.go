// Package postgres reads the movement ledger from the Postgres database the
// money tracker API writes to. It never writes.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"moneytracker/internal/core"
	"moneytracker/internal/ledger"
)

// Repository implements ledger.Ledger on a pgx connection pool.
type Repository struct {
	pool *pgxpool.Pool
}

var _ ledger.Ledger = (*Repository)(nil)

// Connect opens a pool against databaseURL and checks it with a ping.
func Connect(ctx context.Context, databaseURL string) (*Repository, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 0
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w: %w", core.ErrLedgerUnavailable, err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w: %w", core.ErrLedgerUnavailable, err)
	}
	return nil
}

// findQuery builds the movement listing statement for the filter.
func findQuery(userID int64, f ledger.MovementFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT id, user_id, type, amount::text, category, COALESCE(description, ''),
		to_char(date, 'YYYY-MM-DD'), created_at
		FROM movements WHERE user_id = $1`)
	args := []any{userID}

	if f.Type != "" {
		args = append(args, string(f.Type))
		fmt.Fprintf(&b, " AND type = $%d", len(args))
	}
	if !f.Start.IsZero() {
		args = append(args, f.Start.String())
		fmt.Fprintf(&b, " AND date >= $%d", len(args))
	}
	if !f.End.IsZero() {
		args = append(args, f.End.String())
		fmt.Fprintf(&b, " AND date <= $%d", len(args))
	}
	b.WriteString(" ORDER BY date DESC, created_at DESC, id DESC")
	return b.String(), args
}

func (r *Repository) FindMovements(ctx context.Context, userID int64, f ledger.MovementFilter) ([]core.Movement, error) {
	query, args := findQuery(userID, f)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find movements: %w: %w", core.ErrLedgerUnavailable, err)
	}
	defer rows.Close()

	var out []core.Movement
	for rows.Next() {
		var (
			m         core.Movement
			typ       string
			amount    string
			date      string
			createdAt *time.Time
		)
		if err := rows.Scan(&m.ID, &m.UserID, &typ, &amount, &m.Category, &m.Description, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w: %w", core.ErrLedgerUnavailable, err)
		}
		m.Type = core.MovementType(typ)
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("movement %d amount %q: %w", m.ID, amount, err)
		}
		m.Amount = core.NewMoney(d)
		if m.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("movement %d date %q: %w", m.ID, date, err)
		}
		if createdAt != nil {
			m.CreatedAt = *createdAt
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w: %w", core.ErrLedgerUnavailable, err)
	}
	return out, nil
}

func (r *Repository) Summarize(ctx context.Context, userID int64, dr core.DateRange) ([]core.TypeAggregate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT type, SUM(amount)::text, COUNT(*)
		 FROM movements
		 WHERE user_id = $1 AND date >= $2 AND date <= $3
		 GROUP BY type`,
		userID, dr.Start.String(), dr.End.String())
	if err != nil {
		return nil, fmt.Errorf("summarize movements: %w: %w", core.ErrLedgerUnavailable, err)
	}
	defer rows.Close()

	var out []core.TypeAggregate
	for rows.Next() {
		var (
			typ   string
			total string
			count int64
		)
		if err := rows.Scan(&typ, &total, &count); err != nil {
			return nil, fmt.Errorf("scan summary: %w: %w", core.ErrLedgerUnavailable, err)
		}
		d, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("summary total %q: %w", total, err)
		}
		out = append(out, core.TypeAggregate{Type: core.MovementType(typ), Total: core.NewMoney(d), Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary: %w: %w", core.ErrLedgerUnavailable, err)
	}
	return out, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, COALESCE(currency, 'EUR') FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrUserNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w: %w", id, core.ErrLedgerUnavailable, err)
	}
	return u, nil
}

func (r *Repository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w: %w", core.ErrLedgerUnavailable, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect user ids: %w: %w", core.ErrLedgerUnavailable, err)
	}
	return ids, nil
}
