package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"moneytracker/internal/core"
	"moneytracker/internal/ledger"

	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"
	// fixed width, so lexical order of created_at is chronological order
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLiteRepository reads the movement ledger and user directory from SQLite.
// The write methods exist for seeding and tests; the reporting engine only
// reads.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ledger.Ledger = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w: %w", core.ErrLedgerUnavailable, err)
	}
	return nil
}

// CreateUser inserts a user and returns its id.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (int64, error) {
	currency := u.Currency
	if currency == "" {
		currency = "EUR"
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, name, currency, created_at) VALUES (?, ?, ?, ?)`,
		u.Email, u.Name, currency, r.now().UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return res.LastInsertId()
}

// AddMovement inserts a movement and returns its id. Amounts are stored in
// cents, so sums stay exact.
func (r *SQLiteRepository) AddMovement(ctx context.Context, m core.Movement) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movements (user_id, type, amount_cents, category, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.UserID, string(m.Type), m.Amount.Cents(), m.Category, m.Description,
		m.Date.Format(dateLayout), createdAt.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("add movement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add movement: %w", err)
	}

	slog.DebugContext(ctx, "Movement saved to SQLite",
		"id", id,
		"user_id", m.UserID,
		"type", m.Type,
		"amount_cents", m.Amount.Cents(),
		"date", m.Date.String())
	return id, nil
}

// FindMovements implements ledger.MovementFinder
func (r *SQLiteRepository) FindMovements(ctx context.Context, userID int64, f ledger.MovementFilter) ([]core.Movement, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if !f.Start.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.Start.Format(dateLayout))
	}
	if !f.End.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.End.Format(dateLayout))
	}

	query := `SELECT id, user_id, type, amount_cents, category, description, date, created_at
		FROM movements WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date DESC, created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find movements: %w: %w", core.ErrLedgerUnavailable, err)
	}
	defer rows.Close()

	var out []core.Movement
	for rows.Next() {
		var (
			m          core.Movement
			typ        string
			cents      int64
			date, created string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &typ, &cents, &m.Category, &m.Description, &date, &created); err != nil {
			return nil, fmt.Errorf("scan movement: %w: %w", core.ErrLedgerUnavailable, err)
		}
		m.Type = core.MovementType(typ)
		m.Amount = core.MoneyFromCents(cents)
		if m.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("movement %d date %q: %w", m.ID, date, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			m.CreatedAt = t
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w: %w", core.ErrLedgerUnavailable, err)
	}
	return out, nil
}

// Summarize implements ledger.Summarizer
func (r *SQLiteRepository) Summarize(ctx context.Context, userID int64, dr core.DateRange) ([]core.TypeAggregate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, SUM(amount_cents), COUNT(*)
		 FROM movements
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 GROUP BY type`,
		userID, dr.Start.Format(dateLayout), dr.End.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("summarize movements: %w: %w", core.ErrLedgerUnavailable, err)
	}
	defer rows.Close()

	var out []core.TypeAggregate
	for rows.Next() {
		var (
			typ   string
			total int64
			count int64
		)
		if err := rows.Scan(&typ, &total, &count); err != nil {
			return nil, fmt.Errorf("scan summary: %w: %w", core.ErrLedgerUnavailable, err)
		}
		out = append(out, core.TypeAggregate{
			Type:  core.MovementType(typ),
			Total: core.MoneyFromCents(total),
			Count: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary: %w: %w", core.ErrLedgerUnavailable, err)
	}
	return out, nil
}

// GetUser implements ledger.UserDirectory
func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, currency FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrUserNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w: %w", id, core.ErrLedgerUnavailable, err)
	}
	return u, nil
}

// ListUserIDs implements ledger.UserDirectory
func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w: %w", core.ErrLedgerUnavailable, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w: %w", core.ErrLedgerUnavailable, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w: %w", core.ErrLedgerUnavailable, err)
	}
	return ids, nil
}
