package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense MovementType = "expense"
	Income  MovementType = "income"
)

type (
	MovementType string

	// Date is a calendar date without a time component. The wrapped time is
	// always midnight UTC so that equality and ordering follow the calendar.
	Date struct {
		time.Time
	}

	Movement struct {
		ID          int64        `json:"id"`
		UserID      int64        `json:"userId"`
		Type        MovementType `json:"type"`
		Amount      Money        `json:"amount"`
		Category    string       `json:"category"`
		Description string       `json:"description,omitempty"`
		Date        Date         `json:"date"`
		CreatedAt   time.Time    `json:"createdAt"`
	}

	// User is read-only here; Currency is a display label only.
	User struct {
		ID       int64  `json:"id"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Currency string `json:"currency"`
	}
)

const dateLayout = "2006-01-02"

var (
	ErrInvalidType     = errors.New("invalid movement type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidDate     = errors.New("invalid date")
	errCategoryTooLong = errors.New("category too long (max 100 characters)")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// AddDays returns the date n calendar days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts a date-only value or a full RFC 3339 timestamp, of
// which only the first ten characters (the date part) are kept.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return ErrInvalidDate
	}
	*d = parsed
	return nil
}

// Valid reports whether t is one of the two movement kinds.
func (t MovementType) Valid() bool {
	return t == Expense || t == Income
}

func (m Movement) Validate() error {
	if !m.Type.Valid() {
		return ErrInvalidType
	}
	if !m.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(m.Category) == "" {
		return ErrEmptyCategory
	}
	if len(m.Category) > 100 {
		return errCategoryTooLong
	}
	if m.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// DisplayName returns the user's name, or a placeholder when it is missing.
func (u User) DisplayName() string {
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	return "-"
}

// DisplayEmail returns the user's email, or a placeholder when it is missing.
func (u User) DisplayEmail() string {
	if e := strings.TrimSpace(u.Email); e != "" {
		return e
	}
	return "-"
}
