package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"moneytracker/internal/core"
	"moneytracker/internal/ledger"
	"moneytracker/internal/ledger/memory"
	"moneytracker/internal/log"
	"moneytracker/internal/services"
)

const testSecret = "test-secret-0123456789"

// Wednesday; its week runs 2024-03-11..2024-03-17
var testNow = time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

func money(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return m
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	s.AddUser(core.User{ID: 1, Email: "ana@example.com", Name: "Ana", Currency: "USD"})
	for _, m := range []core.Movement{
		{UserID: 1, Type: core.Income, Amount: money(t, "1000"), Category: "Salary", Date: core.NewDate(2024, 3, 1)},
		{UserID: 1, Type: core.Expense, Amount: money(t, "250.50"), Category: "Rent", Date: core.NewDate(2024, 3, 15)},
		{UserID: 1, Type: core.Expense, Amount: money(t, "49.50"), Category: "Food", Date: core.NewDate(2024, 3, 15)},
	} {
		if _, err := s.AddMovement(m); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return s
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, l ledger.Ledger, opts Options) *Server {
	t.Helper()
	var buf bytes.Buffer
	opts.JWTSecret = testSecret
	opts.Location = time.UTC
	opts.Now = func() time.Time { return testNow }
	opts.Logger = log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	s := NewServer(":0", services.NewReportBuilder(l), stubPinger{}, opts)
	t.Cleanup(func() { s.limiter.Stop() })
	return s
}

func token(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := NewAuthenticator(testSecret).IssueToken(userID, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func get(s *Server, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %q", rec.Body.String())
	}
	return body.Error
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, seededStore(t), Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := get(s, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rec.Code)
		}
	}

	s.ledger = stubPinger{err: core.ErrLedgerUnavailable}
	rec := get(s, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"not_ready"`) {
		t.Fatalf("readyz with broken ledger: %d %s", rec.Code, rec.Body.String())
	}
}

func TestReportsRequireBearerToken(t *testing.T) {
	s := newTestServer(t, seededStore(t), Options{})

	expired := NewAuthenticator(testSecret)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.IssueToken(1, time.Hour)

	forged, _ := NewAuthenticator("another-secret-0123456").IssueToken(1, time.Hour)

	for name, bearer := range map[string]string{
		"missing": "",
		"garbage": "not-a-jwt",
		"expired": old,
		"forged":  forged,
	} {
		t.Run(name, func(t *testing.T) {
			rec := get(s, "/api/reports/weekly", bearer)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status=%d", rec.Code)
			}
			if errorBody(t, rec) != errUnauthorized.Error() {
				t.Fatalf("body=%s", rec.Body.String())
			}
		})
	}
}

func TestWeeklyReport(t *testing.T) {
	s := newTestServer(t, seededStore(t), Options{})

	rec := get(s, "/api/reports/weekly", token(t, 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Period    string            `json:"period"`
		StartDate string            `json:"startDate"`
		EndDate   string            `json:"endDate"`
		Movements []json.RawMessage `json:"movements"`
		Summary   struct {
			Income   struct{ Total float64; Count int } `json:"income"`
			Expenses struct{ Total float64; Count int } `json:"expenses"`
			Balance  float64                             `json:"balance"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Period != "weekly" || body.StartDate != "2024-03-11" || body.EndDate != "2024-03-17" {
		t.Fatalf("unexpected window %s %s..%s", body.Period, body.StartDate, body.EndDate)
	}
	if len(body.Movements) != 2 || body.Summary.Expenses.Total != 300 || body.Summary.Expenses.Count != 2 {
		t.Fatalf("unexpected report %s", rec.Body.String())
	}
	if body.Summary.Income.Count != 0 || body.Summary.Balance != -300 {
		t.Fatalf("unexpected summary %s", rec.Body.String())
	}
	if rec.Header().Get("Cache-Control") != "no-store" || rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing middleware headers %v", rec.Header())
	}
}

func TestRangeReport(t *testing.T) {
	s := newTestServer(t, seededStore(t), Options{})

	rec := get(s, "/api/reports/range?startDate=2024-03-01&endDate=2024-03-31", token(t, 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	out := rec.Body.String()
	for _, want := range []string{`"period":"range"`, `"balance":700`, `"category":"Food"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
	// Food was created after Rent on the same day, so it comes first
	if strings.Index(out, `"Food"`) > strings.Index(out, `"Rent"`) {
		t.Errorf("movements out of order: %s", out)
	}
}

func TestReportErrors(t *testing.T) {
	s := newTestServer(t, seededStore(t), Options{})

	tests := []struct {
		name   string
		path   string
		user   int64
		status int
		errSub string
	}{
		{"unknown period", "/api/reports/yearly", 1, http.StatusBadRequest, "invalid period"},
		{"bad date format", "/api/reports/range?startDate=2024-3-1&endDate=2024-03-31", 1, http.StatusBadRequest, "invalid date format"},
		{"impossible date", "/api/reports/range?startDate=2024-02-30&endDate=2024-03-31", 1, http.StatusBadRequest, "invalid date format"},
		{"missing dates", "/api/reports/range", 1, http.StatusBadRequest, "invalid date format"},
		{"reversed range", "/api/reports/range?startDate=2024-03-31&endDate=2024-03-01", 1, http.StatusBadRequest, "must not be after"},
		{"unknown user", "/api/reports/monthly", 99, http.StatusNotFound, "user not found"},
		{"unknown user pdf", "/api/reports/weekly/pdf", 99, http.StatusNotFound, "user not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(s, tt.path, token(t, tt.user))
			if rec.Code != tt.status {
				t.Fatalf("status=%d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if msg := errorBody(t, rec); !strings.Contains(msg, tt.errSub) {
				t.Fatalf("error %q does not mention %q", msg, tt.errSub)
			}
		})
	}
}

// brokenLedger has users but cannot read movements.
type brokenLedger struct{ *memory.Store }

func (brokenLedger) FindMovements(context.Context, int64, ledger.MovementFilter) ([]core.Movement, error) {
	return nil, errors.New("connection refused: db-primary:5432")
}

func TestLedgerFailureIsServerError(t *testing.T) {
	s := newTestServer(t, brokenLedger{seededStore(t)}, Options{})

	rec := get(s, "/api/reports/monthly", token(t, 1))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if msg := errorBody(t, rec); strings.Contains(msg, "db-primary") {
		t.Fatalf("infrastructure detail leaked: %q", msg)
	}
}

func TestPDFReport(t *testing.T) {
	s := newTestServer(t, seededStore(t), Options{})

	rec := get(s, "/api/reports/range/pdf?startDate=2024-03-01&endDate=2024-03-31", token(t, 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("Content-Type=%q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="report_range_2024-03-01_to_2024-03-31.pdf"` {
		t.Fatalf("Content-Disposition=%q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("body is not a PDF")
	}

	rec = get(s, "/api/reports/monthly/pdf", token(t, 1))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), "report_monthly_2024-03-01_to_2024-03-31.pdf") {
		t.Fatalf("monthly pdf: %d %v", rec.Code, rec.Header())
	}
}

func TestReportsAreRateLimitedPerUser(t *testing.T) {
	s := newTestServer(t, seededStore(t), Options{RateLimit: 1})

	if rec := get(s, "/api/reports/weekly", token(t, 1)); rec.Code != http.StatusOK {
		t.Fatalf("first request status=%d", rec.Code)
	}
	rec := get(s, "/api/reports/weekly", token(t, 1))
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("second request status=%d headers=%v", rec.Code, rec.Header())
	}
	// another caller has its own budget; unknown users still reach the handler
	if rec := get(s, "/api/reports/weekly", token(t, 99)); rec.Code != http.StatusNotFound {
		t.Fatalf("other user status=%d", rec.Code)
	}
}

func TestUnknownRouteIsJSON(t *testing.T) {
	s := newTestServer(t, seededStore(t), Options{})
	rec := get(s, "/nope", "")
	if rec.Code != http.StatusNotFound || errorBody(t, rec) != "not found" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}
