package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"moneytracker/internal/core"
	"moneytracker/internal/log"
	"moneytracker/internal/middleware/ratelimit"
	"moneytracker/internal/middleware/security"
	"moneytracker/internal/middleware/trace"
	"moneytracker/internal/render"
)

// ReportService builds reports and looks up their owners.
type ReportService interface {
	Build(ctx context.Context, userID int64, period core.Period, r core.DateRange) (core.Report, error)
	GetUser(ctx context.Context, userID int64) (core.User, error)
}

// Pinger reports whether the ledger can serve reads.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	JWTSecret string
	// ReportTimeout bounds each report build; zero means 10s.
	ReportTimeout time.Duration
	Locale        string
	// Location decides which calendar day "now" is; nil means local time.
	Location *time.Location
	// RateLimit is the number of report requests per user per minute.
	RateLimit int
	Now       func() time.Time
	Logger    *log.Logger
}

type Server struct {
	http.Server
	reports ReportService
	ledger  Pinger
	opts    Options

	auth     *Authenticator
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *log.Logger
	logs     *log.StructuredLogger

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, reports ReportService, ledger Pinger, opts Options) *Server {
	if opts.ReportTimeout <= 0 {
		opts.ReportTimeout = 10 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Locale == "" {
		opts.Locale = render.DefaultLocale
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	logs := log.NewStructuredLogger(opts.Logger)
	detector := security.NewDetector()

	s := &Server{
		reports:  reports,
		ledger:   ledger,
		opts:     opts,
		auth:     NewAuthenticator(opts.JWTSecret),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerWindow: opts.RateLimit, Window: time.Minute}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logs),
		logger:   logger,
		logs:     logs,
		started:  time.Now(),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// PDFs stream after the build, so allow more than the build timeout
		WriteTimeout: opts.ReportTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(log.Middleware(s.logger))
	r.Use(s.tracer.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/reports", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Use(s.limiter.Middleware(rateLimitKey, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
		}))

		r.Get("/range", s.handleJSONReport(rangeFromQuery))
		r.Get("/range/pdf", s.handlePDFReport(rangeFromQuery))
		r.Get("/{period}", s.handleJSONReport(s.rangeFromPeriod))
		r.Get("/{period}/pdf", s.handlePDFReport(s.rangeFromPeriod))
	})

	return r
}

// rateLimitKey limits per caller; auth runs first so the user id is set.
func rateLimitKey(r *http.Request) string {
	if id, ok := UserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return "anon"
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
