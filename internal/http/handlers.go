package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"moneytracker/internal/core"
	"moneytracker/internal/log"
	"moneytracker/internal/middleware/trace"
	"moneytracker/internal/render"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that the ledger answers
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, httpStatus := "ready", http.StatusOK
	checks := map[string]string{"ledger": "ok"}
	if s.ledger != nil {
		if err := s.ledger.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			checks["ledger"] = "unavailable"
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// resolver turns a request into the period and window it asks for.
type resolver func(r *http.Request) (core.Period, core.DateRange, error)

func (s *Server) rangeFromPeriod(r *http.Request) (core.Period, core.DateRange, error) {
	period, err := core.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		return "", core.DateRange{}, err
	}
	rng, err := core.Resolve(period, s.opts.Now().In(s.opts.Location))
	return period, rng, err
}

func rangeFromQuery(r *http.Request) (core.Period, core.DateRange, error) {
	q := r.URL.Query()
	rng, err := core.ValidateRange(q.Get("startDate"), q.Get("endDate"))
	return core.Range, rng, err
}

// buildReport resolves the window and builds the caller's report under the
// report timeout.
func (s *Server) buildReport(r *http.Request, resolve resolver) (core.User, core.Report, error) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return core.User{}, core.Report{}, errUnauthorized
	}
	period, rng, err := resolve(r)
	if err != nil {
		return core.User{}, core.Report{}, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.ReportTimeout)
	defer cancel()

	user, err := s.reports.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, core.Report{}, err
	}
	report, err := s.reports.Build(ctx, userID, period, rng)
	if err != nil {
		return user, core.Report{}, err
	}
	return user, report, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if err == errUnauthorized {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		fields := log.NewFields().WithRequestID(trace.GetRequestID(r.Context()))
		s.logs.LogError(r.Context(), "Report request failed", err, log.ComponentReport, log.OpBuild, fields)
	}
	writeError(w, status, msg)
}

func (s *Server) handleJSONReport(resolve resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, report, err := s.buildReport(r, resolve)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := render.RenderJSON(w, report); err != nil {
			s.logs.LogError(r.Context(), "JSON render failed", err, log.ComponentReport, log.OpRender, nil)
			return
		}
		s.logReport(r.Context(), user, report, "json")
	}
}

func (s *Server) handlePDFReport(resolve resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, report, err := s.buildReport(r, resolve)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		labels := render.LabelsFor(s.opts.Locale)
		doc := render.PDFDocument{
			Title:     labels.Title(report.Period),
			User:      user,
			Report:    report,
			Subtitles: []string{labels.Range(report.Range)},
			Locale:    s.opts.Locale,
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, render.PDFFilename(report)))
		sw := &startedWriter{w: w}
		if err := render.RenderPDF(sw, doc); err != nil {
			s.logs.LogError(r.Context(), "PDF render failed", err, log.ComponentReport, log.OpRender, nil)
			// once bytes are out the status can no longer change
			if !sw.started {
				w.Header().Del("Content-Disposition")
				writeError(w, http.StatusInternalServerError, "failed to render report")
			}
			return
		}
		s.logReport(r.Context(), user, report, "pdf")
	}
}

func (s *Server) logReport(ctx context.Context, user core.User, report core.Report, format string) {
	s.logs.LogReport(ctx, user.ID, string(report.Period),
		report.Range.Start.String(), report.Range.End.String(),
		format, report.MovementCount())
}

// startedWriter records whether anything reached the client.
type startedWriter struct {
	w       http.ResponseWriter
	started bool
}

func (sw *startedWriter) Write(p []byte) (int, error) {
	sw.started = true
	return sw.w.Write(p)
}
