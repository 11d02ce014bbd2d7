// Package scheduler emails period reports to every user at fixed calendar
// times. It keeps no run history: each activation of a job's schedule fires
// exactly one tick.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"moneytracker/internal/core"
	"moneytracker/internal/log"
	"moneytracker/internal/mail"
	"moneytracker/internal/render"
)

// ReportSource lists users and builds their reports.
type ReportSource interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
	BuildForUser(ctx context.Context, userID int64, period core.Period, now time.Time) (core.User, core.Report, error)
}

type Options struct {
	// Concurrency bounds how many users a tick processes at once. Values
	// below 1 mean one at a time.
	Concurrency int
	Email       render.EmailOptions
	// OnTick, when set, observes every finished tick.
	OnTick func(job Job, at time.Time, res TickResult)
}

// TickResult counts per-user outcomes of one tick.
type TickResult struct {
	Users   int
	Sent    int
	Skipped int
	Failed  int
}

type Scheduler struct {
	source     ReportSource
	dispatcher mail.Dispatcher
	clock      Clock
	jobs       []Job
	opts       Options
	logger     *log.Logger
}

func New(source ReportSource, dispatcher mail.Dispatcher, clock Clock, logger *log.Logger, opts Options, jobs ...Job) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Scheduler{
		source:     source,
		dispatcher: dispatcher,
		clock:      clock,
		jobs:       jobs,
		opts:       opts,
		logger:     logger.WithComponent(log.ComponentScheduler),
	}
}

// Run waits for each job's activations and fires a tick for every one until
// ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.jobs) == 0 {
		return errors.New("scheduler has no jobs")
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		g.Go(func() error {
			s.runJob(gctx, job)
			return nil
		})
	}
	g.Wait()
	return ctx.Err()
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	base := s.clock.Now()
	for {
		next := job.Schedule.Next(base)
		s.logger.InfoContext(ctx, "Next report run scheduled",
			log.FieldJob, job.Name,
			log.FieldPeriod, job.Period,
			"at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(next.Sub(s.clock.Now())):
		}

		res, err := s.RunTick(ctx, job.Period, next)
		if err == nil && s.opts.OnTick != nil {
			s.opts.OnTick(job, next, res)
		}

		// never fire the same activation twice, even if the clock lags
		base = s.clock.Now()
		if base.Before(next) {
			base = next
		}
	}
}

// RunTick emails the period report to every user. Failing to list users
// aborts the tick; a failure for one user is logged and the others proceed.
func (s *Scheduler) RunTick(ctx context.Context, period core.Period, now time.Time) (TickResult, error) {
	started := time.Now()
	ids, err := s.source.ListUserIDs(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Report tick aborted: cannot list users",
			log.FieldPeriod, period,
			log.FieldError, err)
		return TickResult{}, fmt.Errorf("list users: %w", err)
	}

	s.logger.InfoContext(ctx, "Report tick started",
		log.FieldPeriod, period,
		"users", len(ids))

	var (
		mu  sync.Mutex
		res = TickResult{Users: len(ids)}
	)
	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			outcome := s.processUser(ctx, id, period, now)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeSent:
				res.Sent++
			case outcomeSkipped:
				res.Skipped++
			default:
				res.Failed++
			}
			return nil
		})
	}
	g.Wait()

	s.logger.InfoContext(ctx, "Report tick finished",
		log.FieldPeriod, period,
		"users", res.Users,
		"sent", res.Sent,
		"skipped", res.Skipped,
		"failed", res.Failed,
		log.FieldDuration, time.Since(started).Milliseconds())
	return res, nil
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (s *Scheduler) processUser(ctx context.Context, id int64, period core.Period, now time.Time) outcome {
	if ctx.Err() != nil {
		return outcomeFailed
	}
	user, report, err := s.source.BuildForUser(ctx, id, period, now)
	if errors.Is(err, core.ErrUserNotFound) {
		s.logger.DebugContext(ctx, "User gone, report skipped", log.FieldUserID, id, log.FieldPeriod, period)
		return outcomeSkipped
	}
	if err != nil {
		s.fail(ctx, "Report build failed", id, period, err)
		return outcomeFailed
	}
	if user.Email == "" {
		s.logger.WarnContext(ctx, "User has no email, report skipped", log.FieldUserID, id, log.FieldPeriod, period)
		return outcomeSkipped
	}

	email, err := render.RenderEmail(user, report, s.opts.Email)
	if err != nil {
		s.fail(ctx, "Report email render failed", id, period, err)
		return outcomeFailed
	}

	err = s.dispatcher.Dispatch(ctx, mail.Message{
		To:      user.Email,
		Subject: email.Subject,
		Text:    email.Text,
		HTML:    email.HTML,
		UserID:  id,
		Period:  string(period),
	})
	if err != nil {
		s.fail(ctx, "Report email dispatch failed", id, period, err)
		return outcomeFailed
	}
	return outcomeSent
}

func (s *Scheduler) fail(ctx context.Context, msg string, id int64, period core.Period, err error) {
	s.logger.ErrorContext(ctx, msg,
		log.FieldUserID, id,
		log.FieldPeriod, period,
		log.FieldError, err)
}
