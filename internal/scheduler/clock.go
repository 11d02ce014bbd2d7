package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"moneytracker/internal/core"
)

// Clock is the scheduler's source of time.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Schedule yields the activation following a given instant.
type Schedule interface {
	Next(time.Time) time.Time
}

// Job is one recurring report run. Activation times carry the schedule's
// location, which decides the calendar day the period is resolved for.
type Job struct {
	Name     string
	Period   core.Period
	Schedule Schedule
}

// ParseSchedule parses a standard five-field cron expression
// ("minute hour day-of-month month day-of-week") evaluated in loc.
func ParseSchedule(spec string, loc *time.Location) (Schedule, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return inLocation{s: s, loc: loc}, nil
}

type inLocation struct {
	s   cron.Schedule
	loc *time.Location
}

func (l inLocation) Next(t time.Time) time.Time {
	return l.s.Next(t.In(l.loc))
}
