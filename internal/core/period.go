package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Range   Period = "range"
)

// Period names the window a report covers.
type Period string

// DateRange is an inclusive calendar window.
type DateRange struct {
	Start Date `json:"startDate"`
	End   Date `json:"endDate"`
}

// isoDatePattern is the strict fixed-width form accepted from callers; fixed
// width is what makes lexical and chronological order coincide.
var isoDatePattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)

// ParsePeriod maps a user supplied name to one of the named periods.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Weekly, Monthly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// Resolve computes the window for a named period around now, using now's
// location to decide which calendar day it is.
//
// weekly: the Monday to Sunday week containing now (Sunday belongs to the
// week that started six days earlier).
// monthly: first to last calendar day of now's month.
func Resolve(period Period, now time.Time) (DateRange, error) {
	today := DateOf(now)
	switch period {
	case Weekly:
		offset := int(today.Weekday()) - 1
		if today.Weekday() == time.Sunday {
			offset = 6
		}
		start := today.AddDays(-offset)
		return DateRange{Start: start, End: start.AddDays(6)}, nil
	case Monthly:
		start := NewDate(today.Year(), int(today.Month()), 1)
		// day 0 of next month is the last day of this one
		end := NewDate(today.Year(), int(today.Month())+1, 0)
		return DateRange{Start: start, End: end}, nil
	default:
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(period))
	}
}

// ValidateRange checks a caller supplied pair of YYYY-MM-DD strings.
func ValidateRange(startDate, endDate string) (DateRange, error) {
	start, err := parseStrictDate(startDate)
	if err != nil {
		return DateRange{}, fmt.Errorf("startDate %q: %w", startDate, err)
	}
	end, err := parseStrictDate(endDate)
	if err != nil {
		return DateRange{}, fmt.Errorf("endDate %q: %w", endDate, err)
	}
	if startDate > endDate {
		return DateRange{}, fmt.Errorf("%w: %s > %s", ErrInvalidRangeOrder, startDate, endDate)
	}
	return DateRange{Start: start, End: end}, nil
}

func parseStrictDate(s string) (Date, error) {
	if !isoDatePattern.MatchString(s) {
		return Date{}, ErrInvalidDateFormat
	}
	// rejects calendar-impossible days such as 2024-02-30
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, ErrInvalidDateFormat
	}
	return d, nil
}

// Days returns the number of calendar days covered, bounds included.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start.Time).Hours()/24) + 1
}

// Contains reports whether d falls inside the range, bounds included.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Bounds returns the first and last instant of the range in loc: the start
// floored to 00:00:00.000 and the end ceiled to 23:59:59.999.
func (r DateRange) Bounds(loc *time.Location) (time.Time, time.Time) {
	from := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, loc)
	to := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	return from, to
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}
