// Package recurrence evaluates day-granularity crontab expressions against
// calendar dates in the server timezone. Expressions always fire at local
// midnight; due-ness is a pure function of the expression and the date.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
)

// Named preset expressions. They carry no state beyond the string; a
// schedule stores the expanded expression, never the preset name.
const (
	ExprDaily    = "0 0 * * *"
	ExprWeekdays = "0 0 * * 1-5"
	ExprWeekends = "0 0 * * 0,6"
	// Cron cannot express a true alternating-day cadence; odd days of the
	// month is the standard approximation.
	ExprEveryOtherDay = "0 0 */2 * *"
)

var presets = map[string]string{
	"daily":           ExprDaily,
	"weekdays":        ExprWeekdays,
	"weekends":        ExprWeekends,
	"every-other-day": ExprEveryOtherDay,
}

// Preset resolves a preset name to its expression.
func Preset(name string) (string, bool) {
	expr, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return expr, ok
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks a candidate expression before it is persisted. Beyond
// cron syntax, the minute and hour fields must be literal zeros: schedules
// are date-only and the occurrence boundary is local midnight.
func Validate(expr string) error {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return apperr.Validation("invalid crontab %q: expected 5 fields, got %d", expr, len(fields))
	}
	if fields[0] != "0" || fields[1] != "0" {
		return apperr.Validation("invalid crontab %q: minute and hour must be 0 (schedules are date-only)", expr)
	}
	if _, err := parser.Parse(expr); err != nil {
		return &apperr.Error{
			Kind:    apperr.KindValidation,
			Message: fmt.Sprintf("invalid crontab %q", expr),
			Err:     err,
		}
	}
	return nil
}

// IsDueOn reports whether the expression has an occurrence on the given
// date in loc. Computed as: the next firing strictly after one second
// before local midnight of date must land before the start of the next
// day. Since valid expressions fire at midnight, this is exactly "the
// prior occurrence before the start of tomorrow falls on date".
func IsDueOn(expr string, date time.Time, loc *time.Location) (bool, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return false, &apperr.Error{
			Kind:    apperr.KindValidation,
			Message: fmt.Sprintf("invalid crontab %q", expr),
			Err:     err,
		}
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	next := sched.Next(dayStart.Add(-time.Second))
	return next.Before(dayEnd), nil
}

// NextOccurrence returns the next future occurrence after the given
// instant. Advisory only: a malformed expression yields ok=false rather
// than an error, since callers use this purely for display.
func NextOccurrence(expr string, after time.Time) (time.Time, bool) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return time.Time{}, false
	}
	next := sched.Next(after)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}
