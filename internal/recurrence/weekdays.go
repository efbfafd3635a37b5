package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekdays is a set of days-of-week, 0=Sunday through 6=Saturday. The set
// is the working representation for schedule editing; it canonicalizes to
// a cron expression only at the storage boundary, so re-editing a stored
// schedule always round-trips to the same string.
type Weekdays uint8

// NewWeekdays builds a set from day numbers (0=Sunday..6=Saturday).
func NewWeekdays(days ...int) (Weekdays, error) {
	var w Weekdays
	for _, d := range days {
		if d < 0 || d > 6 {
			return 0, fmt.Errorf("weekday out of range: %d", d)
		}
		w |= 1 << uint(d)
	}
	if w == 0 {
		return 0, fmt.Errorf("weekday set is empty")
	}
	return w, nil
}

// Contains reports whether the set includes d.
func (w Weekdays) Contains(d time.Weekday) bool {
	return w&(1<<uint(d)) != 0
}

// List returns the member days in ascending order.
func (w Weekdays) List() []int {
	var days []int
	for d := 0; d <= 6; d++ {
		if w&(1<<uint(d)) != 0 {
			days = append(days, d)
		}
	}
	return days
}

// Expression returns the canonical midnight-fire cron expression for the
// set, e.g. {Mon,Wed,Fri} -> "0 0 * * 1,3,5". Deterministic: the day list
// is always ascending.
func (w Weekdays) Expression() string {
	days := w.List()
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return "0 0 * * " + strings.Join(parts, ",")
}

// WeekdaysFromExpression recovers the typed set from a canonical weekday
// expression. ok is false for any expression that is not in the exact form
// Expression produces.
func WeekdaysFromExpression(expr string) (Weekdays, bool) {
	fields := strings.Fields(expr)
	if len(fields) != 5 || fields[0] != "0" || fields[1] != "0" || fields[2] != "*" || fields[3] != "*" {
		return 0, false
	}

	var w Weekdays
	for _, part := range strings.Split(fields[4], ",") {
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 || d > 6 {
			return 0, false
		}
		w |= 1 << uint(d)
	}
	if w == 0 {
		return 0, false
	}
	return w, true
}
