package model

import "time"

// Duration controls when a one-time schedule (Crontab == nil) is due.
type Duration string

const (
	// DurationDayOf: due only on the schedule's creation date, gone after.
	DurationDayOf Duration = "day-of"
	// DurationUntilCompleted: due every day from creation until a
	// completion record exists, then satisfied permanently.
	DurationUntilCompleted Duration = "until-completed"
)

// Valid reports whether d is a known duration policy.
func (d Duration) Valid() bool {
	return d == DurationDayOf || d == DurationUntilCompleted
}

// Schedule binds a chore to a user (or the bonus pool) and a due-date rule.
// Crontab non-nil means a repeating day-granularity rule; nil means a
// one-time occurrence governed by Duration. A recurring schedule ignores
// Duration entirely.
type Schedule struct {
	ID        int64     `json:"id"`
	ChoreID   int64     `json:"chore_id"`
	UserID    *int64    `json:"user_id"` // nil = bonus pool
	Crontab   *string   `json:"crontab"`
	Duration  Duration  `json:"duration"`
	Visible   bool      `json:"visible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recurring reports whether the schedule has a repeating rule.
func (s Schedule) Recurring() bool {
	return s.Crontab != nil
}

// Unassigned reports whether the schedule sits in the bonus pool.
func (s Schedule) Unassigned() bool {
	return s.UserID == nil
}
