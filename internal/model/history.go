package model

import "time"

// DateLayout is the calendar-date format used to key occurrences.
const DateLayout = "2006-01-02"

// CompletionRecord is one row of the append-only completion ledger. The
// chore title and clam value are captured at completion time so history
// survives later edits and deletions of the chore. ScheduleID goes nil if
// the schedule is deleted afterward; the record itself is preserved.
type CompletionRecord struct {
	ID         int64     `json:"id"`
	ScheduleID *int64    `json:"schedule_id"`
	ChoreID    int64     `json:"chore_id"`
	ChoreTitle string    `json:"chore_title"`
	UserID     int64     `json:"user_id"`
	Date       string    `json:"date"` // YYYY-MM-DD in the server timezone
	ClamValue  int       `json:"clam_value"`
	CreatedAt  time.Time `json:"created_at"`
}
