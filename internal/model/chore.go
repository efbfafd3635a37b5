package model

import "time"

// Chore is the template for a piece of household work. Schedules decide
// when it appears on the board; the chore itself carries no due-ness.
type Chore struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ClamValue   int       `json:"clam_value"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
