package model

import "time"

// User is a household member. ClamTotal is a cached sum of the member's
// completion ledger; only the completion and history-deletion paths may
// move it, always inside the same transaction as the ledger write.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profile_picture"`
	ClamTotal      int       `json:"clam_total"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
