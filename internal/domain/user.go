// internal/domain/user.go
package domain

import "time"

// User represents a user account. ReferrerID links the user to their direct
// referrer (level 1 of the cascade); nil means no upline.
type User struct {
	ID         int64      `db:"id" json:"id"`
	Username   string     `db:"username" json:"username"`
	ReferrerID *int64     `db:"referrer_id" json:"referrer_id,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// NewUser creates a new User instance.
func NewUser(username string, referrerID *int64) *User {
	now := time.Now().UTC()
	return &User{
		Username:   username,
		ReferrerID: referrerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
