package models

import "time"

// Session binds a user to their current access/refresh token pair.
// Exactly one row exists per live authenticated session: created at
// credential login, rewritten on refresh rotation, deleted at logout.
type Session struct {
	ID           int64     `db:"id" json:"id"`
	AccessToken  string    `db:"access_token" json:"-"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
	UserID       int64     `db:"user_id" json:"user_id"`
}
