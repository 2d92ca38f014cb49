package models

import (
	"time"
)

// Timestamps mirrors the created_at/updated_at columns.
type Timestamps struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// User is the row shape of the users table.
type User struct {
	UserID        string   `db:"user_id"`
	Username      string   `db:"username"`
	Email         string   `db:"email"`
	FullName      string   `db:"full_name"`
	PasswordHash  string   `db:"password_hash"`
	AvatarURL     string   `db:"avatar_url"`
	CoverImageURL string   `db:"cover_image_url"`
	RefreshToken  *string  `db:"refresh_token"` // NULL when logged out
	WatchHistory  []string `db:"watch_history"`
	Timestamps
}
