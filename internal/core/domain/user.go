package domain

import "strings"

// User is the persisted user record. It carries credentials and must never be
// serialized to a caller; use Profile() for anything leaving the service.
type User struct {
	UserID        string   `json:"-"`
	Username      string   `json:"-"`
	Email         string   `json:"-"`
	FullName      string   `json:"-"`
	PasswordHash  string   `json:"-"`
	AvatarURL     string   `json:"-"`
	CoverImageURL string   `json:"-"`
	RefreshToken  *string  `json:"-"` // nil when no session is active
	WatchHistory  []string `json:"-"`
	Timestamps
}

// UserProfile is the read shape of a user with passwordHash and refreshToken
// excluded.
type UserProfile struct {
	UserID        string   `json:"userID"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	FullName      string   `json:"fullName"`
	AvatarURL     string   `json:"avatarURL"`
	CoverImageURL string   `json:"coverImageURL"`
	WatchHistory  []string `json:"watchHistory"`
	Timestamps
}

// Profile returns the secret-free projection of u.
func (u *User) Profile() *UserProfile {
	history := u.WatchHistory
	if history == nil {
		history = []string{}
	}
	return &UserProfile{
		UserID:        u.UserID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		WatchHistory:  history,
		Timestamps:    u.Timestamps,
	}
}

// UserPatch is a partial update. Nil fields are left untouched.
type UserPatch struct {
	Email         *string
	FullName      *string
	AvatarURL     *string
	CoverImageURL *string
	PasswordHash  *string
	RefreshToken  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Email == nil && p.FullName == nil && p.AvatarURL == nil &&
		p.CoverImageURL == nil && p.PasswordHash == nil && p.RefreshToken == nil
}

// UserField names a field that can be unset on a user record.
type UserField string

const (
	FieldRefreshToken  UserField = "refreshToken"
	FieldCoverImageURL UserField = "coverImageURL"
)

// NormalizeIdentity trims and lower-cases a username or email.
func NormalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
