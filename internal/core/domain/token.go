package domain

import "time"

// TokenClass selects the signing key and expiry used for a token.
type TokenClass string

const (
	AccessToken  TokenClass = "access"
	RefreshToken TokenClass = "refresh"
)

// TokenClaims are the identity claims recovered from a verified token.
// Refresh tokens only carry UserID.
type TokenClaims struct {
	UserID    string
	Email     string
	Username  string
	FullName  string
	TokenID   string
	ExpiresAt time.Time
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// Session is the result of a successful login or refresh.
type Session struct {
	User *UserProfile
	TokenPair
}
