package services

import (
	"time"

	"github.com/SscSPs/videotube_backend/internal/core/domain"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	// Hash returns a salted one-way digest of plaintext.
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches digest. It never errors on mismatch.
	Verify(plaintext, digest string) bool
}

// TokenSvcFacade issues and verifies access and refresh tokens.
type TokenSvcFacade interface {
	// IssueAccessToken signs a short-lived token carrying the user's identity claims.
	IssueAccessToken(user *domain.UserProfile) (string, time.Time, error)
	// IssueRefreshToken signs a long-lived token carrying only the user ID.
	IssueRefreshToken(userID string) (string, time.Time, error)
	// Verify checks signature and expiry against the key of the given class.
	// Every failure is reported as apperrors.ErrInvalidToken.
	Verify(token string, class domain.TokenClass) (*domain.TokenClaims, error)
}
