package services

import (
	"context"

	"github.com/SscSPs/videotube_backend/internal/core/domain"
	"github.com/SscSPs/videotube_backend/internal/dto"
)

// UserSessionSvc defines the session lifecycle of a user.
type UserSessionSvc interface {
	// Register creates a new user and returns its projection.
	Register(ctx context.Context, req dto.RegisterUserRequest) (*domain.UserProfile, error)

	// Login verifies credentials and opens a session.
	Login(ctx context.Context, req dto.LoginRequest) (*domain.Session, error)

	// RefreshSession rotates the refresh token and mints a new access token.
	RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error)

	// Logout drops the stored refresh token. Logging out twice is not an error.
	Logout(ctx context.Context, userID string) error
}

// UserAccountSvc defines operations on the authenticated user's own account.
type UserAccountSvc interface {
	// GetCurrentUser returns the projection of the given user.
	GetCurrentUser(ctx context.Context, userID string) (*domain.UserProfile, error)

	// ChangePassword replaces the password hash after verifying the old password.
	ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error

	// UpdateAccountDetails updates email and/or full name.
	UpdateAccountDetails(ctx context.Context, userID string, req dto.UpdateAccountRequest) (*domain.UserProfile, error)

	// UpdateAvatar uploads the file at localPath and stores its URL as the avatar.
	UpdateAvatar(ctx context.Context, userID string, localPath string) (*domain.UserProfile, error)

	// UpdateCoverImage uploads the file at localPath and stores its URL as the cover image.
	UpdateCoverImage(ctx context.Context, userID string, localPath string) (*domain.UserProfile, error)
}

// AccessTokenAuthenticator resolves an access token to a user.
type AccessTokenAuthenticator interface {
	AuthenticateAccessToken(ctx context.Context, accessToken string) (*domain.UserProfile, error)
}

// UserSvcFacade combines all user-related service interfaces
type UserSvcFacade interface {
	UserSessionSvc
	UserAccountSvc
	AccessTokenAuthenticator
}
