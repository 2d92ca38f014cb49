package repositories

import (
	"context"

	"github.com/SscSPs/videotube_backend/internal/core/domain"
)

// UserReader defines read operations for user data
type UserReader interface {
	// FindUserByIdentity retrieves the full record whose username or email
	// matches identity (trimmed, case-insensitive). Returns apperrors.ErrNotFound.
	FindUserByIdentity(ctx context.Context, identity string) (*domain.User, error)

	// FindUserByID retrieves the full record, credentials included.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindProfileByID retrieves the secret-free projection of a user.
	FindProfileByID(ctx context.Context, userID string) (*domain.UserProfile, error)

	// ExistsByUsernameOrEmail reports whether any user holds either value.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}

// UserWriter defines write operations for user data
type UserWriter interface {
	// CreateUser persists a new user. Returns apperrors.ErrDuplicate when the
	// username or email is taken.
	CreateUser(ctx context.Context, user domain.User) error

	// UpdateFields atomically applies patch and returns the updated projection.
	UpdateFields(ctx context.Context, userID string, patch domain.UserPatch) (*domain.UserProfile, error)

	// UnsetField clears a single field and returns the updated projection.
	UnsetField(ctx context.Context, userID string, field domain.UserField) (*domain.UserProfile, error)
}

// RefreshTokenSwapper rotates the stored refresh token.
type RefreshTokenSwapper interface {
	// ReplaceRefreshToken stores next only if the stored token still equals
	// expected. Returns apperrors.ErrStaleRefreshToken otherwise.
	ReplaceRefreshToken(ctx context.Context, userID, expected, next string) error
}

// UserRepositoryFacade combines all user-related repository interfaces
// This is a facade for clients that need access to all operations
type UserRepositoryFacade interface {
	UserReader
	UserWriter
	RefreshTokenSwapper
}
