package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SscSPs/videotube_backend/internal/apperrors"
	"github.com/SscSPs/videotube_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/videotube_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/videotube_backend/internal/core/ports/services"
	"github.com/SscSPs/videotube_backend/internal/dto"
	"github.com/SscSPs/videotube_backend/internal/utils"
	"github.com/google/uuid"
)

const (
	defaultUploadTimeout = 30 * time.Second

	msgInvalidCredentials = "Invalid user credentials"
	msgInvalidRefresh     = "Invalid refresh token"
	msgStaleRefresh       = "Refresh token is expired or used"
	msgInvalidAccess      = "Invalid access token"
	msgPasswordTooLong    = "Password must be at most 72 bytes"
	msgUsernameAt         = "Username must not contain '@'"
)

// userService implements the UserSvcFacade: registration, the session
// lifecycle and self-service account updates.
type userService struct {
	BaseService
	userRepo    portsrepo.UserRepositoryFacade
	hasher      portssvc.PasswordHasher
	tokens      portssvc.TokenSvcFacade
	objectStore portssvc.ObjectStore

	uploadTimeout                  time.Duration
	revokeSessionsOnPasswordChange bool
}

// UserServiceOption is a functional option for configuring the user service
type UserServiceOption func(*userService)

// WithUploadTimeout bounds every object store call.
func WithUploadTimeout(d time.Duration) UserServiceOption {
	return func(s *userService) {
		if d > 0 {
			s.uploadTimeout = d
		}
	}
}

// WithSessionRevocationOnPasswordChange makes ChangePassword also drop the
// stored refresh token.
func WithSessionRevocationOnPasswordChange(enabled bool) UserServiceOption {
	return func(s *userService) {
		s.revokeSessionsOnPasswordChange = enabled
	}
}

// NewUserService creates a new user service with the provided options
func NewUserService(
	repo portsrepo.UserRepositoryFacade,
	hasher portssvc.PasswordHasher,
	tokens portssvc.TokenSvcFacade,
	objectStore portssvc.ObjectStore,
	options ...UserServiceOption,
) portssvc.UserSvcFacade {
	svc := &userService{
		userRepo:      repo,
		hasher:        hasher,
		tokens:        tokens,
		objectStore:   objectStore,
		uploadTimeout: defaultUploadTimeout,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Register creates a new account. The avatar upload is mandatory, the cover
// image is best effort.
func (s *userService) Register(ctx context.Context, req dto.RegisterUserRequest) (*domain.UserProfile, error) {
	fullName := strings.TrimSpace(req.FullName)
	username := domain.NormalizeIdentity(req.Username)
	email := domain.NormalizeIdentity(req.Email)
	if fullName == "" || username == "" || email == "" || strings.TrimSpace(req.Password) == "" {
		return nil, apperrors.InvalidInput("All fields are required")
	}
	// A username shaped like an email could shadow another user's email at login.
	if strings.Contains(username, "@") {
		return nil, apperrors.InvalidInput(msgUsernameAt)
	}
	if len(req.Password) > utils.MaxPasswordBytes {
		return nil, apperrors.InvalidInput(msgPasswordTooLong)
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		s.LogError(ctx, err, "Failed to check for existing user")
		return nil, apperrors.Internal("Failed to register user", err)
	}
	if exists {
		return nil, apperrors.Conflict("User with email or username already exists", nil)
	}

	if req.AvatarLocalPath == "" {
		return nil, apperrors.InvalidInput("Avatar file is required")
	}
	avatarURL, err := s.upload(ctx, req.AvatarLocalPath)
	if err != nil {
		s.LogError(ctx, err, "Avatar upload failed")
		return nil, apperrors.Upstream("Error while uploading avatar", err)
	}

	coverImageURL := ""
	if req.CoverImageLocalPath != "" {
		if url, err := s.upload(ctx, req.CoverImageLocalPath); err != nil {
			s.LogWarn(ctx, "Cover image upload failed, continuing without it", slog.String("error", err.Error()))
		} else {
			coverImageURL = url
		}
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return nil, apperrors.Internal("Failed to register user", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		UserID:        uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		WatchHistory:  []string{},
		Timestamps:    domain.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.Conflict("User with email or username already exists", err)
		}
		s.LogError(ctx, err, "Failed to create user")
		return nil, apperrors.Internal("Failed to register user", err)
	}

	created, err := s.userRepo.FindProfileByID(ctx, user.UserID)
	if err != nil {
		s.LogError(ctx, err, "Created user could not be read back", slog.String("user_id", user.UserID))
		return nil, apperrors.Internal("Something went wrong while registering the user", err)
	}

	s.LogInfo(ctx, "User registered", slog.String("user_id", created.UserID))
	return created, nil
}

// Login verifies credentials, issues a token pair and stores the refresh token.
// Unknown users and wrong passwords produce the same error.
func (s *userService) Login(ctx context.Context, req dto.LoginRequest) (*domain.Session, error) {
	identity := domain.NormalizeIdentity(req.Identity())
	if identity == "" {
		return nil, apperrors.InvalidInput("Username or email is required")
	}

	user, err := s.userRepo.FindUserByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgInvalidCredentials, nil)
		}
		s.LogError(ctx, err, "Failed to look up user for login")
		return nil, apperrors.Internal("Failed to log in", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.LogWarn(ctx, "Login rejected", slog.String("user_id", user.UserID))
		return nil, apperrors.Unauthorized(msgInvalidCredentials, nil)
	}

	pair, err := s.issueTokenPair(user.Profile())
	if err != nil {
		s.LogError(ctx, err, "Failed to issue tokens", slog.String("user_id", user.UserID))
		return nil, apperrors.Internal("Something went wrong while generating tokens", err)
	}

	profile, err := s.userRepo.UpdateFields(ctx, user.UserID, domain.UserPatch{RefreshToken: &pair.RefreshToken})
	if err != nil {
		s.LogError(ctx, err, "Failed to store refresh token", slog.String("user_id", user.UserID))
		return nil, apperrors.Internal("Something went wrong while generating tokens", err)
	}

	s.LogInfo(ctx, "User logged in", slog.String("user_id", user.UserID))
	return &domain.Session{User: profile, TokenPair: *pair}, nil
}

// RefreshSession exchanges the current refresh token for a new pair. The
// presented token must equal the stored one, so each token is usable once.
func (s *userService) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, apperrors.Unauthorized("Unauthorized request", nil)
	}

	claims, err := s.tokens.Verify(refreshToken, domain.RefreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(msgInvalidRefresh, err)
	}

	user, err := s.userRepo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgInvalidRefresh, err)
		}
		s.LogError(ctx, err, "Failed to look up user for refresh", slog.String("user_id", claims.UserID))
		return nil, apperrors.Internal("Failed to refresh session", err)
	}

	if !tokensEqual(user.RefreshToken, refreshToken) {
		s.LogWarn(ctx, "Stale or reused refresh token presented", slog.String("user_id", user.UserID))
		return nil, apperrors.Unauthorized(msgStaleRefresh, apperrors.ErrStaleRefreshToken)
	}

	profile := user.Profile()
	pair, err := s.issueTokenPair(profile)
	if err != nil {
		s.LogError(ctx, err, "Failed to issue tokens", slog.String("user_id", user.UserID))
		return nil, apperrors.Internal("Something went wrong while generating tokens", err)
	}

	if err := s.userRepo.ReplaceRefreshToken(ctx, user.UserID, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, apperrors.ErrStaleRefreshToken) || errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, "Refresh token rotated concurrently", slog.String("user_id", user.UserID))
			return nil, apperrors.Unauthorized(msgStaleRefresh, err)
		}
		s.LogError(ctx, err, "Failed to rotate refresh token", slog.String("user_id", user.UserID))
		return nil, apperrors.Internal("Failed to refresh session", err)
	}

	return &domain.Session{User: profile, TokenPair: *pair}, nil
}

// Logout drops the stored refresh token.
func (s *userService) Logout(ctx context.Context, userID string) error {
	if _, err := s.userRepo.UnsetField(ctx, userID, domain.FieldRefreshToken); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		s.LogError(ctx, err, "Failed to clear refresh token", slog.String("user_id", userID))
		return apperrors.Internal("Failed to log out", err)
	}
	s.LogInfo(ctx, "User logged out", slog.String("user_id", userID))
	return nil
}

// GetCurrentUser returns the user's projection.
func (s *userService) GetCurrentUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	profile, err := s.userRepo.FindProfileByID(ctx, userID)
	if err != nil {
		return nil, s.profileError(ctx, err, userID, "Failed to fetch user")
	}
	return profile, nil
}

// ChangePassword replaces the stored hash after checking the old password.
func (s *userService) ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error {
	if req.OldPassword == "" || strings.TrimSpace(req.NewPassword) == "" {
		return apperrors.InvalidInput("oldPassword and newPassword are required")
	}
	if len(req.NewPassword) > utils.MaxPasswordBytes {
		return apperrors.InvalidInput(msgPasswordTooLong)
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Unauthorized("Unauthorized request", err)
		}
		s.LogError(ctx, err, "Failed to look up user for password change", slog.String("user_id", userID))
		return apperrors.Internal("Failed to change password", err)
	}

	if !s.hasher.Verify(req.OldPassword, user.PasswordHash) {
		return apperrors.Unauthorized("Invalid old password", nil)
	}

	newHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return apperrors.Internal("Failed to change password", err)
	}
	if _, err := s.userRepo.UpdateFields(ctx, userID, domain.UserPatch{PasswordHash: &newHash}); err != nil {
		s.LogError(ctx, err, "Failed to store password hash", slog.String("user_id", userID))
		return apperrors.Internal("Failed to change password", err)
	}

	if s.revokeSessionsOnPasswordChange {
		if _, err := s.userRepo.UnsetField(ctx, userID, domain.FieldRefreshToken); err != nil {
			s.LogError(ctx, err, "Failed to revoke sessions after password change", slog.String("user_id", userID))
			return apperrors.Internal("Password changed but sessions could not be revoked", err)
		}
	}

	s.LogInfo(ctx, "Password changed", slog.String("user_id", userID))
	return nil
}

// UpdateAccountDetails updates the email and/or full name.
func (s *userService) UpdateAccountDetails(ctx context.Context, userID string, req dto.UpdateAccountRequest) (*domain.UserProfile, error) {
	var patch domain.UserPatch
	if req.Email != nil {
		if email := domain.NormalizeIdentity(*req.Email); email != "" {
			patch.Email = &email
		}
	}
	if req.FullName != nil {
		if fullName := strings.TrimSpace(*req.FullName); fullName != "" {
			patch.FullName = &fullName
		}
	}
	if patch.IsEmpty() {
		return nil, apperrors.InvalidInput("Email or full name is required")
	}

	profile, err := s.userRepo.UpdateFields(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.Conflict("Email is already in use", err)
		}
		return nil, s.profileError(ctx, err, userID, "Failed to update account details")
	}
	return profile, nil
}

// UpdateAvatar uploads a new avatar and stores its URL.
func (s *userService) UpdateAvatar(ctx context.Context, userID string, localPath string) (*domain.UserProfile, error) {
	return s.replaceImage(ctx, userID, localPath, "Avatar", func(url string) domain.UserPatch {
		return domain.UserPatch{AvatarURL: &url}
	})
}

// UpdateCoverImage uploads a new cover image and stores its URL.
func (s *userService) UpdateCoverImage(ctx context.Context, userID string, localPath string) (*domain.UserProfile, error) {
	return s.replaceImage(ctx, userID, localPath, "Cover image", func(url string) domain.UserPatch {
		return domain.UserPatch{CoverImageURL: &url}
	})
}

// AuthenticateAccessToken verifies an access token and resolves its user.
// Every failure is reported as Unauthorized.
func (s *userService) AuthenticateAccessToken(ctx context.Context, accessToken string) (*domain.UserProfile, error) {
	if accessToken == "" {
		return nil, apperrors.Unauthorized("Unauthorized request", nil)
	}

	claims, err := s.tokens.Verify(accessToken, domain.AccessToken)
	if err != nil {
		return nil, apperrors.Unauthorized(msgInvalidAccess, err)
	}

	profile, err := s.userRepo.FindProfileByID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to resolve token user", slog.String("user_id", claims.UserID))
		}
		return nil, apperrors.Unauthorized(msgInvalidAccess, err)
	}
	return profile, nil
}

func (s *userService) replaceImage(ctx context.Context, userID, localPath, label string, patchFor func(url string) domain.UserPatch) (*domain.UserProfile, error) {
	if localPath == "" {
		return nil, apperrors.InvalidInput(label + " file is missing")
	}

	url, err := s.upload(ctx, localPath)
	if err != nil {
		s.LogError(ctx, err, "Image upload failed", slog.String("user_id", userID), slog.String("image", label))
		return nil, apperrors.Upstream("Error while uploading "+strings.ToLower(label), err)
	}

	profile, err := s.userRepo.UpdateFields(ctx, userID, patchFor(url))
	if err != nil {
		return nil, s.profileError(ctx, err, userID, "Failed to update "+strings.ToLower(label))
	}
	return profile, nil
}

// upload runs an object store call bounded by the upload timeout. The call is
// abandoned, not awaited, once the deadline passes.
func (s *userService) upload(ctx context.Context, localPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	type result struct {
		url string
		err error
	}
	done := make(chan result, 1)
	go func() {
		url, err := s.objectStore.Upload(ctx, localPath)
		done <- result{url: url, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		if r.url == "" {
			return "", errors.New("object store returned no URL")
		}
		return r.url, nil
	case <-ctx.Done():
		return "", fmt.Errorf("upload timed out: %w", ctx.Err())
	}
}

func (s *userService) issueTokenPair(profile *domain.UserProfile) (*domain.TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(profile)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefreshToken(profile.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

func (s *userService) profileError(ctx context.Context, err error, userID, msg string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewAppError(http.StatusNotFound, "User not found", err)
	}
	s.LogError(ctx, err, msg, slog.String("user_id", userID))
	return apperrors.Internal(msg, err)
}

func tokensEqual(stored *string, presented string) bool {
	if stored == nil || *stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(presented)) == 1
}
