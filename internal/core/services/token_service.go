package services

import (
	"fmt"
	"time"

	"github.com/SscSPs/videotube_backend/internal/apperrors"
	"github.com/SscSPs/videotube_backend/internal/core/domain"
	portssvc "github.com/SscSPs/videotube_backend/internal/core/ports/services"
	"github.com/SscSPs/videotube_backend/internal/platform/config"
	"github.com/SscSPs/videotube_backend/internal/utils"
)

// tokenKey is the signing secret and lifetime of one token class.
type tokenKey struct {
	secret string
	expiry time.Duration
}

// tokenService implements the TokenSvcFacade with two independent HMAC keys.
type tokenService struct {
	issuer string
	keys   map[domain.TokenClass]tokenKey
}

// NewTokenService creates a new instance of tokenService.
func NewTokenService(cfg *config.Config) portssvc.TokenSvcFacade {
	return &tokenService{
		issuer: cfg.JWTIssuer,
		keys: map[domain.TokenClass]tokenKey{
			domain.AccessToken:  {secret: cfg.AccessTokenSecret, expiry: cfg.AccessTokenExpiry},
			domain.RefreshToken: {secret: cfg.RefreshTokenSecret, expiry: cfg.RefreshTokenExpiry},
		},
	}
}

// IssueAccessToken creates a new JWT access token for the given user.
func (s *tokenService) IssueAccessToken(user *domain.UserProfile) (string, time.Time, error) {
	claims := utils.UserClaims{
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	}
	claims.Subject = user.UserID
	return s.sign(domain.AccessToken, claims)
}

// IssueRefreshToken creates a new JWT refresh token carrying only the user ID.
func (s *tokenService) IssueRefreshToken(userID string) (string, time.Time, error) {
	claims := utils.UserClaims{}
	claims.Subject = userID
	return s.sign(domain.RefreshToken, claims)
}

func (s *tokenService) sign(class domain.TokenClass, claims utils.UserClaims) (string, time.Time, error) {
	key, ok := s.keys[class]
	if !ok {
		return "", time.Time{}, fmt.Errorf("unknown token class %q", class)
	}
	token, expiresAt, err := utils.GenerateJWT(claims, key.secret, key.expiry, s.issuer)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", class, err)
	}
	return token, expiresAt, nil
}

// Verify validates a token against the key of class.
func (s *tokenService) Verify(token string, class domain.TokenClass) (*domain.TokenClaims, error) {
	key, ok := s.keys[class]
	if !ok || token == "" {
		return nil, apperrors.ErrInvalidToken
	}
	claims, err := utils.ParseAndValidateJWT(token, key.secret, s.issuer)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	out := &domain.TokenClaims{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
		FullName: claims.FullName,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
