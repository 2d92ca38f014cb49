package dto

import "github.com/SscSPs/videotube_backend/internal/core/domain"

// LoginResponse represents the data of a successful login.
type LoginResponse struct {
	User         *domain.UserProfile `json:"user"`
	AccessToken  string              `json:"accessToken"`
	RefreshToken string              `json:"refreshToken"`
}

// RefreshTokenResponse represents the data of a successful token refresh.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ToLoginResponse converts a domain.Session to the login response body.
func ToLoginResponse(s *domain.Session) LoginResponse {
	return LoginResponse{User: s.User, AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
}

// ToRefreshTokenResponse converts a domain.Session to the refresh response body.
func ToRefreshTokenResponse(s *domain.Session) RefreshTokenResponse {
	return RefreshTokenResponse{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
}
