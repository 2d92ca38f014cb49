package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret-for-tests")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret-for-tests")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.AccessTokenExpiry)
	assert.Equal(t, 240*time.Hour, cfg.RefreshTokenExpiry)
	assert.Equal(t, "accessToken", cfg.AccessTokenCookieName)
	assert.Equal(t, "refreshToken", cfg.RefreshTokenCookieName)
	assert.True(t, cfg.CookieSecure)
	assert.False(t, cfg.RevokeSessionsOnPasswordChange)
	assert.Equal(t, 30*time.Second, cfg.UploadTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRY", "15m")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "72h")
	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("S3_ENDPOINT", "http://minio:9000/")
	t.Setenv("S3_BUCKET", "media")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.AccessTokenExpiry)
	assert.Equal(t, 72*time.Hour, cfg.RefreshTokenExpiry)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "http://minio:9000/media", cfg.S3PublicBaseURL)
}

func TestLoadConfig_RejectsMissingOrSharedSecrets(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("ACCESS_TOKEN_SECRET", "same")
	t.Setenv("REFRESH_TOKEN_SECRET", "same")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RejectsBadDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRY", "soon")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "ACCESS_TOKEN_EXPIRY")
}
