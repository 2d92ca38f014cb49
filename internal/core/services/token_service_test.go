package services_test

import (
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/videotube_backend/internal/apperrors"
	"github.com/SscSPs/videotube_backend/internal/core/domain"
	"github.com/SscSPs/videotube_backend/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_AccessRoundTrip(t *testing.T) {
	tokens := services.NewTokenService(testConfig())
	user := &domain.UserProfile{UserID: "u-1", Username: "alice", Email: "alice@example.com", FullName: "Alice"}

	token, expiresAt, err := tokens.IssueAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 2*time.Second)

	claims, err := tokens.Verify(token, domain.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.FullName)
	assert.NotEmpty(t, claims.TokenID)
}

func TestTokenService_RefreshCarriesOnlyUserID(t *testing.T) {
	tokens := services.NewTokenService(testConfig())

	token, _, err := tokens.IssueRefreshToken("u-1")
	require.NoError(t, err)

	claims, err := tokens.Verify(token, domain.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.Username)
	assert.Empty(t, claims.FullName)
}

func TestTokenService_ClassesDoNotCrossVerify(t *testing.T) {
	tokens := services.NewTokenService(testConfig())
	access, _, err := tokens.IssueAccessToken(&domain.UserProfile{UserID: "u-1"})
	require.NoError(t, err)
	refresh, _, err := tokens.IssueRefreshToken("u-1")
	require.NoError(t, err)

	_, err = tokens.Verify(access, domain.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	_, err = tokens.Verify(refresh, domain.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_SameSecondTokensDiffer(t *testing.T) {
	tokens := services.NewTokenService(testConfig())

	first, _, err := tokens.IssueRefreshToken("u-1")
	require.NoError(t, err)
	second, _, err := tokens.IssueRefreshToken("u-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenService_RejectsForeignIssuerAndKey(t *testing.T) {
	other := testConfig()
	other.JWTIssuer = "someone-else"
	foreignIssuer, _, err := services.NewTokenService(other).IssueRefreshToken("u-1")
	require.NoError(t, err)

	other = testConfig()
	other.RefreshTokenSecret = "not-our-secret"
	foreignKey, _, err := services.NewTokenService(other).IssueRefreshToken("u-1")
	require.NoError(t, err)

	tokens := services.NewTokenService(testConfig())
	for _, token := range []string{foreignIssuer, foreignKey, "", "a.b.c"} {
		_, err := tokens.Verify(token, domain.RefreshToken)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	}
}

func TestTokenService_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshTokenExpiry = time.Millisecond
	tokens := services.NewTokenService(cfg)

	token, _, err := tokens.IssueRefreshToken("u-1")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = tokens.Verify(token, domain.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestPasswordHasher(t *testing.T) {
	hasher := services.NewPasswordHasher()

	digest, err := hasher.Hash("wonderland")
	require.NoError(t, err)
	assert.NotEqual(t, "wonderland", digest)
	assert.True(t, hasher.Verify("wonderland", digest))
	assert.False(t, hasher.Verify("Wonderland", digest))
	assert.False(t, hasher.Verify("", digest))
	assert.False(t, hasher.Verify("wonderland", "not-a-digest"))

	_, err = hasher.Hash("")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// bcrypt limits input by bytes: 72 two-byte runes is 144 bytes.
	_, err = hasher.Hash(strings.Repeat("é", 72))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	digest, err = hasher.Hash(strings.Repeat("a", 72))
	require.NoError(t, err)
	assert.True(t, hasher.Verify(strings.Repeat("a", 72), digest))
}
