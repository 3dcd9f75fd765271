package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) JWTService {
	t.Helper()
	svc, err := NewJWTService(Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.New()

	pair, err := svc.GenerateTokenPair(userID, "owner@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "owner@example.com", claims.Email)
}

func TestAccessTokenRejectedAsRefresh(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.GenerateTokenPair(uuid.New(), "owner@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.GenerateTokenPair(uuid.New(), "owner@example.com")
	require.NoError(t, err)

	tampered := pair.AccessToken + "x"
	_, err = svc.ValidateAccessToken(tampered)
	assert.Error(t, err)
}

func TestNewJWTServiceRequiresSecrets(t *testing.T) {
	_, err := NewJWTService(Config{})
	assert.Error(t, err)
}
