package infrastructure

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(accessTTL time.Duration) *TokenManager {
	return NewTokenManager([]byte("access-secret"), []byte("refresh-secret"), accessTTL, 7*24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager(time.Hour)
	identity := TokenIdentity{
		UserID:   uuid.New(),
		Name:     "Alice",
		Email:    "alice@example.com",
		IsAdmin:  true,
		IsSeller: false,
	}

	token, err := m.GenerateAccessToken(identity)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, identity.UserID.String(), claims.UserID)
	assert.Equal(t, identity.Name, claims.Name)
	assert.Equal(t, identity.Email, claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.False(t, claims.IsSeller)

	parsed, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, identity.UserID, parsed)
}

func TestAccessTokenExpired(t *testing.T) {
	m := newTestManager(-time.Minute)

	token, err := m.GenerateAccessToken(TokenIdentity{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	m := newTestManager(time.Hour)
	other := NewTokenManager([]byte("other"), []byte("other"), time.Hour, time.Hour)

	token, err := m.GenerateAccessToken(TokenIdentity{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := newTestManager(time.Hour)
	userID := uuid.New()

	token, err := m.GenerateRefreshToken(userID)
	require.NoError(t, err)

	got, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestRefreshTokenGarbage(t *testing.T) {
	m := newTestManager(time.Hour)

	_, err := m.ValidateRefreshToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// an access token is not a valid refresh token
	access, err := m.GenerateAccessToken(TokenIdentity{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = m.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}
