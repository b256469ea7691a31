package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret!")
	require.NoError(t, err)
	assert.Contains(t, string(hash), "$argon2id$v=19$")

	ok, err := VerifyPassword("Sup3r$ecret!", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	first, err := HashPassword("Sup3r$ecret!")
	require.NoError(t, err)
	second, err := HashPassword("Sup3r$ecret!")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordRejectsGarbage(t *testing.T) {
	_, err := VerifyPassword("whatever", []byte("not-an-encoded-hash"))
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"

	token, err := GenerateAccessToken(secret, "acc-1", "sess-1", "writer", -time.Minute)
	require.NoError(t, err)

	// Negative TTL produces an already-expired token.
	_, err = ParseAccessToken(token, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	token, err = GenerateAccessToken(secret, "acc-1", "sess-1", "writer", time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "writer", claims.Role)

	_, err = ParseAccessToken(token, "other-secret")
	assert.Error(t, err)
}

func TestRefreshTokenHashMatchesGenerated(t *testing.T) {
	token, hash, err := GenerateRefreshToken(32)
	require.NoError(t, err)
	assert.Equal(t, hash, HashRefreshToken(token))
}
