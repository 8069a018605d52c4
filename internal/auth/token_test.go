package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyToken(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	signed, err := tokens.Issue("user-123", "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signed, err := NewTokens("secret-one", time.Hour).Issue("user-123", "ada@example.com")
	require.NoError(t, err)

	_, err = NewTokens("secret-two", time.Hour).Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	now := time.Now()
	expired := tokenClaims{
		Email: "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewTokens("test-secret", time.Hour).Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokensClampsNonPositiveTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Minute} {
		tokens := NewTokens("test-secret", ttl)
		assert.Equal(t, defaultTTL, tokens.ttl, "ttl %s", ttl)

		// The issued token must not arrive pre-expired.
		signed, err := tokens.Issue("user-123", "ada@example.com")
		require.NoError(t, err)

		claims, err := tokens.Verify(signed)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID)
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	for _, garbage := range []string{"", "not-a-token", "a.b.c"} {
		_, err := tokens.Verify(garbage)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", garbage)
	}
}
