package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NotContains(t, hash, "hunter22", "hash must not embed the plaintext")
	assert.True(t, strings.HasPrefix(hash, "$2"), "expected a bcrypt hash, got %q", hash)

	assert.True(t, VerifyPassword(hash, "hunter22"))
	assert.False(t, VerifyPassword(hash, "hunter23"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, err := HashPassword("same input")
	require.NoError(t, err)
	second, err := HashPassword("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "bcrypt salts must differ per hash")
	assert.True(t, VerifyPassword(first, "same input"))
	assert.True(t, VerifyPassword(second, "same input"))
}

func TestVerifyPasswordRejectsGarbageHash(t *testing.T) {
	assert.False(t, VerifyPassword("not a bcrypt hash", "anything"))
}
