package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_Argon2RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := CheckPassword("s3cret-pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, NeedsRehash(hash))
}

func TestCheckPassword_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := CheckPassword("old-password", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, NeedsRehash(string(legacy)))

	ok, err = CheckPassword("nope", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)
}
