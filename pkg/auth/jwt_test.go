package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestNewAccessToken_RoundTrip(t *testing.T) {
	tok, err := NewAccessToken(7, "ink@example.com", "artist", "designs:write", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.Sub)
	assert.Equal(t, "ink@example.com", claims.Email)
	assert.Equal(t, "artist", claims.Role)
	assert.Equal(t, "designs:write", claims.Scope)
}

func TestParse_RejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(1, "a@example.com", "client", "", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = Parse(tok, "other-secret")
	assert.Error(t, err)
}

func TestParse_RejectsExpired(t *testing.T) {
	tok, err := NewAccessToken(1, "a@example.com", "client", "", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = Parse(tok, testSecret)
	assert.Error(t, err)
}

func TestParse_RejectsForeignAudience(t *testing.T) {
	claims := Claims{
		Sub: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Audience:  []string{"someone-else"},
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = Parse(tok, testSecret)
	assert.Error(t, err)
}

func TestNewRefreshToken_HasRefreshRole(t *testing.T) {
	tok, err := NewRefreshToken(3, "r@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, RoleRefresh, claims.Role)
}
