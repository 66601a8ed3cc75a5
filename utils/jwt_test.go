package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestExtractClaims(t *testing.T) {
	exp := time.Now().Add(24 * time.Hour).Unix()

	t.Run("user_id claim", func(t *testing.T) {
		tok := mintToken(t, jwt.MapClaims{"user_id": "u1", "exp": exp})

		claims, err := ExtractClaims(tok)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, exp, claims.ExpiresAt.Unix())
	})

	t.Run("uname claim fallback", func(t *testing.T) {
		tok := mintToken(t, jwt.MapClaims{"uname": "alice", "exp": exp})

		claims, err := ExtractClaims(tok)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.UserID)
	})

	t.Run("sub claim fallback", func(t *testing.T) {
		tok := mintToken(t, jwt.MapClaims{"sub": "bob"})

		claims, err := ExtractClaims(tok)
		require.NoError(t, err)
		assert.Equal(t, "bob", claims.UserID)
	})

	t.Run("no identity", func(t *testing.T) {
		tok := mintToken(t, jwt.MapClaims{"exp": exp})
		_, err := ExtractClaims(tok)
		assert.Error(t, err)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := ExtractClaims("")
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := ExtractClaims("not.a.jwt")
		assert.Error(t, err)
	})
}
