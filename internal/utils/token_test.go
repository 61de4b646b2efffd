package utils_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hassan-Maher/Quizify/internal/utils"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := utils.GenerateAccessToken("user-123", "a@x.com", "secret", 60)
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(token, &utils.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(*utils.AccessClaims)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	token, err := utils.GenerateAccessToken("user-123", "a@x.com", "secret", 60)
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(token, &utils.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := utils.HashPassword("longpassword123")
	require.NoError(t, err)
	assert.NotEqual(t, "longpassword123", hash)
	assert.True(t, utils.CheckPassword(hash, "longpassword123"))
	assert.False(t, utils.CheckPassword(hash, "wrongpassword1"))
}
