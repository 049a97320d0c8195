package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalpay/capitalpay-api/config"
)

func TestTokenRoundTrip(t *testing.T) {
	config.SetForTesting(config.AppConfig{JWTSecret: "unit-test-secret", JWTExpireHours: 1})

	token, err := GenerateToken(42, "moderator")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "moderator", claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	config.SetForTesting(config.AppConfig{JWTSecret: "first-secret", JWTExpireHours: 1})
	token, err := GenerateToken(7, "user")
	require.NoError(t, err)

	config.SetForTesting(config.AppConfig{JWTSecret: "second-secret", JWTExpireHours: 1})
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	config.SetForTesting(config.AppConfig{JWTSecret: "unit-test-secret", JWTExpireHours: 1})
	_, err := ParseToken("not.a.token")
	assert.Error(t, err)
}
