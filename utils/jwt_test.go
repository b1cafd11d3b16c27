package utils

import (
	"testing"
	"time"

	userModel "pickabook/models/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *userModel.User {
	return &userModel.User{
		ID:       42,
		Uuid:     "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Username: "alice",
		Email:    "alice@example.com",
		UserType: 1,
		Credits:  10,
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)

	id, err := UserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", claims["uuid"])

	exp, ok := claims["exp"].(float64)
	require.True(t, ok)
	assert.InDelta(t, time.Now().Add(TokenValidity).Unix(), int64(exp), 5)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := GenerateToken(testUser())
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "different-secret")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	_, err := ParseToken("not-a-token")
	assert.Error(t, err)
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := GenerateToken(testUser())
	assert.Error(t, err)
}

func TestUserIDFromClaimsMissing(t *testing.T) {
	_, err := UserIDFromClaims(map[string]interface{}{})
	assert.Error(t, err)
}
