package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	signed, err := IssueToken(secret, "user-1", RoleCompany, time.Hour)
	require.NoError(t, err)

	userID, role, err := ParseToken(secret, signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, RoleCompany, role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	signed, err := IssueToken([]byte("a"), "user-1", RoleClient, time.Hour)
	require.NoError(t, err)

	_, _, err = ParseToken([]byte("b"), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	signed, err := IssueToken([]byte("a"), "user-1", RoleClient, -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseToken([]byte("a"), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, _, err := ParseToken([]byte("a"), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
