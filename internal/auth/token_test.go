package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	token, expiresAt, err := tm.GenerateToken("u1", domain.RoleAgent)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleAgent, claims.Role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 15).GenerateToken("u1", domain.RoleUser)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 15).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("secret", 15).ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret1", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	require.NoError(t, ComparePassword(hash, "secret1"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}
