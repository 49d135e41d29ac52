package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickdesk/helpdesk-service/internal/config"
	"github.com/quickdesk/helpdesk-service/internal/domain"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	users := newFakeUserRepo()
	cfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 15, BcryptCost: 4}
	return NewAuthService(cfg, users), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, domain.RoleUser, result.User.Role)
	assert.True(t, result.User.IsActive)
	assert.NotEqual(t, "secret1", result.User.PasswordHash)

	login, err := svc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)

	claims, err := svc.TokenManager().ParseToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestRegisterValidationAndUniqueness(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "al", "alice@example.com", "secret1")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = svc.Register(ctx, "alice", "not-an-email", "secret1")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = svc.Register(ctx, "alice", "alice@example.com", "short")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = svc.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice2", "alice@example.com", "secret1")
	assert.Equal(t, "CONFLICT", domainCode(t, err))

	_, err = svc.Register(ctx, "alice", "alice2@example.com", "secret1")
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, registered.User, "secret1", "tiny")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	err = svc.ChangePassword(ctx, registered.User, "wrong", "secret2")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	require.NoError(t, svc.ChangePassword(ctx, registered.User, "secret1", "secret2"))

	_, err = svc.Login(ctx, "alice@example.com", "secret1")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))

	login, err := svc.Login(ctx, "alice@example.com", "secret2")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, login.User.ID)
}

func TestLoginFailures(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice@example.com", "wrong")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))

	account, err := users.GetByID(ctx, registered.User.ID)
	require.NoError(t, err)
	account.IsActive = false
	require.NoError(t, users.Update(ctx, account))

	_, err = svc.Login(ctx, "alice@example.com", "secret1")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))
}
