package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/service/auth"
	"github.com/taskhive/taskhive/internal/store"
)

func newUserServiceFixture(t *testing.T, users ...*domain.User) (*UserService, *fakeUserStore) {
	t.Helper()

	jwt, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "test-secret-that-is-32-characters!!",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
	})
	require.NoError(t, err)

	userStore := newFakeUserStore(users...)
	svc := NewUserService(userStore, auth.NewBcryptHasher(4), auth.NewBcryptVerifier(), jwt, nil)
	return svc, userStore
}

func TestUserServiceRegister(t *testing.T) {
	t.Parallel()

	svc, users := newUserServiceFixture(t)

	user, tokens, err := svc.Register(context.Background(), "New@Example.com", "New Member", "a-long-password")
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, domain.RoleMember, user.Role)
	assert.True(t, user.IsActive)
	assert.Empty(t, user.Password)
	assert.NotEmpty(t, user.HashedPassword)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	stored, err := users.GetByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored.Password)
}

func TestUserServiceRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newUserServiceFixture(t)

	_, _, err := svc.Register(context.Background(), "taken@example.com", "First", "a-long-password")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "taken@example.com", "Second", "a-long-password")
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestUserServiceRegisterShortPassword(t *testing.T) {
	t.Parallel()

	svc, _ := newUserServiceFixture(t)

	_, _, err := svc.Register(context.Background(), "short@example.com", "Short", "tiny")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
}

func TestUserServiceAuthenticate(t *testing.T) {
	t.Parallel()

	svc, _ := newUserServiceFixture(t)

	registered, _, err := svc.Register(context.Background(), "login@example.com", "Login", "a-long-password")
	require.NoError(t, err)

	user, tokens, err := svc.Authenticate(context.Background(), "login@example.com", "a-long-password")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, tokens.AccessToken)

	_, _, err = svc.Authenticate(context.Background(), "login@example.com", "wrong-password!")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = svc.Authenticate(context.Background(), "unknown@example.com", "a-long-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestUserServiceAuthenticateInactive(t *testing.T) {
	t.Parallel()

	svc, _ := newUserServiceFixture(t)

	user, _, err := svc.Register(context.Background(), "gone@example.com", "Gone", "a-long-password")
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(context.Background(), user.ID))

	_, _, err = svc.Authenticate(context.Background(), "gone@example.com", "a-long-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestUserServiceRefresh(t *testing.T) {
	t.Parallel()

	svc, _ := newUserServiceFixture(t)

	user, tokens, err := svc.Register(context.Background(), "refresh@example.com", "Refresh", "a-long-password")
	require.NoError(t, err)

	fresh, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)
	assert.NotEmpty(t, fresh.RefreshToken)

	// An access token is not accepted as a refresh token.
	_, err = svc.Refresh(context.Background(), tokens.AccessToken)
	assert.ErrorIs(t, err, auth.ErrWrongTokenType)

	// A deactivated account cannot refresh.
	require.NoError(t, svc.Deactivate(context.Background(), user.ID))
	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestUserServiceSetRole(t *testing.T) {
	t.Parallel()

	svc, users := newUserServiceFixture(t)

	user, _, err := svc.Register(context.Background(), "lead@example.com", "Lead", "a-long-password")
	require.NoError(t, err)

	updated, err := svc.SetRole(context.Background(), user.ID, domain.RoleTeamLead)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTeamLead, updated.Role)

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTeamLead, stored.Role)

	_, err = svc.SetRole(context.Background(), user.ID, domain.Role("emperor"))
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = svc.SetRole(context.Background(), uuid.New(), domain.RoleMentor)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}
