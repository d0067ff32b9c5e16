package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/service"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/testutil"
)

func newUserService(f *fixture) service.UserService {
	return service.NewUserService(f.users, f.tokens, testutil.NewTestLogger(), service.WithClock(f.clock.Now))
}

func TestUserService_GetUser(t *testing.T) {
	f := newFixture(t)
	users := newUserService(f)
	user := f.createUser(t, "alice")

	got, err := users.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = users.GetUser(context.Background(), 999)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUserService_SetEmailVerifiedReachesNewTokens(t *testing.T) {
	f := newFixture(t)
	users := newUserService(f)
	user := f.createUser(t, "alice")

	secret := f.login(t, user).RefreshToken

	updated, err := users.SetEmailVerified(context.Background(), user.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.EmailVerified)

	claims, err := f.auth.ValidateAccessToken(f.refresh(t, secret).AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.EmailVerified)
}

func TestUserService_RevokeAllSessions(t *testing.T) {
	f := newFixture(t, multiSession)
	ctx := context.Background()
	users := newUserService(f)
	user := f.createUser(t, "alice")

	phone := f.login(t, user).RefreshToken
	laptop := f.login(t, user).RefreshToken

	revoked, err := users.RevokeAllSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), revoked)

	assert.Equal(t, models.ReasonLogout, f.record(t, phone).Reason())
	assert.Equal(t, models.ReasonLogout, f.record(t, laptop).Reason())

	_, err = users.RevokeAllSessions(ctx, 999)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}
