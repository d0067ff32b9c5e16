package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/service"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/testutil"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/token"
)

// ==================== AUTH SERVICE TESTS ====================

func TestAuthService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, tokens, err := f.auth.Register(ctx, "alice", "alice@example.com", "Alice", testPassword)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, []string{models.RoleUser}, []string(user.Roles))
	assert.NotEqual(t, testPassword, user.Password)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.Len(t, tokens.RefreshToken, token.SecretLength)

	root := f.record(t, tokens.RefreshToken)
	assert.True(t, root.IsRoot())
	assert.Equal(t, user.ID, root.UserID)

	tests := []struct {
		name     string
		username string
		email    string
		wantErr  error
	}{
		{"email already exists", "alice2", "alice@example.com", service.ErrEmailAlreadyExists},
		{"username taken", "alice", "other@example.com", service.ErrUsernameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, tokens, err := f.auth.Register(ctx, tt.username, tt.email, "Someone", testPassword)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, service.StatusConflict, service.StatusOf(err))
			assert.Nil(t, user)
			assert.Nil(t, tokens)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "alice")

	got, tokens, err := f.auth.Login(ctx, user.Email, testPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, int64(900), tokens.ExpiresIn)

	claims, err := f.auth.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// Unknown email and wrong password are indistinguishable
	_, _, errUnknown := f.auth.Login(ctx, "nobody@example.com", testPassword)
	_, _, errWrong := f.auth.Login(ctx, user.Email, "wrong-password")
	assert.ErrorIs(t, errUnknown, service.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, service.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	assert.Equal(t, service.StatusUnauthorized, service.StatusOf(errWrong))
}

func TestAuthService_LoginSingleSessionSupersedes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "alice")

	first := f.login(t, user).RefreshToken
	second := f.login(t, user).RefreshToken

	old := f.record(t, first)
	assert.True(t, old.IsRevoked)
	assert.Equal(t, models.ReasonSuperseded, old.Reason())
	assert.False(t, f.record(t, second).IsRevoked)

	sessions, err := f.auth.ListActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.False(t, sessions[0].Revoked)
	assert.True(t, sessions[1].Revoked)
	assert.Equal(t, string(models.ReasonSuperseded), sessions[1].ReasonRevoked)
}

func TestAuthService_LoginMultiSessionKeepsFamilies(t *testing.T) {
	f := newFixture(t, multiSession)
	user := f.createUser(t, "alice")

	first := f.login(t, user).RefreshToken
	second := f.login(t, user).RefreshToken

	assert.False(t, f.record(t, first).IsRevoked)
	assert.False(t, f.record(t, second).IsRevoked)
	assert.NotEqual(t, f.record(t, first).FamilyID, f.record(t, second).FamilyID)

	f.refresh(t, first)
	f.refresh(t, second)
}

func TestAuthService_ListActiveSessions(t *testing.T) {
	f := newFixture(t, multiSession)
	ctx := context.Background()
	user := f.createUser(t, "alice")
	other := f.createUser(t, "bob")

	phoneRoot := f.login(t, user).RefreshToken
	phoneTip := f.refresh(t, f.refresh(t, phoneRoot).RefreshToken).RefreshToken
	laptop := f.login(t, user).RefreshToken
	f.login(t, other)

	require.NoError(t, f.auth.Logout(ctx, laptop))

	sessions, err := f.auth.ListActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	// Newest family first
	assert.Equal(t, f.record(t, laptop).FamilyID, sessions[0].FamilyID)
	assert.True(t, sessions[0].Revoked)
	assert.Equal(t, string(models.ReasonLogout), sessions[0].ReasonRevoked)
	assert.Equal(t, 1, sessions[0].TokenCount)

	phone := sessions[1]
	assert.Equal(t, f.record(t, phoneRoot).FamilyID, phone.FamilyID)
	assert.False(t, phone.Revoked)
	assert.Empty(t, phone.ReasonRevoked)
	assert.Equal(t, 3, phone.TokenCount)
	assert.True(t, phone.CreatedAt.Equal(f.record(t, phoneRoot).CreatedAt))
	assert.True(t, phone.ExpiresAt.Equal(f.record(t, phoneTip).ExpiresAt))

	none, err := f.auth.ListActiveSessions(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAuthService_ListSecurityEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "alice")

	first := f.login(t, user).RefreshToken
	f.refresh(t, first)

	_, err := f.auth.RefreshToken(ctx, first)
	require.ErrorIs(t, err, service.ErrInvalidToken)

	events, err := f.auth.ListSecurityEvents(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, f.record(t, first).ID, events[0].TokenID)
	assert.Equal(t, 1, events[0].Revoked)

	count, err := f.events.ReplayCount(ctx, events[0].FamilyID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAuthService_ValidateAccessToken_Invalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.ValidateAccessToken("garbage")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

// ==================== FAILURE HANDLING (MOCKS) ====================

func newMockAuth(t *testing.T) (service.AuthService, *testutil.MockUserRepository, *testutil.MockRefreshTokenRepository) {
	users := new(testutil.MockUserRepository)
	tokens := new(testutil.MockRefreshTokenRepository)
	events := new(testutil.MockSecurityEventStore)
	cfg := testutil.NewTestConfig()
	logger := testutil.NewTestLogger()
	issuer := token.NewJWTIssuer(cfg)
	clock := service.WithClock(func() time.Time { return epoch })

	rotation := service.NewRotationService(tokens, users, token.NewSecretGenerator(), issuer, events, cfg, logger, clock)
	auth := service.NewAuthService(users, tokens, rotation, issuer, events, cfg, logger, clock)
	return auth, users, tokens
}

func TestAuthService_Login_StoreFailures(t *testing.T) {
	hashed := &models.User{ID: 1, Email: "a@example.com"}

	tests := []struct {
		name  string
		setup func(*testutil.MockUserRepository, *testutil.MockRefreshTokenRepository)
	}{
		{
			name: "user lookup fails",
			setup: func(users *testutil.MockUserRepository, tokens *testutil.MockRefreshTokenRepository) {
				users.On("FindByEmail", mock.Anything, "a@example.com").Return(nil, errors.New("db down"))
			},
		},
		{
			name: "supersede fails",
			setup: func(users *testutil.MockUserRepository, tokens *testutil.MockRefreshTokenRepository) {
				users.On("FindByEmail", mock.Anything, "a@example.com").Return(hashed, nil)
				tokens.On("RevokeAllUserTokens", mock.Anything, uint(1), models.ReasonSuperseded, epoch).
					Return(int64(0), errors.New("db down"))
			},
		},
		{
			name: "root insert fails",
			setup: func(users *testutil.MockUserRepository, tokens *testutil.MockRefreshTokenRepository) {
				users.On("FindByEmail", mock.Anything, "a@example.com").Return(hashed, nil)
				tokens.On("RevokeAllUserTokens", mock.Anything, uint(1), models.ReasonSuperseded, epoch).
					Return(int64(0), nil)
				tokens.On("Create", mock.Anything, mock.AnythingOfType("*models.RefreshToken")).
					Return(errors.New("db down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, users, tokens := newMockAuth(t)
			hashPassword(t, hashed)
			tt.setup(users, tokens)

			user, pair, err := auth.Login(context.Background(), "a@example.com", testPassword)
			assert.Nil(t, user)
			assert.Nil(t, pair)
			assert.Equal(t, service.StatusInternalError, service.StatusOf(err))
		})
	}
}

func TestAuthService_ListActiveSessions_StoreFailure(t *testing.T) {
	auth, _, tokens := newMockAuth(t)
	tokens.On("ListByUser", mock.Anything, uint(1)).Return(nil, errors.New("db down"))

	_, err := auth.ListActiveSessions(context.Background(), 1)
	assert.Equal(t, service.StatusInternalError, service.StatusOf(err))
}
