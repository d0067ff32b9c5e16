package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/config"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/repository"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/service"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/testutil"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/token"
)

const testPassword = "password123"

var epoch = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

// fixture wires the real services over SQLite and miniredis
type fixture struct {
	cfg      *config.Config
	clock    *testutil.Clock
	tokens   repository.RefreshTokenRepository
	users    repository.UserRepository
	events   *database.RedisClient
	rotation service.RotationService
	auth     service.AuthService
}

func newFixture(t *testing.T, mutate ...func(cfg *config.Config)) *fixture {
	t.Helper()

	cfg := testutil.NewTestConfig()
	for _, m := range mutate {
		m(cfg)
	}

	db := testutil.NewTestDB(t)
	logger := testutil.NewTestLogger()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	events := database.NewRedisClientForTesting(redis.NewClient(&redis.Options{Addr: mr.Addr()}), cfg, logger)
	t.Cleanup(func() {
		events.Close()
		mr.Close()
	})

	f := &fixture{
		cfg:    cfg,
		clock:  testutil.NewClock(epoch),
		tokens: repository.NewRefreshTokenRepository(db),
		users:  repository.NewUserRepository(db),
		events: events,
	}

	issuer := token.NewJWTIssuer(cfg)
	f.rotation = service.NewRotationService(
		f.tokens, f.users, token.NewSecretGenerator(), issuer, events, cfg, logger,
		service.WithClock(f.clock.Now),
	)
	f.auth = service.NewAuthService(
		f.users, f.tokens, f.rotation, issuer, events, cfg, logger,
		service.WithClock(f.clock.Now),
	)
	return f
}

// createUser stores a user directly, skipping the registration session
func (f *fixture) createUser(t *testing.T, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: username,
		Password: string(hash),
		Roles:    []string{models.RoleUser},
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) login(t *testing.T, user *models.User) *service.TokenPair {
	t.Helper()

	_, tokens, err := f.auth.Login(context.Background(), user.Email, testPassword)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return tokens
}

func (f *fixture) refresh(t *testing.T, secret string) *service.TokenPair {
	t.Helper()

	tokens, err := f.rotation.Refresh(context.Background(), secret)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return tokens
}

func (f *fixture) record(t *testing.T, secret string) *models.RefreshToken {
	t.Helper()

	rec, err := f.tokens.FindBySecret(context.Background(), secret)
	require.NoError(t, err)
	return rec
}

func (f *fixture) family(t *testing.T, secret string) []models.RefreshToken {
	t.Helper()

	chain, err := f.tokens.ListByFamily(context.Background(), f.record(t, secret).FamilyID)
	require.NoError(t, err)
	return chain
}

func multiSession(cfg *config.Config) {
	cfg.SessionPolicy = config.SessionPolicyMulti
}

func hashPassword(t *testing.T, user *models.User) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user.Password = string(hash)
}
