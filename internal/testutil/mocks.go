package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/repository"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/service"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/token"
)

// ==================== MOCK AUTH SERVICE ====================

// MockAuthService implements service.AuthService for testing
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, username, email, fullName, password string) (*models.User, *service.TokenPair, error) {
	args := m.Called(ctx, username, email, fullName, password)
	return userArg(args, 0), pairArg(args, 1), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.User, *service.TokenPair, error) {
	args := m.Called(ctx, email, password)
	return userArg(args, 0), pairArg(args, 1), args.Error(2)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	return pairArg(args, 0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) ValidateAccessToken(tokenString string) (*token.AccessClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.AccessClaims), args.Error(1)
}

func (m *MockAuthService) ListActiveSessions(ctx context.Context, userID uint) ([]service.SessionSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SessionSummary), args.Error(1)
}

func (m *MockAuthService) ListSecurityEvents(ctx context.Context, userID uint) ([]models.BreachEvent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BreachEvent), args.Error(1)
}

func userArg(args mock.Arguments, i int) *models.User {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*models.User)
}

func pairArg(args mock.Arguments, i int) *service.TokenPair {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*service.TokenPair)
}

// ==================== MOCK REFRESH TOKEN REPOSITORY ====================

// MockRefreshTokenRepository implements repository.RefreshTokenRepository for testing.
// WithinTx runs the callback against the mock itself.
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, t *models.RefreshToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) FindBySecret(ctx context.Context, secret string) (*models.RefreshToken, error) {
	args := m.Called(ctx, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.RefreshToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.RefreshToken, error) {
	args := m.Called(ctx, familyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) ListByUser(ctx context.Context, userID uint) ([]models.RefreshToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) MarkRevoked(ctx context.Context, id uuid.UUID, reason models.RevocationReason, at time.Time) error {
	args := m.Called(ctx, id, reason, at)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) ConsumeForRotation(ctx context.Context, id, replacedBy uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, replacedBy, at)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) RevokeAllUserTokens(ctx context.Context, userID uint, reason models.RevocationReason, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, reason, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenRepository) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenRepository) WithinTx(ctx context.Context, fn func(repo repository.RefreshTokenRepository) error) error {
	return fn(m)
}

// ==================== MOCK USER REPOSITORY ====================

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ==================== MOCK SECURITY EVENT STORE ====================

// MockSecurityEventStore implements database.SecurityEventStore for testing
type MockSecurityEventStore struct {
	mock.Mock
}

func (m *MockSecurityEventStore) RecordBreach(ctx context.Context, event models.BreachEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSecurityEventStore) ListBreaches(ctx context.Context, userID uint) ([]models.BreachEvent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BreachEvent), args.Error(1)
}

func (m *MockSecurityEventStore) ReplayCount(ctx context.Context, familyID uuid.UUID) (int64, error) {
	args := m.Called(ctx, familyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSecurityEventStore) Close() error {
	return nil
}

// ==================== MOCK USER SERVICE ====================

// MockUserService implements service.UserService for testing
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	args := m.Called(ctx, userID)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserService) SetEmailVerified(ctx context.Context, userID uint, verified bool) (*models.User, error) {
	args := m.Called(ctx, userID, verified)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserService) RevokeAllSessions(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
