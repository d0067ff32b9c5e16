package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/repository"
)

// ErrUserNotFound is returned when the target account does not exist
var ErrUserNotFound = errors.New("user not found")

// UserService covers account administration around the session core
type UserService interface {
	GetUser(ctx context.Context, userID uint) (*models.User, error)

	// SetEmailVerified updates the flag carried by access tokens issued from now on
	SetEmailVerified(ctx context.Context, userID uint, verified bool) (*models.User, error)

	// RevokeAllSessions ends every live family of the user, e.g. after a password leak
	RevokeAllSessions(ctx context.Context, userID uint) (int64, error)
}

type userService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	now              func() time.Time
	logger           *slog.Logger
}

// NewUserService creates a new user service instance
func NewUserService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	logger *slog.Logger,
	opts ...Option,
) UserService {
	o := buildOptions(opts)
	return &userService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		now:              func() time.Time { return o.now().UTC() },
		logger:           logger,
	}
}

func (s *userService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalError("find user", err)
	}
	return user, nil
}

func (s *userService) SetEmailVerified(ctx context.Context, userID uint, verified bool) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.EmailVerified = verified
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("❌ [UserService] Failed to update user", "user_id", userID, "error", err)
		return nil, internalError("update user", err)
	}

	s.logger.Info("✅ [UserService] Email verification updated", "user_id", userID, "verified", verified)
	return user, nil
}

func (s *userService) RevokeAllSessions(ctx context.Context, userID uint) (int64, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return 0, err
	}

	revoked, err := s.refreshTokenRepo.RevokeAllUserTokens(ctx, userID, models.ReasonLogout, s.now())
	if err != nil {
		s.logger.Error("❌ [UserService] Failed to revoke sessions", "user_id", userID, "error", err)
		return 0, internalError("revoke user tokens", err)
	}

	s.logger.Info("🧯 [UserService] All sessions revoked", "user_id", userID, "revoked", revoked)
	return revoked, nil
}
