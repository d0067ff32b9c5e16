package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/config"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/repository"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/token"
)

// breachDetail is logged and stored with every reuse-triggered revocation
const breachDetail = "breach detected via token reuse"

// revokeFamilyPasses bounds the sweeps RevokeFamily makes over a family. A second
// pass catches a tip committed by a rotation that raced the first one.
const revokeFamilyPasses = 3

// RotationService owns the refresh token state machine. A client that sent a
// refresh request and got no response must treat its secret as spent: the
// rotation may have committed, and presenting the secret again is a reuse.
type RotationService interface {
	StartFamily(ctx context.Context, userID uint) (*models.RefreshToken, error)
	Refresh(ctx context.Context, secret string) (*TokenPair, error)
	RevokeFamily(ctx context.Context, familyID uuid.UUID, reason models.RevocationReason) (int, error)
	Logout(ctx context.Context, secret string) error
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type rotationService struct {
	store      repository.RefreshTokenRepository
	users      repository.UserRepository
	secrets    token.SecretGenerator
	issuer     token.AccessTokenIssuer
	events     database.SecurityEventStore
	refreshTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewRotationService creates the refresh rotation service
func NewRotationService(
	store repository.RefreshTokenRepository,
	users repository.UserRepository,
	secrets token.SecretGenerator,
	issuer token.AccessTokenIssuer,
	events database.SecurityEventStore,
	cfg *config.Config,
	logger *slog.Logger,
	opts ...Option,
) RotationService {
	o := buildOptions(opts)
	return &rotationService{
		store:      store,
		users:      users,
		secrets:    secrets,
		issuer:     issuer,
		events:     events,
		refreshTTL: time.Duration(cfg.RefreshTokenExpiration) * time.Second,
		now:        func() time.Time { return o.now().UTC() },
		logger:     logger,
	}
}

// StartFamily persists the root token of a new family. The returned record
// carries the plaintext secret in Token.
func (s *rotationService) StartFamily(ctx context.Context, userID uint) (*models.RefreshToken, error) {
	secret, err := s.secrets.NewSecret()
	if err != nil {
		return nil, internalError("generate refresh secret", err)
	}

	now := s.now()
	root := &models.RefreshToken{
		ID:        uuid.New(),
		Token:     secret,
		UserID:    userID,
		FamilyID:  uuid.New(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	}

	if err := s.store.Create(ctx, root); err != nil {
		if errors.Is(err, repository.ErrTokenConflict) {
			s.logger.Error("💥 [RotationService] Refresh secret collision on family start", "user_id", userID)
		}
		return nil, internalError("create root token", err)
	}

	s.logger.Info("🌱 [RotationService] Token family started",
		"user_id", userID,
		"family_id", root.FamilyID,
	)
	return root, nil
}

func (s *rotationService) Refresh(ctx context.Context, secret string) (*TokenPair, error) {
	s.logger.Info("🔄 [RotationService] Token refresh attempt")

	if secret == "" {
		return nil, s.reject("empty_secret")
	}

	record, err := s.store.FindBySecret(ctx, secret)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, s.reject("unknown_secret")
		}
		s.logger.Error("❌ [RotationService] Failed to look up refresh token", "error", err)
		return nil, internalError("find refresh token", err)
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, s.reject("unknown_user", "user_id", record.UserID)
		}
		s.logger.Error("❌ [RotationService] Failed to load token owner", "error", err)
		return nil, internalError("find user", err)
	}

	now := s.now()
	if record.IsExpired(now) {
		return nil, s.reject("expired", "family_id", record.FamilyID)
	}

	if record.IsRevoked {
		return nil, s.handleReuse(ctx, record, "revoked_secret_presented")
	}

	nextSecret, err := s.secrets.NewSecret()
	if err != nil {
		return nil, internalError("generate refresh secret", err)
	}

	// Signing happens before the commit so a signing failure leaves the
	// presented secret usable.
	accessToken, err := s.issuer.Issue(user.ID, user.Roles, user.EmailVerified)
	if err != nil {
		s.logger.Error("❌ [RotationService] Failed to issue access token", "error", err)
		return nil, internalError("issue access token", err)
	}

	parentID := record.ID
	next := &models.RefreshToken{
		ID:        uuid.New(),
		Token:     nextSecret,
		UserID:    record.UserID,
		FamilyID:  record.FamilyID,
		ParentID:  &parentID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	}

	err = s.store.WithinTx(ctx, func(tx repository.RefreshTokenRepository) error {
		if err := tx.ConsumeForRotation(ctx, record.ID, next.ID, now); err != nil {
			return err
		}
		return tx.Create(ctx, next)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTokenAlreadyRevoked):
			return nil, s.handleReuse(ctx, record, "lost_rotation_race")
		case errors.Is(err, repository.ErrTokenConflict):
			s.logger.Error("💥 [RotationService] Refresh secret collision on rotation",
				"family_id", record.FamilyID,
			)
			return nil, internalError("rotate refresh token", err)
		default:
			s.logger.Error("❌ [RotationService] Rotation transaction failed", "error", err)
			return nil, internalError("rotate refresh token", err)
		}
	}

	s.logger.Info("✅ [RotationService] Token refreshed successfully",
		"user_id", record.UserID,
		"family_id", record.FamilyID,
	)

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: nextSecret,
		ExpiresIn:    s.issuer.ExpirySeconds(),
	}, nil
}

// RevokeFamily revokes every live token of the family and returns how many it
// cut. Records that are already revoked keep their original reason.
func (s *rotationService) RevokeFamily(ctx context.Context, familyID uuid.UUID, reason models.RevocationReason) (int, error) {
	revoked := 0
	for pass := 0; pass < revokeFamilyPasses; pass++ {
		tokens, err := s.store.ListByFamily(ctx, familyID)
		if err != nil {
			return revoked, internalError("list token family", err)
		}

		live := 0
		now := s.now()
		for i := range tokens {
			if tokens[i].IsRevoked {
				continue
			}
			live++
			if err := s.store.MarkRevoked(ctx, tokens[i].ID, reason, now); err != nil {
				return revoked, internalError("revoke family token", err)
			}
			revoked++
		}

		if live == 0 {
			break
		}
	}

	s.logger.Info("🧯 [RotationService] Token family revoked",
		"family_id", familyID,
		"reason", reason,
		"revoked", revoked,
	)
	return revoked, nil
}

func (s *rotationService) Logout(ctx context.Context, secret string) error {
	s.logger.Info("👋 [RotationService] Logout attempt")

	if secret == "" {
		return s.reject("empty_secret")
	}

	record, err := s.store.FindBySecret(ctx, secret)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return s.reject("unknown_secret")
		}
		return internalError("find refresh token", err)
	}

	if record.IsRevoked {
		s.logger.Info("✅ [RotationService] Token already revoked, logout is a no-op",
			"family_id", record.FamilyID,
			"reason", record.Reason(),
		)
		return nil
	}

	if err := s.store.MarkRevoked(ctx, record.ID, models.ReasonLogout, s.now()); err != nil {
		return internalError("revoke token on logout", err)
	}

	s.logger.Info("✅ [RotationService] User logged out successfully",
		"user_id", record.UserID,
		"family_id", record.FamilyID,
	)
	return nil
}

// handleReuse revokes the whole family of a replayed token. It resolves to
// ErrInvalidToken unless the revocation itself could not be completed.
func (s *rotationService) handleReuse(ctx context.Context, record *models.RefreshToken, cause string) error {
	s.logger.Warn("🚨 [RotationService] "+breachDetail,
		"cause", cause,
		"user_id", record.UserID,
		"family_id", record.FamilyID,
		"token_id", record.ID,
		"previous_reason", record.Reason(),
	)

	revoked, err := s.RevokeFamily(ctx, record.FamilyID, models.ReasonBreach)
	if err != nil {
		s.logger.Error("❌ [RotationService] Failed to revoke family after reuse",
			"family_id", record.FamilyID,
			"error", err,
		)
		return err
	}

	event := models.BreachEvent{
		ID:         uuid.New(),
		UserID:     record.UserID,
		FamilyID:   record.FamilyID,
		TokenID:    record.ID,
		Detail:     breachDetail,
		Revoked:    revoked,
		DetectedAt: s.now(),
	}
	if err := s.events.RecordBreach(ctx, event); err != nil {
		s.logger.Warn("⚠️ [RotationService] Failed to record breach event", "error", err)
	}

	return ErrInvalidToken
}

// reject logs the internal refusal reason and returns the single client-facing error
func (s *rotationService) reject(reason string, attrs ...any) error {
	s.logger.Warn("⚠️ [RotationService] Refresh token rejected", append([]any{"reason", reason}, attrs...)...)
	return ErrInvalidToken
}
