package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
)

// RefreshTokenRepository is the token family store. Every write that takes part
// in a rotation must run on the repository handed to the WithinTx callback.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindBySecret(ctx context.Context, secret string) (*models.RefreshToken, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.RefreshToken, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.RefreshToken, error)
	ListByUser(ctx context.Context, userID uint) ([]models.RefreshToken, error)

	// MarkRevoked is idempotent: an already revoked record keeps its original reason.
	MarkRevoked(ctx context.Context, id uuid.UUID, reason models.RevocationReason, at time.Time) error

	// ConsumeForRotation revokes id with reason rotated and links it to replacedBy,
	// but only while it is still live. A lost race yields ErrTokenAlreadyRevoked.
	ConsumeForRotation(ctx context.Context, id, replacedBy uuid.UUID, at time.Time) error

	RevokeAllUserTokens(ctx context.Context, userID uint, reason models.RevocationReason, at time.Time) (int64, error)
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)
	WithinTx(ctx context.Context, fn func(repo RefreshTokenRepository) error) error
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new refresh token repository instance
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).Create(token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrTokenConflict
		}
		return err
	}
	return nil
}

func (r *refreshTokenRepository) FindBySecret(ctx context.Context, secret string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token = ?", secret).
		First(&token).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	return &token, nil
}

func (r *refreshTokenRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&token).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	return &token, nil
}

func (r *refreshTokenRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.RefreshToken, error) {
	var tokens []models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("created_at ASC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *refreshTokenRepository) ListByUser(ctx context.Context, userID uint) ([]models.RefreshToken, error) {
	var tokens []models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *refreshTokenRepository) MarkRevoked(ctx context.Context, id uuid.UUID, reason models.RevocationReason, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ? AND is_revoked = ?", id, false).
		Updates(map[string]interface{}{
			"is_revoked":     true,
			"revoked_at":     at,
			"reason_revoked": string(reason),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// Either already revoked (a no-op) or missing
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.RefreshToken{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrTokenNotFound
		}
	}

	return nil
}

func (r *refreshTokenRepository) ConsumeForRotation(ctx context.Context, id, replacedBy uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ? AND is_revoked = ?", id, false).
		Updates(map[string]interface{}{
			"is_revoked":     true,
			"revoked_at":     at,
			"reason_revoked": string(models.ReasonRotated),
			"replaced_by_id": replacedBy,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrTokenAlreadyRevoked
	}

	return nil
}

func (r *refreshTokenRepository) RevokeAllUserTokens(ctx context.Context, userID uint, reason models.RevocationReason, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Updates(map[string]interface{}{
			"is_revoked":     true,
			"revoked_at":     at,
			"reason_revoked": string(reason),
		})
	return result.RowsAffected, result.Error
}

// DeleteExpiredTokens removes whole families whose newest token expired before
// the cutoff, so a surviving family never loses the head of its chain.
func (r *refreshTokenRepository) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	expiredFamilies := r.db.
		Model(&models.RefreshToken{}).
		Select("family_id").
		Group("family_id").
		Having("MAX(expires_at) < ?", before)

	result := r.db.WithContext(ctx).
		Where("family_id IN (?)", expiredFamilies).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

func (r *refreshTokenRepository) WithinTx(ctx context.Context, fn func(repo RefreshTokenRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&refreshTokenRepository{db: tx})
	})
}

// Repository errors
var (
	ErrTokenNotFound       = errors.New("token not found")
	ErrTokenConflict       = errors.New("token secret already exists")
	ErrTokenAlreadyRevoked = errors.New("token already revoked")
)
