package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
)

// SecurityEventStore keeps an audit trail of detected refresh token reuse
type SecurityEventStore interface {
	RecordBreach(ctx context.Context, event models.BreachEvent) error
	ListBreaches(ctx context.Context, userID uint) ([]models.BreachEvent, error)
	ReplayCount(ctx context.Context, familyID uuid.UUID) (int64, error)
	Close() error
}
