package models

import (
	"time"

	"github.com/google/uuid"
)

// BreachEvent records one detected reuse of a revoked refresh token
type BreachEvent struct {
	ID         uuid.UUID `json:"id"`
	UserID     uint      `json:"user_id"`
	FamilyID   uuid.UUID `json:"family_id"`
	TokenID    uuid.UUID `json:"token_id"`
	Detail     string    `json:"detail"`
	Revoked    int       `json:"revoked"` // live tokens cut by the family revocation
	DetectedAt time.Time `json:"detected_at"`
}
