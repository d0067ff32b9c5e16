package models

import (
	"time"

	"github.com/google/uuid"
)

// RevocationReason records why a refresh token stopped being usable
type RevocationReason string

const (
	ReasonRotated    RevocationReason = "rotated"    // consumed by a successful refresh
	ReasonLogout     RevocationReason = "logout"     // presented to logout
	ReasonBreach     RevocationReason = "breach"     // family revoked after reuse was detected
	ReasonSuperseded RevocationReason = "superseded" // invalidated by a newer login
)

// RefreshToken is one link in a token family. The Token column holds the bearer
// secret; ID is the record's own identity and is never handed to clients.
type RefreshToken struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Token         string            `gorm:"uniqueIndex;not null" json:"-"`
	UserID        uint              `gorm:"not null;index" json:"user_id"`
	FamilyID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"family_id"`
	ParentID      *uuid.UUID        `gorm:"type:uuid" json:"parent_id,omitempty"`
	ReplacedByID  *uuid.UUID        `gorm:"type:uuid" json:"replaced_by_id,omitempty"`
	CreatedAt     time.Time         `gorm:"not null" json:"created_at"`
	ExpiresAt     time.Time         `gorm:"not null;index" json:"expires_at"`
	IsRevoked     bool              `gorm:"not null;default:false" json:"is_revoked"`
	RevokedAt     *time.Time        `json:"revoked_at,omitempty"`
	ReasonRevoked *RevocationReason `gorm:"type:varchar(32)" json:"reason_revoked,omitempty"`
}

// TableName overrides the table name
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsExpired reports whether the token's absolute lifetime has ended at now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsActive reports whether the token can still be exchanged at now.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsRevoked && !t.IsExpired(now)
}

// IsRoot reports whether the token was issued at login rather than by rotation.
func (t *RefreshToken) IsRoot() bool {
	return t.ParentID == nil
}

// Reason returns the revocation reason or an empty string.
func (t *RefreshToken) Reason() RevocationReason {
	if t.ReasonRevoked == nil {
		return ""
	}
	return *t.ReasonRevoked
}
