package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Well-known roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents the user domain entity
type User struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	Username      string         `gorm:"uniqueIndex;not null" json:"username"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	FullName      string         `gorm:"not null" json:"full_name"`
	Password      string         `gorm:"not null" json:"-"`
	Roles         pq.StringArray `gorm:"type:text[]" json:"roles"`
	EmailVerified bool           `gorm:"not null;default:false" json:"email_verified"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// HasRole reports whether the user carries role
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
