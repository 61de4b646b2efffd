package models

import (
	"time"

	"github.com/google/uuid"
)

// UserOTP holds the single outstanding one-time code for a user. Issuance
// upserts by user id, so at most one row per user exists at any time.
type UserOTP struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uuid.UUID `gorm:"type:char(36);uniqueIndex;not null" json:"user_id"`
	Code      string    `gorm:"size:6;not null" json:"code"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
