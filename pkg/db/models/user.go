package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmstandhq/farmstand-backend/pkg/enums"
)

// User is a marketplace account. One person may hold several accounts that
// share an email; review dedupe keys off the email, not the account id.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	Email        string         `gorm:"column:email;not null;index"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;not null;default:'buyer'"`
	AvatarURL    *string        `gorm:"column:avatar_url"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
