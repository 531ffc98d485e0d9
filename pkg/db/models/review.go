package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a buyer's rating of a product. UserEmail is snapshotted so the
// one-review-per-person rule can dedupe across accounts sharing an email.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserName  string    `gorm:"column:user_name;not null"`
	UserEmail string    `gorm:"column:user_email;not null;index"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   string    `gorm:"column:comment;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
