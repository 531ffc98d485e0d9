package models

import (
	"time"

	"github.com/google/uuid"
)

// Farmer is a seller profile owned by a farmer-role user.
type Farmer struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	FarmName      string    `gorm:"column:farm_name;not null"`
	Email         string    `gorm:"column:email;not null;uniqueIndex"`
	Phone         *string   `gorm:"column:phone"`
	Location      *string   `gorm:"column:location"`
	Description   *string   `gorm:"column:description"`
	ImageURL      *string   `gorm:"column:image_url"`
	AverageRating float64   `gorm:"column:average_rating;type:numeric(3,1);not null;default:0"`
	ReviewCount   int       `gorm:"column:review_count;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
