package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots price, quantity and farmer attribution at purchase
// time. FarmerEmail is the canonical attribution field; scoping matches on
// it alone.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name        string          `gorm:"column:name;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	ImageURL    *string         `gorm:"column:image_url"`
	FarmerID    uuid.UUID       `gorm:"column:farmer_id;type:uuid;not null"`
	FarmerName  string          `gorm:"column:farmer_name;not null"`
	FarmerEmail string          `gorm:"column:farmer_email;not null;index"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
