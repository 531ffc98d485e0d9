package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/farmstandhq/farmstand-backend/pkg/enums"
)

// Product is a produce listing. The farmer name/email columns are a
// denormalized snapshot so order items and scoping never need a join.
// AverageRating and ReviewCount must always equal the recomputed aggregate
// over all reviews referencing this product.
type Product struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FarmerID      uuid.UUID             `gorm:"column:farmer_id;type:uuid;not null;index"`
	FarmerName    string                `gorm:"column:farmer_name;not null"`
	FarmerEmail   string                `gorm:"column:farmer_email;not null;index"`
	Name          string                `gorm:"column:name;not null"`
	Description   string                `gorm:"column:description;not null;default:''"`
	Category      enums.ProductCategory `gorm:"column:category;not null"`
	Price         decimal.Decimal       `gorm:"column:price;type:numeric(10,2);not null"`
	Status        enums.ProductStatus   `gorm:"column:status;not null;default:'active';index"`
	Stock         int                   `gorm:"column:stock;not null;default:0"`
	Images        pq.StringArray        `gorm:"column:images;type:text[]"`
	AverageRating float64               `gorm:"column:average_rating;type:numeric(3,1);not null;default:0"`
	ReviewCount   int                   `gorm:"column:review_count;not null;default:0"`
	PurchaseCount int                   `gorm:"column:purchase_count;not null;default:0"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
