package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	"github.com/farmstandhq/farmstand-backend/pkg/types"
)

// Order is created at checkout and never physically deleted. Status is the
// shared per-farmer status, or "mixed" when farmers diverge. FarmerSubtotal
// is only trustworthy while the order is single-farmer.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	Status         enums.OrderStatus    `gorm:"column:status;not null;default:'pending'"`
	FarmerStatuses types.FarmerStatuses `gorm:"column:farmer_statuses;type:jsonb;serializer:json"`
	FarmerSubtotal decimal.NullDecimal  `gorm:"column:farmer_subtotal;type:numeric(12,2)"`
	Total          decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	Address        *types.Address       `gorm:"column:address;type:jsonb;serializer:json"`
	Items          []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
