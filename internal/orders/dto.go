package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	"github.com/farmstandhq/farmstand-backend/pkg/types"
)

// CheckoutInput is the payload for placing an order from the saved cart.
type CheckoutInput struct {
	Address types.Address `json:"address" validate:"required"`
}

// StatusUpdateInput is a farmer's requested fulfillment status change.
type StatusUpdateInput struct {
	Status string `json:"status" validate:"required"`
}

// FarmerOrderView is one order as seen by one farmer: only that farmer's
// items and subtotal, with the farmer's own fulfillment status on top.
type FarmerOrderView struct {
	ID        uuid.UUID          `json:"id"`
	BuyerID   uuid.UUID          `json:"buyerId"`
	Status    enums.OrderStatus  `json:"status"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	Items     []models.OrderItem `json:"items"`
	Address   *types.Address     `json:"address,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
