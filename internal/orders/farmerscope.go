package orders

import (
	"github.com/shopspring/decimal"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/types"
)

// Scope is the slice of an order attributable to one farmer.
type Scope struct {
	Subtotal decimal.Decimal    `json:"subtotal"`
	Items    []models.OrderItem `json:"items"`
}

// ScopeToFarmer restricts an order to the items sold by one farmer.
//
// When every item already belongs to the farmer and the order carries a
// cached subtotal, that subtotal is returned as-is. Otherwise items are
// filtered by farmer email and the subtotal recomputed. A zero-item match
// falls back to the full item list so callers never render an empty order,
// while the subtotal stays at the computed value.
func ScopeToFarmer(order *models.Order, farmerEmail string) Scope {
	target := types.NormalizeEmail(farmerEmail)

	allMatch := len(order.Items) > 0
	for _, item := range order.Items {
		if types.NormalizeEmail(item.FarmerEmail) != target {
			allMatch = false
			break
		}
	}
	if allMatch && order.FarmerSubtotal.Valid {
		return Scope{Subtotal: order.FarmerSubtotal.Decimal, Items: order.Items}
	}

	var matched []models.OrderItem
	subtotal := decimal.Zero
	for _, item := range order.Items {
		if types.NormalizeEmail(item.FarmerEmail) != target {
			continue
		}
		matched = append(matched, item)
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	items := matched
	if len(matched) == 0 {
		items = order.Items
	}
	return Scope{Subtotal: subtotal.Round(2), Items: items}
}
