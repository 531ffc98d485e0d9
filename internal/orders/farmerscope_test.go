package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
)

func item(farmerEmail, price string, qty int) models.OrderItem {
	return models.OrderItem{
		ID:          uuid.New(),
		ProductID:   uuid.New(),
		Price:       decimal.RequireFromString(price),
		Quantity:    qty,
		FarmerEmail: farmerEmail,
	}
}

func TestScopeSingleFarmerUsesCachedSubtotal(t *testing.T) {
	cached := decimal.RequireFromString("99.99")
	order := &models.Order{
		FarmerSubtotal: decimal.NewNullDecimal(cached),
		Items: []models.OrderItem{
			item("green@farm.test", "10.00", 2),
			item("green@farm.test", "5.00", 1),
		},
	}

	scope := ScopeToFarmer(order, "green@farm.test")
	assert.True(t, scope.Subtotal.Equal(cached), "cached subtotal must be returned without recomputation")
	assert.Len(t, scope.Items, 2)
}

func TestScopeSingleFarmerRecomputesWithoutCache(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{
			item("green@farm.test", "10.00", 2),
			item("green@farm.test", "5.00", 1),
		},
	}

	scope := ScopeToFarmer(order, "green@farm.test")
	assert.Equal(t, "25.00", scope.Subtotal.StringFixed(2))
	assert.Len(t, scope.Items, 2)
}

func TestScopeMultiFarmerFiltersAndSums(t *testing.T) {
	order := &models.Order{
		FarmerSubtotal: decimal.NewNullDecimal(decimal.RequireFromString("42.00")),
		Items: []models.OrderItem{
			item("green@farm.test", "10.00", 2),
			item("blue@farm.test", "7.50", 4),
		},
	}

	scope := ScopeToFarmer(order, "blue@farm.test")
	assert.Equal(t, "30.00", scope.Subtotal.StringFixed(2))
	require.Len(t, scope.Items, 1)
	assert.Equal(t, "blue@farm.test", scope.Items[0].FarmerEmail)
}

func TestScopeMatchesEmailCaseInsensitively(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{
			item("Green@Farm.Test", "10.00", 1),
			item("blue@farm.test", "7.50", 1),
		},
	}

	scope := ScopeToFarmer(order, "green@farm.test")
	assert.Equal(t, "10.00", scope.Subtotal.StringFixed(2))
	require.Len(t, scope.Items, 1)
}

func TestScopeZeroMatchFallsBackToFullItemList(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{
			item("green@farm.test", "10.00", 2),
			item("blue@farm.test", "7.50", 4),
		},
	}

	scope := ScopeToFarmer(order, "nobody@farm.test")
	assert.True(t, scope.Subtotal.IsZero())
	assert.Len(t, scope.Items, 2, "an empty match must never produce an empty item list")
}

func TestScopeDoesNotMutateInput(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{
			item("green@farm.test", "10.00", 2),
			item("blue@farm.test", "7.50", 4),
		},
	}

	_ = ScopeToFarmer(order, "blue@farm.test")
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "green@farm.test", order.Items[0].FarmerEmail)
}
