package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/internal/cart"
	"github.com/farmstandhq/farmstand-backend/internal/products"
	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
	"github.com/farmstandhq/farmstand-backend/pkg/logger"
	"github.com/farmstandhq/farmstand-backend/pkg/types"
)

// Service covers the order lifecycle: checkout from the saved cart, buyer
// and farmer listings, and per-farmer status updates.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*models.Order, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListForBuyer(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListForFarmer(ctx context.Context, farmerEmail string) ([]FarmerOrderView, error)
	UpdateFarmerStatus(ctx context.Context, orderID uuid.UUID, farmerEmail string, input StatusUpdateInput) (*models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type store interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListByFarmerEmail(ctx context.Context, farmerEmail string) ([]models.Order, error)
	Save(ctx context.Context, order *models.Order) (*models.Order, error)
}

type catalog interface {
	FindLiveByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	TakeStock(ctx context.Context, productID uuid.UUID, qty int) (int64, error)
}

type cartSource interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// statusOverlay masks recently changed statuses over reads and records
// successful changes. May be nil when no overlay is configured.
type statusOverlay interface {
	Apply(orders []models.Order, farmerEmail string) []models.Order
	Record(orderID uuid.UUID, status enums.OrderStatus, farmerEmail string)
}

type service struct {
	tx          txRunner
	repo        store
	bindStore   func(tx *gorm.DB) store
	bindCatalog func(tx *gorm.DB) catalog
	bindCart    func(tx *gorm.DB) cartSource
	overlay     statusOverlay
	logg        *logger.Logger
}

// NewService wires the order service over the order, product and cart
// repositories. Checkout binds all three to one transaction.
func NewService(tx txRunner, ordersRepo *Repository, productsRepo *products.Repository, cartRepo *cart.Repository, overlay statusOverlay, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("order service requires a transaction runner")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("order service requires an order repository")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("order service requires a product repository")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("order service requires a cart repository")
	}
	if logg == nil {
		return nil, fmt.Errorf("order service requires a logger")
	}
	return &service{
		tx:          tx,
		repo:        ordersRepo,
		bindStore:   func(dbtx *gorm.DB) store { return ordersRepo.WithTx(dbtx) },
		bindCatalog: func(dbtx *gorm.DB) catalog { return productsRepo.WithTx(dbtx) },
		bindCart:    func(dbtx *gorm.DB) cartSource { return cartRepo.WithTx(dbtx) },
		overlay:     overlay,
		logg:        logg,
	}, nil
}

// Checkout turns the buyer's saved cart into an order. Stock is re-checked
// and decremented in the same transaction that creates the order and clears
// the cart; any shortfall aborts the whole checkout.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*models.Order, error) {
	if input.Address.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}

	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.bindCart(tx)
		products := s.bindCatalog(tx)
		repo := s.bindStore(tx)

		cart, err := carts.FindByUser(ctx, userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return err
		}
		if len(cart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		ids := make([]uuid.UUID, 0, len(cart.Items))
		for _, item := range cart.Items {
			ids = append(ids, item.ProductID)
		}
		live, err := products.FindLiveByIDs(ctx, ids)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(cart.Items))
		total := decimal.Zero
		statuses := types.FarmerStatuses{}
		for _, line := range cart.Items {
			product, ok := live[line.ProductID]
			if !ok {
				// product went away since the cart was saved
				continue
			}

			taken, err := products.TakeStock(ctx, product.ID, line.Quantity)
			if err != nil {
				return err
			}
			if taken == 0 {
				return pkgerrors.New(
					pkgerrors.CodeInsufficientStock,
					fmt.Sprintf("only %d of %q available, requested %d", product.Stock, product.Name, line.Quantity),
				).WithDetails(map[string]any{
					"productId": product.ID,
					"product":   product.Name,
					"requested": line.Quantity,
					"available": product.Stock,
				})
			}

			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				Name:        line.Name,
				Price:       line.Price,
				Quantity:    line.Quantity,
				ImageURL:    line.ImageURL,
				FarmerID:    product.FarmerID,
				FarmerName:  product.FarmerName,
				FarmerEmail: types.NormalizeEmail(product.FarmerEmail),
			})
			total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			statuses.Set(product.FarmerEmail, enums.OrderStatusPending)
		}

		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		total = total.Round(2)
		order := &models.Order{
			UserID:         userID,
			Status:         enums.OrderStatusPending,
			FarmerStatuses: statuses,
			Total:          total,
			Address:        &input.Address,
			Items:          items,
		}
		if len(statuses) == 1 {
			order.FarmerSubtotal = decimal.NewNullDecimal(total)
		}

		placed, err = repo.Create(ctx, order)
		if err != nil {
			return err
		}
		return carts.Clear(ctx, userID)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "placing order")
	}
	return placed, nil
}

// Get loads one of the buyer's own orders.
func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if s.overlay != nil {
		patched := s.overlay.Apply([]models.Order{*order}, "")
		order = &patched[0]
	}
	return order, nil
}

// ListForBuyer returns the buyer's order history, newest first.
func (s *service) ListForBuyer(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	if s.overlay != nil {
		rows = s.overlay.Apply(rows, "")
	}
	return rows, nil
}

// ListForFarmer returns orders containing the farmer's items, each narrowed
// to the farmer's own slice and status.
func (s *service) ListForFarmer(ctx context.Context, farmerEmail string) ([]FarmerOrderView, error) {
	email := types.NormalizeEmail(farmerEmail)
	rows, err := s.repo.ListByFarmerEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing farmer orders")
	}
	if s.overlay != nil {
		rows = s.overlay.Apply(rows, email)
	}

	views := make([]FarmerOrderView, 0, len(rows))
	for i := range rows {
		order := rows[i]
		views = append(views, farmerView(&order, email))
	}
	return views, nil
}

// UpdateFarmerStatus advances one farmer's slice of an order. The top-level
// status becomes the shared per-farmer status when all farmers agree, or
// "mixed" while they diverge.
func (s *service) UpdateFarmerStatus(ctx context.Context, orderID uuid.UUID, farmerEmail string, input StatusUpdateInput) (*models.Order, error) {
	next, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if next == enums.OrderStatusMixed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mixed is a derived status and cannot be set")
	}

	email := types.NormalizeEmail(farmerEmail)

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if !orderHasFarmer(order, email) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	current, ok := order.FarmerStatuses.Get(email)
	if !ok {
		current = order.Status
	}
	if !current.CanTransition(next) {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", current, next),
		).WithDetails(map[string]any{"from": current, "to": next})
	}

	if order.FarmerStatuses == nil {
		order.FarmerStatuses = types.FarmerStatuses{}
	}
	order.FarmerStatuses.Set(email, next)
	if shared, ok := order.FarmerStatuses.Shared(); ok {
		order.Status = shared
	} else {
		order.Status = enums.OrderStatusMixed
	}

	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving order status")
	}
	if s.overlay != nil {
		s.overlay.Record(saved.ID, next, email)
	}
	return saved, nil
}

func farmerView(order *models.Order, email string) FarmerOrderView {
	scope := ScopeToFarmer(order, email)
	status, ok := order.FarmerStatuses.Get(email)
	if !ok {
		status = order.Status
	}
	return FarmerOrderView{
		ID:        order.ID,
		BuyerID:   order.UserID,
		Status:    status,
		Subtotal:  scope.Subtotal,
		Items:     scope.Items,
		Address:   order.Address,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

func orderHasFarmer(order *models.Order, email string) bool {
	for _, item := range order.Items {
		if types.NormalizeEmail(item.FarmerEmail) == email {
			return true
		}
	}
	return false
}
