package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
	"github.com/farmstandhq/farmstand-backend/pkg/logger"
)

// LineInput is a client-submitted cart line. Price is optional; when absent
// or non-positive the catalog price is used instead.
type LineInput struct {
	ProductID uuid.UUID        `json:"productId" validate:"required"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// Service manages the single cart per buyer.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Replace(ctx context.Context, userID uuid.UUID, lines []LineInput) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindLiveByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type store interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
	UpdateTotal(ctx context.Context, cartID uuid.UUID, total decimal.Decimal) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	tx       txRunner
	repo     store
	bind     func(tx *gorm.DB) store
	products productLoader
	logg     *logger.Logger
}

// NewService wires the cart service.
func NewService(tx txRunner, repo *Repository, products productLoader, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("cart service requires a transaction runner")
	}
	if repo == nil {
		return nil, fmt.Errorf("cart service requires a repository")
	}
	if products == nil {
		return nil, fmt.Errorf("cart service requires a product loader")
	}
	if logg == nil {
		return nil, fmt.Errorf("cart service requires a logger")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		bind:     func(tx *gorm.DB) store { return repo.WithTx(tx) },
		products: products,
		logg:     logg,
	}, nil
}

// Get returns the buyer's cart, or an empty cart when none has been saved yet.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.Cart{UserID: userID, Total: decimal.Zero, Items: []models.CartItem{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

// Replace reconciles the submitted lines against the live catalog and swaps
// the stored cart for the result. Lines referencing missing or deleted
// products are dropped silently; a line exceeding available stock aborts the
// whole write.
func (s *service) Replace(ctx context.Context, userID uuid.UUID, lines []LineInput) (*models.Cart, error) {
	items, total, err := s.reconcile(ctx, lines)
	if err != nil {
		return nil, err
	}

	var saved *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.bind(tx)

		cart, err := repo.FindByUser(ctx, userID)
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				return err
			}
			cart, err = repo.Create(ctx, &models.Cart{UserID: userID, Total: total})
			if err != nil {
				return err
			}
		}

		if err := repo.ReplaceItems(ctx, cart.ID, items); err != nil {
			return err
		}
		if err := repo.UpdateTotal(ctx, cart.ID, total); err != nil {
			return err
		}

		cart.Total = total
		cart.Items = items
		saved = cart
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart")
	}

	if saved.Items == nil {
		saved.Items = []models.CartItem{}
	}
	return saved, nil
}

// Clear empties the buyer's cart.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}

// reconcile validates lines against live products and prices the cart.
// Duplicate product lines are merged by summing quantities before the stock
// check so a split line cannot sneak past it.
func (s *service) reconcile(ctx context.Context, lines []LineInput) ([]models.CartItem, decimal.Decimal, error) {
	merged := make([]LineInput, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			continue
		}
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		if at, ok := index[line.ProductID]; ok {
			merged[at].Quantity += qty
			if line.Price != nil {
				merged[at].Price = line.Price
			}
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, LineInput{ProductID: line.ProductID, Quantity: qty, Price: line.Price})
	}

	if len(merged) == 0 {
		return []models.CartItem{}, decimal.Zero, nil
	}

	ids := make([]uuid.UUID, 0, len(merged))
	for _, line := range merged {
		ids = append(ids, line.ProductID)
	}

	live, err := s.products.FindLiveByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart products")
	}

	items := make([]models.CartItem, 0, len(merged))
	total := decimal.Zero
	for _, line := range merged {
		product, ok := live[line.ProductID]
		if !ok {
			s.logg.Info(s.logg.WithField(ctx, "product_id", line.ProductID.String()),
				"dropping cart line for unavailable product")
			continue
		}

		if line.Quantity > product.Stock {
			return nil, decimal.Zero, pkgerrors.New(
				pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("only %d of %q available, requested %d", product.Stock, product.Name, line.Quantity),
			).WithDetails(map[string]any{
				"productId": product.ID,
				"product":   product.Name,
				"requested": line.Quantity,
				"available": product.Stock,
			})
		}

		price := product.Price
		if line.Price != nil && line.Price.IsPositive() {
			price = *line.Price
		}

		var imageURL *string
		if len(product.Images) > 0 {
			first := product.Images[0]
			imageURL = &first
		}

		items = append(items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     price,
			Quantity:  line.Quantity,
			ImageURL:  imageURL,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return items, total.Round(2), nil
}
