package favorites

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
)

// Service manages a buyer's saved products.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Product, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Check(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type store interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindLiveByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type service struct {
	repo     store
	products productLoader
}

// NewService wires the favorites service.
func NewService(repo store, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("favorites service requires a repository")
	}
	if products == nil {
		return nil, fmt.Errorf("favorites service requires a product loader")
	}
	return &service{repo: repo, products: products}, nil
}

// List returns the user's saved products that are still live, in the order
// they were saved. Products deleted since saving simply drop out.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	ids, err := s.repo.ListProductIDs(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing favorites")
	}
	live, err := s.products.FindLiveByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading favorite products")
	}

	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := live[id]; ok {
			out = append(out, product)
		}
	}
	return out, nil
}

// Add saves the product for the user.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if err := s.repo.Add(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving favorite")
	}
	return nil
}

// Remove unsaves the product; removing a product that was never saved is
// not an error.
func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing favorite")
	}
	return nil
}

// Check reports whether the user saved the product.
func (s *service) Check(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	saved, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking favorite")
	}
	return saved, nil
}
