package products

import (
	"context"
	"errors"
	"strings"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type farmerLoader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Farmer, error)
}

type catalog interface {
	List(ctx context.Context, filter ListFilter) ([]models.Product, string, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Save(ctx context.Context, product *models.Product) (*models.Product, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// Service exposes product catalog operations.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]models.Product, string, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListOwn(ctx context.Context, userID uuid.UUID) ([]models.Product, error)
	Create(ctx context.Context, userID uuid.UUID, input UpsertInput) (*models.Product, error)
	Update(ctx context.Context, userID, productID uuid.UUID, input UpsertInput) (*models.Product, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) error
}

// UpsertInput carries the farmer-editable listing fields.
type UpsertInput struct {
	Name        string
	Description string
	Category    enums.ProductCategory
	Price       decimal.Decimal
	Status      enums.ProductStatus
	Stock       int
	Images      []string
}

type service struct {
	repo    catalog
	farmers farmerLoader
}

// NewService builds a product service backed by the provided stack.
func NewService(repo catalog, farmerRepo farmerLoader) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repository required")
	}
	if farmerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer repository required")
	}
	return &service{repo: repo, farmers: farmerRepo}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Product, string, error) {
	return s.repo.List(ctx, filter)
}

// Get returns a product unless it was soft-deleted.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Status == enums.ProductStatusDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) ListOwn(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	farmer, err := s.loadFarmer(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByFarmer(ctx, farmer.ID)
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input UpsertInput) (*models.Product, error) {
	farmer, err := s.loadFarmer(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = enums.ProductStatusActive
	}
	if status == enums.ProductStatusDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot create a deleted product")
	}

	product := &models.Product{
		FarmerID:    farmer.ID,
		FarmerName:  farmer.FarmName,
		FarmerEmail: farmer.Email,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		Status:      status,
		Stock:       input.Stock,
		Images:      pq.StringArray(input.Images),
	}
	return s.repo.Create(ctx, product)
}

func (s *service) Update(ctx context.Context, userID, productID uuid.UUID, input UpsertInput) (*models.Product, error) {
	farmer, err := s.loadFarmer(ctx, userID)
	if err != nil {
		return nil, err
	}
	product, err := s.ownedProduct(ctx, farmer, productID)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Status == enums.ProductStatusDeleted {
		// soft delete goes through Delete, not a field update
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "use delete to remove a listing")
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Category = input.Category
	product.Price = input.Price
	product.Stock = input.Stock
	product.Images = pq.StringArray(input.Images)
	if input.Status != "" {
		product.Status = input.Status
	}
	return s.repo.Save(ctx, product)
}

func (s *service) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	farmer, err := s.loadFarmer(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.ownedProduct(ctx, farmer, productID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, productID)
}

func (s *service) loadFarmer(ctx context.Context, userID uuid.UUID) (*models.Farmer, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	farmer, err := s.farmers.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "farmer profile required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer")
	}
	return farmer, nil
}

func (s *service) ownedProduct(ctx context.Context, farmer *models.Farmer, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.FarmerID != farmer.ID || product.Status == enums.ProductStatusDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func validateInput(input UpsertInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}
	if input.Status != "" && !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	return nil
}
