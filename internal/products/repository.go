package products

import (
	"context"
	"strings"

	"github.com/farmstandhq/farmstand-backend/internal/repo"
	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	"github.com/farmstandhq/farmstand-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter narrows the public product listing.
type ListFilter struct {
	Category enums.ProductCategory
	FarmerID uuid.UUID
	Search   string
	Cursor   string
	Limit    int
}

// Repository wires together product persistence helpers.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

// FindByID loads a product regardless of status.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindLiveByIDs loads all non-deleted products among ids, keyed by id.
// Missing and soft-deleted products are simply absent from the result.
func (r *Repository) FindLiveByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	err := r.DB(ctx).
		Where("id IN ? AND status <> ?", ids, enums.ProductStatusDeleted).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// List returns active products matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, string, error) {
	limit := pagination.NormalizeLimit(filter.Limit)
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.DB(ctx).
		Where("status = ?", enums.ProductStatusActive)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.FarmerID != uuid.Nil {
		query = query.Where("farmer_id = ?", filter.FarmerID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Product
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// ListByFarmer returns every non-deleted listing owned by the farmer.
func (r *Repository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.DB(ctx).
		Where("farmer_id = ? AND status <> ?", farmerID, enums.ProductStatusDeleted).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts the product.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.DB(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Save persists the full product row.
func (r *Repository) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.DB(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SoftDelete marks the product deleted; it never comes back.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("status", enums.ProductStatusDeleted).Error
}

// UpdateRatingAggregates persists the recomputed review aggregate.
func (r *Repository) UpdateRatingAggregates(ctx context.Context, productID uuid.UUID, average float64, count int) error {
	return r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"average_rating": average,
			"review_count":   count,
		}).Error
}

// TakeStock decrements stock and bumps the purchase counter in one statement.
// Returns gorm.ErrRecordNotFound semantics via zero rows when stock is short.
func (r *Repository) TakeStock(ctx context.Context, productID uuid.UUID, qty int) (int64, error) {
	result := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Updates(map[string]any{
			"stock":          gorm.Expr("stock - ?", qty),
			"purchase_count": gorm.Expr("purchase_count + ?", qty),
		})
	return result.RowsAffected, result.Error
}
