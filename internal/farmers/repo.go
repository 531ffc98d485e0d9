package farmers

import (
	"context"

	"github.com/farmstandhq/farmstand-backend/internal/repo"
	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository encapsulates farmer profile persistence.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads a farmer profile by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Farmer, error) {
	var farmer models.Farmer
	if err := r.DB(ctx).First(&farmer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &farmer, nil
}

// GetByUserID loads the farmer profile owned by the user.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Farmer, error) {
	var farmer models.Farmer
	if err := r.DB(ctx).First(&farmer, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &farmer, nil
}

// List returns all farmer profiles ordered by farm name.
func (r *Repository) List(ctx context.Context) ([]models.Farmer, error) {
	var rows []models.Farmer
	if err := r.DB(ctx).Order("farm_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

// UpdateRatingAggregates persists the recomputed farmer rating aggregate.
func (r *Repository) UpdateRatingAggregates(ctx context.Context, farmerID uuid.UUID, average float64, count int) error {
	return r.DB(ctx).
		Model(&models.Farmer{}).
		Where("id = ?", farmerID).
		Updates(map[string]any{
			"average_rating": average,
			"review_count":   count,
		}).Error
}

// Save persists the full farmer row.
func (r *Repository) Save(ctx context.Context, farmer *models.Farmer) (*models.Farmer, error) {
	if err := r.DB(ctx).Save(farmer).Error; err != nil {
		return nil, err
	}
	return farmer, nil
}
