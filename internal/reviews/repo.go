package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/internal/repo"
	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
)

// Repository handles review persistence plus the read queries the
// eligibility check needs.
type Repository struct {
	repo.Base
}

// NewRepository builds a review repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads a single review.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.DB(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByProduct returns every review of the product, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.DB(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts the review.
func (r *Repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.DB(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// Save persists the full review row.
func (r *Repository) Save(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.DB(ctx).Save(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes the review row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.Review{}, "id = ?", id).Error
}

// FindByProductAndEmail returns the product review left by any account
// sharing the email, if one exists.
func (r *Repository) FindByProductAndEmail(ctx context.Context, productID uuid.UUID, email string) (*models.Review, error) {
	var review models.Review
	err := r.DB(ctx).
		Where("product_id = ? AND user_email = ?", productID, email).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// RatingDrift is a product whose stored aggregates disagree with the
// recomputed aggregate over its reviews.
type RatingDrift struct {
	ProductID uuid.UUID `gorm:"column:product_id"`
	Average   float64   `gorm:"column:average"`
	Count     int       `gorm:"column:count"`
}

// ListRatingDrift finds products whose cached average or count has drifted
// from the review table, together with the corrected values.
func (r *Repository) ListRatingDrift(ctx context.Context, tx *gorm.DB) ([]RatingDrift, error) {
	db := r.DB(ctx)
	if tx != nil {
		db = tx.WithContext(ctx)
	}
	var rows []RatingDrift
	err := db.Raw(`
		SELECT p.id AS product_id,
		       COALESCE(ROUND(AVG(rv.rating), 1), 0) AS average,
		       COUNT(rv.id) AS count
		FROM products p
		LEFT JOIN reviews rv ON rv.product_id = p.id
		GROUP BY p.id, p.average_rating, p.review_count
		HAVING COALESCE(ROUND(AVG(rv.rating), 1), 0) <> p.average_rating
		    OR COUNT(rv.id) <> p.review_count`).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FarmerRatingAggregate recomputes a farmer's rating over every review of
// the farmer's products. Zero reviews yield (0, 0).
func (r *Repository) FarmerRatingAggregate(ctx context.Context, farmerID uuid.UUID) (float64, int, error) {
	var row struct {
		Average float64 `gorm:"column:average"`
		Count   int     `gorm:"column:count"`
	}
	err := r.DB(ctx).Raw(`
		SELECT COALESCE(ROUND(AVG(rv.rating), 1), 0) AS average,
		       COUNT(rv.id) AS count
		FROM reviews rv
		JOIN products p ON p.id = rv.product_id
		WHERE p.farmer_id = ?`, farmerID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Average, row.Count, nil
}

// FarmerRatingDrift is a farmer whose stored aggregates disagree with the
// recomputed aggregate over the reviews of their products.
type FarmerRatingDrift struct {
	FarmerID uuid.UUID `gorm:"column:farmer_id"`
	Average  float64   `gorm:"column:average"`
	Count    int       `gorm:"column:count"`
}

// ListFarmerRatingDrift finds farmers whose cached average or count has
// drifted, together with the corrected values.
func (r *Repository) ListFarmerRatingDrift(ctx context.Context, tx *gorm.DB) ([]FarmerRatingDrift, error) {
	db := r.DB(ctx)
	if tx != nil {
		db = tx.WithContext(ctx)
	}
	var rows []FarmerRatingDrift
	err := db.Raw(`
		SELECT f.id AS farmer_id,
		       COALESCE(ROUND(AVG(rv.rating), 1), 0) AS average,
		       COUNT(rv.id) AS count
		FROM farmers f
		LEFT JOIN products p ON p.farmer_id = f.id
		LEFT JOIN reviews rv ON rv.product_id = p.id
		GROUP BY f.id, f.average_rating, f.review_count
		HAVING COALESCE(ROUND(AVG(rv.rating), 1), 0) <> f.average_rating
		    OR COUNT(rv.id) <> f.review_count`).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// HasDeliveredOrderWithProduct reports whether the user has a delivered
// order containing the product.
func (r *Repository) HasDeliveredOrderWithProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, enums.OrderStatusDelivered, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
