package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
	"github.com/farmstandhq/farmstand-backend/pkg/logger"
	"github.com/farmstandhq/farmstand-backend/pkg/types"
)

// notFoundMessage is shared by the missing and not-owned cases so callers
// cannot tell whether a review exists.
const notFoundMessage = "review not found"

// Actor identifies the requesting user for review writes.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Input is the write payload for creating or editing a review.
type Input struct {
	Rating  int    `json:"rating" validate:"required"`
	Comment string `json:"comment"`
}

// Result is a review write outcome, including the product aggregates
// recomputed by the write.
type Result struct {
	Review        *models.Review `json:"review,omitempty"`
	AverageRating float64        `json:"averageRating"`
	TotalRatings  int            `json:"totalRatings"`
}

// Eligibility is the read-only can-review answer.
type Eligibility struct {
	CanReview      bool           `json:"canReview"`
	Reason         string         `json:"reason,omitempty"`
	HasPurchased   bool           `json:"hasPurchased"`
	HasReviewed    bool           `json:"hasReviewed"`
	ExistingReview *models.Review `json:"existingReview,omitempty"`
}

// Service manages product reviews and keeps the product and farmer rating
// aggregates in sync with them.
type Service interface {
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
	Create(ctx context.Context, actor Actor, productID uuid.UUID, input Input) (*Result, error)
	Update(ctx context.Context, userID, reviewID uuid.UUID, input Input) (*Result, error)
	Delete(ctx context.Context, userID, reviewID uuid.UUID) (*Result, error)
	CanReview(ctx context.Context, actor Actor, productID uuid.UUID) (*Eligibility, error)
}

type store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	Save(ctx context.Context, review *models.Review) (*models.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByProductAndEmail(ctx context.Context, productID uuid.UUID, email string) (*models.Review, error)
	HasDeliveredOrderWithProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	FarmerRatingAggregate(ctx context.Context, farmerID uuid.UUID) (float64, int, error)
}

type productStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateRatingAggregates(ctx context.Context, productID uuid.UUID, average float64, count int) error
}

type farmerStore interface {
	UpdateRatingAggregates(ctx context.Context, farmerID uuid.UUID, average float64, count int) error
}

type service struct {
	repo     store
	products productStore
	farmers  farmerStore
	logg     *logger.Logger
}

// NewService wires the review service.
func NewService(repo store, products productStore, farmers farmerStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review service requires a repository")
	}
	if products == nil {
		return nil, fmt.Errorf("review service requires a product store")
	}
	if farmers == nil {
		return nil, fmt.Errorf("review service requires a farmer store")
	}
	if logg == nil {
		return nil, fmt.Errorf("review service requires a logger")
	}
	return &service{repo: repo, products: products, farmers: farmers, logg: logg}, nil
}

// ListByProduct returns the product's reviews, newest first.
func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing reviews")
	}
	return rows, nil
}

// Create validates eligibility, writes the review, then recomputes the
// product aggregates before reporting success.
func (s *service) Create(ctx context.Context, actor Actor, productID uuid.UUID, input Input) (*Result, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	eligibility, err := s.CanReview(ctx, actor, productID)
	if err != nil {
		return nil, err
	}
	if !eligibility.CanReview {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, eligibility.Reason)
	}

	review, err := s.repo.Create(ctx, &models.Review{
		ProductID: productID,
		UserID:    actor.ID,
		UserName:  actor.Name,
		UserEmail: types.NormalizeEmail(actor.Email),
		Rating:    input.Rating,
		Comment:   input.Comment,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating review")
	}

	average, count, err := s.recompute(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &Result{Review: review, AverageRating: average, TotalRatings: count}, nil
}

// Update edits the caller's own review and recomputes the aggregates.
func (s *service) Update(ctx context.Context, userID, reviewID uuid.UUID, input Input) (*Result, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	review, err := s.findOwned(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	review.Rating = input.Rating
	review.Comment = input.Comment
	saved, err := s.repo.Save(ctx, review)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving review")
	}

	average, count, err := s.recompute(ctx, review.ProductID)
	if err != nil {
		return nil, err
	}
	return &Result{Review: saved, AverageRating: average, TotalRatings: count}, nil
}

// Delete removes the caller's own review. The review deletion is the
// operation that must succeed; a failed aggregate recompute afterwards is
// logged and the stale aggregate left for the repair job.
func (s *service) Delete(ctx context.Context, userID, reviewID uuid.UUID) (*Result, error) {
	review, err := s.findOwned(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting review")
	}

	average, count, err := s.recompute(ctx, review.ProductID)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "product_id", review.ProductID.String()),
			"rating aggregate recompute failed after review deletion", err)
		return &Result{}, nil
	}
	return &Result{AverageRating: average, TotalRatings: count}, nil
}

// CanReview evaluates review eligibility without side effects. Reviews are
// deduplicated by email so a person with several accounts still gets only
// one review per product.
func (s *service) CanReview(ctx context.Context, actor Actor, productID uuid.UUID) (*Eligibility, error) {
	purchased, err := s.repo.HasDeliveredOrderWithProduct(ctx, actor.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking purchase history")
	}
	if !purchased {
		return &Eligibility{
			CanReview:    false,
			Reason:       "you can only review products from delivered orders",
			HasPurchased: false,
		}, nil
	}

	existing, err := s.repo.FindByProductAndEmail(ctx, productID, types.NormalizeEmail(actor.Email))
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking existing reviews")
	}
	if existing != nil {
		return &Eligibility{
			CanReview:      false,
			Reason:         "you have already reviewed this product",
			HasPurchased:   true,
			HasReviewed:    true,
			ExistingReview: existing,
		}, nil
	}

	return &Eligibility{CanReview: true, HasPurchased: true}, nil
}

// findOwned loads a review only when the caller owns it. Missing and
// not-owned collapse into the same answer.
func (s *service) findOwned(ctx context.Context, userID, reviewID uuid.UUID) (*models.Review, error) {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading review")
	}
	if review.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return review, nil
}

// recompute rebuilds the product aggregates from the full review set and
// persists them, then cascades to the owning farmer's aggregate over all of
// their products. Zero reviews reset the fields to 0.
func (s *service) recompute(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "scanning reviews")
	}

	average := 0.0
	if len(rows) > 0 {
		sum := int64(0)
		for _, row := range rows {
			sum += int64(row.Rating)
		}
		average = decimal.NewFromInt(sum).
			Div(decimal.NewFromInt(int64(len(rows)))).
			Round(1).
			InexactFloat64()
	}

	if err := s.products.UpdateRatingAggregates(ctx, productID, average, len(rows)); err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting rating aggregates")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product for farmer rating")
	}
	farmerAverage, farmerCount, err := s.repo.FarmerRatingAggregate(ctx, product.FarmerID)
	if err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recomputing farmer rating")
	}
	if err := s.farmers.UpdateRatingAggregates(ctx, product.FarmerID, farmerAverage, farmerCount); err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting farmer rating")
	}
	return average, len(rows), nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5").
			WithDetails(map[string]any{"rating": rating})
	}
	return nil
}
