package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/internal/reviews"
	"github.com/farmstandhq/farmstand-backend/pkg/logger"
)

type ratingDriftRepo interface {
	ListRatingDrift(ctx context.Context, tx *gorm.DB) ([]reviews.RatingDrift, error)
	ListFarmerRatingDrift(ctx context.Context, tx *gorm.DB) ([]reviews.FarmerRatingDrift, error)
}

// RatingWriter rewrites a row's review aggregates. Both the product and the
// farmer repositories satisfy it.
type RatingWriter interface {
	UpdateRatingAggregates(ctx context.Context, id uuid.UUID, average float64, count int) error
}

// RatingRepairJobParams configure the aggregate repair job.
type RatingRepairJobParams struct {
	Logger       *logger.Logger
	DB           txRunner
	Reviews      ratingDriftRepo
	BindProducts func(tx *gorm.DB) RatingWriter
	BindFarmers  func(tx *gorm.DB) RatingWriter
}

// NewRatingRepairJob finds products and farmers whose review aggregates
// drifted (for example after a swallowed recompute failure) and rewrites
// them from the review table.
func NewRatingRepairJob(params RatingRepairJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Reviews == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if params.BindProducts == nil {
		return nil, fmt.Errorf("product binder required")
	}
	if params.BindFarmers == nil {
		return nil, fmt.Errorf("farmer binder required")
	}
	return &ratingRepairJob{
		logg:         params.Logger,
		db:           params.DB,
		reviews:      params.Reviews,
		bindProducts: params.BindProducts,
		bindFarmers:  params.BindFarmers,
	}, nil
}

type ratingRepairJob struct {
	logg         *logger.Logger
	db           txRunner
	reviews      ratingDriftRepo
	bindProducts func(tx *gorm.DB) RatingWriter
	bindFarmers  func(tx *gorm.DB) RatingWriter
}

func (j *ratingRepairJob) Name() string { return "rating-repair" }

func (j *ratingRepairJob) Run(ctx context.Context) error {
	var products, farmers int
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		drifts, err := j.reviews.ListRatingDrift(ctx, tx)
		if err != nil {
			return fmt.Errorf("listing rating drift: %w", err)
		}

		writer := j.bindProducts(tx)
		var errs error
		for _, drift := range drifts {
			if err := writer.UpdateRatingAggregates(ctx, drift.ProductID, drift.Average, drift.Count); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("product %s: %w", drift.ProductID, err))
				continue
			}
			products++
		}

		farmerDrifts, err := j.reviews.ListFarmerRatingDrift(ctx, tx)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("listing farmer rating drift: %w", err))
		}
		farmerWriter := j.bindFarmers(tx)
		for _, drift := range farmerDrifts {
			if err := farmerWriter.UpdateRatingAggregates(ctx, drift.FarmerID, drift.Average, drift.Count); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("farmer %s: %w", drift.FarmerID, err))
				continue
			}
			farmers++
		}
		return errs
	})
	if err != nil {
		return fmt.Errorf("rating repair: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"products_repaired": products,
		"farmers_repaired":  farmers,
	})
	j.logg.Info(logCtx, "rating repair complete")
	return nil
}
