package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/pkg/logger"
)

const messageRetentionDays = 90

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type messageCleanupRepo interface {
	DeleteReadMessagesOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// MessageCleanupJobParams configure the message retention job.
type MessageCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository messageCleanupRepo
	Retention  int
}

// NewMessageCleanupJob deletes read messages past the retention window.
func NewMessageCleanupJob(params MessageCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("messaging repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = messageRetentionDays
	}
	return &messageCleanupJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type messageCleanupJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      messageCleanupRepo
	retention int
	now       func() time.Time
}

func (j *messageCleanupJob) Name() string { return "message-cleanup" }

func (j *messageCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteReadMessagesOlderThan(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("message cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "message cleanup complete")
	return nil
}
