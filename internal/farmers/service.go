package farmers

import (
	"context"
	"errors"
	"strings"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes farmer profile operations.
type Service interface {
	List(ctx context.Context) ([]models.Farmer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Farmer, error)
	GetOwn(ctx context.Context, userID uuid.UUID) (*models.Farmer, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*models.Farmer, error)
}

// ProfileInput carries the farmer-editable profile fields.
type ProfileInput struct {
	FarmName    string
	Phone       *string
	Location    *string
	Description *string
	ImageURL    *string
}

type store interface {
	List(ctx context.Context) ([]models.Farmer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Farmer, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Farmer, error)
	Save(ctx context.Context, farmer *models.Farmer) (*models.Farmer, error)
}

type service struct {
	repo store
}

// NewService builds a farmer service.
func NewService(repo store) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Farmer, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Farmer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id is required")
	}
	farmer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "farmer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer")
	}
	return farmer, nil
}

func (s *service) GetOwn(ctx context.Context, userID uuid.UUID) (*models.Farmer, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	farmer, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "farmer profile required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer")
	}
	return farmer, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*models.Farmer, error) {
	farmer, err := s.GetOwn(ctx, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.FarmName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farm name is required")
	}

	farmer.FarmName = strings.TrimSpace(input.FarmName)
	farmer.Phone = input.Phone
	farmer.Location = input.Location
	farmer.Description = input.Description
	farmer.ImageURL = input.ImageURL
	return s.repo.Save(ctx, farmer)
}
