package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/internal/repo"
	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
)

// Repository handles user account persistence.
type Repository struct {
	repo.Base
}

// NewRepository builds a user repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads an account.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail returns the oldest account registered under the email.
// Emails are not unique across accounts, so signup and login pick the
// first registration deterministically.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).
		Where("email = ?", email).
		Order("created_at ASC").
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts the account.
func (r *Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Save persists the full account row.
func (r *Repository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.DB(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
