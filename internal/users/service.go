package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/pkg/auth"
	"github.com/farmstandhq/farmstand-backend/pkg/config"
	"github.com/farmstandhq/farmstand-backend/pkg/db"
	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
	"github.com/farmstandhq/farmstand-backend/pkg/security"
	"github.com/farmstandhq/farmstand-backend/pkg/types"
)

// SignupInput is the account registration payload.
type SignupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateInput edits the caller's own profile.
type UpdateInput struct {
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
}

// AuthResult is a successful signup or login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Service manages accounts and authentication.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)
	Update(ctx context.Context, userID uuid.UUID, input UpdateInput) (*models.User, error)
}

type store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Save(ctx context.Context, user *models.User) (*models.User, error)
}

type farmerProfiles interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Farmer, error)
	Save(ctx context.Context, farmer *models.Farmer) (*models.Farmer, error)
}

type service struct {
	repo    store
	farmers farmerProfiles
	jwtCfg  config.JWTConfig
	passCfg config.PasswordConfig
	now     func() time.Time
}

// NewService wires the user service.
func NewService(repo store, farmers farmerProfiles, jwtCfg config.JWTConfig, passCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user service requires a repository")
	}
	if farmers == nil {
		return nil, fmt.Errorf("user service requires a farmer profile store")
	}
	return &service{
		repo:    repo,
		farmers: farmers,
		jwtCfg:  jwtCfg,
		passCfg: passCfg,
		now:     time.Now,
	}, nil
}

// Signup registers an account. Duplicate emails are rejected by the lookup
// below; legacy data may hold several accounts per email and review dedupe
// handles those by email. A racing insert that slips past the lookup
// surfaces as the same conflict via the unique-violation check.
func (s *service) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	role, err := enums.ParseUserRole(input.Role)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	email := types.NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking email")
	}

	hash, err := security.HashPassword(input.Password, s.passCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}

	user, err := s.repo.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating account")
	}

	if role == enums.UserRoleFarmer {
		if err := s.ensureFarmerProfile(ctx, user); err != nil {
			return nil, err
		}
	}

	return s.authResult(user)
}

// Login verifies credentials and issues a token.
func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.repo.FindByEmail(ctx, types.NormalizeEmail(input.Email))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading account")
	}

	match, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !match {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	return s.authResult(user)
}

// Get loads the caller's own account.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading account")
	}
	return user, nil
}

// Update edits the caller's own profile fields.
func (s *service) Update(ctx context.Context, userID uuid.UUID, input UpdateInput) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = name
	}
	if input.AvatarURL != nil {
		user.AvatarURL = input.AvatarURL
	}

	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving account")
	}
	return saved, nil
}

func (s *service) ensureFarmerProfile(ctx context.Context, user *models.User) error {
	_, err := s.farmers.GetByUserID(ctx, user.ID)
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading farmer profile")
	}

	_, err = s.farmers.Save(ctx, &models.Farmer{
		UserID:   user.ID,
		FarmName: user.Name,
		Email:    user.Email,
	})
	if err != nil {
		// a concurrent signup can win the farmers.email unique index
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating farmer profile")
	}
	return nil
}

func (s *service) authResult(user *models.User) (*AuthResult, error) {
	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token")
	}
	return &AuthResult{User: user, Token: token}, nil
}
