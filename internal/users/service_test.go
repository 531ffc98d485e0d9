package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/pkg/auth"
	"github.com/farmstandhq/farmstand-backend/pkg/config"
	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
	"github.com/farmstandhq/farmstand-backend/pkg/security"
)

type fakeStore struct {
	users     map[uuid.UUID]*models.User
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[uuid.UUID]*models.User{}}
}

func (f *fakeStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := f.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	copied := *user
	f.users[user.ID] = &copied
	return user, nil
}

func (f *fakeStore) Save(_ context.Context, user *models.User) (*models.User, error) {
	copied := *user
	f.users[user.ID] = &copied
	return user, nil
}

type fakeFarmerProfiles struct {
	profiles map[uuid.UUID]*models.Farmer
	saves    int
	saveErr  error
}

func newFakeFarmerProfiles() *fakeFarmerProfiles {
	return &fakeFarmerProfiles{profiles: map[uuid.UUID]*models.Farmer{}}
}

func (f *fakeFarmerProfiles) GetByUserID(_ context.Context, userID uuid.UUID) (*models.Farmer, error) {
	if farmer, ok := f.profiles[userID]; ok {
		copied := *farmer
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeFarmerProfiles) Save(_ context.Context, farmer *models.Farmer) (*models.Farmer, error) {
	f.saves++
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if farmer.ID == uuid.Nil {
		farmer.ID = uuid.New()
	}
	copied := *farmer
	f.profiles[farmer.UserID] = &copied
	return farmer, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "farmstand", ExpirationMinutes: 30}
}

func testPasswordConfig() config.PasswordConfig {
	// small argon cost so the suite stays fast
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func testService(repo *fakeStore, farmers *fakeFarmerProfiles) *service {
	return &service{
		repo:    repo,
		farmers: farmers,
		jwtCfg:  testJWTConfig(),
		passCfg: testPasswordConfig(),
		now:     time.Now,
	}
}

func TestSignupNormalizesEmailAndMintsToken(t *testing.T) {
	repo := newFakeStore()
	farmers := newFakeFarmerProfiles()
	svc := testService(repo, farmers)

	result, err := svc.Signup(context.Background(), SignupInput{
		Name:     "  Amy Diaz  ",
		Email:    "  Amy@Example.COM ",
		Password: "garden-gate-9",
		Role:     "buyer",
	})
	require.NoError(t, err)
	assert.Equal(t, "amy@example.com", result.User.Email)
	assert.Equal(t, "Amy Diaz", result.User.Name)
	assert.Equal(t, enums.UserRoleBuyer, result.User.Role)
	assert.Zero(t, farmers.saves)

	claims, err := auth.ParseAccessToken(testJWTConfig(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, "amy@example.com", claims.Email)
	assert.Equal(t, enums.UserRoleBuyer, claims.Role)
}

func TestSignupFarmerCreatesProfile(t *testing.T) {
	repo := newFakeStore()
	farmers := newFakeFarmerProfiles()
	svc := testService(repo, farmers)

	result, err := svc.Signup(context.Background(), SignupInput{
		Name:     "Green Acres",
		Email:    "green@farm.test",
		Password: "rows-of-kale",
		Role:     "farmer",
	})
	require.NoError(t, err)
	require.Equal(t, 1, farmers.saves)

	profile := farmers.profiles[result.User.ID]
	require.NotNil(t, profile)
	assert.Equal(t, "Green Acres", profile.FarmName)
	assert.Equal(t, "green@farm.test", profile.Email)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeStore()
	svc := testService(repo, newFakeFarmerProfiles())

	_, err := svc.Signup(context.Background(), SignupInput{
		Name: "First", Email: "dup@example.com", Password: "first-pass-1", Role: "buyer",
	})
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), SignupInput{
		Name: "Second", Email: "DUP@example.com", Password: "second-pass-2", Role: "buyer",
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestSignupMapsUniqueViolationToConflict(t *testing.T) {
	dup := errors.New(`ERROR: duplicate key value violates unique constraint "idx_farmers_email" (SQLSTATE 23505)`)

	repo := newFakeStore()
	repo.createErr = dup
	_, err := testService(repo, newFakeFarmerProfiles()).Signup(context.Background(), SignupInput{
		Name: "Raced", Email: "raced@example.com", Password: "raced-pass-1", Role: "buyer",
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())

	farmers := newFakeFarmerProfiles()
	farmers.saveErr = dup
	_, err = testService(newFakeStore(), farmers).Signup(context.Background(), SignupInput{
		Name: "Raced Farm", Email: "racedfarm@example.com", Password: "raced-pass-2", Role: "farmer",
	})
	require.Error(t, err)
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestSignupRejectsUnknownRole(t *testing.T) {
	svc := testService(newFakeStore(), newFakeFarmerProfiles())

	_, err := svc.Signup(context.Background(), SignupInput{
		Name: "Nope", Email: "nope@example.com", Password: "whatever-123", Role: "admin",
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestLoginVerifiesPassword(t *testing.T) {
	repo := newFakeStore()
	svc := testService(repo, newFakeFarmerProfiles())

	hash, err := security.HashPassword("correct-horse-7", testPasswordConfig())
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Bea",
		Email:        "bea@example.com",
		PasswordHash: hash,
		Role:         enums.UserRoleBuyer,
	}
	repo.users[user.ID] = user

	result, err := svc.Login(context.Background(), LoginInput{Email: "Bea@Example.com", Password: "correct-horse-7"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.Token)

	_, err = svc.Login(context.Background(), LoginInput{Email: "bea@example.com", Password: "wrong"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
}

func TestLoginUnknownEmailUnauthorized(t *testing.T) {
	svc := testService(newFakeStore(), newFakeFarmerProfiles())

	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "anything"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
}

func TestUpdateTrimsNameAndSetsAvatar(t *testing.T) {
	repo := newFakeStore()
	svc := testService(repo, newFakeFarmerProfiles())

	user := &models.User{ID: uuid.New(), Name: "Old Name", Email: "old@example.com", Role: enums.UserRoleBuyer}
	repo.users[user.ID] = user

	avatar := "https://cdn.farmstandhq.com/avatars/1.png"
	updated, err := svc.Update(context.Background(), user.ID, UpdateInput{Name: "  New Name ", AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, avatar, *updated.AvatarURL)

	// blank name leaves the stored one alone
	updated, err = svc.Update(context.Background(), user.ID, UpdateInput{Name: "   "})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
}
