package farmers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
)

type fakeStore struct {
	farmers map[uuid.UUID]*models.Farmer
	saves   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{farmers: map[uuid.UUID]*models.Farmer{}}
}

func (f *fakeStore) List(_ context.Context) ([]models.Farmer, error) {
	out := make([]models.Farmer, 0, len(f.farmers))
	for _, farmer := range f.farmers {
		out = append(out, *farmer)
	}
	return out, nil
}

func (f *fakeStore) FindByID(_ context.Context, id uuid.UUID) (*models.Farmer, error) {
	if farmer, ok := f.farmers[id]; ok {
		copied := *farmer
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) GetByUserID(_ context.Context, userID uuid.UUID) (*models.Farmer, error) {
	for _, farmer := range f.farmers {
		if farmer.UserID == userID {
			copied := *farmer
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) Save(_ context.Context, farmer *models.Farmer) (*models.Farmer, error) {
	f.saves++
	copied := *farmer
	f.farmers[farmer.ID] = &copied
	return farmer, nil
}

func seedFarmer(store *fakeStore) *models.Farmer {
	farmer := &models.Farmer{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		FarmName: "Stone Barn",
		Email:    "stone@barn.test",
	}
	store.farmers[farmer.ID] = farmer
	return farmer
}

func TestGetUnknownFarmerNotFound(t *testing.T) {
	svc := &service{repo: newFakeStore()}

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestGetOwnWithoutProfileForbidden(t *testing.T) {
	svc := &service{repo: newFakeStore()}

	_, err := svc.GetOwn(context.Background(), uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())
}

func TestUpdateProfileSavesEditableFields(t *testing.T) {
	store := newFakeStore()
	farmer := seedFarmer(store)
	svc := &service{repo: store}

	phone := "555-0100"
	location := "County Road 12, Galesburg"
	updated, err := svc.UpdateProfile(context.Background(), farmer.UserID, ProfileInput{
		FarmName: "  Stone Barn Organics ",
		Phone:    &phone,
		Location: &location,
	})
	require.NoError(t, err)
	assert.Equal(t, "Stone Barn Organics", updated.FarmName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)
	assert.Equal(t, 1, store.saves)
}

func TestUpdateProfileRequiresFarmName(t *testing.T) {
	store := newFakeStore()
	farmer := seedFarmer(store)
	svc := &service{repo: store}

	_, err := svc.UpdateProfile(context.Background(), farmer.UserID, ProfileInput{FarmName: "   "})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Zero(t, store.saves)
}
