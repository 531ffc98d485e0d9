package farmers

import (
	"context"
	"testing"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupFarmersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS farmers (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  farm_name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT,
  location TEXT,
  description TEXT,
  image_url TEXT,
  average_rating NUMERIC NOT NULL DEFAULT 0,
  review_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, farmName string) *models.Farmer {
	t.Helper()

	farmer := &models.Farmer{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		FarmName: farmName,
		Email:    "farm-" + uuid.NewString() + "@farm.test",
	}
	require.NoError(t, db.Create(farmer).Error)
	return farmer
}

func TestRepositoryGetByUserID(t *testing.T) {
	db := setupFarmersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	farmer := seedProfile(t, db, "Windy Ridge")

	found, err := repo.GetByUserID(ctx, farmer.UserID)
	require.NoError(t, err)
	assert.Equal(t, farmer.ID, found.ID)

	_, err = repo.GetByUserID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListOrdersByFarmName(t *testing.T) {
	db := setupFarmersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	second := seedProfile(t, db, "zz Willow Bend")
	first := seedProfile(t, db, "zz Alder Field")

	rows, err := repo.List(ctx)
	require.NoError(t, err)

	// scope to this test's rows; other fixtures may share the table
	var mine []uuid.UUID
	for _, row := range rows {
		if row.ID == first.ID || row.ID == second.ID {
			mine = append(mine, row.ID)
		}
	}
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, mine)
}

func TestRepositoryUpdateRatingAggregates(t *testing.T) {
	db := setupFarmersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	farmer := seedProfile(t, db, "Clover Patch")
	require.NoError(t, repo.UpdateRatingAggregates(ctx, farmer.ID, 4.8, 12))

	loaded, err := repo.FindByID(ctx, farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.8, loaded.AverageRating)
	assert.Equal(t, 12, loaded.ReviewCount)
}
