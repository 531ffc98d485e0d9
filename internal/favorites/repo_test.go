package favorites

import (
	"context"
	"testing"
	"time"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// The id column generates its own value because Add inserts rows without one.
const favoritesDDL = `
CREATE TABLE IF NOT EXISTS favorites (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-4' ||
    substr(lower(hex(randomblob(2))),2) || '-' || substr('89ab', abs(random()) % 4 + 1, 1) ||
    substr(lower(hex(randomblob(2))),2) || '-' || lower(hex(randomblob(6)))),
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, product_id)
);`

func setupFavoritesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(favoritesDDL).Error)
	return db
}

func TestRepositoryAddTwiceKeepsOneRow(t *testing.T) {
	db := setupFavoritesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	productID := uuid.New()

	require.NoError(t, repo.Add(ctx, userID, productID))
	require.NoError(t, repo.Add(ctx, userID, productID))

	saved, err := repo.Exists(ctx, userID, productID)
	require.NoError(t, err)
	assert.True(t, saved)

	ids, err := repo.ListProductIDs(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{productID}, ids)
}

func TestRepositoryListProductIDsNewestFirst(t *testing.T) {
	db := setupFavoritesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	older := uuid.New()
	newer := uuid.New()

	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.Favorite{ID: uuid.New(), UserID: userID, ProductID: older, CreatedAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Favorite{ID: uuid.New(), UserID: userID, ProductID: newer, CreatedAt: now}).Error)

	ids, err := repo.ListProductIDs(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{newer, older}, ids)
}

func TestRepositoryRemove(t *testing.T) {
	db := setupFavoritesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	productID := uuid.New()

	require.NoError(t, repo.Add(ctx, userID, productID))
	require.NoError(t, repo.Remove(ctx, userID, productID))

	saved, err := repo.Exists(ctx, userID, productID)
	require.NoError(t, err)
	assert.False(t, saved)
}
