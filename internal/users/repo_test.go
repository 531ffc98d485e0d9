package users

import (
	"context"
	"testing"
	"time"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'buyer',
  avatar_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, email string, created time.Time) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		Name:         "Robin",
		Email:        email,
		PasswordHash: "x",
		Role:         enums.UserRoleBuyer,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRepositoryFindByEmailPicksOldestAccount(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	email := "robin-" + uuid.NewString() + "@example.test"
	now := time.Now().UTC()
	oldest := seedAccount(t, db, email, now.Add(-time.Hour))
	seedAccount(t, db, email, now)

	found, err := repo.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, oldest.ID, found.ID)
}

func TestRepositoryFindByEmailMissing(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByEmail(context.Background(), "nobody-"+uuid.NewString()+"@example.test")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositorySaveRewritesRow(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	account := seedAccount(t, db, "save-"+uuid.NewString()+"@example.test", time.Now().UTC())
	account.Name = "Robin Updated"
	account.Role = enums.UserRoleFarmer
	_, err := repo.Save(ctx, account)
	require.NoError(t, err)

	loaded, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Robin Updated", loaded.Name)
	assert.Equal(t, enums.UserRoleFarmer, loaded.Role)
}
