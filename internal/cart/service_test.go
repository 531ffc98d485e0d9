package cart

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
	"github.com/farmstandhq/farmstand-backend/pkg/logger"
)

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeStore struct {
	carts  map[uuid.UUID]*models.Cart
	writes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{carts: map[uuid.UUID]*models.Cart{}}
}

func (f *fakeStore) FindByUser(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, ok := f.carts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cart, nil
}

func (f *fakeStore) Create(_ context.Context, cart *models.Cart) (*models.Cart, error) {
	cart.ID = uuid.New()
	f.carts[cart.UserID] = cart
	f.writes++
	return cart, nil
}

func (f *fakeStore) ReplaceItems(_ context.Context, cartID uuid.UUID, items []models.CartItem) error {
	for _, cart := range f.carts {
		if cart.ID == cartID {
			cart.Items = items
		}
	}
	f.writes++
	return nil
}

func (f *fakeStore) UpdateTotal(_ context.Context, cartID uuid.UUID, total decimal.Decimal) error {
	for _, cart := range f.carts {
		if cart.ID == cartID {
			cart.Total = total
		}
	}
	f.writes++
	return nil
}

func (f *fakeStore) Clear(_ context.Context, userID uuid.UUID) error {
	if cart, ok := f.carts[userID]; ok {
		cart.Items = nil
		cart.Total = decimal.Zero
	}
	f.writes++
	return nil
}

type fakeProducts struct {
	live map[uuid.UUID]models.Product
}

func (f *fakeProducts) FindLiveByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := map[uuid.UUID]models.Product{}
	for _, id := range ids {
		if p, ok := f.live[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(fs *fakeStore, products *fakeProducts) *service {
	return &service{
		tx:       fakeTx{},
		repo:     fs,
		bind:     func(*gorm.DB) store { return fs },
		products: products,
		logg:     testLogger(),
	}
}

func liveProduct(name string, price string, stock int) models.Product {
	return models.Product{
		ID:     uuid.New(),
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Status: enums.ProductStatusActive,
		Stock:  stock,
	}
}

func TestGetReturnsEmptyCartWhenNoneSaved(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProducts{})

	userID := uuid.New()
	cart, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, cart.UserID)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestReplaceDropsUnavailableProducts(t *testing.T) {
	carrots := liveProduct("Carrots", "2.50", 10)
	store := newFakeStore()
	svc := newTestService(store, &fakeProducts{live: map[uuid.UUID]models.Product{carrots.ID: carrots}})

	cart, err := svc.Replace(context.Background(), uuid.New(), []LineInput{
		{ProductID: carrots.ID, Quantity: 2},
		{ProductID: uuid.New(), Quantity: 4},
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, carrots.ID, cart.Items[0].ProductID)
	assert.Equal(t, "5.00", cart.Total.StringFixed(2))
}

func TestReplaceCoercesQuantityToAtLeastOne(t *testing.T) {
	carrots := liveProduct("Carrots", "2.50", 10)
	svc := newTestService(newFakeStore(), &fakeProducts{live: map[uuid.UUID]models.Product{carrots.ID: carrots}})

	cart, err := svc.Replace(context.Background(), uuid.New(), []LineInput{
		{ProductID: carrots.ID, Quantity: 0},
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestReplaceMergesDuplicateLines(t *testing.T) {
	carrots := liveProduct("Carrots", "2.50", 10)
	svc := newTestService(newFakeStore(), &fakeProducts{live: map[uuid.UUID]models.Product{carrots.ID: carrots}})

	cart, err := svc.Replace(context.Background(), uuid.New(), []LineInput{
		{ProductID: carrots.ID, Quantity: 2},
		{ProductID: carrots.ID, Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, "12.50", cart.Total.StringFixed(2))
}

func TestReplaceInsufficientStockAbortsWholeWrite(t *testing.T) {
	carrots := liveProduct("Carrots", "2.50", 10)
	kale := liveProduct("Kale", "3.00", 1)
	store := newFakeStore()
	svc := newTestService(store, &fakeProducts{live: map[uuid.UUID]models.Product{
		carrots.ID: carrots,
		kale.ID:    kale,
	}})

	_, err := svc.Replace(context.Background(), uuid.New(), []LineInput{
		{ProductID: carrots.ID, Quantity: 2},
		{ProductID: kale.ID, Quantity: 5},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Contains(t, typed.Message(), "Kale")
	assert.Contains(t, typed.Message(), "5")
	assert.Contains(t, typed.Message(), "1")
	assert.Zero(t, store.writes, "no write should happen when a line exceeds stock")
}

func TestReplaceUsesClientPriceOnlyWhenPositive(t *testing.T) {
	carrots := liveProduct("Carrots", "2.50", 10)
	svc := newTestService(newFakeStore(), &fakeProducts{live: map[uuid.UUID]models.Product{carrots.ID: carrots}})

	sale := decimal.RequireFromString("1.99")
	zero := decimal.Zero
	cart, err := svc.Replace(context.Background(), uuid.New(), []LineInput{
		{ProductID: carrots.ID, Quantity: 1, Price: &sale},
	})
	require.NoError(t, err)
	assert.Equal(t, "1.99", cart.Items[0].Price.StringFixed(2))

	cart, err = svc.Replace(context.Background(), uuid.New(), []LineInput{
		{ProductID: carrots.ID, Quantity: 1, Price: &zero},
	})
	require.NoError(t, err)
	assert.Equal(t, "2.50", cart.Items[0].Price.StringFixed(2))
}

func TestReplaceRoundsTotalToTwoDecimals(t *testing.T) {
	honey := liveProduct("Honey", "3.33", 100)
	svc := newTestService(newFakeStore(), &fakeProducts{live: map[uuid.UUID]models.Product{honey.ID: honey}})

	price := decimal.RequireFromString("3.335")
	cart, err := svc.Replace(context.Background(), uuid.New(), []LineInput{
		{ProductID: honey.ID, Quantity: 1, Price: &price},
	})
	require.NoError(t, err)
	assert.Equal(t, "3.34", cart.Total.StringFixed(2))
}

func TestReplaceEmptyLinesClearsCart(t *testing.T) {
	carrots := liveProduct("Carrots", "2.50", 10)
	store := newFakeStore()
	svc := newTestService(store, &fakeProducts{live: map[uuid.UUID]models.Product{carrots.ID: carrots}})

	userID := uuid.New()
	_, err := svc.Replace(context.Background(), userID, []LineInput{
		{ProductID: carrots.ID, Quantity: 2},
	})
	require.NoError(t, err)

	cart, err := svc.Replace(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}
