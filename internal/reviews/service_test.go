package reviews

import (
	"context"
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
	"github.com/farmstandhq/farmstand-backend/pkg/logger"
)

type fakeStore struct {
	reviews   map[uuid.UUID]*models.Review
	delivered map[uuid.UUID]map[uuid.UUID]bool // userID -> productID
	farmerOf  map[uuid.UUID]uuid.UUID          // productID -> farmerID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reviews:   map[uuid.UUID]*models.Review{},
		delivered: map[uuid.UUID]map[uuid.UUID]bool{},
		farmerOf:  map[uuid.UUID]uuid.UUID{},
	}
}

func (f *fakeStore) markDelivered(userID, productID uuid.UUID) {
	if f.delivered[userID] == nil {
		f.delivered[userID] = map[uuid.UUID]bool{}
	}
	f.delivered[userID][productID] = true
}

func (f *fakeStore) FindByID(_ context.Context, id uuid.UUID) (*models.Review, error) {
	review, ok := f.reviews[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return review, nil
}

func (f *fakeStore) ListByProduct(_ context.Context, productID uuid.UUID) ([]models.Review, error) {
	var out []models.Review
	for _, review := range f.reviews {
		if review.ProductID == productID {
			out = append(out, *review)
		}
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, review *models.Review) (*models.Review, error) {
	review.ID = uuid.New()
	f.reviews[review.ID] = review
	return review, nil
}

func (f *fakeStore) Save(_ context.Context, review *models.Review) (*models.Review, error) {
	f.reviews[review.ID] = review
	return review, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.reviews, id)
	return nil
}

func (f *fakeStore) FindByProductAndEmail(_ context.Context, productID uuid.UUID, email string) (*models.Review, error) {
	for _, review := range f.reviews {
		if review.ProductID == productID && review.UserEmail == email {
			return review, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) HasDeliveredOrderWithProduct(_ context.Context, userID, productID uuid.UUID) (bool, error) {
	return f.delivered[userID][productID], nil
}

func (f *fakeStore) FarmerRatingAggregate(_ context.Context, farmerID uuid.UUID) (float64, int, error) {
	sum, count := 0, 0
	for _, review := range f.reviews {
		if f.farmerOf[review.ProductID] == farmerID {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return math.Round(float64(sum)/float64(count)*10) / 10, count, nil
}

type fakeProducts struct {
	products  map[uuid.UUID]*models.Product
	updateErr error
}

func newFakeProducts(ids ...uuid.UUID) *fakeProducts {
	out := &fakeProducts{products: map[uuid.UUID]*models.Product{}}
	for _, id := range ids {
		out.products[id] = &models.Product{ID: id}
	}
	return out
}

func (f *fakeProducts) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (f *fakeProducts) UpdateRatingAggregates(_ context.Context, productID uuid.UUID, average float64, count int) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if product, ok := f.products[productID]; ok {
		product.AverageRating = average
		product.ReviewCount = count
	}
	return nil
}

type fakeFarmers struct {
	averages map[uuid.UUID]float64
	counts   map[uuid.UUID]int
}

func newFakeFarmers() *fakeFarmers {
	return &fakeFarmers{averages: map[uuid.UUID]float64{}, counts: map[uuid.UUID]int{}}
}

func (f *fakeFarmers) UpdateRatingAggregates(_ context.Context, farmerID uuid.UUID, average float64, count int) error {
	f.averages[farmerID] = average
	f.counts[farmerID] = count
	return nil
}

func newTestService(store *fakeStore, products *fakeProducts) Service {
	svc, err := NewService(store, products, newFakeFarmers(), logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		panic(err)
	}
	return svc
}

func buyer() Actor {
	return Actor{ID: uuid.New(), Name: "Pat", Email: "pat@example.test"}
}

func TestCreateAggregatesAcrossAllReviews(t *testing.T) {
	productID := uuid.New()
	store := newFakeStore()
	products := newFakeProducts(productID)
	svc := newTestService(store, products)

	for i, rating := range []int{4, 5, 3} {
		actor := Actor{ID: uuid.New(), Name: "Buyer", Email: fmt.Sprintf("buyer%d@example.test", i)}
		store.markDelivered(actor.ID, productID)
		result, err := svc.Create(context.Background(), actor, productID, Input{Rating: rating})
		require.NoError(t, err)
		assert.Equal(t, i+1, result.TotalRatings)
	}

	assert.Equal(t, 4.0, products.products[productID].AverageRating)
	assert.Equal(t, 3, products.products[productID].ReviewCount)
}

func TestCreateRejectsRatingOutOfRange(t *testing.T) {
	productID := uuid.New()
	svc := newTestService(newFakeStore(), newFakeProducts(productID))

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), buyer(), productID, Input{Rating: rating})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}

func TestCreateRequiresDeliveredPurchase(t *testing.T) {
	productID := uuid.New()
	svc := newTestService(newFakeStore(), newFakeProducts(productID))

	_, err := svc.Create(context.Background(), buyer(), productID, Input{Rating: 5})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestCreateDeduplicatesByEmailAcrossAccounts(t *testing.T) {
	productID := uuid.New()
	store := newFakeStore()
	svc := newTestService(store, newFakeProducts(productID))

	first := Actor{ID: uuid.New(), Name: "Pat", Email: "pat@example.test"}
	store.markDelivered(first.ID, productID)
	_, err := svc.Create(context.Background(), first, productID, Input{Rating: 5})
	require.NoError(t, err)

	second := Actor{ID: uuid.New(), Name: "Pat Again", Email: "Pat@Example.Test"}
	store.markDelivered(second.ID, productID)
	_, err = svc.Create(context.Background(), second, productID, Input{Rating: 4})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestUpdateAndDeleteHideForeignReviewsIdentically(t *testing.T) {
	productID := uuid.New()
	store := newFakeStore()
	svc := newTestService(store, newFakeProducts(productID))

	owner := buyer()
	store.markDelivered(owner.ID, productID)
	created, err := svc.Create(context.Background(), owner, productID, Input{Rating: 5})
	require.NoError(t, err)

	stranger := uuid.New()
	_, updateErr := svc.Update(context.Background(), stranger, created.Review.ID, Input{Rating: 1})
	_, deleteErr := svc.Delete(context.Background(), stranger, created.Review.ID)
	_, missingErr := svc.Update(context.Background(), owner.ID, uuid.New(), Input{Rating: 1})

	for _, err := range []error{updateErr, deleteErr, missingErr} {
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
		assert.Equal(t, notFoundMessage, typed.Message())
	}
}

func TestDeleteLastReviewResetsAggregates(t *testing.T) {
	productID := uuid.New()
	store := newFakeStore()
	products := newFakeProducts(productID)
	svc := newTestService(store, products)

	owner := buyer()
	store.markDelivered(owner.ID, productID)
	created, err := svc.Create(context.Background(), owner, productID, Input{Rating: 4})
	require.NoError(t, err)

	result, err := svc.Delete(context.Background(), owner.ID, created.Review.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.AverageRating)
	assert.Equal(t, 0, result.TotalRatings)
	assert.Equal(t, 0.0, products.products[productID].AverageRating)
	assert.Equal(t, 0, products.products[productID].ReviewCount)
}

func TestDeleteSwallowsRecomputeFailure(t *testing.T) {
	productID := uuid.New()
	store := newFakeStore()
	products := newFakeProducts(productID)
	svc := newTestService(store, products)

	owner := buyer()
	store.markDelivered(owner.ID, productID)
	created, err := svc.Create(context.Background(), owner, productID, Input{Rating: 4})
	require.NoError(t, err)

	products.updateErr = fmt.Errorf("db unavailable")
	_, err = svc.Delete(context.Background(), owner.ID, created.Review.ID)
	require.NoError(t, err, "deletion already succeeded; a stale aggregate is acceptable")
	assert.Empty(t, store.reviews)
}

func TestCanReviewStates(t *testing.T) {
	productID := uuid.New()
	store := newFakeStore()
	svc := newTestService(store, newFakeProducts(productID))

	fresh := buyer()
	result, err := svc.CanReview(context.Background(), fresh, productID)
	require.NoError(t, err)
	assert.False(t, result.CanReview)
	assert.False(t, result.HasPurchased)

	store.markDelivered(fresh.ID, productID)
	result, err = svc.CanReview(context.Background(), fresh, productID)
	require.NoError(t, err)
	assert.True(t, result.CanReview)
	assert.True(t, result.HasPurchased)

	_, err = svc.Create(context.Background(), fresh, productID, Input{Rating: 5})
	require.NoError(t, err)
	result, err = svc.CanReview(context.Background(), fresh, productID)
	require.NoError(t, err)
	assert.False(t, result.CanReview)
	assert.True(t, result.HasReviewed)
	require.NotNil(t, result.ExistingReview)
}

func TestAverageRoundsToOneDecimal(t *testing.T) {
	productID := uuid.New()
	store := newFakeStore()
	products := newFakeProducts(productID)
	svc := newTestService(store, products)

	for i, rating := range []int{5, 4} {
		actor := Actor{ID: uuid.New(), Name: "Buyer", Email: fmt.Sprintf("r%d@example.test", i)}
		store.markDelivered(actor.ID, productID)
		_, err := svc.Create(context.Background(), actor, productID, Input{Rating: rating})
		require.NoError(t, err)
	}

	assert.Equal(t, 4.5, products.products[productID].AverageRating)
}

func TestReviewWritesCascadeToFarmerAggregate(t *testing.T) {
	farmerID := uuid.New()
	productA, productB := uuid.New(), uuid.New()
	store := newFakeStore()
	store.farmerOf[productA] = farmerID
	store.farmerOf[productB] = farmerID
	products := newFakeProducts(productA, productB)
	products.products[productA].FarmerID = farmerID
	products.products[productB].FarmerID = farmerID
	farmers := newFakeFarmers()

	svc, err := NewService(store, products, farmers, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)

	for i, review := range []struct {
		productID uuid.UUID
		rating    int
	}{{productA, 5}, {productB, 4}} {
		actor := Actor{ID: uuid.New(), Name: "Buyer", Email: fmt.Sprintf("c%d@example.test", i)}
		store.markDelivered(actor.ID, review.productID)
		_, err := svc.Create(context.Background(), actor, review.productID, Input{Rating: review.rating})
		require.NoError(t, err)
	}

	assert.Equal(t, 4.5, farmers.averages[farmerID], "farmer average spans every product's reviews")
	assert.Equal(t, 2, farmers.counts[farmerID])
}
