package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func newOrder(key string) *models.Order {
	return &models.Order{
		Email:          "a@b.com",
		Currency:       "gbp",
		Destination:    enums.DestinationDomestic,
		IdempotencyKey: key,
		SubtotalMinor:  2500,
		ShippingMinor:  395,
		TotalMinor:     2895,
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Name: "Tour Tee", Quantity: 1, UnitPriceMinor: 2500},
		},
	}
}

func setup(t *testing.T) (Repository, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	return NewRepository(db), db
}

func TestCreateAndFind(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()

	order := newOrder("key-1")
	require.NoError(t, repo.Create(ctx, order))
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.NotEqual(t, uuid.Nil, order.ID)

	byKey, err := repo.FindByIdempotencyKey(ctx, "key-1")
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, order.ID, byKey.ID)
	assert.Len(t, byKey.Items, 1)
	assert.Nil(t, byKey.PaymentIntentID)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLinkPaymentIntentOnlyOnce(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	order := newOrder("key-link")
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.LinkPaymentIntent(ctx, order.ID, "pi_1"))
	err := repo.LinkPaymentIntent(ctx, order.ID, "pi_2")
	assert.True(t, errors.Is(err, ErrAlreadyLinked))

	found, err := repo.FindByPaymentIntentID(ctx, "pi_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, order.ID, found.ID)
}

func TestTransitionStatusGuards(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	order := newOrder("key-transition")
	require.NoError(t, repo.Create(ctx, order))

	moved, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPaid)
	require.NoError(t, err)
	assert.False(t, moved, "second paid transition must be a no-op")

	_, err = repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending)
	assert.Error(t, err, "nothing transitions into pending")
}

func TestTransitionStatusFromNarrowsSources(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	order := newOrder("key-transition-from")
	require.NoError(t, repo.Create(ctx, order))

	moved, err := repo.TransitionStatusFrom(ctx, order.ID,
		[]enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusPartiallyRefunded}, enums.OrderStatusRefunded)
	require.NoError(t, err)
	assert.False(t, moved, "pending order is outside the requested sources")

	moved, err = repo.TransitionStatusFrom(ctx, order.ID, []enums.OrderStatus{enums.OrderStatusPending}, enums.OrderStatusRefunded)
	require.NoError(t, err)
	assert.True(t, moved)

	_, err = repo.TransitionStatusFrom(ctx, order.ID, []enums.OrderStatus{enums.OrderStatusRefunded}, enums.OrderStatusPaid)
	assert.Error(t, err, "refunded -> paid is not a legal transition")
}

func TestRetireIdempotencyKeyFreesKey(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	order := newOrder("key-retire")
	require.NoError(t, repo.Create(ctx, order))
	_, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusFailed)
	require.NoError(t, err)
	order.Status = enums.OrderStatusFailed

	require.NoError(t, repo.RetireIdempotencyKey(ctx, order))
	assert.Equal(t, "key-retire:retired:"+order.ID.String(), order.IdempotencyKey)

	require.NoError(t, repo.Create(ctx, newOrder("key-retire")))
}

func TestDeleteRemovesItems(t *testing.T) {
	repo, db := setup(t)
	ctx := context.Background()
	order := newOrder("key-delete")
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.Delete(ctx, order.ID))

	var orders, items int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}
