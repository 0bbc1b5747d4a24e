package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/reporting"
)

type stubCanceller struct {
	canceled []string
	err      error
}

func (s *stubCanceller) Cancel(_ context.Context, id string) error {
	s.canceled = append(s.canceled, id)
	return s.err
}

type stubReporter struct {
	events []string
}

func (r *stubReporter) Report(_ context.Context, event string, _ error, _ map[string]any) {
	r.events = append(r.events, event)
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	orders   orders.Repository
	canceler *stubCanceller
	reporter *stubReporter
	product  *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	f := &fixture{
		db:       conn,
		orders:   orders.NewRepository(conn),
		canceler: &stubCanceller{},
		reporter: &stubReporter{},
	}
	f.product = dbtest.SeedProduct(t, conn, &models.Product{
		Name: "Tour Tee", Currency: "gbp", PriceMinor: dbtest.Int64(2500), IsActive: true, Stock: dbtest.Int(10),
	})
	svc, err := NewService(ServiceParams{
		Orders:            f.orders,
		Ledger:            inventory.NewLedger(conn),
		Intents:           f.canceler,
		TransactionRunner: db.NewFromGorm(conn),
		Reporter:          f.reporter,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) seedOrder(t *testing.T, status enums.OrderStatus, intentID string, quantity int) *models.Order {
	t.Helper()
	order := &models.Order{
		Email: "a@b.com", Currency: "gbp", Destination: enums.DestinationDomestic,
		IdempotencyKey: uuid.NewString(), Status: status,
		SubtotalMinor: 2500 * int64(quantity), ShippingMinor: 395, TotalMinor: 2500*int64(quantity) + 395,
		Items: []models.OrderItem{{ProductID: f.product.ID, Name: "Tour Tee", Quantity: quantity, UnitPriceMinor: 2500}},
	}
	if intentID != "" {
		order.PaymentIntentID = &intentID
	}
	require.NoError(t, f.db.Create(order).Error)
	return order
}

func (f *fixture) stock(t *testing.T) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.First(&p, "id = ?", f.product.ID).Error)
	return *p.Stock
}

func (f *fixture) status(t *testing.T, id uuid.UUID) enums.OrderStatus {
	t.Helper()
	order, err := f.orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order.Status
}

func intentEvent(t *testing.T, eventType stripe.EventType, intent *stripe.PaymentIntent) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(intent)
	require.NoError(t, err)
	return &stripe.Event{ID: "evt_" + uuid.NewString(), Type: eventType, Data: &stripe.EventData{Raw: raw}}
}

func refundEvent(t *testing.T, intentID string, amount, refunded int64) *stripe.Event {
	t.Helper()
	charge := &stripe.Charge{
		ID:             "ch_" + uuid.NewString(),
		Amount:         amount,
		AmountRefunded: refunded,
		PaymentIntent:  &stripe.PaymentIntent{ID: intentID},
	}
	raw, err := json.Marshal(charge)
	require.NoError(t, err)
	return &stripe.Event{ID: "evt_" + uuid.NewString(), Type: stripe.EventTypeChargeRefunded, Data: &stripe.EventData{Raw: raw}}
}

func TestSucceededTwiceDecrementsOnce(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPending, "pi_paid", 2)
	ctx := context.Background()

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, &stripe.PaymentIntent{ID: "pi_paid"})
	require.NoError(t, f.svc.HandleEvent(ctx, event))
	require.NoError(t, f.svc.HandleEvent(ctx, event))

	assert.Equal(t, enums.OrderStatusPaid, f.status(t, order.ID))
	assert.Equal(t, 8, f.stock(t))
}

func TestSucceededDecrementsVariantStock(t *testing.T) {
	f := newFixture(t)
	variant := models.ProductVariant{ProductID: f.product.ID, Size: "M", Gender: "unisex", AgeGroup: "adult", Stock: dbtest.Int(4)}
	require.NoError(t, f.db.Create(&variant).Error)

	order := f.seedOrder(t, enums.OrderStatusPending, "pi_variant", 1)
	require.NoError(t, f.db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Update("variant_id", variant.ID).Error)

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, &stripe.PaymentIntent{ID: "pi_variant"})
	require.NoError(t, f.svc.HandleEvent(context.Background(), event))

	var stored models.ProductVariant
	require.NoError(t, f.db.First(&stored, "id = ?", variant.ID).Error)
	assert.Equal(t, 3, *stored.Stock)
	assert.Equal(t, 10, f.stock(t), "product stock is untouched when the line names a variant")
}

func TestSucceededFallsBackToMetadataOrderID(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPending, "", 1)

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, &stripe.PaymentIntent{
		ID:       "pi_unlinked",
		Metadata: map[string]string{"order_id": order.ID.String()},
	})
	require.NoError(t, f.svc.HandleEvent(context.Background(), event))

	assert.Equal(t, enums.OrderStatusPaid, f.status(t, order.ID))
	assert.Equal(t, 9, f.stock(t))
}

func TestPaymentFailedThenSucceeded(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPending, "pi_retry", 1)
	ctx := context.Background()

	require.NoError(t, f.svc.HandleEvent(ctx, intentEvent(t, stripe.EventTypePaymentIntentPaymentFailed, &stripe.PaymentIntent{ID: "pi_retry"})))
	assert.Equal(t, enums.OrderStatusFailed, f.status(t, order.ID))
	assert.Equal(t, 10, f.stock(t))

	require.NoError(t, f.svc.HandleEvent(ctx, intentEvent(t, stripe.EventTypePaymentIntentSucceeded, &stripe.PaymentIntent{ID: "pi_retry"})))
	assert.Equal(t, enums.OrderStatusPaid, f.status(t, order.ID))
	assert.Equal(t, 9, f.stock(t))
}

func TestPaymentFailedDoesNotDemotePaidOrder(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPaid, "pi_late", 1)

	require.NoError(t, f.svc.HandleEvent(context.Background(), intentEvent(t, stripe.EventTypePaymentIntentPaymentFailed, &stripe.PaymentIntent{ID: "pi_late"})))
	assert.Equal(t, enums.OrderStatusPaid, f.status(t, order.ID))
}

func TestFullRefundRestocksPartialDoesNot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusPending, "pi_refund", 2)
	require.NoError(t, f.svc.HandleEvent(ctx, intentEvent(t, stripe.EventTypePaymentIntentSucceeded, &stripe.PaymentIntent{ID: "pi_refund"})))
	require.Equal(t, 8, f.stock(t))

	require.NoError(t, f.svc.HandleEvent(ctx, refundEvent(t, "pi_refund", 5395, 1000)))
	assert.Equal(t, enums.OrderStatusPartiallyRefunded, f.status(t, order.ID))
	assert.Equal(t, 8, f.stock(t))

	full := refundEvent(t, "pi_refund", 5395, 5395)
	require.NoError(t, f.svc.HandleEvent(ctx, full))
	require.NoError(t, f.svc.HandleEvent(ctx, full))
	assert.Equal(t, enums.OrderStatusRefunded, f.status(t, order.ID))
	assert.Equal(t, 10, f.stock(t))
}

func TestFullRefundBeforeSucceededLeavesStockAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusPending, "pi_early", 2)

	require.NoError(t, f.svc.HandleEvent(ctx, refundEvent(t, "pi_early", 5395, 5395)))
	assert.Equal(t, enums.OrderStatusRefunded, f.status(t, order.ID))
	assert.Equal(t, 10, f.stock(t))

	require.NoError(t, f.svc.HandleEvent(ctx, intentEvent(t, stripe.EventTypePaymentIntentSucceeded, &stripe.PaymentIntent{ID: "pi_early"})))
	assert.Equal(t, enums.OrderStatusRefunded, f.status(t, order.ID))
	assert.Equal(t, 10, f.stock(t))
}

func TestPartialRefundBeforeSucceededTakesStockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusPending, "pi_early_partial", 2)

	require.NoError(t, f.svc.HandleEvent(ctx, refundEvent(t, "pi_early_partial", 5395, 1000)))
	assert.Equal(t, enums.OrderStatusPartiallyRefunded, f.status(t, order.ID))
	assert.Equal(t, 8, f.stock(t))

	require.NoError(t, f.svc.HandleEvent(ctx, intentEvent(t, stripe.EventTypePaymentIntentSucceeded, &stripe.PaymentIntent{ID: "pi_early_partial"})))
	assert.Equal(t, enums.OrderStatusPartiallyRefunded, f.status(t, order.ID))
	assert.Equal(t, 8, f.stock(t))

	require.NoError(t, f.svc.HandleEvent(ctx, refundEvent(t, "pi_early_partial", 5395, 5395)))
	assert.Equal(t, enums.OrderStatusRefunded, f.status(t, order.ID))
	assert.Equal(t, 10, f.stock(t))
}

func TestFullRefundAfterFailedLeavesStockAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusFailed, "pi_retry", 2)

	require.NoError(t, f.svc.HandleEvent(ctx, refundEvent(t, "pi_retry", 5395, 5395)))
	assert.Equal(t, enums.OrderStatusRefunded, f.status(t, order.ID))
	assert.Equal(t, 10, f.stock(t))
}

func TestRefundForUnknownIntentIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.svc.HandleEvent(context.Background(), refundEvent(t, "pi_unknown", 100, 100)))
}

func TestIntentCreatedOrphanIsReportedAndCanceled(t *testing.T) {
	f := newFixture(t)

	event := intentEvent(t, stripe.EventTypePaymentIntentCreated, &stripe.PaymentIntent{
		ID:       "pi_orphan",
		Status:   stripe.PaymentIntentStatusRequiresPaymentMethod,
		Metadata: map[string]string{"order_id": uuid.NewString()},
	})
	require.NoError(t, f.svc.HandleEvent(context.Background(), event))

	assert.Equal(t, []string{"pi_orphan"}, f.canceler.canceled)
	assert.Equal(t, []string{reporting.EventOrphanIntent}, f.reporter.events)
}

func TestIntentCreatedOrphanCancelFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.canceler.err = errors.New("stripe down")

	event := intentEvent(t, stripe.EventTypePaymentIntentCreated, &stripe.PaymentIntent{
		ID:       "pi_orphan",
		Status:   stripe.PaymentIntentStatusRequiresAction,
		Metadata: map[string]string{"order_id": uuid.NewString()},
	})
	require.NoError(t, f.svc.HandleEvent(context.Background(), event))
	assert.Equal(t, []string{reporting.EventOrphanIntent, reporting.EventOrphanCancelFailed}, f.reporter.events)
}

func TestIntentCreatedOrphanNotCancellable(t *testing.T) {
	f := newFixture(t)

	event := intentEvent(t, stripe.EventTypePaymentIntentCreated, &stripe.PaymentIntent{
		ID:       "pi_done",
		Status:   stripe.PaymentIntentStatusSucceeded,
		Metadata: map[string]string{"order_id": uuid.NewString()},
	})
	require.NoError(t, f.svc.HandleEvent(context.Background(), event))
	assert.Empty(t, f.canceler.canceled)
	assert.Equal(t, []string{reporting.EventOrphanIntent}, f.reporter.events)
}

func TestIntentCreatedForKnownOrderIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, status := range []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusPaid} {
		order := f.seedOrder(t, status, "pi_"+uuid.NewString(), 1)
		event := intentEvent(t, stripe.EventTypePaymentIntentCreated, &stripe.PaymentIntent{
			ID:       *order.PaymentIntentID,
			Status:   stripe.PaymentIntentStatusRequiresPaymentMethod,
			Metadata: map[string]string{"order_id": order.ID.String()},
		})
		require.NoError(t, f.svc.HandleEvent(ctx, event))
		assert.Equal(t, status, f.status(t, order.ID))
	}
	assert.Empty(t, f.canceler.canceled)
	assert.Empty(t, f.reporter.events)
}

func TestMissingCorrelationIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.svc.HandleEvent(ctx, intentEvent(t, stripe.EventTypePaymentIntentCreated, &stripe.PaymentIntent{ID: "pi_x"})))
	assert.NoError(t, f.svc.HandleEvent(ctx, intentEvent(t, stripe.EventTypePaymentIntentSucceeded, &stripe.PaymentIntent{ID: "pi_x"})))
	assert.NoError(t, f.svc.HandleEvent(ctx, refundEvent(t, "", 100, 100)))
	assert.Empty(t, f.canceler.canceled)
}

func TestUnhandledEventTypeIgnored(t *testing.T) {
	f := newFixture(t)
	event := &stripe.Event{ID: "evt_1", Type: stripe.EventTypeCustomerCreated, Data: &stripe.EventData{Raw: []byte(`{}`)}}
	assert.NoError(t, f.svc.HandleEvent(context.Background(), event))
}

func TestHandleEventRejectsMissingData(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.svc.HandleEvent(context.Background(), &stripe.Event{ID: "evt_1"}))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
