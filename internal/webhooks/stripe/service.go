package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/reporting"
	gateway "github.com/angelmondragon/storefront-backend/pkg/stripe"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type intentCanceller interface {
	Cancel(ctx context.Context, id string) error
}

type ServiceParams struct {
	Orders            orders.Repository
	Ledger            inventory.Ledger
	Intents           intentCanceller
	TransactionRunner txRunner
	Reporter          reporting.Reporter
	Logger            *logger.Logger
}

// Service reconciles order state and stock with Stripe payment events. Every
// handler is safe to run more than once for the same event.
type Service struct {
	orders   orders.Repository
	ledger   inventory.Ledger
	intents  intentCanceller
	txRunner txRunner
	reporter reporting.Reporter
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock ledger required")
	}
	if params.Intents == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment intents client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Reporter == nil {
		params.Reporter = reporting.Nop{}
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Service{
		orders:   params.Orders,
		ledger:   params.Ledger,
		intents:  params.Intents,
		txRunner: params.TransactionRunner,
		reporter: params.Reporter,
		logg:     params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	ctx = s.logg.WithFields(s.logg.WithEventID(ctx, event.ID), map[string]any{"event_type": string(event.Type)})

	switch event.Type {
	case stripe.EventTypePaymentIntentCreated,
		stripe.EventTypePaymentIntentSucceeded,
		stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
		}
		ctx = s.logg.WithPaymentIntentID(ctx, intent.ID)
		switch event.Type {
		case stripe.EventTypePaymentIntentCreated:
			return s.intentCreated(ctx, &intent)
		case stripe.EventTypePaymentIntentSucceeded:
			return s.intentSucceeded(ctx, &intent)
		default:
			return s.intentFailed(ctx, &intent)
		}
	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge event")
		}
		return s.chargeRefunded(ctx, &charge)
	default:
		s.logg.Debug(ctx, "webhook.ignored")
		return nil
	}
}

// intentCreated catches intents whose order never made it: the checkout
// compensation deleted it, or the intent was opened outside checkout.
func (s *Service) intentCreated(ctx context.Context, intent *stripe.PaymentIntent) error {
	orderID, ok := orderIDFromMetadata(intent.Metadata)
	if !ok {
		s.logg.Warn(ctx, "webhook.intent_created.missing_order_id")
		return nil
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return s.cancelOrphan(ctx, intent)
	}
	if order.Status != enums.OrderStatusPending {
		s.logg.Info(s.logg.WithField(ctx, "status", string(order.Status)), "webhook.intent_created.order_not_pending")
	}
	return nil
}

func (s *Service) cancelOrphan(ctx context.Context, intent *stripe.PaymentIntent) error {
	fields := map[string]any{"payment_intent_id": intent.ID, "intent_status": string(intent.Status)}
	s.reporter.Report(ctx, reporting.EventOrphanIntent, nil, fields)
	if !gateway.IsCancellable(string(intent.Status)) {
		return nil
	}
	if err := s.intents.Cancel(context.WithoutCancel(ctx), intent.ID); err != nil {
		s.reporter.Report(ctx, reporting.EventOrphanCancelFailed, err, fields)
		return nil
	}
	s.logg.Info(ctx, "webhook.orphan_intent_canceled")
	return nil
}

func (s *Service) intentSucceeded(ctx context.Context, intent *stripe.PaymentIntent) error {
	order, err := s.orderForIntent(ctx, intent)
	if err != nil || order == nil {
		return err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	if order.Status == enums.OrderStatusPaid {
		s.logg.Info(ctx, "webhook.already_paid")
		return nil
	}
	return s.transition(ctx, order, enums.OrderStatusPaid, statusMove{
		from:   enums.OrderStatusPaid.AllowedFrom(),
		effect: decrementStock(order),
	})
}

func (s *Service) intentFailed(ctx context.Context, intent *stripe.PaymentIntent) error {
	order, err := s.orderForIntent(ctx, intent)
	if err != nil || order == nil {
		return err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	return s.transition(ctx, order, enums.OrderStatusFailed, statusMove{from: enums.OrderStatusFailed.AllowedFrom()})
}

func (s *Service) chargeRefunded(ctx context.Context, charge *stripe.Charge) error {
	if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
		s.logg.Warn(ctx, "webhook.charge_refunded.missing_payment_intent")
		return nil
	}
	ctx = s.logg.WithPaymentIntentID(ctx, charge.PaymentIntent.ID)

	order, err := s.orders.FindByPaymentIntentID(ctx, charge.PaymentIntent.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by payment intent")
	}
	if order == nil {
		s.logg.Warn(ctx, "webhook.charge_refunded.order_not_found")
		return nil
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	if order.Status == enums.OrderStatusRefunded {
		s.logg.Info(ctx, "webhook.already_refunded")
		return nil
	}

	// A refund can overtake payment_intent.succeeded. From pending or failed
	// nothing was taken off the shelf yet: a full refund leaves stock alone,
	// a partial one still sells the goods and takes them now.
	if charge.AmountRefunded >= charge.Amount {
		return s.transition(ctx, order, enums.OrderStatusRefunded,
			statusMove{from: stockHolding, effect: incrementStock(order)},
			statusMove{from: stockFree},
		)
	}
	return s.transition(ctx, order, enums.OrderStatusPartiallyRefunded,
		statusMove{from: []enums.OrderStatus{enums.OrderStatusPaid}},
		statusMove{from: stockFree, effect: decrementStock(order)},
	)
}

var (
	stockHolding = []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusPartiallyRefunded}
	stockFree    = []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusFailed}
)

// statusMove is one group of source states for a transition and the stock
// effect that applies when the order leaves one of them.
type statusMove struct {
	from   []enums.OrderStatus
	effect func(context.Context, inventory.Ledger) error
}

func decrementStock(order *models.Order) func(context.Context, inventory.Ledger) error {
	return func(ctx context.Context, ledger inventory.Ledger) error {
		return ledger.Decrement(ctx, order.Items)
	}
}

func incrementStock(order *models.Order) func(context.Context, inventory.Ledger) error {
	return func(ctx context.Context, ledger inventory.Ledger) error {
		return ledger.Increment(ctx, order.Items)
	}
}

// transition tries each move in order inside one transaction. The first move
// whose guarded update lands wins, and only its stock effect is applied.
func (s *Service) transition(ctx context.Context, order *models.Order, to enums.OrderStatus, moves ...statusMove) error {
	var moved bool
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		for _, move := range moves {
			var err error
			moved, err = repo.TransitionStatusFrom(ctx, order.ID, move.from, to)
			if err != nil {
				return err
			}
			if !moved {
				continue
			}
			if move.effect == nil {
				return nil
			}
			return move.effect(ctx, s.ledger.WithTx(tx))
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transition order to "+string(to))
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"from": string(order.Status), "to": string(to)})
	if moved {
		s.logg.Info(ctx, "webhook.order_transitioned")
	} else {
		s.logg.Info(ctx, "webhook.transition_skipped")
	}
	return nil
}

// orderForIntent finds the order by its linked intent, then by the order id
// stamped into the intent metadata for orders whose link never landed.
func (s *Service) orderForIntent(ctx context.Context, intent *stripe.PaymentIntent) (*models.Order, error) {
	if intent.ID != "" {
		order, err := s.orders.FindByPaymentIntentID(ctx, intent.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by payment intent")
		}
		if order != nil {
			return order, nil
		}
	}
	orderID, ok := orderIDFromMetadata(intent.Metadata)
	if !ok {
		s.logg.Warn(ctx, "webhook.order_not_correlated")
		return nil, nil
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "webhook.order_not_found")
	}
	return order, nil
}

func orderIDFromMetadata(metadata map[string]string) (uuid.UUID, bool) {
	raw := metadata["order_id"]
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
