package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout/saga"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/reporting"
	"github.com/angelmondragon/storefront-backend/pkg/stripe"
)

const (
	stepCreateOrder  = "create_order"
	stepCreateIntent = "create_payment_intent"
	stepLinkIntent   = "link_payment_intent"

	idempotencyConstraint = "orders_idempotency_key_key"
)

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type intentGateway interface {
	Create(ctx context.Context, req stripe.IntentRequest) (stripe.Intent, error)
	Retrieve(ctx context.Context, id string) (stripe.Intent, error)
	Cancel(ctx context.Context, id string) error
}

// errConcurrentCheckout marks a lost race on the idempotency key.
var errConcurrentCheckout = errors.New("order for idempotency key created concurrently")

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

type ServiceParams struct {
	Products  productLoader
	Orders    orders.Repository
	Gateway   intentGateway
	Validator *cart.Validator
	Shipping  pkgcheckout.ShippingRates
	Reporter  reporting.Reporter
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
}

type service struct {
	products  productLoader
	orders    orders.Repository
	gateway   intentGateway
	validator *cart.Validator
	shipping  pkgcheckout.ShippingRates
	reporter  reporting.Reporter
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Validator == nil {
		return nil, fmt.Errorf("cart validator required")
	}
	if params.Reporter == nil {
		params.Reporter = reporting.Nop{}
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		products:  params.Products,
		orders:    params.Orders,
		gateway:   params.Gateway,
		validator: params.Validator,
		shipping:  params.Shipping,
		reporter:  params.Reporter,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

func (s *service) Execute(ctx context.Context, req Request) (result *Result, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveCheckout(outcomeOf(result, err), time.Since(start))
	}()

	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	if !req.Destination.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported destination")
	}
	email := strings.TrimSpace(req.Email)

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	validated := s.validator.Validate(req.Items, products)
	if !validated.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeCartValidation, "cart contains invalid items").
			WithDetails(map[string]any{"items": validated.Errors})
	}

	totals := pkgcheckout.CalculateTotals(validated.Lines(), req.Destination, s.shipping)
	key := pkgcheckout.IdempotencyKey(email, req.Items, req.Destination)
	ctx = s.logg.WithField(ctx, "idempotency_key", key)

	existing, err := s.orders.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup order by idempotency key")
	}
	if existing != nil {
		if existing.Status != enums.OrderStatusFailed {
			return s.replay(ctx, existing, validated.Items)
		}
		if err := s.orders.RetireIdempotencyKey(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "retire failed order key")
		}
		s.logg.Info(s.logg.WithOrderID(ctx, existing.ID.String()), "checkout.failed_order_retired")
	}

	order := newOrder(email, key, req.Destination, validated, totals)
	var intent stripe.Intent

	run := saga.New("checkout", saga.WithCompensationHook(s.observeCompensation)).
		Add(saga.Step{
			Name: stepCreateOrder,
			Action: func(ctx context.Context) error {
				if err := s.orders.Create(ctx, order); err != nil {
					if db.IsUniqueViolation(err, idempotencyConstraint, "idempotency_key") {
						return errConcurrentCheckout
					}
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.orders.Delete(ctx, order.ID)
			},
		}).
		Add(saga.Step{
			Name: stepCreateIntent,
			Action: func(ctx context.Context) error {
				created, err := s.gateway.Create(ctx, stripe.IntentRequest{
					AmountMinor: totals.Total,
					Currency:    validated.Currency,
					Metadata: map[string]string{
						"order_id":        order.ID.String(),
						"idempotency_key": key,
						"destination":     string(req.Destination),
					},
					IdempotencyToken: fmt.Sprintf("order-%s-intent", order.ID),
				})
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodePaymentSession, err, "create payment intent")
				}
				intent = created
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.gateway.Cancel(ctx, intent.ID)
			},
		}).
		Add(saga.Step{
			Name: stepLinkIntent,
			Action: func(ctx context.Context) error {
				if err := s.orders.LinkPaymentIntent(ctx, order.ID, intent.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodePaymentSession, err, "link payment intent")
				}
				return nil
			},
		})

	if err := run.Run(ctx); err != nil {
		if errors.Is(err, errConcurrentCheckout) {
			return s.replayConcurrent(ctx, key, validated.Items)
		}
		s.logFailure(ctx, order.ID, err)
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout failed")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":          order.ID.String(),
		"payment_intent_id": intent.ID,
		"total":             totals.Total,
	}), "checkout.created")

	return &Result{
		ClientSecret:    intent.ClientSecret,
		OrderID:         order.ID,
		PaymentIntentID: intent.ID,
		Currency:        validated.Currency,
		Items:           validated.Items,
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		Total:           totals.Total,
	}, nil
}

// replay answers a repeated submission with the order it already produced.
func (s *service) replay(ctx context.Context, order *models.Order, items []cart.ValidatedItem) (*Result, error) {
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	if order.PaymentIntentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
	}

	intent, err := s.gateway.Retrieve(ctx, *order.PaymentIntentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentSession, err, "retrieve payment intent")
	}

	s.logg.Info(s.logg.WithPaymentIntentID(ctx, intent.ID), "checkout.replayed")
	return &Result{
		ClientSecret:    intent.ClientSecret,
		OrderID:         order.ID,
		PaymentIntentID: intent.ID,
		Currency:        order.Currency,
		Items:           items,
		Subtotal:        order.SubtotalMinor,
		Shipping:        order.ShippingMinor,
		Total:           order.TotalMinor,
		Replayed:        true,
	}, nil
}

func (s *service) replayConcurrent(ctx context.Context, key string, items []cart.ValidatedItem) (*Result, error) {
	existing, err := s.orders.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup concurrent order")
	}
	if existing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
	}
	return s.replay(ctx, existing, items)
}

func (s *service) observeCompensation(ctx context.Context, step string, err error) {
	s.metrics.IncCompensation(step, err == nil)
	stepCtx := s.logg.WithField(ctx, "step", step)
	if err == nil {
		s.logg.Warn(stepCtx, "checkout.compensated")
		return
	}
	s.reporter.Report(stepCtx, reporting.EventCompensationFailed, err, map[string]any{"step": step})
}

func (s *service) logFailure(ctx context.Context, orderID uuid.UUID, err error) {
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	var stepErr *saga.StepError
	if errors.As(err, &stepErr) {
		ctx = s.logg.WithField(ctx, "step", stepErr.Step)
	}
	s.logg.Error(ctx, "checkout.failed", err)
}

func newOrder(email, key string, destination enums.Destination, validated cart.Result, totals pkgcheckout.Totals) *models.Order {
	items := make([]models.OrderItem, 0, len(validated.Items))
	for _, item := range validated.Items {
		items = append(items, models.OrderItem{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPrice,
		})
	}
	return &models.Order{
		ID:             uuid.New(),
		Email:          strings.ToLower(email),
		Currency:       validated.Currency,
		Destination:    destination,
		IdempotencyKey: key,
		Status:         enums.OrderStatusPending,
		SubtotalMinor:  totals.Subtotal,
		ShippingMinor:  totals.Shipping,
		TotalMinor:     totals.Total,
		Items:          items,
	}
}

func outcomeOf(result *Result, err error) string {
	switch {
	case err == nil && result != nil && result.Replayed:
		return "replayed"
	case err == nil:
		return "created"
	case pkgerrors.IsClientCode(codeOf(err)):
		return "rejected"
	default:
		return "failed"
	}
}

func codeOf(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return pkgerrors.CodeInternal
}
