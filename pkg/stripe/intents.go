package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
)

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

// IntentRequest describes a payment intent to open. IdempotencyToken is sent
// as Stripe's Idempotency-Key so retried creates return the same intent.
type IntentRequest struct {
	AmountMinor      int64
	Currency         string
	Metadata         map[string]string
	IdempotencyToken string
}

// Intent is the gateway-neutral view of a Stripe payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountMinor  int64
	Currency     string
	Metadata     map[string]string
}

// PaymentIntents is the narrow create/retrieve/cancel surface checkout needs.
type PaymentIntents struct {
	api intentAPI
}

// NewPaymentIntents wraps any implementation of the Stripe payment intent
// resource client; tests pass fakes.
func NewPaymentIntents(api intentAPI) *PaymentIntents {
	return &PaymentIntents{api: api}
}

func (p *PaymentIntents) Create(ctx context.Context, req IntentRequest) (Intent, error) {
	if p == nil || p.api == nil {
		return Intent{}, errors.New("stripe: payment intents not configured")
	}
	if req.AmountMinor <= 0 {
		return Intent{}, errors.New("stripe: amount must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if token := strings.TrimSpace(req.IdempotencyToken); token != "" {
		params.SetIdempotencyKey(token)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.New(params)
	if err != nil {
		return Intent{}, err
	}
	return fromStripe(pi), nil
}

func (p *PaymentIntents) Retrieve(ctx context.Context, id string) (Intent, error) {
	if p == nil || p.api == nil {
		return Intent{}, errors.New("stripe: payment intents not configured")
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := p.api.Get(id, params)
	if err != nil {
		return Intent{}, err
	}
	return fromStripe(pi), nil
}

func (p *PaymentIntents) Cancel(ctx context.Context, id string) error {
	if p == nil || p.api == nil {
		return errors.New("stripe: payment intents not configured")
	}
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err := p.api.Cancel(id, params)
	return err
}

// IsCancellable reports whether Stripe still accepts a cancel for the status.
func IsCancellable(status string) bool {
	switch stripe.PaymentIntentStatus(status) {
	case stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresCapture:
		return true
	}
	return false
}

func fromStripe(pi *stripe.PaymentIntent) Intent {
	if pi == nil {
		return Intent{}
	}
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}
