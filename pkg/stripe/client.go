package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Client wraps Stripe's API access plus env-specific metadata.
type Client struct {
	intents       *PaymentIntents
	environment   string
	signingSecret string
}

// NewClient validates the key against the configured environment. A missing
// webhook signing secret is allowed here; the webhook endpoint decides what
// to do without one.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	api := &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: apiKey}

	if logg != nil {
		ctx = logg.WithField(ctx, "stripe_env", env)
		if strings.TrimSpace(cfg.WebhookSecret) == "" {
			logg.Warn(ctx, "stripe webhook signing secret not configured")
		}
		logg.Info(ctx, "stripe client initialized")
	}

	return &Client{
		intents:       NewPaymentIntents(api),
		environment:   env,
		signingSecret: strings.TrimSpace(cfg.WebhookSecret),
	}, nil
}

// PaymentIntents returns the payment intent gateway.
func (c *Client) PaymentIntents() *PaymentIntents {
	if c == nil {
		return nil
	}
	return c.intents
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret, possibly empty.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
