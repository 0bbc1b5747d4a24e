package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/reporting"
)

const maxWebhookBodyBytes = 1 << 20

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type stripeWebhookGuard interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type stripeClient interface {
	SigningSecret() string
}

type StripeWebhookParams struct {
	Service StripeWebhookService
	Client  stripeClient
	// Guard is optional; handlers are idempotent without it.
	Guard    stripeWebhookGuard
	Reporter reporting.Reporter
	Metrics  *metrics.CheckoutMetrics
	// RequireSignature refuses every event when no signing secret is set.
	RequireSignature bool
	Logger           *logger.Logger
}

// StripeWebhook verifies and dispatches Stripe payment events. Once an event
// parses it is always acknowledged with 200; handler failures are reported
// rather than bounced back to Stripe.
func StripeWebhook(params StripeWebhookParams) http.HandlerFunc {
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	reporter := params.Reporter
	if reporter == nil {
		reporter = reporting.Nop{}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if params.Service == nil || params.Client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		event, err := parseEvent(payload, r.Header.Get("Stripe-Signature"), params.Client.SigningSecret(), params.RequireSignature)
		if err != nil {
			params.Metrics.IncWebhookEvent("unknown", "rejected")
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithFields(logg.WithEventID(ctx, event.ID), map[string]any{"event_type": string(event.Type)})

		if params.Guard != nil && event.ID != "" {
			claimed, err := params.Guard.Claim(ctx, event.ID)
			if err != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "webhook.guard_unavailable")
			} else if !claimed {
				params.Metrics.IncWebhookEvent(string(event.Type), "duplicate")
				logg.Info(ctx, "webhook.duplicate")
				writeReceived(w)
				return
			}
		}

		if err := params.Service.HandleEvent(ctx, event); err != nil {
			if params.Guard != nil && event.ID != "" {
				if relErr := params.Guard.Release(context.WithoutCancel(ctx), event.ID); relErr != nil {
					logg.Warn(logg.WithField(ctx, "error", relErr.Error()), "webhook.guard_release_failed")
				}
			}
			params.Metrics.IncWebhookEvent(string(event.Type), "failed")
			reporter.Report(ctx, reporting.EventWebhookFailed, err, map[string]any{"event_id": event.ID, "event_type": string(event.Type)})
			writeReceived(w)
			return
		}

		params.Metrics.IncWebhookEvent(string(event.Type), "processed")
		logg.Info(ctx, "webhook.processed")
		writeReceived(w)
	}
}

func parseEvent(payload []byte, signature, secret string, requireSignature bool) (*stripe.Event, error) {
	if secret == "" {
		if requireSignature {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook signing secret not configured")
		}
		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event payload")
		}
		return &event, nil
	}

	if signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stripe signature")
	}
	return &event, nil
}

func writeReceived(w http.ResponseWriter) {
	responses.WriteSuccess(w, map[string]bool{"received": true})
}
