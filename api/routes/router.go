package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	webhookcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/webhooks"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/captcha"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	stripewebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/reporting"
	"github.com/angelmondragon/storefront-backend/pkg/stripe"
)

// Deps carries everything the HTTP surface needs. Nil optional entries
// disable the matching feature (rate limiting, event dedupe, readiness ping).
type Deps struct {
	DB                   controllers.Pinger
	Redis                *redis.Client
	Gatherer             prometheus.Gatherer
	CheckoutService      checkoutsvc.Service
	OrdersService        orders.Service
	Captcha              captcha.Verifier
	StripeClient         *stripe.Client
	StripeWebhookService *stripewebhook.Service
	StripeWebhookGuard   *stripewebhook.EventGuard
	Reporter             reporting.Reporter
	Metrics              *metrics.CheckoutMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg, deps.Reporter),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	ready := map[string]controllers.Pinger{"db": deps.DB}
	var rateStore redis.RateLimitStore
	if deps.Redis != nil {
		ready["redis"] = deps.Redis
		rateStore = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, ready))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutIPLimit,
		cfg.RateLimit.CheckoutEmailLimit,
	)

	webhookParams := webhookcontrollers.StripeWebhookParams{
		Reporter:         deps.Reporter,
		Metrics:          deps.Metrics,
		RequireSignature: cfg.App.IsProd(),
		Logger:           logg,
	}
	if deps.StripeWebhookService != nil {
		webhookParams.Service = deps.StripeWebhookService
	}
	if deps.StripeClient != nil {
		webhookParams.Client = deps.StripeClient
	}
	if deps.StripeWebhookGuard != nil {
		webhookParams.Guard = deps.StripeWebhookGuard
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(checkoutPolicy, rateStore, logg)).
			Post("/checkout", controllers.Checkout(deps.CheckoutService, deps.Captcha, logg))
		r.Get("/orders/{orderId}", ordercontrollers.Status(deps.OrdersService, logg))
		r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(webhookParams))
	})

	return r
}
