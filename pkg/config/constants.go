package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBDriver = "STOREFRONT_DB_DRIVER"
	EnvDBHost   = "STOREFRONT_DB_HOST"
	EnvDBUser   = "STOREFRONT_DB_USER"
	EnvDBName   = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvStripeAPIKey        = "STOREFRONT_STRIPE_API_KEY"
	EnvStripeWebhookSecret = "STOREFRONT_STRIPE_WEBHOOK_SECRET"
	EnvStripeEnv           = "STOREFRONT_STRIPE_ENV"

	EnvShippingDomestic      = "STOREFRONT_SHIPPING_DOMESTIC_MINOR"
	EnvShippingFreeThreshold = "STOREFRONT_SHIPPING_FREE_THRESHOLD_MINOR"
	EnvShippingEU            = "STOREFRONT_SHIPPING_EU_MINOR"
	EnvShippingWorld         = "STOREFRONT_SHIPPING_WORLD_MINOR"

	EnvCaptchaSecret = "STOREFRONT_CAPTCHA_SECRET"

	EnvCheckoutRateWindow     = "STOREFRONT_RATE_LIMIT_CHECKOUT_WINDOW"
	EnvCheckoutRateIPLimit    = "STOREFRONT_RATE_LIMIT_CHECKOUT_IP_LIMIT"
	EnvCheckoutRateEmailLimit = "STOREFRONT_RATE_LIMIT_CHECKOUT_EMAIL_LIMIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
