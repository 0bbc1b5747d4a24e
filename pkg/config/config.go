package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	Shipping     ShippingConfig
	Captcha      CaptchaConfig
	RateLimit    RateLimitConfig
	Webhooks     WebhookConfig
	FeatureFlags FeatureFlagsConfig
	Tracing      TracingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Stripe.validate(cfg.App); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"STOREFRONT_STRIPE_API_KEY" required:"true"`
	WebhookSecret string `envconfig:"STOREFRONT_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"STOREFRONT_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// The webhook endpoint refuses every event in prod without a secret, so
// startup only warns about it; a live key outside prod is a misconfiguration.
func (s StripeConfig) validate(app AppConfig) error {
	if s.Environment() == "live" && !app.IsProd() {
		return fmt.Errorf("%s=live requires %s=%s", EnvStripeEnv, EnvAppEnv, AppEnvProd)
	}
	return nil
}

// ShippingConfig holds flat shipping rates in minor currency units.
type ShippingConfig struct {
	DomesticMinor      int64 `envconfig:"STOREFRONT_SHIPPING_DOMESTIC_MINOR" default:"395"`
	FreeThresholdMinor int64 `envconfig:"STOREFRONT_SHIPPING_FREE_THRESHOLD_MINOR" default:"5000"`
	EuropeMinor        int64 `envconfig:"STOREFRONT_SHIPPING_EU_MINOR" default:"995"`
	InternationalMinor int64 `envconfig:"STOREFRONT_SHIPPING_WORLD_MINOR" default:"1495"`
}

type CaptchaConfig struct {
	Secret    string        `envconfig:"STOREFRONT_CAPTCHA_SECRET"`
	VerifyURL string        `envconfig:"STOREFRONT_CAPTCHA_VERIFY_URL" default:"https://challenges.cloudflare.com/turnstile/v0/siteverify"`
	Timeout   time.Duration `envconfig:"STOREFRONT_CAPTCHA_TIMEOUT" default:"5s"`
}

type RateLimitConfig struct {
	CheckoutWindow     time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit    int           `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"20"`
	CheckoutEmailLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_EMAIL_LIMIT" default:"5"`
}

type WebhookConfig struct {
	EventTTL time.Duration `envconfig:"STOREFRONT_WEBHOOK_EVENT_TTL" default:"72h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
	Tracing     bool `envconfig:"STOREFRONT_TRACING" default:"false"`
}

type TracingConfig struct {
	Endpoint    string `envconfig:"STOREFRONT_OTLP_ENDPOINT" default:"localhost:4318"`
	Insecure    bool   `envconfig:"STOREFRONT_OTLP_INSECURE" default:"true"`
	ServiceName string `envconfig:"STOREFRONT_SERVICE_NAME" default:"storefront-api"`
}

// IsSQLite reports whether the embedded sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:storefront.db?cache=shared"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}
	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
