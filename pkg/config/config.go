package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/fixlocal/fixlocal-backend/pkg/enums"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	Resend       ResendConfig
	Alerts       AlertsConfig
	Webhook      WebhookConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FIXLOCAL_APP_ENV" required:"true"`
	Port         string `envconfig:"FIXLOCAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FIXLOCAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FIXLOCAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FIXLOCAL_DB_DSN"`
	Driver string `envconfig:"FIXLOCAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FIXLOCAL_DB_HOST"`
	LegacyPort     int    `envconfig:"FIXLOCAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FIXLOCAL_DB_USER"`
	LegacyPassword string `envconfig:"FIXLOCAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"FIXLOCAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"FIXLOCAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FIXLOCAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FIXLOCAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FIXLOCAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FIXLOCAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FIXLOCAL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FIXLOCAL_REDIS_ADDR"`
	Password     string        `envconfig:"FIXLOCAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"FIXLOCAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FIXLOCAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FIXLOCAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FIXLOCAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FIXLOCAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FIXLOCAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FIXLOCAL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FIXLOCAL_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"FIXLOCAL_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"FIXLOCAL_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"FIXLOCAL_STRIPE_ENV" default:"test"`

	PriceIDProMonthly      string `envconfig:"FIXLOCAL_STRIPE_PRICE_ID_PRO_MONTHLY"`
	PriceIDProYearly       string `envconfig:"FIXLOCAL_STRIPE_PRICE_ID_PRO_YEARLY"`
	PriceIDBusinessMonthly string `envconfig:"FIXLOCAL_STRIPE_PRICE_ID_BUSINESS_MONTHLY"`
	PriceIDBusinessYearly  string `envconfig:"FIXLOCAL_STRIPE_PRICE_ID_BUSINESS_YEARLY"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// TierByPriceID returns the catalog lookup used when a subscription carries
// no tier metadata. Basic has no price of its own, so it never appears here.
func (s StripeConfig) TierByPriceID() map[string]enums.SubscriptionTier {
	table := make(map[string]enums.SubscriptionTier, 4)
	for priceID, tier := range map[string]enums.SubscriptionTier{
		s.PriceIDProMonthly:      enums.SubscriptionTierPro,
		s.PriceIDProYearly:       enums.SubscriptionTierPro,
		s.PriceIDBusinessMonthly: enums.SubscriptionTierBusiness,
		s.PriceIDBusinessYearly:  enums.SubscriptionTierBusiness,
	} {
		if priceID != "" {
			table[priceID] = tier
		}
	}
	return table
}

type ResendConfig struct {
	APIKey      string `envconfig:"FIXLOCAL_RESEND_API_KEY"`
	DefaultFrom string `envconfig:"FIXLOCAL_RESEND_FROM_EMAIL" default:"FixLocal <no-reply@fixlocal.co.uk>"`
}

type AlertsConfig struct {
	WebhookURL string        `envconfig:"FIXLOCAL_ALERT_WEBHOOK_URL"`
	Timeout    time.Duration `envconfig:"FIXLOCAL_ALERT_TIMEOUT" default:"5s"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"FIXLOCAL_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
	MaxBodyBytes   int64         `envconfig:"FIXLOCAL_WEBHOOK_MAX_BODY_BYTES" default:"65536"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
