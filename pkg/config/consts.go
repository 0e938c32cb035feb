package config

// EnvPrefix namespaces every FixLocal environment variable.
const EnvPrefix = "FIXLOCAL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names, kept as constants so tests and error messages
// stay in sync with the struct tags below.
const (
	EnvAppEnv   = "FIXLOCAL_APP_ENV"
	EnvPort     = "FIXLOCAL_APP_PORT"
	EnvDBDSN    = "FIXLOCAL_DB_DSN"
	EnvDBHost   = "FIXLOCAL_DB_HOST"
	EnvDBUser   = "FIXLOCAL_DB_USER"
	EnvDBName   = "FIXLOCAL_DB_NAME"
	EnvRedisURL = "FIXLOCAL_REDIS_URL"

	EnvStripeAPIKey               = "FIXLOCAL_STRIPE_API_KEY"
	EnvStripeWebhookSecret        = "FIXLOCAL_STRIPE_WEBHOOK_SECRET"
	EnvStripePriceProMonthly      = "FIXLOCAL_STRIPE_PRICE_ID_PRO_MONTHLY"
	EnvStripePriceProYearly       = "FIXLOCAL_STRIPE_PRICE_ID_PRO_YEARLY"
	EnvStripePriceBusinessMonthly = "FIXLOCAL_STRIPE_PRICE_ID_BUSINESS_MONTHLY"
	EnvStripePriceBusinessYearly  = "FIXLOCAL_STRIPE_PRICE_ID_BUSINESS_YEARLY"

	EnvResendAPIKey    = "FIXLOCAL_RESEND_API_KEY"
	EnvAlertWebhookURL = "FIXLOCAL_ALERT_WEBHOOK_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
