package config

const (
	EnvPrefix = "SHOPTAB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "SHOPTAB_APP_ENV"
	EnvPort     = "SHOPTAB_APP_PORT"
	EnvLogLevel = "SHOPTAB_LOG_LEVEL"

	EnvDBDSN  = "SHOPTAB_DB_DSN"
	EnvDBHost = "SHOPTAB_DB_HOST"
	EnvDBPort = "SHOPTAB_DB_PORT"
	EnvDBUser = "SHOPTAB_DB_USER"
	EnvDBPass = "SHOPTAB_DB_PASSWORD"
	EnvDBName = "SHOPTAB_DB_NAME"

	EnvRedisURL = "SHOPTAB_REDIS_URL"

	EnvJWTSecret  = "SHOPTAB_JWT_SECRET"
	EnvJWTIssuer  = "SHOPTAB_JWT_ISSUER"
	EnvJWTExpMins = "SHOPTAB_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "SHOPTAB_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic = "SHOPTAB_PUBSUB_ORDERS_TOPIC"
	EnvPubSubCreditTopic = "SHOPTAB_PUBSUB_CREDIT_TOPIC"
	EnvPubSubOrdersSub   = "SHOPTAB_PUBSUB_ORDERS_NOTIFICATION_SUBSCRIPTION"
	EnvPubSubCreditSub   = "SHOPTAB_PUBSUB_CREDIT_NOTIFICATION_SUBSCRIPTION"

	EnvRateLimitRPS   = "SHOPTAB_RATE_LIMIT_RPS"
	EnvTxMaxRetries   = "SHOPTAB_TX_MAX_RETRIES"
	EnvCartAbandonTTL = "SHOPTAB_CART_ABANDON_AFTER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
