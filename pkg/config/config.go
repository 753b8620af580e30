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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Tx           TxConfig
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
	Env          string `envconfig:"SHOPTAB_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPTAB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPTAB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPTAB_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"SHOPTAB_LOG_FORMAT" default:"json"`

	CORSAllowedOrigins []string `envconfig:"SHOPTAB_CORS_ALLOWED_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SHOPTAB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPTAB_DB_DSN"`
	Driver string `envconfig:"SHOPTAB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPTAB_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPTAB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPTAB_DB_USER"`
	LegacyPassword string `envconfig:"SHOPTAB_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPTAB_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPTAB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPTAB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPTAB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPTAB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPTAB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"SHOPTAB_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPTAB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPTAB_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPTAB_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPTAB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPTAB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPTAB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPTAB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPTAB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPTAB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string        `envconfig:"SHOPTAB_JWT_SECRET" required:"true"`
	Issuer            string        `envconfig:"SHOPTAB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int           `envconfig:"SHOPTAB_JWT_EXPIRATION_MINUTES" required:"true"`
	Leeway            time.Duration `envconfig:"SHOPTAB_JWT_LEEWAY" default:"30s"`
}

// AccessTokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RateLimitConfig drives the per-client token bucket on the API.
type RateLimitConfig struct {
	Enabled        bool          `envconfig:"SHOPTAB_RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerSec float64       `envconfig:"SHOPTAB_RATE_LIMIT_RPS" default:"20"`
	Burst          int           `envconfig:"SHOPTAB_RATE_LIMIT_BURST" default:"40"`
	IdleTTL        time.Duration `envconfig:"SHOPTAB_RATE_LIMIT_IDLE_TTL" default:"10m"`

	OrderCreateLimit  int           `envconfig:"SHOPTAB_ORDER_CREATE_LIMIT" default:"10"`
	OrderCreateWindow time.Duration `envconfig:"SHOPTAB_ORDER_CREATE_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHOPTAB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHOPTAB_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"SHOPTAB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	ClaimLease           time.Duration `envconfig:"SHOPTAB_EVENTING_CLAIM_LEASE" default:"5m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SHOPTAB_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SHOPTAB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SHOPTAB_GOOGLE_APPLICATION_CREDENTIALS"`
}

// PubSubConfig names the domain topics and the notification worker's
// subscriptions on them.
type PubSubConfig struct {
	OrdersTopic                    string `envconfig:"SHOPTAB_PUBSUB_ORDERS_TOPIC" default:"st-order-events"`
	CreditTopic                    string `envconfig:"SHOPTAB_PUBSUB_CREDIT_TOPIC" default:"st-credit-events"`
	OrdersNotificationSubscription string `envconfig:"SHOPTAB_PUBSUB_ORDERS_NOTIFICATION_SUBSCRIPTION" default:"st-order-notifications"`
	CreditNotificationSubscription string `envconfig:"SHOPTAB_PUBSUB_CREDIT_NOTIFICATION_SUBSCRIPTION" default:"st-credit-notifications"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"SHOPTAB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"SHOPTAB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"SHOPTAB_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"SHOPTAB_OUTBOX_RETENTION" default:"168h"`
	DLQRetention   time.Duration `envconfig:"SHOPTAB_OUTBOX_DLQ_RETENTION" default:"720h"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"SHOPTAB_CRON_INTERVAL" default:"1h"`
	JobTimeout            time.Duration `envconfig:"SHOPTAB_CRON_JOB_TIMEOUT" default:"10m"`
	CartAbandonAfter      time.Duration `envconfig:"SHOPTAB_CART_ABANDON_AFTER" default:"720h"`
	NotificationRetention int           `envconfig:"SHOPTAB_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

// TxConfig bounds retries of serialization and deadlock failures.
type TxConfig struct {
	MaxRetries     int           `envconfig:"SHOPTAB_TX_MAX_RETRIES" default:"3"`
	InitialBackoff time.Duration `envconfig:"SHOPTAB_TX_INITIAL_BACKOFF" default:"50ms"`
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
