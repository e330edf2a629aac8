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
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Checkout     CheckoutConfig
	Payments     PaymentsConfig
	Reconciler   ReconcilerConfig
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
	Env          string `envconfig:"OTICAFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"OTICAFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OTICAFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OTICAFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"OTICAFLOW_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"OTICAFLOW_DB_DSN"`
	Driver string `envconfig:"OTICAFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OTICAFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"OTICAFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OTICAFLOW_DB_USER"`
	LegacyPassword string `envconfig:"OTICAFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"OTICAFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"OTICAFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OTICAFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OTICAFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OTICAFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OTICAFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OTICAFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OTICAFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"OTICAFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"OTICAFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OTICAFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OTICAFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OTICAFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OTICAFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OTICAFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"OTICAFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"OTICAFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"OTICAFLOW_JWT_EXPIRATION_MINUTES" default:"480"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"OTICAFLOW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"OTICAFLOW_AUTO_MIGRATE" default:"false"`
	AllowCrypto bool `envconfig:"OTICAFLOW_FEATURE_ALLOW_CRYPTO" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"OTICAFLOW_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"OTICAFLOW_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"OTICAFLOW_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	SalesTopic        string `envconfig:"OTICAFLOW_PUBSUB_SALES_TOPIC" default:"of-sale-events"`
	SalesSubscription string `envconfig:"OTICAFLOW_PUBSUB_SALES_SUBSCRIPTION"`
	LabTopic          string `envconfig:"OTICAFLOW_PUBSUB_LAB_TOPIC" default:"of-lab-events"`
	LabSubscription   string `envconfig:"OTICAFLOW_PUBSUB_LAB_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"OTICAFLOW_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"OTICAFLOW_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"OTICAFLOW_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CheckoutConfig struct {
	SessionTTL time.Duration `envconfig:"OTICAFLOW_CHECKOUT_SESSION_TTL" default:"12h"`
}

type PaymentsConfig struct {
	AuthorizationTimeout time.Duration `envconfig:"OTICAFLOW_PAYMENTS_AUTHORIZATION_TIMEOUT" default:"15s"`
}

type ReconcilerConfig struct {
	PollInterval  time.Duration `envconfig:"OTICAFLOW_RECONCILER_POLL_INTERVAL" default:"30s"`
	StaleAfter    time.Duration `envconfig:"OTICAFLOW_RECONCILER_STALE_AFTER" default:"2m"`
	LeaseDuration time.Duration `envconfig:"OTICAFLOW_RECONCILER_LEASE_DURATION" default:"1m"`
}

// AccessTokenTTL returns the configured access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
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
