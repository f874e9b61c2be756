package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable read by the platform.
	EnvPrefix = "HARVESTLINK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "HARVESTLINK_DB_DSN"
	EnvDBHost = "HARVESTLINK_DB_HOST"
	EnvDBUser = "HARVESTLINK_DB_USER"
	EnvDBName = "HARVESTLINK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Stock        StockConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"HARVESTLINK_APP_ENV" required:"true"`
	Port         string `envconfig:"HARVESTLINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HARVESTLINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HARVESTLINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HARVESTLINK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HARVESTLINK_DB_DSN"`
	Driver string `envconfig:"HARVESTLINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HARVESTLINK_DB_HOST"`
	LegacyPort     int    `envconfig:"HARVESTLINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HARVESTLINK_DB_USER"`
	LegacyPassword string `envconfig:"HARVESTLINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"HARVESTLINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"HARVESTLINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HARVESTLINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HARVESTLINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HARVESTLINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HARVESTLINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HARVESTLINK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HARVESTLINK_REDIS_ADDR"`
	Password     string        `envconfig:"HARVESTLINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"HARVESTLINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HARVESTLINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HARVESTLINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HARVESTLINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HARVESTLINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HARVESTLINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"HARVESTLINK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HARVESTLINK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HARVESTLINK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CheckoutConfig carries the pricing knobs applied when a cart converts to an order.
type CheckoutConfig struct {
	TaxRate       string `envconfig:"HARVESTLINK_CHECKOUT_TAX_RATE" default:"0.065"`
	ShippingFee   string `envconfig:"HARVESTLINK_CHECKOUT_SHIPPING_FEE" default:"0"`
	OrderNoPrefix string `envconfig:"HARVESTLINK_CHECKOUT_ORDER_NO_PREFIX" default:"HL"`
}

type StockConfig struct {
	LowStockThreshold int `envconfig:"HARVESTLINK_STOCK_LOW_THRESHOLD" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HARVESTLINK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HARVESTLINK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HARVESTLINK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"HARVESTLINK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HARVESTLINK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"HARVESTLINK_PUBSUB_NOTIFICATION_TOPIC" default:"hl-notification-events"`
	NotificationSubscription string `envconfig:"HARVESTLINK_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"HARVESTLINK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"HARVESTLINK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"HARVESTLINK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	StockScanInterval time.Duration `envconfig:"HARVESTLINK_CRON_STOCK_SCAN_INTERVAL" default:"1h"`
	CleanupInterval   time.Duration `envconfig:"HARVESTLINK_CRON_CLEANUP_INTERVAL" default:"24h"`
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
