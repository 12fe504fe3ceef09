package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "TROVE_DB_DSN"
	EnvDBHost = "TROVE_DB_HOST"
	EnvDBUser = "TROVE_DB_USER"
	EnvDBName = "TROVE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TROVE_APP_ENV" required:"true"`
	Port         string `envconfig:"TROVE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TROVE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TROVE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TROVE_DB_DSN"`
	Driver string `envconfig:"TROVE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TROVE_DB_HOST"`
	LegacyPort     int    `envconfig:"TROVE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TROVE_DB_USER"`
	LegacyPassword string `envconfig:"TROVE_DB_PASSWORD"`
	LegacyName     string `envconfig:"TROVE_DB_NAME"`
	LegacySSLMode  string `envconfig:"TROVE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TROVE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TROVE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TROVE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TROVE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TROVE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TROVE_REDIS_ADDR"`
	Password     string        `envconfig:"TROVE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TROVE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TROVE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TROVE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TROVE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TROVE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TROVE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TROVE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TROVE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TROVE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type StripeConfig struct {
	APIKey string `envconfig:"TROVE_STRIPE_API_KEY"`
	Secret string `envconfig:"TROVE_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"TROVE_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	SuccessURL          string        `envconfig:"TROVE_CHECKOUT_SUCCESS_URL" default:"https://trove.market/checkout/success?session={CHECKOUT_SESSION_ID}"`
	CancelURL           string        `envconfig:"TROVE_CHECKOUT_CANCEL_URL" default:"https://trove.market/checkout/cancelled"`
	WebhookEventTTL     time.Duration `envconfig:"TROVE_CHECKOUT_WEBHOOK_EVENT_TTL" default:"168h"`
	FeedbackCooldown    time.Duration `envconfig:"TROVE_FEEDBACK_COOLDOWN" default:"0s"`
	BuyerProtectionName string        `envconfig:"TROVE_BUYER_PROTECTION_LABEL" default:"Buyer Protection"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TROVE_AUTO_MIGRATE" default:"false"`
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
