package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Settlement SettlementConfig
	Webhook    WebhookConfig
	GCP        GCPConfig
	PubSub     PubSubConfig
	Outbox     OutboxConfig
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
	Env          string `envconfig:"DIGISHELF_APP_ENV" required:"true"`
	Port         string `envconfig:"DIGISHELF_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DIGISHELF_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DIGISHELF_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"DIGISHELF_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DIGISHELF_DB_DSN"`
	Driver string `envconfig:"DIGISHELF_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DIGISHELF_DB_HOST"`
	Port     int    `envconfig:"DIGISHELF_DB_PORT" default:"5432"`
	User     string `envconfig:"DIGISHELF_DB_USER"`
	Password string `envconfig:"DIGISHELF_DB_PASSWORD"`
	Name     string `envconfig:"DIGISHELF_DB_NAME"`
	SSLMode  string `envconfig:"DIGISHELF_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DIGISHELF_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DIGISHELF_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DIGISHELF_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DIGISHELF_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DIGISHELF_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DIGISHELF_REDIS_ADDR"`
	Password     string        `envconfig:"DIGISHELF_REDIS_PASSWORD"`
	DB           int           `envconfig:"DIGISHELF_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DIGISHELF_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DIGISHELF_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIGISHELF_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DIGISHELF_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DIGISHELF_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DIGISHELF_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DIGISHELF_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DIGISHELF_JWT_EXPIRATION_MINUTES" default:"60"`
}

// SettlementConfig tunes the settlement pipeline.
type SettlementConfig struct {
	// DefaultCommissionPercent applies when a vendor has no configured rate.
	DefaultCommissionPercent int `envconfig:"DIGISHELF_SETTLEMENT_DEFAULT_COMMISSION_PERCENT" default:"15"`
	// LicenseMaxAttempts bounds the license token collision retry loop.
	LicenseMaxAttempts int `envconfig:"DIGISHELF_SETTLEMENT_LICENSE_MAX_ATTEMPTS" default:"3"`
}

// WebhookConfig configures the payment processor callback endpoint.
type WebhookConfig struct {
	SigningSecret  string        `envconfig:"DIGISHELF_WEBHOOK_SIGNING_SECRET" required:"true"`
	IdempotencyTTL time.Duration `envconfig:"DIGISHELF_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"DIGISHELF_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"DIGISHELF_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"DIGISHELF_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	SettlementTopic        string `envconfig:"DIGISHELF_PUBSUB_SETTLEMENT_TOPIC" default:"ds-settlement-events"`
	SettlementSubscription string `envconfig:"DIGISHELF_PUBSUB_SETTLEMENT_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DIGISHELF_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DIGISHELF_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DIGISHELF_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, envName := range requiredDBEnvVars {
		if parts[envName] == "" {
			missing = append(missing, envName)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
