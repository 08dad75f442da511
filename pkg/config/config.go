package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full runtime configuration shared by every binary.
type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GoogleMaps    GoogleMapsConfig
	Orders        OrdersConfig
	Outbox        OutboxConfig
	Eventing      EventingConfig
	Cron          CronConfig
	Export        ExportConfig
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
	Env          string   `envconfig:"PRODUCEHUB_APP_ENV" required:"true"`
	Port         string   `envconfig:"PRODUCEHUB_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"PRODUCEHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"PRODUCEHUB_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"LOG_FORMAT" default:"json"`
	CORSOrigins  []string `envconfig:"PRODUCEHUB_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN string `envconfig:"PRODUCEHUB_DB_DSN"`

	LegacyHost     string `envconfig:"PRODUCEHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"PRODUCEHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRODUCEHUB_DB_USER"`
	LegacyPassword string `envconfig:"PRODUCEHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRODUCEHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRODUCEHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRODUCEHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRODUCEHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRODUCEHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRODUCEHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRODUCEHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PRODUCEHUB_REDIS_ADDR"`
	Password     string        `envconfig:"PRODUCEHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRODUCEHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRODUCEHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRODUCEHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRODUCEHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRODUCEHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRODUCEHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
	// IdempotencyTTL bounds how long a stored response can be replayed.
	IdempotencyTTL time.Duration `envconfig:"PRODUCEHUB_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PRODUCEHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PRODUCEHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PRODUCEHUB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PRODUCEHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PRODUCEHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PRODUCEHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PRODUCEHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PRODUCEHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PRODUCEHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PRODUCEHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PRODUCEHUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PRODUCEHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PRODUCEHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PRODUCEHUB_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PRODUCEHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PRODUCEHUB_AUTO_MIGRATE" default:"false"`
}

type GoogleMapsConfig struct {
	APIKey        string `envconfig:"PRODUCEHUB_GOOGLE_MAPS_API_KEY"`
	PlacesBaseURL string `envconfig:"PRODUCEHUB_GOOGLE_PLACES_BASE_URL" default:"https://places.googleapis.com/v1"`
	RoutesBaseURL string `envconfig:"PRODUCEHUB_GOOGLE_ROUTES_BASE_URL" default:"https://routes.googleapis.com"`
}

// Enabled reports whether a maps key was provided.
func (g GoogleMapsConfig) Enabled() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

type OrdersConfig struct {
	// TaxRate is a decimal fraction, e.g. "0.0825".
	TaxRate          string `envconfig:"PRODUCEHUB_ORDERS_TAX_RATE" default:"0"`
	ShippingFeeCents int64  `envconfig:"PRODUCEHUB_ORDERS_SHIPPING_FEE_CENTS" default:"0"`
	PaymentTermsDays int    `envconfig:"PRODUCEHUB_ORDERS_PAYMENT_TERMS_DAYS" default:"30"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"PRODUCEHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"PRODUCEHUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"PRODUCEHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"PRODUCEHUB_OUTBOX_RETENTION" default:"720h"`
}

// PollInterval converts the millisecond poll setting into a duration.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"PRODUCEHUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"PRODUCEHUB_CRON_INTERVAL" default:"1h"`
	LockTTL               time.Duration `envconfig:"PRODUCEHUB_CRON_LOCK_TTL" default:"30m"`
	NotificationRetention time.Duration `envconfig:"PRODUCEHUB_NOTIFICATION_RETENTION" default:"2160h"`
}

type ExportConfig struct {
	MaxRows int `envconfig:"PRODUCEHUB_EXPORT_MAX_ROWS" default:"10000"`
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
