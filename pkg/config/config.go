package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Gateway      GatewayConfig
	POS          POSConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"KENNA_APP_ENV" required:"true"`
	Port         string `envconfig:"KENNA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KENNA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KENNA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KENNA_DB_DSN"`
	Driver string `envconfig:"KENNA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"KENNA_DB_HOST"`
	Port     int    `envconfig:"KENNA_DB_PORT" default:"5432"`
	User     string `envconfig:"KENNA_DB_USER"`
	Password string `envconfig:"KENNA_DB_PASSWORD"`
	Name     string `envconfig:"KENNA_DB_NAME"`
	SSLMode  string `envconfig:"KENNA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KENNA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KENNA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KENNA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KENNA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KENNA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KENNA_REDIS_ADDR"`
	Password     string        `envconfig:"KENNA_REDIS_PASSWORD"`
	DB           int           `envconfig:"KENNA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KENNA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KENNA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KENNA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KENNA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KENNA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// GatewayConfig tunes the mobile-money gateway protocol.
type GatewayConfig struct {
	PollInterval    time.Duration `envconfig:"KENNA_GATEWAY_POLL_INTERVAL" default:"5s"`
	PollMaxAttempts int           `envconfig:"KENNA_GATEWAY_POLL_MAX_ATTEMPTS" default:"36"`
	InitiateLatency time.Duration `envconfig:"KENNA_GATEWAY_INITIATE_LATENCY" default:"2s"`
	PromptLatency   time.Duration `envconfig:"KENNA_GATEWAY_PROMPT_LATENCY" default:"5s"`
	StatusLatency   time.Duration `envconfig:"KENNA_GATEWAY_STATUS_LATENCY" default:"1s"`
}

type POSConfig struct {
	LowStockThreshold int           `envconfig:"KENNA_POS_LOW_STOCK_THRESHOLD" default:"10"`
	CheckoutLockTTL   time.Duration `envconfig:"KENNA_POS_CHECKOUT_LOCK_TTL" default:"5m"`
	CartTTL           time.Duration `envconfig:"KENNA_POS_CART_TTL" default:"12h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KENNA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KENNA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"KENNA_DB_HOST": db.Host,
		"KENNA_DB_USER": db.User,
		"KENNA_DB_NAME": db.Name,
	}
	for _, key := range []string{"KENNA_DB_HOST", "KENNA_DB_USER", "KENNA_DB_NAME"} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either KENNA_DB_DSN or %s are required", strings.Join(missing, ", "))
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
