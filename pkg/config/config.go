package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PHARMAFLOW"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv          = "PHARMAFLOW_APP_ENV"
	EnvPort            = "PHARMAFLOW_APP_PORT"
	EnvDBDSN           = "PHARMAFLOW_DB_DSN"
	EnvDBHost          = "PHARMAFLOW_DB_HOST"
	EnvDBUser          = "PHARMAFLOW_DB_USER"
	EnvDBName          = "PHARMAFLOW_DB_NAME"
	EnvRedisURL        = "PHARMAFLOW_REDIS_URL"
	EnvSalesOrderURL   = "PHARMAFLOW_SALES_ORDER_BASE_URL"
	EnvInventoryURL    = "PHARMAFLOW_INVENTORY_BASE_URL"
	EnvUpstreamTimeout = "PHARMAFLOW_UPSTREAM_TIMEOUT"
	EnvReconcileEvery  = "PHARMAFLOW_RECONCILE_INTERVAL"
	EnvReconcileCutoff = "PHARMAFLOW_RECONCILE_STALE_AFTER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Upstream     UpstreamConfig
	Reconciler   ReconcilerConfig
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
	Env          string `envconfig:"PHARMAFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"PHARMAFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PHARMAFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHARMAFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PHARMAFLOW_DB_DSN"`
	Driver string `envconfig:"PHARMAFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PHARMAFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"PHARMAFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PHARMAFLOW_DB_USER"`
	LegacyPassword string `envconfig:"PHARMAFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"PHARMAFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"PHARMAFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PHARMAFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHARMAFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHARMAFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHARMAFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PHARMAFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PHARMAFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"PHARMAFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHARMAFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHARMAFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHARMAFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHARMAFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHARMAFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHARMAFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// UpstreamConfig points at the remote Sales Order and Inventory services.
// Every call carries the configured timeout; there is no cross-service
// transaction beyond it.
type UpstreamConfig struct {
	SalesOrderBaseURL string        `envconfig:"PHARMAFLOW_SALES_ORDER_BASE_URL" required:"true"`
	InventoryBaseURL  string        `envconfig:"PHARMAFLOW_INVENTORY_BASE_URL" required:"true"`
	Timeout           time.Duration `envconfig:"PHARMAFLOW_UPSTREAM_TIMEOUT" default:"10s"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `envconfig:"PHARMAFLOW_RECONCILE_INTERVAL" default:"5m"`
	StaleAfter time.Duration `envconfig:"PHARMAFLOW_RECONCILE_STALE_AFTER" default:"10m"`
	BatchSize  int           `envconfig:"PHARMAFLOW_RECONCILE_BATCH_SIZE" default:"100"`
	LockTTL    time.Duration `envconfig:"PHARMAFLOW_RECONCILE_LOCK_TTL" default:"15m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PHARMAFLOW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PHARMAFLOW_AUTO_MIGRATE" default:"false"`
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
