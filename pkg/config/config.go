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

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "FARMSTAND_DB_DSN"
	EnvDBHost = "FARMSTAND_DB_HOST"
	EnvDBUser = "FARMSTAND_DB_USER"
	EnvDBName = "FARMSTAND_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Orders       OrdersConfig
	Cron         CronConfig
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
	Env          string `envconfig:"FARMSTAND_APP_ENV" required:"true"`
	Port         string `envconfig:"FARMSTAND_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FARMSTAND_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FARMSTAND_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FARMSTAND_DB_DSN"`
	Driver string `envconfig:"FARMSTAND_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FARMSTAND_DB_HOST"`
	LegacyPort     int    `envconfig:"FARMSTAND_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FARMSTAND_DB_USER"`
	LegacyPassword string `envconfig:"FARMSTAND_DB_PASSWORD"`
	LegacyName     string `envconfig:"FARMSTAND_DB_NAME"`
	LegacySSLMode  string `envconfig:"FARMSTAND_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FARMSTAND_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FARMSTAND_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FARMSTAND_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FARMSTAND_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FARMSTAND_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FARMSTAND_REDIS_ADDR"`
	Password     string        `envconfig:"FARMSTAND_REDIS_PASSWORD"`
	DB           int           `envconfig:"FARMSTAND_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FARMSTAND_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FARMSTAND_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FARMSTAND_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FARMSTAND_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FARMSTAND_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FARMSTAND_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FARMSTAND_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FARMSTAND_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FARMSTAND_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FARMSTAND_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FARMSTAND_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FARMSTAND_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FARMSTAND_ARGON_KEY_LEN" default:"32"`
}

// OrdersConfig tunes the order-status override overlay.
type OrdersConfig struct {
	OverrideTTL             time.Duration `envconfig:"FARMSTAND_ORDER_OVERRIDE_TTL" default:"5m"`
	OverridePersistDebounce time.Duration `envconfig:"FARMSTAND_ORDER_OVERRIDE_PERSIST_DEBOUNCE" default:"2s"`
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"FARMSTAND_CRON_INTERVAL" default:"24h"`
	MessageRetentionDays int           `envconfig:"FARMSTAND_CRON_MESSAGE_RETENTION_DAYS" default:"90"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FARMSTAND_AUTO_MIGRATE" default:"false"`
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
