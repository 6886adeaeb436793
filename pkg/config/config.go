package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cron      CronConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
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
	Env          string `envconfig:"SORBETERO_APP_ENV" required:"true"`
	Port         string `envconfig:"SORBETERO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SORBETERO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SORBETERO_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"SORBETERO_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SORBETERO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"SORBETERO_DB_DSN"`

	Host     string `envconfig:"SORBETERO_DB_HOST"`
	Port     int    `envconfig:"SORBETERO_DB_PORT" default:"3306"`
	User     string `envconfig:"SORBETERO_DB_USER"`
	Password string `envconfig:"SORBETERO_DB_PASSWORD"`
	Name     string `envconfig:"SORBETERO_DB_NAME"`

	MaxOpenConns    int           `envconfig:"SORBETERO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SORBETERO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SORBETERO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SORBETERO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SORBETERO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SORBETERO_REDIS_ADDR"`
	Password     string        `envconfig:"SORBETERO_REDIS_PASSWORD"`
	DB           int           `envconfig:"SORBETERO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SORBETERO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SORBETERO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SORBETERO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SORBETERO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SORBETERO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SORBETERO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SORBETERO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SORBETERO_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CronConfig struct {
	// RunAtHour is the local hour (0-23) at which the daily sweep fires.
	RunAtHour int `envconfig:"SORBETERO_CRON_RUN_AT_HOUR" default:"2"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SORBETERO_CORS_ALLOWED_ORIGINS" default:"*"`
}

type RateLimitConfig struct {
	// OrderLimit is the per-IP request allowance for the public order
	// booking endpoint within OrderWindow. Zero disables throttling.
	OrderLimit  int           `envconfig:"SORBETERO_RATE_LIMIT_ORDER_LIMIT" default:"60"`
	OrderWindow time.Duration `envconfig:"SORBETERO_RATE_LIMIT_ORDER_WINDOW" default:"1m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range fallbackDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	credentials := db.User
	if db.Password != "" {
		credentials = fmt.Sprintf("%s:%s", db.User, db.Password)
	}
	db.DSN = fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=Local",
		credentials, db.Host, db.Port, db.Name)
	return nil
}
