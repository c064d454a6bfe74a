package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig      `envPrefix:"APP_"`
	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Logger   LoggerConfig   `envPrefix:"LOG_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	Mail     MailConfig     `envPrefix:"SMTP_"`
	Cache    CacheConfig    `envPrefix:"CACHE_"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"NAME" envDefault:"staff-portal"`
	Env                   string `env:"ENV" envDefault:"development"`
	Host                  string `env:"HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"PORT" envDefault:"8080"`
	Version               string `env:"VERSION" envDefault:"dev"`
	BaseURL               string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	RequestTimeoutSeconds int    `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	BodyLimitBytes        int    `env:"BODY_LIMIT_BYTES" envDefault:"8388608"`
	SeedFile              string `env:"SEED_FILE"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `env:"DSN"`
	MaxConns       int32  `env:"MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec int32  `env:"CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"CONN_MAX_LIFE_SECONDS" envDefault:"300"`
	ConnectRetries int    `env:"CONNECT_RETRIES" envDefault:"5"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr        string        `env:"ADDR" envDefault:"127.0.0.1:6379"`
	Password    string        `env:"PASSWORD"`
	DB          int           `env:"DB" envDefault:"0"`
	KeyPrefix   string        `env:"KEY_PREFIX" envDefault:"staff:"`
	PoolSize    int           `env:"POOL_SIZE" envDefault:"10"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"3s"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string        `env:"JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes   int           `env:"ACCESS_TOKEN_TTL_MINUTES" envDefault:"60"`
	PasswordResetTTLMinutes int           `env:"PASSWORD_RESET_TTL_MINUTES" envDefault:"30"`
	BcryptCost              int           `env:"BCRYPT_COST" envDefault:"12"`
	LoginRateLimit          int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow         time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`
}

// MailConfig holds outbound SMTP settings. An empty Host logs mail instead
// of sending it.
type MailConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"noreply@staff-portal.local"`
}

// CacheConfig controls Redis-backed read caches.
type CacheConfig struct {
	DashboardTTL time.Duration `env:"DASHBOARD_TTL" envDefault:"15m"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return nil, fmt.Errorf("invalid AUTH_BCRYPT_COST %d", cfg.Auth.BcryptCost)
	}
	return &cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued access tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// PasswordResetTTL returns how long reset tokens stay valid.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	if a.PasswordResetTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}
