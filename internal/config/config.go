package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	SalesDB   SalesDBConfig
	UsersDB   UsersDBConfig
	Redis     RedisConfig
	Purchase  PurchaseConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"flash-sale-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// SalesDBConfig holds the sales store settings (sales, purchases, products).
type SalesDBConfig struct {
	Type string `envconfig:"SALES_DB_TYPE" default:"sqlite"` // sqlite or postgres
	Path string `envconfig:"SALES_DB_PATH" default:"./data/flashsale.db"`
	// PostgreSQL settings
	Host     string `envconfig:"SALES_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"SALES_DB_PORT" default:"5432"`
	Name     string `envconfig:"SALES_DB_NAME" default:"flashsale"`
	User     string `envconfig:"SALES_DB_USER" default:"postgres"`
	Password string `envconfig:"SALES_DB_PASS" default:""`
	SSLMode  string `envconfig:"SALES_DB_SSLMODE" default:"disable"`
}

// UsersDBConfig holds the MySQL accounts database settings.
type UsersDBConfig struct {
	Host     string `envconfig:"USERS_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"USERS_DB_PORT" default:"3306"`
	Name     string `envconfig:"USERS_DB_NAME" default:"flashsale"`
	User     string `envconfig:"USERS_DB_USER" default:"root"`
	Password string `envconfig:"USERS_DB_PASS" default:""`
}

// RedisConfig holds Redis settings (session tokens, rate limiting, read cache).
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// PurchaseConfig holds reservation-engine settings.
type PurchaseConfig struct {
	// DefaultTotalUnits is the capacity used when createSale omits totalUnits.
	DefaultTotalUnits int `envconfig:"SALE_DEFAULT_TOTAL_UNITS" default:"200"`
	// DefaultMaxPerUser is the per-user purchase cap used when omitted.
	DefaultMaxPerUser int `envconfig:"SALE_DEFAULT_MAX_PER_USER" default:"1"`
}

// RateLimitConfig holds the purchase-endpoint rate limiter settings.
type RateLimitConfig struct {
	PurchaseAttempts int           `envconfig:"RATE_LIMIT_PURCHASE_ATTEMPTS" default:"5"`
	PurchaseWindow   time.Duration `envconfig:"RATE_LIMIT_PURCHASE_WINDOW" default:"1m"`
	FailOpen         bool          `envconfig:"RATE_LIMIT_FAIL_OPEN" default:"false"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *SalesDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Name, s.SSLMode)
}

// SQLiteDSN returns the SQLite connection string with WAL enabled.
func (s *SalesDBConfig) SQLiteDSN() string {
	return fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", s.Path)
}

// DSN returns the MySQL data source name.
func (u *UsersDBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		u.User, u.Password, u.Host, u.Port, u.Name)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Address returns the Redis address in host:port format.
func (r *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
