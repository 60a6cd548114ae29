package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            string        `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"postgres"`
	Password        string        `env:"PASSWORD" envDefault:"password"`
	DBName          string        `env:"NAME" envDefault:"jobboard"`
	SSLMode         string        `env:"SSL_MODE" envDefault:"disable"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"warn"`
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GormLogLevel maps the configured level name onto the gorm logger levels.
func (c *DBConfig) GormLogLevel() logger.LogLevel {
	switch c.LogLevel {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Env             string        `env:"APP_ENV" envDefault:"development"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"defaultsecretkey"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"60m"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string `env:"METRICS_PREFIX" envDefault:"jobboard"`
}

// RedisConfig holds the connection used for request throttling.
// An empty Addr disables throttling.
type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB" envDefault:"0"`
	ApplyLimit  int           `env:"RATE_LIMIT_APPLY" envDefault:"20"`
	LoginLimit  int           `env:"RATE_LIMIT_LOGIN" envDefault:"10"`
	LimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// PaginationConfig controls list envelopes
type PaginationConfig struct {
	PageSize    int `env:"PAGE_SIZE" envDefault:"10"`
	MaxPageSize int `env:"MAX_PAGE_SIZE" envDefault:"100"`
}

// AdminConfig holds the bootstrap administrator account
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL" envDefault:"admin@jobboard.com"`
	Password string `env:"ADMIN_PASSWORD" envDefault:"Admin@123"`
}

// Config holds all configuration
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"jobboard"`
	DB          DBConfig `envPrefix:"DB_"`
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Redis       RedisConfig
	Pagination  PaginationConfig
	Admin       AdminConfig
}

// Load reads an optional .env file and then parses the environment into Config.
func Load() (*Config, error) {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize applies guardrails to values loaded from the environment.
func (c *Config) Sanitize() {
	if c.Pagination.PageSize <= 0 {
		c.Pagination.PageSize = 10
	}
	if c.Pagination.MaxPageSize < c.Pagination.PageSize {
		c.Pagination.MaxPageSize = c.Pagination.PageSize
	}
	if c.JWT.AccessTTL <= 0 {
		c.JWT.AccessTTL = time.Hour
	}
	if c.JWT.RefreshTTL <= 0 {
		c.JWT.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.Redis.LimitWindow <= 0 {
		c.Redis.LimitWindow = time.Minute
	}
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// LogFields returns the configuration as zap fields, without secrets
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_user", c.DB.User),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.Bool("rate_limit_enabled", c.Redis.Addr != ""),
	}
}
