package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Identity  IdentityConfig
	Cache     CacheConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins []string
}

// BackendConfig points at the search/NLP backend that hosts every collaborator
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// IdentityConfig holds configuration for the user identity store
type IdentityConfig struct {
	Driver         string // "postgres" or "sqlite3"
	DSN            string // 完整的数据库连接字符串（优先使用）
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSLMode        string
	SQLitePath     string
	MaxConnections int
	DefaultUserID  string
}

// CacheConfig holds the optional Redis search cache configuration
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SearchTTL     time.Duration
}

// Enabled reports whether a Redis address was configured
func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// SessionConfig controls the lifetime of in-memory client sessions
type SessionConfig struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	Greeting      string
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables, after an optional .env
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("SERVER_PORT"),
			Host:           v.GetString("SERVER_HOST"),
			GinMode:        v.GetString("GIN_MODE"),
			AllowedOrigins: splitCSV(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
			Timeout: v.GetDuration("BACKEND_TIMEOUT"),
		},
		Identity: IdentityConfig{
			Driver: v.GetString("IDENTITY_DRIVER"),
			// 优先使用完整的 DSN (DATABASE_URL, PG_DSN)
			DSN:            firstNonEmpty(v.GetString("DATABASE_URL"), v.GetString("PG_DSN")),
			Host:           v.GetString("PG_HOST"),
			Port:           v.GetInt("PG_PORT"),
			User:           v.GetString("PG_USER"),
			Password:       v.GetString("PG_PASSWORD"),
			Database:       v.GetString("PG_DATABASE"),
			SSLMode:        v.GetString("PG_SSLMODE"),
			SQLitePath:     v.GetString("SQLITE_PATH"),
			MaxConnections: v.GetInt("PG_MAX_CONNECTIONS"),
			DefaultUserID:  v.GetString("DEFAULT_USER_ID"),
		},
		Cache: CacheConfig{
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			SearchTTL:     v.GetDuration("SEARCH_CACHE_TTL"),
		},
		Session: SessionConfig{
			IdleTimeout:   v.GetDuration("SESSION_IDLE_TIMEOUT"),
			SweepInterval: v.GetDuration("SESSION_SWEEP_INTERVAL"),
			Greeting:      v.GetString("SESSION_GREETING"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
			Burst:     v.GetInt("RATE_LIMIT_BURST"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:8000")
	v.SetDefault("BACKEND_TIMEOUT", "30s")

	v.SetDefault("IDENTITY_DRIVER", "sqlite3")
	v.SetDefault("PG_HOST", "localhost")
	v.SetDefault("PG_PORT", 5432)
	v.SetDefault("PG_USER", "postgres")
	v.SetDefault("PG_PASSWORD", "")
	v.SetDefault("PG_DATABASE", "propertychat")
	v.SetDefault("PG_SSLMODE", "disable")
	v.SetDefault("PG_MAX_CONNECTIONS", 10)
	v.SetDefault("SQLITE_PATH", "propertychat.db")
	v.SetDefault("DEFAULT_USER_ID", "demo-user")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SEARCH_CACHE_TTL", "2m")

	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1m")
	v.SetDefault("SESSION_GREETING", "Hi! Tell me your budget and location.")

	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func (c *Config) validate() error {
	switch c.Identity.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported IDENTITY_DRIVER %q, must be postgres or sqlite3", c.Identity.Driver)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL must not be empty")
	}
	if c.Identity.DefaultUserID == "" {
		return fmt.Errorf("DEFAULT_USER_ID must not be empty")
	}
	if c.Session.IdleTimeout <= 0 || c.Session.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT and SESSION_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// IdentityDSN returns the connection string for the configured identity driver
func (c *Config) IdentityDSN() string {
	if c.Identity.Driver == "sqlite3" {
		return c.Identity.SQLitePath
	}

	// 优先使用完整的 DSN
	if c.Identity.DSN != "" {
		return c.Identity.DSN
	}

	// 否则从各个字段组装 DSN
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Identity.Host,
		c.Identity.Port,
		c.Identity.User,
		c.Identity.Password,
		c.Identity.Database,
		c.Identity.SSLMode,
	)
}

// Helper functions

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
