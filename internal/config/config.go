package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Promotions PromotionAPIConfig
	Database   DatabaseConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Session    SessionConfig
	Audit      AuditConfig
	S3         S3Config
	Import     ImportConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// PromotionAPIConfig holds the location of the Promotion Service.
type PromotionAPIConfig struct {
	BaseURL string
	Timeout int // seconds
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds the console's admin credentials.
type AuthConfig struct {
	User     string
	Password string
}

// SessionConfig holds browser session configuration.
type SessionConfig struct {
	TTL int // minutes
}

// AuditConfig selects the sinks console actions are journalled to.
type AuditConfig struct {
	DatabaseEnabled bool
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaTopic      string
}

// S3Config holds AWS S3 configuration for product line files.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "product-lines/")
}

// ImportConfig holds local product line file configuration.
type ImportConfig struct {
	Dir string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first; variables already set take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Promotions: PromotionAPIConfig{
			BaseURL: getEnv("PROMOTION_API_URL", "http://localhost:5000"),
			Timeout: getEnvAsInt("PROMOTION_API_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "promoconsole"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 1),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			User:     getEnv("ADMIN_USER", "admin"),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Session: SessionConfig{
			TTL: getEnvAsInt("SESSION_TTL", 60),
		},
		Audit: AuditConfig{
			DatabaseEnabled: getEnvAsBool("AUDIT_DB_ENABLED", false),
			KafkaEnabled:    getEnvAsBool("AUDIT_KAFKA_ENABLED", false),
			KafkaBrokers:    getEnvAsList("AUDIT_KAFKA_BROKERS", []string{"localhost:9092"}),
			KafkaTopic:      getEnv("AUDIT_KAFKA_TOPIC", "promotion-console-audit"),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "product-lines/"),
		},
		Import: ImportConfig{
			Dir: getEnv("IMPORT_DIR", "data/product-lines"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	u, err := url.Parse(c.Promotions.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid promotion API URL: %q", c.Promotions.BaseURL)
	}

	if c.Promotions.Timeout < 1 {
		return fmt.Errorf("promotion API timeout must be at least 1 second")
	}

	if c.Auth.User == "" {
		return fmt.Errorf("admin user is required")
	}

	if c.Auth.Password == "" {
		return fmt.Errorf("admin password is required")
	}

	if c.Session.TTL < 1 {
		return fmt.Errorf("session TTL must be at least 1 minute")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Audit.DatabaseEnabled {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}

	if c.Audit.KafkaEnabled {
		if len(c.Audit.KafkaBrokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka audit is enabled")
		}
		if c.Audit.KafkaTopic == "" {
			return fmt.Errorf("kafka topic is required when kafka audit is enabled")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RequestTimeout returns the per-request timeout for the Promotion Service.
func (c *PromotionAPIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// IdleTimeout returns how long an unused browser session is kept.
func (c *SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(c.TTL) * time.Minute
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList retrieves a comma separated environment variable or returns a default value.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
