package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration (publish lease; optional)
	Redis RedisConfig

	// Publish pipeline configuration
	Publish PublishConfig

	// Read surface configuration
	Read ReadConfig

	// Vote pipeline configuration
	Vote VoteConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig holds the optional redis connection for the per-date
// publish lease. An empty URL disables the lease.
type RedisConfig struct {
	URL string
}

// PublishConfig holds publish pipeline settings
type PublishConfig struct {
	APIKey           string
	MinContentLength int
	LeaseTTL         time.Duration
	DomainCacheTTL   time.Duration
}

// ReadConfig holds read-side pagination bounds
type ReadConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// VoteConfig holds vote pipeline settings
type VoteConfig struct {
	QuestionsFile     string
	TrendMinDays      int
	TrendMaxDays      int
	TrendDefaultDays  int
	TrendScanLimit    int
	ReportingTimezone string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "daily_digest"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Publish: PublishConfig{
			APIKey:           getEnv("API_KEY", ""),
			MinContentLength: getIntEnv("PUBLISH_MIN_CONTENT_LEN", 100),
			LeaseTTL:         getDurationEnv("PUBLISH_LEASE_TTL", 30*time.Second),
			DomainCacheTTL:   getDurationEnv("DOMAIN_CACHE_TTL", 10*time.Minute),
		},
		Read: ReadConfig{
			DefaultLimit: getIntEnv("READ_DEFAULT_LIMIT", 20),
			MaxLimit:     getIntEnv("READ_MAX_LIMIT", 50),
		},
		Vote: VoteConfig{
			QuestionsFile:     getEnv("QUESTIONS_FILE", ""),
			TrendMinDays:      getIntEnv("TREND_MIN_DAYS", 7),
			TrendMaxDays:      getIntEnv("TREND_MAX_DAYS", 365),
			TrendDefaultDays:  getIntEnv("TREND_DEFAULT_DAYS", 90),
			TrendScanLimit:    getIntEnv("TREND_SCAN_LIMIT", 1000),
			ReportingTimezone: getEnv("REPORTING_TIMEZONE", "UTC"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Publish.MinContentLength <= 0 {
		return fmt.Errorf("PUBLISH_MIN_CONTENT_LEN must be positive")
	}
	if c.Read.MaxLimit < c.Read.DefaultLimit {
		return fmt.Errorf("READ_MAX_LIMIT must be >= READ_DEFAULT_LIMIT")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
