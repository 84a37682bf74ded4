package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	EventStore EventStoreConfig
	Auth       AuthConfig
	Legacy     LegacyConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// EventStoreConfig holds configuration for the EventStoreDB-backed
// domain event bus and audit trail.
type EventStoreConfig struct {
	// Host is the EventStoreDB server hostname
	Host string
	// Port is the gRPC port (default 2113)
	Port int
	// Insecure disables TLS (for development)
	Insecure bool
	// Username for authentication (optional)
	Username string
	// Password for authentication (optional)
	Password string
}

type AuthConfig struct {
	// JWTSecret signs and verifies access tokens
	JWTSecret string
	// Issuer expected in token claims
	Issuer string
}

// LegacyConfig holds configuration for the legacy clinic system import
// adapter (SQL Server based HIS).
type LegacyConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// PersonTable is the source table for person records
	PersonTable string
	// PollIntervalSeconds between import sweeps
	PollIntervalSeconds int
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond int
	Burst             int
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "amparo"),
			Password: getEnv("DB_PASSWORD", "amparo"),
			Database: getEnv("DB_NAME", "amparo"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		EventStore: EventStoreConfig{
			Host:     getEnv("EVENTSTORE_HOST", "localhost"),
			Port:     getEnvInt("EVENTSTORE_PORT", 2113),
			Insecure: getEnvBool("EVENTSTORE_INSECURE", true),
			Username: getEnv("EVENTSTORE_USERNAME", ""),
			Password: getEnv("EVENTSTORE_PASSWORD", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
			Issuer:    getEnv("JWT_ISSUER", "amparo-care"),
		},
		Legacy: LegacyConfig{
			Enabled:             getEnvBool("LEGACY_IMPORT_ENABLED", false),
			Host:                getEnv("LEGACY_DB_HOST", "localhost"),
			Port:                getEnvInt("LEGACY_DB_PORT", 1433),
			User:                getEnv("LEGACY_DB_USER", "sa"),
			Password:            getEnv("LEGACY_DB_PASSWORD", ""),
			Database:            getEnv("LEGACY_DB_NAME", "clinic"),
			PersonTable:         getEnv("LEGACY_PERSON_TABLE", "dbo.Patients"),
			PollIntervalSeconds: getEnvInt("LEGACY_POLL_INTERVAL_SECONDS", 300),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getEnvInt("RATE_LIMIT_RPS", 50),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 100),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
