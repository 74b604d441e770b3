// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// SchedulerConfig provides settings for the asynq queue and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// IngestConfig provides settings for the ingestion gateway.
type IngestConfig interface {
	GetWebhookSecret() string
	GetIngestRatePerSecond() float64
	GetIngestBurst() int
}

// DecayConfig provides settings for the score decay scheduler.
type DecayConfig interface {
	GetDecayCronSpec() string
	GetDecayInactivityDays() int
	GetDecayPoints() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	CORSAllowAll        bool
	CORSOrigins         []string
	WebhookSecret       string
	IngestRatePerSecond float64
	IngestBurst         int
	DecayCronSpec       string
	DecayInactivityDays int
	DecayPoints         int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// IngestConfig implementation
func (c *Config) GetWebhookSecret() string       { return c.WebhookSecret }
func (c *Config) GetIngestRatePerSecond() float64 { return c.IngestRatePerSecond }
func (c *Config) GetIngestBurst() int             { return c.IngestBurst }

// DecayConfig implementation
func (c *Config) GetDecayCronSpec() string    { return c.DecayCronSpec }
func (c *Config) GetDecayInactivityDays() int { return c.DecayInactivityDays }
func (c *Config) GetDecayPoints() int         { return c.DecayPoints }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "events"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		WebhookSecret:       getEnv("WEBHOOK_SECRET", ""),
		IngestRatePerSecond: mustFloat(getEnv("INGEST_RATE_PER_SECOND", "50")),
		IngestBurst:         mustInt(getEnv("INGEST_BURST", "100")),
		DecayCronSpec:       getEnv("DECAY_CRON", "0 0 * * *"),
		DecayInactivityDays: mustInt(getEnv("DECAY_INACTIVITY_DAYS", "30")),
		DecayPoints:         mustInt(getEnv("DECAY_POINTS", "5")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AsynqConcurrency < 1 {
		cfg.AsynqConcurrency = 10
	}
	if cfg.DecayInactivityDays < 1 {
		return nil, fmt.Errorf("DECAY_INACTIVITY_DAYS must be positive")
	}
	if cfg.DecayPoints < 0 {
		return nil, fmt.Errorf("DECAY_POINTS cannot be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
