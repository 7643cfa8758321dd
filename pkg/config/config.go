package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Archive   ArchiveConfig
	Cache     CacheConfig
	Providers ProvidersConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// RedisConfig holds Redis configuration. Redis is optional: it backs the
// shared insight cache and the event bus when available.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ArchiveConfig holds the optional Postgres feedback archive configuration.
type ArchiveConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// CacheConfig controls the insight cache.
type CacheConfig struct {
	Backend    string // "memory" or "redis"
	TTLSeconds int
	MaxEntries int
}

// ProviderConfig configures one AI provider.
type ProviderConfig struct {
	APIKey string
	Model  string
}

// ProvidersConfig configures the provider chain. Order is the fixed
// priority in which providers are tried before falling back.
type ProvidersConfig struct {
	Order             []string
	OpenAI            ProviderConfig
	Anthropic         ProviderConfig
	Timeout           time.Duration
	AllowMockFallback bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Env:  getEnv("APP_ENV", "development"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Archive: ArchiveConfig{
			Enabled:  getEnvAsBool("FEEDBACK_ARCHIVE_ENABLED", false),
			Host:     getEnv("ARCHIVE_DB_HOST", "localhost"),
			Port:     getEnvAsInt("ARCHIVE_DB_PORT", 5432),
			User:     getEnv("ARCHIVE_DB_USER", "postgres"),
			Password: getEnv("ARCHIVE_DB_PASSWORD", ""),
			Database: getEnv("ARCHIVE_DB_NAME", "insight_feedback"),
			SSLMode:  getEnv("ARCHIVE_DB_SSLMODE", "disable"),
		},
		Cache: CacheConfig{
			Backend:    getEnv("INSIGHT_CACHE_BACKEND", "memory"),
			TTLSeconds: getEnvAsInt("INSIGHT_CACHE_TTL_SECONDS", 1800),
			MaxEntries: getEnvAsInt("INSIGHT_CACHE_MAX_ENTRIES", 4096),
		},
		Providers: ProvidersConfig{
			Order: getEnvAsSlice("INSIGHT_PROVIDER_ORDER", []string{"openai", "anthropic"}),
			OpenAI: ProviderConfig{
				APIKey: getEnv("OPENAI_API_KEY", ""),
				Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			},
			Anthropic: ProviderConfig{
				APIKey: getEnv("ANTHROPIC_API_KEY", ""),
				Model:  getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			},
			Timeout:           time.Duration(getEnvAsInt("INSIGHT_PROVIDER_TIMEOUT_MS", 10000)) * time.Millisecond,
			AllowMockFallback: getEnvAsBool("INSIGHT_ALLOW_MOCK_FALLBACK", true),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "insight-engine"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// ArchiveDSN returns the PostgreSQL connection string for the archive
func (c *ArchiveConfig) ArchiveDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
