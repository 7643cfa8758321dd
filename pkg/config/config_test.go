package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 1800, cfg.Cache.TTLSeconds)
	assert.Equal(t, 4096, cfg.Cache.MaxEntries)

	assert.Equal(t, []string{"openai", "anthropic"}, cfg.Providers.Order)
	assert.Equal(t, 10*time.Second, cfg.Providers.Timeout)
	assert.True(t, cfg.Providers.AllowMockFallback)

	assert.False(t, cfg.Archive.Enabled)
	assert.False(t, cfg.OTEL.Enabled)
	assert.Equal(t, "insight-engine", cfg.OTEL.ServiceName)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("INSIGHT_CACHE_BACKEND", "redis")
	t.Setenv("INSIGHT_CACHE_TTL_SECONDS", "600")
	t.Setenv("INSIGHT_PROVIDER_ORDER", "anthropic, openai")
	t.Setenv("INSIGHT_PROVIDER_TIMEOUT_MS", "2500")
	t.Setenv("INSIGHT_ALLOW_MOCK_FALLBACK", "false")
	t.Setenv("FEEDBACK_ARCHIVE_ENABLED", "true")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 600, cfg.Cache.TTLSeconds)
	assert.Equal(t, []string{"anthropic", "openai"}, cfg.Providers.Order)
	assert.Equal(t, 2500*time.Millisecond, cfg.Providers.Timeout)
	assert.False(t, cfg.Providers.AllowMockFallback)
	assert.True(t, cfg.Archive.Enabled)
	assert.True(t, cfg.OTEL.Enabled)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	t.Setenv("FEEDBACK_ARCHIVE_ENABLED", "maybe")
	t.Setenv("INSIGHT_PROVIDER_ORDER", " , ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, []string{"openai", "anthropic"}, cfg.Providers.Order)
}

func TestArchiveDSN(t *testing.T) {
	cfg := ArchiveConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "insights",
		Password: "secret",
		Database: "insight_feedback",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=insights password=secret dbname=insight_feedback sslmode=require",
		cfg.ArchiveDSN())
}

func TestRedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", cfg.RedisAddr())
}
