package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL", "15")
	t.Setenv("REFRESH_TOKEN_TTL", "24")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://shop.example, ,https://admin.example")
	t.Setenv("LOG_SQL", "true")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "s3cret-refresh", cfg.RefreshSecret)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.LogSQL)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "debug", cfg.LogLevel())
}

func TestLoadRefreshSecretOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, "refresh", cfg.RefreshSecret)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "info", cfg.LogLevel())

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, "warn", cfg.LogLevel())
	assert.NotNil(t, NewLogger(cfg.LogLevel()))
}
