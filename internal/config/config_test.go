package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/techlog")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30, cfg.SessionIdleMinutes)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout())
	assert.Equal(t, time.Minute, cfg.SessionSweepInterval())
	assert.Equal(t, 5, cfg.IDAllocationMaxAttempts)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/techlog")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SESSION_IDLE_MINUTES", "10")
	t.Setenv("ID_ALLOCATION_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.SessionIdleMinutes)
	assert.Equal(t, 5, cfg.IDAllocationMaxAttempts)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("database url required", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		assert.EqualError(t, err, "DATABASE_URL is required")
	})

	t.Run("jwt secret required in production", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/techlog")
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.EqualError(t, err, "JWT_SECRET is required in production")
	})

	t.Run("idle minutes positive", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/techlog")
		t.Setenv("ENVIRONMENT", "development")
		t.Setenv("SESSION_IDLE_MINUTES", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}
