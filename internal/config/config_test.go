package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("MAX_MESSAGE_LENGTH", "")

	cfg := Load()

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 5000, cfg.MaxMessageLength)
	assert.False(t, cfg.DebugRoutes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("SWEEP_INTERVAL", "15s")
	t.Setenv("MAX_MESSAGE_LENGTH", "120")
	t.Setenv("DEBUG_ROUTES", "true")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, 15*time.Second, cfg.SweepInterval)
	assert.Equal(t, 120, cfg.MaxMessageLength)
	assert.True(t, cfg.DebugRoutes)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORE_DRIVER", "cassandra")
	t.Setenv("SWEEP_INTERVAL", "soon")
	t.Setenv("MAX_MESSAGE_LENGTH", "lots")
	t.Setenv("DEBUG_ROUTES", "maybe")

	cfg := Load()

	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 5000, cfg.MaxMessageLength)
	assert.False(t, cfg.DebugRoutes)
}
