package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "screenpick.db", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, int32(2), cfg.Store.MinConns)
	assert.Equal(t, "https://www.omdbapi.com", cfg.Catalog.BaseURL)
	assert.Equal(t, 1100*time.Millisecond, cfg.Catalog.MinInterval())
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL())
	assert.Equal(t, 10, cfg.Pipeline.MaxAcceptedPerKind)
	assert.Equal(t, 2, cfg.Pipeline.MaxPerQuery)
	assert.Equal(t, 10, cfg.Pipeline.TopN)
	assert.Equal(t, 8, cfg.Pipeline.DiscoveryTriggerMin)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SCREENPICK_STORE_DRIVER", "postgres")
	t.Setenv("SCREENPICK_CATALOG_MIN_INTERVAL_MS", "2000")
	t.Setenv("SCREENPICK_CACHE_TTL_HOURS", "6")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.Catalog.MinInterval())
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL())
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}
