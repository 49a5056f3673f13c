package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsFromEnv(t *testing.T) {
	// No config.yaml in the test working directory, so Load falls back to env.
	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 3306, cfg.Warehouse.Port)
	assert.Equal(t, 20, cfg.Warehouse.PoolSize)
	assert.False(t, cfg.Warehouse.AllowWrites)
	assert.Equal(t, 2, cfg.Pipeline.MaxRegenerationAttempts)
	assert.Equal(t, 100, cfg.Pipeline.DefaultRowLimit)
	assert.Equal(t, 50, cfg.Pipeline.SampleRowLimit)
	assert.True(t, cfg.Pipeline.AutoRegenerate)
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "migrations", cfg.StateDB.MigrationsPath)
}

func TestLoad_RejectsUnknownTransport(t *testing.T) {
	t.Setenv("MCP_TRANSPORT", "websocket")

	_, err := Load("test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WAREHOUSE_HOST", "warehouse.internal")
	t.Setenv("WAREHOUSE_POOL_SIZE", "5")
	t.Setenv("PIPELINE_MAX_REGENERATION_ATTEMPTS", "4")

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "warehouse.internal", cfg.Warehouse.Host)
	assert.Equal(t, 5, cfg.Warehouse.PoolSize)
	assert.Equal(t, 4, cfg.Pipeline.MaxRegenerationAttempts)
}

func TestLoad_RejectsExcessiveSampleLimit(t *testing.T) {
	t.Setenv("PIPELINE_SAMPLE_ROW_LIMIT", "500")

	_, err := Load("test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample_row_limit")
}

func TestLoad_RejectsProviderWithoutModel(t *testing.T) {
	t.Setenv("GENERATOR_PROVIDER", "openai")
	t.Setenv("GENERATOR_MODEL", "")

	_, err := Load("test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generator model")
}

func TestWarehouseDSN(t *testing.T) {
	cfg := WarehouseConfig{
		Host:     "db.example.com",
		Port:     3307,
		User:     "ro",
		Password: "pw",
		Database: "flightstats",
	}
	assert.Equal(t, "ro:pw@tcp(db.example.com:3307)/flightstats?parseTime=true", cfg.DSN())
}

func TestStateDBConnectionString(t *testing.T) {
	cfg := StateDBConfig{
		Host: "localhost", Port: 5432, User: "aerostat",
		Password: "pw", Database: "aerostat_engine", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=aerostat password=pw dbname=aerostat_engine sslmode=disable",
		cfg.ConnectionString())
}
