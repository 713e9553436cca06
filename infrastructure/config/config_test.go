package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 2*time.Second, cfg.LockWaitTimeout)
	assert.True(t, cfg.IsDevelopment())
	assert.Empty(t, cfg.ChatEngineURL)
}

func TestLoadConfigDurations(t *testing.T) {
	t.Setenv("LOCK_WAIT_TIMEOUT", "750ms")
	t.Setenv("LOCK_TTL", "45000")
	t.Setenv("CHAT_ENGINE_TIMEOUT", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.LockWaitTimeout)
	assert.Equal(t, 45*time.Second, cfg.LockTTL)
	assert.Equal(t, 10*time.Second, cfg.ChatEngineTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown driver", func(c *Config) { c.StorageDriver = "postgres" }, "STORAGE_DRIVER"},
		{"production needs a secret", func(c *Config) { c.Environment = "production"; c.StorageDriver = StorageSQLite }, "JWT_SECRET"},
		{"production refuses memory", func(c *Config) { c.Environment = "production"; c.JWTSecret = "s" }, "memory storage"},
		{"lambda needs dynamodb", func(c *Config) { c.IsLambda = true }, "lambda"},
		{"lock wait", func(c *Config) { c.LockWaitTimeout = 0 }, "LOCK_WAIT_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				StorageDriver:   StorageMemory,
				SQLitePath:      "x.db",
				DynamoDBTable:   "catnook",
				LockWaitTimeout: time.Second,
				LockTTL:         time.Second,
			}
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestLoadEconomy(t *testing.T) {
	t.Run("no file gives defaults", func(t *testing.T) {
		economy, err := LoadEconomy("")
		require.NoError(t, err)
		assert.Equal(t, int64(20), economy.InteractionCosts["feed"])
	})

	t.Run("overlay", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "economy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
interaction_costs:
  feed: 25
  brush: 5
allow_negative_yarn: true
absence_bonus_gate: 6h
`), 0o600))

		economy, err := LoadEconomy(path)
		require.NoError(t, err)
		assert.Equal(t, int64(25), economy.InteractionCosts["feed"])
		assert.Equal(t, int64(5), economy.InteractionCosts["brush"])
		assert.Equal(t, int64(10), economy.InteractionCosts["play"])
		assert.True(t, economy.AllowNegativeYarn)
		assert.Equal(t, 6*time.Hour, economy.AbsenceBonusGate)
		assert.Equal(t, int64(150), economy.AbsenceBonusCap)
	})

	t.Run("invalid economy is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "economy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("mood_min: 10\nmood_max: 1\n"), 0o600))
		_, err := LoadEconomy(path)
		assert.ErrorContains(t, err, "mood range")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadEconomy(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestSigningSecretFallsBackOutsideProduction(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DevJWTSecret, cfg.SigningSecret())

	cfg.JWTSecret = "real"
	assert.Equal(t, "real", cfg.SigningSecret())
}

func TestCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://catnook.app, ,http://localhost:3000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://catnook.app", "http://localhost:3000"}, cfg.CORSOrigins)
}
