package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEconomyConfig(t *testing.T) {
	cfg := DefaultEconomyConfig()
	require.NoError(t, cfg.Validate())

	for kind, want := range map[string]int64{"play": 10, "feed": 20, "gift": 30} {
		got, ok := cfg.Cost(kind)
		assert.True(t, ok, kind)
		assert.Equal(t, want, got, kind)
	}
	_, ok := cfg.Cost("pet")
	assert.False(t, ok)
	assert.Equal(t, []string{"feed", "gift", "play"}, cfg.Kinds())
}

func TestClampIsIdempotent(t *testing.T) {
	cfg := DefaultEconomyConfig()
	for _, v := range []int{-100, 0, 1, 5, 10, 11, 1 << 20} {
		once := cfg.ClampMood(v)
		assert.Equal(t, once, cfg.ClampMood(once))
		assert.GreaterOrEqual(t, once, cfg.MoodMin)
		assert.LessOrEqual(t, once, cfg.MoodMax)

		p := cfg.ClampPatience(v)
		assert.Equal(t, p, cfg.ClampPatience(p))
	}
}

func TestHistoryLimit(t *testing.T) {
	cfg := DefaultEconomyConfig()
	assert.Equal(t, 5, cfg.HistoryLimit(0))
	assert.Equal(t, 3, cfg.HistoryLimit(3))
	assert.Equal(t, 50, cfg.HistoryLimit(500))
}

func TestValidateRejectsBrokenEconomy(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EconomyConfig)
	}{
		{"no kinds", func(c *EconomyConfig) { c.InteractionCosts = nil }},
		{"negative cost", func(c *EconomyConfig) { c.InteractionCosts["play"] = -1 }},
		{"empty mood range", func(c *EconomyConfig) { c.MoodMax = c.MoodMin }},
		{"default mood outside", func(c *EconomyConfig) { c.DefaultMood = 42 }},
		{"zero death threshold", func(c *EconomyConfig) { c.DeathFlagThreshold = 0 }},
		{"history inverted", func(c *EconomyConfig) { c.HistoryMaxLimit = 1; c.HistoryDefaultLimit = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEconomyConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
