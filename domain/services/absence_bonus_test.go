package services

import (
	"testing"
	"time"

	"catnook-backend/domain/config"

	"github.com/stretchr/testify/assert"
)

func TestAbsenceBonusCompute(t *testing.T) {
	calc := NewAbsenceBonusCalculator(config.DefaultEconomyConfig())
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		p := now.Add(-d)
		return &p
	}

	tests := []struct {
		name     string
		previous *time.Time
		want     int64
	}{
		{"first login", nil, 0},
		{"clock skew", ago(-2 * time.Hour), 0},
		{"same instant", ago(0), 0},
		{"under gate", ago(5 * time.Hour), 0},
		{"exactly at gate", ago(12 * time.Hour), 0},
		{"just past gate", ago(12*time.Hour + time.Minute), 120},
		{"thirteen and a half hours", ago(13*time.Hour + 30*time.Minute), 130},
		{"fourteen hours", ago(14 * time.Hour), 140},
		{"twenty hours hits cap", ago(20 * time.Hour), 150},
		{"a week away", ago(7 * 24 * time.Hour), 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Compute(tt.previous, now)
			assert.Equal(t, tt.want, got.Amount)
			assert.LessOrEqual(t, got.Amount, int64(150))
			assert.GreaterOrEqual(t, got.Amount, int64(0))
		})
	}
}

func TestAbsenceBonusUngated(t *testing.T) {
	rules := config.DefaultEconomyConfig()
	rules.AbsenceBonusGate = 0
	calc := NewAbsenceBonusCalculator(rules)
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	prev := now.Add(-3*time.Hour - 59*time.Minute)

	got := calc.Compute(&prev, now)
	assert.Equal(t, int64(3), got.Hours)
	assert.Equal(t, int64(30), got.Amount)
}
