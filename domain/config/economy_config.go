package config

import (
	"fmt"
	"sort"
	"time"
)

// EconomyConfig holds every number the cat lifecycle and yarn economy run on.
// It is built once at startup and injected; nothing in the domain reads
// globals.
type EconomyConfig struct {
	// Yarn
	InteractionCosts  map[string]int64 `yaml:"interaction_costs"`
	StartingYarn      int64            `yaml:"starting_yarn"`
	AllowNegativeYarn bool             `yaml:"allow_negative_yarn"`

	// Vitals
	MoodMin         int `yaml:"mood_min"`
	MoodMax         int `yaml:"mood_max"`
	PatienceMin     int `yaml:"patience_min"`
	PatienceMax     int `yaml:"patience_max"`
	DefaultMood     int `yaml:"default_mood"`
	DefaultPatience int `yaml:"default_patience"`
	AvatarBands     int `yaml:"avatar_bands"`

	// Lifecycle
	DyingThreshold     int `yaml:"dying_threshold"`
	DeathFlagThreshold int `yaml:"death_flag_threshold"`

	// Absence bonus
	AbsenceBonusPerHour int64         `yaml:"absence_bonus_per_hour"`
	AbsenceBonusCap     int64         `yaml:"absence_bonus_cap"`
	AbsenceBonusGate    time.Duration `yaml:"absence_bonus_gate"`

	// History and input limits
	HistoryDefaultLimit  int `yaml:"history_default_limit"`
	HistoryMaxLimit      int `yaml:"history_max_limit"`
	MaxDescriptionLength int `yaml:"max_description_length"`
}

// DefaultEconomyConfig returns the production economy
func DefaultEconomyConfig() *EconomyConfig {
	return &EconomyConfig{
		InteractionCosts: map[string]int64{
			"play": 10,
			"feed": 20,
			"gift": 30,
		},
		StartingYarn:      500,
		AllowNegativeYarn: false,

		MoodMin:         1,
		MoodMax:         10,
		PatienceMin:     1,
		PatienceMax:     10,
		DefaultMood:     7,
		DefaultPatience: 10,
		AvatarBands:     5,

		DyingThreshold:     3,
		DeathFlagThreshold: 3,

		AbsenceBonusPerHour: 10,
		AbsenceBonusCap:     150,
		AbsenceBonusGate:    12 * time.Hour,

		HistoryDefaultLimit:  5,
		HistoryMaxLimit:      50,
		MaxDescriptionLength: 500,
	}
}

// Cost returns the yarn price of an interaction kind
func (c *EconomyConfig) Cost(kind string) (int64, bool) {
	cost, ok := c.InteractionCosts[kind]
	return cost, ok
}

// Kinds lists the configured interaction kinds in stable order
func (c *EconomyConfig) Kinds() []string {
	kinds := make([]string, 0, len(c.InteractionCosts))
	for k := range c.InteractionCosts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// ClampMood forces v into the mood range
func (c *EconomyConfig) ClampMood(v int) int {
	return clamp(v, c.MoodMin, c.MoodMax)
}

// ClampPatience forces v into the patience range
func (c *EconomyConfig) ClampPatience(v int) int {
	return clamp(v, c.PatienceMin, c.PatienceMax)
}

// HistoryLimit normalizes a requested history size
func (c *EconomyConfig) HistoryLimit(n int) int {
	if n <= 0 {
		return c.HistoryDefaultLimit
	}
	if n > c.HistoryMaxLimit {
		return c.HistoryMaxLimit
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Validate checks the economy is internally consistent
func (c *EconomyConfig) Validate() error {
	if len(c.InteractionCosts) == 0 {
		return fmt.Errorf("interaction_costs must name at least one kind")
	}
	for kind, cost := range c.InteractionCosts {
		if kind == "" {
			return fmt.Errorf("interaction_costs has an empty kind")
		}
		if cost < 0 {
			return fmt.Errorf("interaction cost for %q must not be negative", kind)
		}
	}
	if c.StartingYarn < 0 {
		return fmt.Errorf("starting_yarn must not be negative")
	}
	if c.MoodMin >= c.MoodMax {
		return fmt.Errorf("mood range [%d,%d] is empty", c.MoodMin, c.MoodMax)
	}
	if c.PatienceMin >= c.PatienceMax {
		return fmt.Errorf("patience range [%d,%d] is empty", c.PatienceMin, c.PatienceMax)
	}
	if c.DefaultMood != c.ClampMood(c.DefaultMood) {
		return fmt.Errorf("default_mood %d outside mood range", c.DefaultMood)
	}
	if c.DefaultPatience != c.ClampPatience(c.DefaultPatience) {
		return fmt.Errorf("default_patience %d outside patience range", c.DefaultPatience)
	}
	if c.AvatarBands < 1 {
		return fmt.Errorf("avatar_bands must be at least 1")
	}
	if c.DeathFlagThreshold < 1 {
		return fmt.Errorf("death_flag_threshold must be at least 1")
	}
	if c.AbsenceBonusPerHour < 0 || c.AbsenceBonusCap < 0 || c.AbsenceBonusGate < 0 {
		return fmt.Errorf("absence bonus settings must not be negative")
	}
	if c.HistoryDefaultLimit < 1 || c.HistoryMaxLimit < c.HistoryDefaultLimit {
		return fmt.Errorf("history limits must satisfy 1 <= default <= max")
	}
	if c.MaxDescriptionLength < 1 {
		return fmt.Errorf("max_description_length must be positive")
	}
	return nil
}
