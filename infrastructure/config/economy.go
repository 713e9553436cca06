package config

import (
	"fmt"
	"os"

	domainconfig "catnook-backend/domain/config"

	"gopkg.in/yaml.v3"
)

// LoadEconomy returns the default economy with the YAML file at path laid
// over it. Keys the file leaves out keep their defaults; interaction kinds in
// the file are added or repriced. An empty path yields the defaults.
func LoadEconomy(path string) (*domainconfig.EconomyConfig, error) {
	economy := domainconfig.DefaultEconomyConfig()
	if path == "" {
		return economy, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read economy config: %w", err)
	}
	if err := yaml.Unmarshal(raw, economy); err != nil {
		return nil, fmt.Errorf("parse economy config %s: %w", path, err)
	}
	if err := economy.Validate(); err != nil {
		return nil, fmt.Errorf("economy config %s: %w", path, err)
	}
	return economy, nil
}
