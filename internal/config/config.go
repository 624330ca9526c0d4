// Package config loads the santabot configuration: the shared core settings,
// the database and the gift-exchange rules.
package config

import (
	"fmt"

	coreconfig "github.com/m3rciful/santabot/core/config"
	coredatabase "github.com/m3rciful/santabot/core/database"
	"github.com/m3rciful/santabot/internal/santa"
)

// SantaConfig holds the gift-exchange settings.
type SantaConfig struct {
	// IdentifierPattern validates external identifiers; empty uses the built-in VK pattern.
	IdentifierPattern string `yaml:"identifier_pattern" envconfig:"SANTA_IDENTIFIER_PATTERN"`
	// TrackingPattern validates tracking codes; empty uses the built-in pattern.
	TrackingPattern string `yaml:"tracking_pattern" envconfig:"SANTA_TRACKING_PATTERN"`
	// SeedCSV is imported into the assignments table at startup when set.
	SeedCSV string `yaml:"seed_csv" envconfig:"SANTA_SEED_CSV"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Santa    SantaConfig         `yaml:"santa"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Validator compiles the configured input patterns.
func (c *Config) Validator() (*santa.Validator, error) {
	return santa.NewValidator(c.Santa.IdentifierPattern, c.Santa.TrackingPattern)
}

// Load reads the YAML file at path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.ReadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return nil, err
	}
	if _, err := cfg.Validator(); err != nil {
		return nil, fmt.Errorf("santa: %w", err)
	}
	return &cfg, nil
}
