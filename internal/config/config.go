// Package config loads simulation configuration from file and environment.
package config

import (
	"fmt"
	"math"

	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SimulationConfig controls the day loop and population.
type SimulationConfig struct {
	// Seed makes runs reproducible. A negative seed disables seeding and
	// the simulation draws from crypto/rand instead.
	Seed          int64 `mapstructure:"seed"`
	Days          int   `mapstructure:"days"`
	CustomerCount int   `mapstructure:"customer_count"`
	// TypeDistribution is the probability vector over
	// Budget/Casual/Collector/Wealthy; should sum to 1.
	TypeDistribution [4]float64 `mapstructure:"type_distribution"`
	// Tides toggles day-to-day catch-size variability.
	Tides bool `mapstructure:"tides"`
}

// StorageConfig holds the market store location.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from an optional file plus FISHMARKET_*
// environment overrides. A missing file falls back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FISHMARKET")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.days", 7)
	v.SetDefault("simulation.customer_count", 10)
	v.SetDefault("simulation.type_distribution", []float64{0.35, 0.35, 0.15, 0.15})
	v.SetDefault("simulation.tides", true)

	v.SetDefault("storage.path", "data/fishmarket.db")

	v.SetDefault("logging.level", "info")
}

// Validate checks configuration values.
func (c *Config) Validate() error {
	if c.Simulation.Days < 1 {
		return fmt.Errorf("simulation.days must be at least 1")
	}
	if c.Simulation.CustomerCount < 2 {
		return fmt.Errorf("simulation.customer_count must be at least 2 (one Wealthy, one Collector)")
	}

	sum := 0.0
	for _, p := range c.Simulation.TypeDistribution {
		if p < 0 {
			return fmt.Errorf("simulation.type_distribution entries must be non-negative")
		}
		sum += p
	}
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("simulation.type_distribution must sum to 1, got %.3f", sum)
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	return nil
}
