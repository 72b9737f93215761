// Package config loads and saves dive-planning configuration: default
// gradient factors, VPM-B conservatism, SAC rate and gas inventory, as a
// YAML document.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLowGF        = 0.3
	DefaultHighGF       = 0.85
	DefaultConservatism = 3
	DefaultSACRate      = 20.0 // litres/minute
	DefaultDescentRate  = 10.0 // metres/minute
	DefaultAscentRate   = 10.0 // metres/minute
)

// GasConfig is a single named breathing gas and the fractions it is made
// up of.
type GasConfig struct {
	Name     string  `yaml:"name"`
	Oxygen   float64 `yaml:"oxygen"`
	Helium   float64 `yaml:"helium,omitempty"`
	SwitchAt float64 `yaml:"switch_at,omitempty"` // metres; 0 for the bottom gas
}

// BuhlmannConfig holds the gradient-factor pair the Bühlmann engine is
// built with.
type BuhlmannConfig struct {
	LowGF  float64 `yaml:"low_gf"`
	HighGF float64 `yaml:"high_gf"`
}

// VPMBConfig holds the conservatism level the VPM-B engine is built with.
type VPMBConfig struct {
	Conservatism int `yaml:"conservatism"`
}

// Config is the full set of dive-planning defaults: which decompression
// model to drive, its parameters, breathing rates and the gas inventory.
type Config struct {
	Model        string         `yaml:"model"` // "buhlmann" or "vpmb"
	Buhlmann     BuhlmannConfig `yaml:"buhlmann"`
	VPMB         VPMBConfig     `yaml:"vpmb"`
	SACRate      float64        `yaml:"sac_rate"`
	DescentRate  float64        `yaml:"descent_rate"`
	AscentRate   float64        `yaml:"ascent_rate"`
	Gases        []GasConfig    `yaml:"gases"`
}

// Default returns a Config seeded with air as the only gas and the
// package's default rates and gradient factors.
func Default() *Config {
	return &Config{
		Model:       "buhlmann",
		Buhlmann:    BuhlmannConfig{LowGF: DefaultLowGF, HighGF: DefaultHighGF},
		VPMB:        VPMBConfig{Conservatism: DefaultConservatism},
		SACRate:     DefaultSACRate,
		DescentRate: DefaultDescentRate,
		AscentRate:  DefaultAscentRate,
		Gases:       []GasConfig{{Name: "air", Oxygen: 0.2098}},
	}
}

// Load reads and parses a YAML config file at path, starting from Default
// so any field the file omits keeps its default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save marshals cfg to YAML and writes it to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
