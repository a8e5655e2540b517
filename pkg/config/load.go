package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the configuration file at path, decodes it and applies default
// values. The result is not yet validated; pass it to Build (or Validate)
// before use.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadTopology loads, validates and folds a configuration file in one step.
func LoadTopology(path string) (*Config, *Topology, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	topo, err := Build(cfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, topo, nil
}
