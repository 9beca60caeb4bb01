package config

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML contains the embedded default configuration file
//
//go:embed default_config.yaml
var DefaultConfigYAML string

// LoadDefaultConfig parses the embedded default config into a full Config
// struct. The embedded file mirrors DefaultConfig and serves as the reference
// document written by `conscan init`.
func LoadDefaultConfig() (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(DefaultConfigYAML), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
