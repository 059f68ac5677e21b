package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
)

// Config holds the console settings. Flags override file values.
type Config struct {
	Resource    string `yaml:"resource"`
	Model       string `yaml:"model"`
	Catalog     string `yaml:"catalog"`
	ProtocolLog string `yaml:"protocol_log"`
	History     string `yaml:"history"`
}

// DefaultConfig returns an empty configuration.
func DefaultConfig() Config {
	return Config{}
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

// Override replaces every field that is set in o.
func (c *Config) Override(o Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Resource, o.Resource)
	set(&c.Model, o.Model)
	set(&c.Catalog, o.Catalog)
	set(&c.ProtocolLog, o.ProtocolLog)
	set(&c.History, o.History)
}

// LoadCatalog returns the built-in catalog merged with the configured
// catalog file, if any.
func (c Config) LoadCatalog() (*catalog.Catalog, error) {
	cat := catalog.Default()
	if c.Catalog == "" {
		return cat, nil
	}
	extra, err := catalog.LoadFile(c.Catalog)
	if err != nil {
		return nil, err
	}
	return cat.Merge(extra), nil
}
