package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sentinelhaus/confd/pkg/security"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	if c.Store.Path == "" {
		c.Store.Path = "/etc/confd/config-document.yaml"
	}
	if c.Engine.DebounceWindow == 0 {
		c.Engine.DebounceWindow = Duration(750 * time.Millisecond)
	}
	if c.Engine.DriftInterval == 0 {
		c.Engine.DriftInterval = Duration(30 * time.Second)
	}
	if c.Engine.RequestTimeout == 0 {
		c.Engine.RequestTimeout = Duration(10 * time.Second)
	}
	if c.Engine.LoadRetries == 0 {
		c.Engine.LoadRetries = 3
	}
	if c.Engine.LoadBackoff == 0 {
		c.Engine.LoadBackoff = Duration(2 * time.Second)
	}
	if c.Security.Level == "" {
		c.Security.Level = string(security.LevelHigh)
	}
	if c.Exporter.Listen == "" {
		c.Exporter.Listen = ":9130"
	}
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}

	if _, err := security.ParseLevel(c.Security.Level); err != nil {
		return fmt.Errorf("security.level: %w", err)
	}

	if c.Engine.DebounceWindow < 0 || c.Engine.DriftInterval < 0 || c.Engine.RequestTimeout < 0 {
		return fmt.Errorf("engine durations must not be negative")
	}

	return nil
}
