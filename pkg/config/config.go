package config

import (
	"github.com/sentinelhaus/confd/pkg/logger"
)

type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Store    StoreConfig    `yaml:"store"`
	Engine   EngineConfig   `yaml:"engine"`
	Security SecurityConfig `yaml:"security"`
	Exporter ExporterConfig `yaml:"exporter"`
}

type LoggingConfig struct {
	Format     string                     `yaml:"format"`
	Level      logger.LogLevel            `yaml:"level"`
	Components map[string]logger.LogLevel `yaml:"components"`
}

type StoreConfig struct {
	// Backend selects the source of truth: "file" or "sqlite".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type EngineConfig struct {
	DebounceWindow Duration `yaml:"debounce_window"`
	DriftInterval  Duration `yaml:"drift_interval"`
	RequestTimeout Duration `yaml:"request_timeout"`
	LoadRetries    int      `yaml:"load_retries"`
	LoadBackoff    Duration `yaml:"load_backoff"`
}

type SecurityConfig struct {
	Level string `yaml:"level"`
}

type ExporterConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}
