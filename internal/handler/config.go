package handler

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the handler's static startup configuration, loaded from YAML.
// Nothing in Config changes after LoadConfig returns.
type Config struct {
	Listen       string        `yaml:"listen"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Shards       [][]string    `yaml:"shards"`
}

// LoadConfig reads and parses a handler YAML config file, applying the same
// zero-value defaults the process would otherwise need to special-case.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("handler: reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("handler: parsing config %s: %w", path, err)
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 300 * time.Millisecond
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 300 * time.Millisecond
	}
	if cfg.Listen == "" {
		cfg.Listen = ":7000"
	}
	return cfg, nil
}

// getenv returns the environment variable's value, or fallback if it is
// unset or empty - the same helper shape cmd/coordinator and cmd/node used
// for their own environment-variable overrides.
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
