package replica

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is a replica process's static startup configuration.
type Config struct {
	Listen     string `yaml:"listen"`
	Shard      int    `yaml:"shard"`
	ShardCount int    `yaml:"shard_count"`
}

// LoadConfig reads and parses a replica YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("replica: reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("replica: parsing config %s: %w", path, err)
	}
	if cfg.Listen == "" {
		cfg.Listen = ":7101"
	}
	if cfg.ShardCount <= 0 {
		return Config{}, fmt.Errorf("replica: shard_count must be positive, got %d", cfg.ShardCount)
	}
	if cfg.Shard < 0 || cfg.Shard >= cfg.ShardCount {
		return Config{}, fmt.Errorf("replica: shard %d out of range [0,%d)", cfg.Shard, cfg.ShardCount)
	}
	return cfg, nil
}

// getenv returns the environment variable's value, or fallback if unset.
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
