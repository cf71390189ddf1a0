package taskfiber

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML-loadable configuration for a pool. Handlers
// and metrics are code, not config; this covers the knobs an operator
// tunes per deployment.
type FileConfig struct {
	// PoolID names the pool in logs and metric labels.
	PoolID string `yaml:"pool_id"`

	// Workers is the fixed worker count.
	Workers int `yaml:"workers"`

	// HistoryCapacity bounds the finished-task ring buffer.
	HistoryCapacity int `yaml:"history_capacity"`

	// MetricsNamespace is the Prometheus namespace for exporters.
	MetricsNamespace string `yaml:"metrics_namespace"`
}

// DefaultFileConfig returns sensible defaults.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		PoolID:           "pool",
		Workers:          4,
		HistoryCapacity:  100,
		MetricsNamespace: "taskfiber",
	}
}

// LoadConfigFile reads a FileConfig from a YAML file, filling absent
// fields with defaults.
func LoadConfigFile(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

// NewPoolFromConfig builds a pool from a FileConfig.
func NewPoolFromConfig(cfg FileConfig) *Pool {
	sc := DefaultSchedulerConfig()
	sc.HistoryCapacity = cfg.HistoryCapacity
	return NewPoolWithConfig(cfg.PoolID, cfg.Workers, sc)
}
