// Package config loads the YAML-driven node/cluster configuration used by
// cmd/kvnode, following a load-defaults-validate pattern.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode selects which of the three operation surfaces cmd/kvnode wires up.
type Mode string

const (
	ModeSingleNode Mode = "single_node"
	ModePrimary    Mode = "primary_secondary"
	ModeQuorum     Mode = "quorum"
)

// Config is the top-level configuration for a kvnode process.
type Config struct {
	Mode     Mode           `yaml:"mode"`
	NodeID   string         `yaml:"node_id"`
	DataDir  string         `yaml:"data_dir"`
	WalPath  string         `yaml:"wal_path"`
	Cluster  ClusterConfig  `yaml:"cluster"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ClusterConfig configures the primary-secondary or quorum cluster layers.
// NodeIDs is the fixed, ordered node list used for primary selection and
// quorum membership.
type ClusterConfig struct {
	NodeIDs    []string `yaml:"node_ids"`
	QuorumSize int      `yaml:"quorum_size"` // 0 means default floor(N/2)+1
}

// LoggingConfig holds the logging settings. Level is loaded and defaulted to
// "info"; cmd/kvnode does not read it and always logs at info level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads and validates configuration from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	setDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModeSingleNode
	}
	if cfg.NodeID == "" {
		cfg.NodeID = "n1"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.WalPath == "" {
		cfg.WalPath = cfg.DataDir + "/kv.wal"
	}
	if len(cfg.Cluster.NodeIDs) == 0 && cfg.Mode != ModeSingleNode {
		cfg.Cluster.NodeIDs = []string{"n1", "n2", "n3"}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks structural invariants of the configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSingleNode, ModePrimary, ModeQuorum:
	default:
		return fmt.Errorf("mode must be one of single_node, primary_secondary, quorum")
	}
	if c.Mode != ModeSingleNode && len(c.Cluster.NodeIDs) == 0 {
		return fmt.Errorf("cluster.node_ids is required in %s mode", c.Mode)
	}
	if c.Cluster.QuorumSize < 0 || c.Cluster.QuorumSize > len(c.Cluster.NodeIDs) {
		return fmt.Errorf("cluster.quorum_size must be between 0 and len(node_ids)")
	}
	return nil
}
