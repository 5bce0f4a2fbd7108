package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "kvnode.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadAppliesDefaultsForSingleNode(t *testing.T) {
	path := writeConfig(t, ``)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.ModeSingleNode, cfg.Mode)
	assert.Equal(t, "n1", cfg.NodeID)
	assert.Empty(t, cfg.Cluster.NodeIDs)
}

func TestLoadAppliesDefaultNodeIDsForClusterModes(t *testing.T) {
	path := writeConfig(t, "mode: quorum\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1", "n2", "n3"}, cfg.Cluster.NodeIDs)
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	path := writeConfig(t, "mode: bogus\n")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsQuorumSizeAboveNodeCount(t *testing.T) {
	path := writeConfig(t, "mode: quorum\ncluster:\n  node_ids: [n1, n2]\n  quorum_size: 5\n")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	path := writeConfig(t, "mode: primary_secondary\nnode_id: n2\ncluster:\n  node_ids: [n1, n2, n3]\n  quorum_size: 2\nlogging:\n  level: debug\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.ModePrimary, cfg.Mode)
	assert.Equal(t, "n2", cfg.NodeID)
	assert.Equal(t, 2, cfg.Cluster.QuorumSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
