package quorum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/cluster/quorum"
)

func TestQuorumSize(t *testing.T) {
	assert.Equal(t, 1, quorum.Quorum(1))
	assert.Equal(t, 2, quorum.Quorum(2))
	assert.Equal(t, 2, quorum.Quorum(3))
	assert.Equal(t, 3, quorum.Quorum(4))
	assert.Equal(t, 3, quorum.Quorum(5))
}

func openCluster(t *testing.T, nodeIDs ...string) *quorum.Cluster {
	dir := t.TempDir()
	c, err := quorum.Open(dir, nodeIDs, 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSetAndGetRoundTrip(t *testing.T) {
	c := openCluster(t, "n1", "n2", "n3")

	_, err := c.Set("k", "v")
	require.NoError(t, err)

	value, found, err := c.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
}

func TestSurvivesMinorityFailure(t *testing.T) {
	c := openCluster(t, "n1", "n2", "n3")

	c.MarkDown("n1")
	_, err := c.Set("k", "v")
	require.NoError(t, err)

	value, found, err := c.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
}

func TestLosingQuorumFailsWrites(t *testing.T) {
	c := openCluster(t, "n1", "n2", "n3")

	c.MarkDown("n1")
	c.MarkDown("n2")

	_, err := c.Set("k", "v")
	assert.Error(t, err)

	_, _, err = c.Get("k")
	assert.Error(t, err)
}

func TestHigherVersionWinsOnSuccessiveWrites(t *testing.T) {
	c := openCluster(t, "n1", "n2", "n3")

	v1, err := c.Set("k", "first")
	require.NoError(t, err)
	v2, err := c.Set("k", "second")
	require.NoError(t, err)
	assert.Greater(t, v2, v1)

	value, found, err := c.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", value)
}

func TestDeleteAdvancesVersion(t *testing.T) {
	c := openCluster(t, "n1", "n2", "n3")

	vSet, err := c.Set("k", "v")
	require.NoError(t, err)

	existed, vDel, err := c.Delete("k")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Greater(t, vDel, vSet)

	existed, vDel2, err := c.Delete("k")
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Greater(t, vDel2, vDel)

	value, found, err := c.Get("k")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "", value)
}

func TestQuorumOverride(t *testing.T) {
	dir := t.TempDir()
	c, err := quorum.Open(dir, []string{"n1", "n2", "n3"}, 3, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	c.MarkDown("n1")
	_, err = c.Set("k", "v")
	assert.Error(t, err)
}
