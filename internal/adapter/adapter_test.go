package adapter_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/adapter"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kvstore"
)

func openEngine(t *testing.T) *kvstore.Engine {
	path := filepath.Join(t.TempDir(), "engine.wal")
	e, err := kvstore.Open(path, zap.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestHandleSetAndGet(t *testing.T) {
	e := openEngine(t)

	resp := adapter.Handle(e, adapter.Request{Op: adapter.OpSet, Key: "k", Value: "v"})
	require.True(t, resp.OK)

	resp = adapter.Handle(e, adapter.Request{Op: adapter.OpGet, Key: "k"})
	require.True(t, resp.OK)
	assert.Equal(t, "v", resp.Value)
}

func TestHandleGetMissingKey(t *testing.T) {
	e := openEngine(t)

	resp := adapter.Handle(e, adapter.Request{Op: adapter.OpGet, Key: "missing"})
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
}

func TestHandleDeleteReportsExisted(t *testing.T) {
	e := openEngine(t)

	adapter.Handle(e, adapter.Request{Op: adapter.OpSet, Key: "k", Value: "v"})
	resp := adapter.Handle(e, adapter.Request{Op: adapter.OpDelete, Key: "k"})
	require.True(t, resp.OK)
	assert.True(t, resp.Existed)

	resp = adapter.Handle(e, adapter.Request{Op: adapter.OpDelete, Key: "k"})
	require.True(t, resp.OK)
	assert.False(t, resp.Existed)
}

func TestHandleBulkSet(t *testing.T) {
	e := openEngine(t)

	resp := adapter.Handle(e, adapter.Request{
		Op: adapter.OpBulkSet,
		Items: []adapter.WireItem{
			{Key: "a", Value: "1"},
			{Key: "b", Value: "2"},
		},
	})
	require.True(t, resp.OK)

	resp = adapter.Handle(e, adapter.Request{Op: adapter.OpGet, Key: "a"})
	assert.Equal(t, "1", resp.Value)
}

func TestHandleBulkSetRequiresItems(t *testing.T) {
	e := openEngine(t)

	resp := adapter.Handle(e, adapter.Request{Op: adapter.OpBulkSet})
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
}

func TestHandleSearchFullText(t *testing.T) {
	e := openEngine(t)
	adapter.Handle(e, adapter.Request{Op: adapter.OpSet, Key: "doc1", Value: "python programming"})
	adapter.Handle(e, adapter.Request{Op: adapter.OpSet, Key: "doc2", Value: "java tutorial"})

	resp := adapter.Handle(e, adapter.Request{Op: adapter.OpSearchFullText, Query: "python"})
	require.True(t, resp.OK)
	assert.Equal(t, []string{"doc1"}, resp.Keys)
}

func TestHandleSearchEmbedding(t *testing.T) {
	e := openEngine(t)
	adapter.Handle(e, adapter.Request{Op: adapter.OpSet, Key: "doc1", Value: "python programming"})
	adapter.Handle(e, adapter.Request{Op: adapter.OpSet, Key: "doc2", Value: "java tutorial"})

	resp := adapter.Handle(e, adapter.Request{Op: adapter.OpSearchEmbedding, Query: "python", TopK: 1})
	require.True(t, resp.OK)
	require.Len(t, resp.Results, 1)
}

func TestHandleUnknownOpIsProtocolError(t *testing.T) {
	e := openEngine(t)

	resp := adapter.Handle(e, adapter.Request{Op: "not_a_real_op"})
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
}

func TestHandleSetRequiresKey(t *testing.T) {
	e := openEngine(t)

	resp := adapter.Handle(e, adapter.Request{Op: adapter.OpSet, Value: "v"})
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
}
