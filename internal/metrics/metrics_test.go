package metrics_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/metrics"
)

func TestMultipleInstancesDoNotCollideOnRegistration(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.NotPanics(t, func() {
			metrics.New(fmt.Sprintf("node-%d", i))
		})
	}
}

func TestObserveOpIncrementsCounter(t *testing.T) {
	m := metrics.New("n1")
	m.ObserveOp("set", nil)
	m.ObserveOp("set", fmt.Errorf("boom"))

	expected := strings.NewReader(`
# HELP kvstore_engine_ops_total Total number of storage engine operations by op and result.
# TYPE kvstore_engine_ops_total counter
kvstore_engine_ops_total{node_id="n1",op="set",result="error"} 1
kvstore_engine_ops_total{node_id="n1",op="set",result="ok"} 1
`)
	require.NoError(t, testutil.GatherAndCompare(m.Registry, expected, "kvstore_engine_ops_total"))
}

func TestObserveOpOnNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() { m.ObserveOp("get", nil) })
}
