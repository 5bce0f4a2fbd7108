// Package metrics exposes the Prometheus counters and histograms recorded
// around engine operations, WAL fsyncs, and quorum outcomes. Recording is
// fire-and-forget: a metrics call never returns an error and never gates
// correctness.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters/histograms for one engine or cluster instance.
// Each instance owns its own prometheus.Registry so that constructing many
// engines in tests never collides on global registration.
type Metrics struct {
	Registry *prometheus.Registry

	EngineOpsTotal    *prometheus.CounterVec
	WalFsyncSeconds   prometheus.Histogram
	WalFsyncSkipped   prometheus.Counter
	QuorumWritesTotal *prometheus.CounterVec
	QuorumReadsTotal  *prometheus.CounterVec
}

// New creates and registers a fresh metric set labeled by nodeID.
func New(nodeID string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{"node_id": nodeID}

	return &Metrics{
		Registry: reg,
		EngineOpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "kvstore",
			Subsystem:   "engine",
			Name:        "ops_total",
			Help:        "Total number of storage engine operations by op and result.",
			ConstLabels: labels,
		}, []string{"op", "result"}),
		WalFsyncSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "kvstore",
			Subsystem:   "wal",
			Name:        "fsync_seconds",
			Help:        "Latency of WAL fsync calls.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		WalFsyncSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "kvstore",
			Subsystem:   "wal",
			Name:        "fsync_skipped_total",
			Help:        "Number of fsyncs probabilistically skipped under the unreliable flag.",
			ConstLabels: labels,
		}),
		QuorumWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "kvstore",
			Subsystem:   "quorum",
			Name:        "writes_total",
			Help:        "Total quorum cluster writes by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		QuorumReadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "kvstore",
			Subsystem:   "quorum",
			Name:        "reads_total",
			Help:        "Total quorum cluster reads by result.",
			ConstLabels: labels,
		}, []string{"result"}),
	}
}

// ObserveOp records the outcome of a single engine operation.
func (m *Metrics) ObserveOp(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EngineOpsTotal.WithLabelValues(op, result).Inc()
}
