// Package quorum implements the masterless quorum cluster (component E):
// versioned dispatch to every alive node, quorum-counted acknowledgment, and
// quorum reads with last-writer-wins resolution across the first Q
// responses.
package quorum

import (
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/cluster/nodeset"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/cluster/peer"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kverrors"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kvstore"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/metrics"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/walrecord"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/workerpool"
)

// Quorum returns floor(total/2)+1, the number of nodes required for a
// majority.
func Quorum(total int) int {
	return (total / 2) + 1
}

// Cluster is a masterless quorum cluster over a fixed, ordered list of node
// IDs. Each node owns an independent engine; N is the node count and Q is
// the majority quorum (overridable for testing a non-default size).
type Cluster struct {
	nodes  *nodeset.Set
	peers  map[string]*peer.InProcess
	pool   *workerpool.Pool
	clock  VersionClock
	q      int
	logger *zap.Logger
	m      *metrics.Metrics
}

// Open constructs a cluster with one engine per nodeID, each backed by
// "<dir>/<nodeID>.wal". The quorum size defaults to floor(N/2)+1; pass a
// positive quorumOverride to require a different (still <= N) majority size.
func Open(dir string, nodeIDs []string, quorumOverride int, logger *zap.Logger) (*Cluster, error) {
	if len(nodeIDs) == 0 {
		return nil, fmt.Errorf("quorum cluster requires at least one node")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	nodes := nodeset.New(nodeIDs)
	peers := make(map[string]*peer.InProcess, len(nodeIDs))
	for _, id := range nodeIDs {
		walPath := filepath.Join(dir, id+".wal")
		eng, err := kvstore.Open(walPath, logger.With(zap.String("node_id", id)), metrics.New(id))
		if err != nil {
			return nil, fmt.Errorf("open engine for node %s: %w", id, err)
		}
		peers[id] = peer.NewInProcess(id, eng, nodes.IsAlive)
	}

	q := Quorum(len(nodeIDs))
	if quorumOverride > 0 {
		q = quorumOverride
	}

	return &Cluster{
		nodes:  nodes,
		peers:  peers,
		pool:   workerpool.New(len(nodeIDs), len(nodeIDs)*2, logger),
		q:      q,
		logger: logger,
		m:      metrics.New("quorum-cluster"),
	}, nil
}

// MarkDown flags a node as down.
func (c *Cluster) MarkDown(id string) { c.nodes.MarkDown(id) }

// MarkUp flags a node as alive again.
func (c *Cluster) MarkUp(id string) { c.nodes.MarkUp(id) }

func (c *Cluster) aliveIDs() []string { return c.nodes.AliveIDs() }

// dispatch runs fn concurrently against every alive node and returns the
// count of nil (successful) results.
func (c *Cluster) dispatch(fn func(*peer.InProcess) error) int {
	ids := c.aliveIDs()
	fns := make([]func() error, len(ids))
	for i, id := range ids {
		p := c.peers[id]
		fns[i] = func() error { return fn(p) }
	}
	errs := c.pool.RunAll(ids, fns)
	ok := 0
	for i, err := range errs {
		if err != nil {
			c.logger.Warn("quorum peer dispatch failed", zap.String("node_id", ids[i]), zap.Error(err))
			continue
		}
		ok++
	}
	return ok
}

// Set assigns a new version, dispatches the write to every alive node
// concurrently, and succeeds if at least Q nodes acknowledge.
func (c *Cluster) Set(key, value string) (version int64, err error) {
	if c.nodes.AliveCount() < c.q {
		c.m.QuorumWritesTotal.WithLabelValues("no_quorum").Inc()
		return 0, kverrors.NewNoQuorum(c.q, c.nodes.AliveCount())
	}
	v := c.clock.Next()
	acks := c.dispatch(func(p *peer.InProcess) error {
		return p.ApplySet(key, value, &v)
	})
	if acks < c.q {
		c.m.QuorumWritesTotal.WithLabelValues("no_quorum").Inc()
		return v, kverrors.NewNoQuorum(c.q, acks)
	}
	c.m.QuorumWritesTotal.WithLabelValues("ok").Inc()
	return v, nil
}

// Delete assigns a new version, dispatches the delete to every alive node,
// and succeeds if at least Q nodes acknowledge. existed is true if the key
// existed on at least one acking node before the delete.
func (c *Cluster) Delete(key string) (existed bool, version int64, err error) {
	if c.nodes.AliveCount() < c.q {
		c.m.QuorumWritesTotal.WithLabelValues("no_quorum").Inc()
		return false, 0, kverrors.NewNoQuorum(c.q, c.nodes.AliveCount())
	}
	v := c.clock.Next()

	var mu sync.Mutex
	var anyExisted bool
	acks := c.dispatch(func(p *peer.InProcess) error {
		deleted, err := p.ApplyDelete(key, &v)
		if err != nil {
			return err
		}
		mu.Lock()
		anyExisted = anyExisted || deleted
		mu.Unlock()
		return nil
	})
	if acks < c.q {
		c.m.QuorumWritesTotal.WithLabelValues("no_quorum").Inc()
		return false, v, kverrors.NewNoQuorum(c.q, acks)
	}
	c.m.QuorumWritesTotal.WithLabelValues("ok").Inc()
	return anyExisted, v, nil
}

// BulkSet assigns one version shared by the whole batch; each node applies
// the batch atomically under its own engine lock, accepting items
// individually under per-key LWW.
func (c *Cluster) BulkSet(items []walrecord.Item) (version int64, err error) {
	if c.nodes.AliveCount() < c.q {
		c.m.QuorumWritesTotal.WithLabelValues("no_quorum").Inc()
		return 0, kverrors.NewNoQuorum(c.q, c.nodes.AliveCount())
	}
	v := c.clock.Next()
	acks := c.dispatch(func(p *peer.InProcess) error {
		return p.ApplyBulkSet(items, &v)
	})
	if acks < c.q {
		c.m.QuorumWritesTotal.WithLabelValues("no_quorum").Inc()
		return v, kverrors.NewNoQuorum(c.q, acks)
	}
	c.m.QuorumWritesTotal.WithLabelValues("ok").Inc()
	return v, nil
}

// reading captures one node's response to a Get fan-out.
type reading struct {
	value   string
	version int64
	found   bool
}

// Get queries every alive node concurrently, takes the first Q responses to
// arrive, and returns the value and existence of the highest version among
// them. A node without the key reports value "" at the version it last
// recorded for the key: 0 if never written, the delete's version if deleted.
func (c *Cluster) Get(key string) (string, bool, error) {
	if c.nodes.AliveCount() < c.q {
		c.m.QuorumReadsTotal.WithLabelValues("no_quorum").Inc()
		return "", false, kverrors.NewNoQuorum(c.q, c.nodes.AliveCount())
	}

	ids := c.aliveIDs()
	type result struct {
		r   reading
		err error
	}
	ch := make(chan result, len(ids))
	for _, id := range ids {
		p := c.peers[id]
		go func() {
			value, version, found := p.Fetch(key)
			ch <- result{r: reading{value: value, version: version, found: found}}
		}()
	}

	responded := 0
	best := reading{}
	haveBest := false
	for responded < c.q && responded < len(ids) {
		res := <-ch
		responded++
		if res.err != nil {
			continue
		}
		if !haveBest || res.r.version > best.version {
			best = res.r
			haveBest = true
		}
	}
	if responded < c.q {
		c.m.QuorumReadsTotal.WithLabelValues("no_quorum").Inc()
		return "", false, kverrors.NewNoQuorum(c.q, responded)
	}
	c.m.QuorumReadsTotal.WithLabelValues("ok").Inc()
	return best.value, best.found, nil
}

// Engine exposes an arbitrary alive node's underlying engine, for the search
// operations that are not part of the Peer interface. Each node replicates
// its own copy of the full-text/embedding indices independently, so a search
// against one node's engine is best-effort and not quorum-consistent the way
// Get/Set are.
func (c *Cluster) Engine() (*kvstore.Engine, error) {
	id, ok := c.nodes.FirstAlive()
	if !ok {
		return nil, kverrors.NewNoQuorum(1, 0)
	}
	return c.peers[id].Engine(), nil
}

// Close closes every node's engine and stops the fan-out pool.
func (c *Cluster) Close() error {
	c.pool.Close()
	var firstErr error
	for _, p := range c.peers {
		if err := p.Engine().Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
