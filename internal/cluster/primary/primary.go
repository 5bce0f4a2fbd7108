// Package primary implements the primary-secondary cluster (component D):
// deterministic primary selection, synchronous primary write, best-effort
// secondary fan-out, and reads served only from the current primary.
package primary

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/cluster/nodeset"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/cluster/peer"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kverrors"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kvstore"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/metrics"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/walrecord"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/workerpool"
)

// Cluster is a primary-secondary cluster over a fixed, ordered list of node
// IDs. Each node owns an independent engine backed by its own WAL file under
// a shared directory.
type Cluster struct {
	nodes  *nodeset.Set
	peers  map[string]*peer.InProcess
	pool   *workerpool.Pool
	logger *zap.Logger
}

// Open constructs a cluster with one engine per nodeID, each backed by
// "<dir>/<nodeID>.wal".
func Open(dir string, nodeIDs []string, logger *zap.Logger) (*Cluster, error) {
	if len(nodeIDs) == 0 {
		return nil, fmt.Errorf("primary cluster requires at least one node")
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

	return &Cluster{
		nodes:  nodes,
		peers:  peers,
		pool:   workerpool.New(len(nodeIDs), len(nodeIDs)*2, logger),
		logger: logger,
	}, nil
}

// MarkDown flags a node as down; the cluster will not route requests to it.
func (c *Cluster) MarkDown(id string) { c.nodes.MarkDown(id) }

// MarkUp flags a node as alive again.
func (c *Cluster) MarkUp(id string) { c.nodes.MarkUp(id) }

// primary selects the current primary: the first alive node in declaration
// order, re-evaluated on every call — there is no persistent leader state.
func (c *Cluster) primary() (*peer.InProcess, error) {
	id, ok := c.nodes.FirstAlive()
	if !ok {
		return nil, kverrors.NewNoQuorum(1, 0)
	}
	return c.peers[id], nil
}

func (c *Cluster) secondaries(primaryID string) []*peer.InProcess {
	var out []*peer.InProcess
	for _, id := range c.nodes.AliveIDs() {
		if id == primaryID {
			continue
		}
		out = append(out, c.peers[id])
	}
	return out
}

// Set writes key=value to the primary synchronously, then fans out to alive
// secondaries best-effort; secondary failures are logged but never fail the
// call.
func (c *Cluster) Set(key, value string) error {
	p, err := c.primary()
	if err != nil {
		return err
	}
	if err := p.ApplySet(key, value, nil); err != nil {
		return err
	}
	c.replicate(p.ID(), func(q *peer.InProcess) error {
		return q.ApplySet(key, value, nil)
	})
	return nil
}

// Delete deletes key on the primary synchronously, then fans out
// best-effort. Returns whether the key existed on the primary.
func (c *Cluster) Delete(key string) (bool, error) {
	p, err := c.primary()
	if err != nil {
		return false, err
	}
	existed, err := p.ApplyDelete(key, nil)
	if err != nil {
		return false, err
	}
	c.replicate(p.ID(), func(q *peer.InProcess) error {
		_, err := q.ApplyDelete(key, nil)
		return err
	})
	return existed, nil
}

// BulkSet applies items atomically on the primary, then fans out
// best-effort.
func (c *Cluster) BulkSet(items []walrecord.Item) error {
	p, err := c.primary()
	if err != nil {
		return err
	}
	if err := p.ApplyBulkSet(items, nil); err != nil {
		return err
	}
	c.replicate(p.ID(), func(q *peer.InProcess) error {
		return q.ApplyBulkSet(items, nil)
	})
	return nil
}

// Get reads key from the current primary only; the primary's in-memory state
// is authoritative.
func (c *Cluster) Get(key string) (string, bool, error) {
	p, err := c.primary()
	if err != nil {
		return "", false, err
	}
	value, _, found := p.Fetch(key)
	return value, found, nil
}

// Engine exposes the current primary's underlying engine for the search
// operations, which are not part of the Peer interface.
func (c *Cluster) Engine() (*kvstore.Engine, error) {
	p, err := c.primary()
	if err != nil {
		return nil, err
	}
	return p.Engine(), nil
}

// replicate fans mutate out to every alive secondary of the current primary
// through the bounded worker pool, logging (but not failing on) per-peer
// errors. It returns only after every secondary call has finished, so the
// client's write returns after the fan-out completes, whatever its outcome.
func (c *Cluster) replicate(primaryID string, mutate func(*peer.InProcess) error) {
	secondaries := c.secondaries(primaryID)
	if len(secondaries) == 0 {
		return
	}
	ids := make([]string, len(secondaries))
	fns := make([]func() error, len(secondaries))
	for i, s := range secondaries {
		s := s
		ids[i] = s.ID()
		fns[i] = func() error { return mutate(s) }
	}
	errs := c.pool.RunAll(ids, fns)
	for i, err := range errs {
		if err != nil {
			c.logger.Warn("secondary replication failed",
				zap.String("node_id", ids[i]), zap.Error(err))
		}
	}
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
