package adapter

import (
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/cluster/primary"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/cluster/quorum"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kvstore"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/walrecord"
)

// PrimaryCluster adapts *primary.Cluster to the Engine interface so the
// primary-secondary cluster can be driven through Handle the same way a
// single-node engine is. Version and Unreliable opts don't apply to a
// cluster write — the cluster assigns its own replication semantics — so
// they're accepted and ignored.
type PrimaryCluster struct {
	c *primary.Cluster
}

// NewPrimaryCluster wraps c as an Engine.
func NewPrimaryCluster(c *primary.Cluster) *PrimaryCluster {
	return &PrimaryCluster{c: c}
}

func (p *PrimaryCluster) Set(key, value string, _ kvstore.SetOpts) error {
	return p.c.Set(key, value)
}

func (p *PrimaryCluster) Get(key string) (string, bool) {
	value, found, err := p.c.Get(key)
	if err != nil {
		return "", false
	}
	return value, found
}

func (p *PrimaryCluster) Delete(key string, _ kvstore.DeleteOpts) (bool, error) {
	return p.c.Delete(key)
}

func (p *PrimaryCluster) BulkSet(items []walrecord.Item, _ kvstore.BulkSetOpts) error {
	return p.c.BulkSet(items)
}

func (p *PrimaryCluster) SearchFullText(query string) map[string]struct{} {
	eng, err := p.c.Engine()
	if err != nil {
		return map[string]struct{}{}
	}
	return eng.SearchFullText(query)
}

func (p *PrimaryCluster) SearchEmbedding(query string, topK int) []kvstore.SearchResult {
	eng, err := p.c.Engine()
	if err != nil {
		return nil
	}
	return eng.SearchEmbedding(query, topK)
}

// QuorumCluster adapts *quorum.Cluster to the Engine interface the same way
// PrimaryCluster adapts the primary-secondary cluster. Search operations are
// served from an arbitrary alive node's engine — see quorum.Cluster.Engine.
type QuorumCluster struct {
	c *quorum.Cluster
}

// NewQuorumCluster wraps c as an Engine.
func NewQuorumCluster(c *quorum.Cluster) *QuorumCluster {
	return &QuorumCluster{c: c}
}

func (q *QuorumCluster) Set(key, value string, _ kvstore.SetOpts) error {
	_, err := q.c.Set(key, value)
	return err
}

func (q *QuorumCluster) Get(key string) (string, bool) {
	value, found, err := q.c.Get(key)
	if err != nil {
		return "", false
	}
	return value, found
}

func (q *QuorumCluster) Delete(key string, _ kvstore.DeleteOpts) (bool, error) {
	existed, _, err := q.c.Delete(key)
	return existed, err
}

func (q *QuorumCluster) BulkSet(items []walrecord.Item, _ kvstore.BulkSetOpts) error {
	_, err := q.c.BulkSet(items)
	return err
}

func (q *QuorumCluster) SearchFullText(query string) map[string]struct{} {
	eng, err := q.c.Engine()
	if err != nil {
		return map[string]struct{}{}
	}
	return eng.SearchFullText(query)
}

func (q *QuorumCluster) SearchEmbedding(query string, topK int) []kvstore.SearchResult {
	eng, err := q.c.Engine()
	if err != nil {
		return nil
	}
	return eng.SearchEmbedding(query, topK)
}
