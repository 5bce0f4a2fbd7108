// Package peer defines the capability interface both cluster layers dispatch
// through: apply_set, apply_delete, apply_bulk_set, fetch, and is_alive. The
// only implementation shipped here is an in-process adapter over a local
// engine; a network transport would satisfy the same interface.
package peer

import (
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kvstore"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/walrecord"
)

// Peer is the capability surface a cluster layer dispatches writes/reads
// through. Every method corresponds 1:1 to an Engine operation.
type Peer interface {
	ID() string
	IsAlive() bool
	ApplySet(key, value string, version *int64) error
	ApplyDelete(key string, version *int64) (bool, error)
	ApplyBulkSet(items []walrecord.Item, version *int64) error
	Fetch(key string) (value string, version int64, found bool)
}

// InProcess wraps a local *kvstore.Engine to satisfy Peer via an in-process
// synchronous call. Aliveness is tracked externally (mark_down/mark_up, via
// isAlive) rather than by probing the engine, since the engine itself is
// not stopped when its node is marked down.
type InProcess struct {
	id      string
	engine  *kvstore.Engine
	isAlive func(string) bool
}

// NewInProcess wraps engine as a peer identified by id. isAlive is consulted
// on every IsAlive() call against the enclosing cluster's node table, so a
// single source of truth (nodeset.Set) governs liveness.
func NewInProcess(id string, engine *kvstore.Engine, isAlive func(string) bool) *InProcess {
	return &InProcess{id: id, engine: engine, isAlive: isAlive}
}

func (p *InProcess) ID() string { return p.id }

func (p *InProcess) IsAlive() bool { return p.isAlive(p.id) }

func (p *InProcess) ApplySet(key, value string, version *int64) error {
	return p.engine.Set(key, value, kvstore.SetOpts{Version: version})
}

func (p *InProcess) ApplyDelete(key string, version *int64) (bool, error) {
	return p.engine.Delete(key, kvstore.DeleteOpts{Version: version})
}

func (p *InProcess) ApplyBulkSet(items []walrecord.Item, version *int64) error {
	return p.engine.BulkSet(items, kvstore.BulkSetOpts{Version: version})
}

func (p *InProcess) Fetch(key string) (string, int64, bool) {
	value, found := p.engine.Get(key)
	version := p.engine.Version(key)
	return value, version, found
}

// Engine exposes the wrapped engine directly for callers (the primary
// secondary cluster's read path) that need engine-only operations not on
// the Peer interface, such as SearchFullText/SearchEmbedding.
func (p *InProcess) Engine() *kvstore.Engine { return p.engine }
