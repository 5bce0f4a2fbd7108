// Package kvstore implements the single-node storage engine: an in-memory
// map guarded by one lock, backed by a write-ahead log for crash-safe
// durability, plus an inverted full-text index and a fixed-dimension
// bag-of-words embedding kept consistent with the map on every mutation.
package kvstore

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kverrors"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/metrics"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/validation"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/wal"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/walrecord"
)

// Engine is the single-node storage engine. One mutex serializes WAL
// append + fsync + in-memory mutation; readers take the same lock in shared
// mode so a bulk_set is never observed half-applied.
type Engine struct {
	mu sync.RWMutex

	wal     *wal.WAL
	logger  *zap.Logger
	metrics *metrics.Metrics

	kv         map[string]string
	inverted   map[string]map[string]struct{}
	embeddings map[string]Embedding
	version    map[string]int64 // quorum mode only; absent key => version 0
}

// Open opens (or creates) the WAL at path and replays it into a fresh
// in-memory state before returning the engine ready for use.
func Open(path string, logger *zap.Logger, m *metrics.Metrics) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := wal.Open(path, logger, m)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		wal:        w,
		logger:     logger,
		metrics:    m,
		kv:         make(map[string]string),
		inverted:   make(map[string]map[string]struct{}),
		embeddings: make(map[string]Embedding),
		version:    make(map[string]int64),
	}

	if err := w.Replay(e.applyRecord); err != nil {
		w.Close()
		return nil, err
	}
	return e, nil
}

// SetOpts carries the optional parameters of Set.
type SetOpts struct {
	Unreliable bool
	Version    *int64
}

// Set durably writes key=value. opts.Unreliable enables the probabilistic
// fsync skip used to simulate an unreliable durability mode for testing.
func (e *Engine) Set(key, value string, opts SetOpts) error {
	if err := validation.ValidateKey(key); err != nil {
		return err
	}
	if err := validation.ValidateValue(value); err != nil {
		return err
	}

	rec := walrecord.Record{Op: walrecord.OpSet, Key: key, Value: value, Version: opts.Version}
	encoded, err := walrecord.Encode(rec)
	if err != nil {
		return kverrors.NewProtocolError(err.Error())
	}
	if err := validation.ValidateRecordSize(encoded); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.wal.Append(rec, opts.Unreliable); err != nil {
		e.observe("set", err)
		return err
	}
	e.applySetLocked(key, value, opts.Version)
	e.observe("set", nil)
	return nil
}

// Get returns the value for key and whether it was present.
func (e *Engine) Get(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.kv[key]
	e.observe("get", nil)
	return v, ok
}

// DeleteOpts carries the optional parameters of Delete.
type DeleteOpts struct {
	Version *int64
}

// Delete removes key, returning whether it previously existed. A missing key
// is not an error — callers learn that only through this boolean.
func (e *Engine) Delete(key string, opts DeleteOpts) (bool, error) {
	if err := validation.ValidateKey(key); err != nil {
		return false, err
	}

	rec := walrecord.Record{Op: walrecord.OpDelete, Key: key, Version: opts.Version}
	encoded, err := walrecord.Encode(rec)
	if err != nil {
		return false, kverrors.NewProtocolError(err.Error())
	}
	if err := validation.ValidateRecordSize(encoded); err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.wal.Append(rec, false); err != nil {
		e.observe("delete", err)
		return false, err
	}
	existed := e.applyDeleteLocked(key, opts.Version)
	e.observe("delete", nil)
	return existed, nil
}

// BulkSetOpts carries the optional parameters of BulkSet.
type BulkSetOpts struct {
	Version *int64
}

// BulkSet applies items in listed order, later pairs overriding earlier ones
// for the same key, as a single WAL record under the engine lock so no
// observer ever sees a partial application.
func (e *Engine) BulkSet(items []walrecord.Item, opts BulkSetOpts) error {
	for _, it := range items {
		if err := validation.ValidateKey(it.Key); err != nil {
			return err
		}
		if err := validation.ValidateValue(it.Value); err != nil {
			return err
		}
	}

	rec := walrecord.Record{Op: walrecord.OpBulkSet, Items: items, Version: opts.Version}
	encoded, err := walrecord.Encode(rec)
	if err != nil {
		return kverrors.NewProtocolError(err.Error())
	}
	if err := validation.ValidateRecordSize(encoded); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.wal.Append(rec, false); err != nil {
		e.observe("bulk_set", err)
		return err
	}
	e.applyBulkSetLocked(items, opts.Version)
	e.observe("bulk_set", nil)
	return nil
}

// SearchFullText returns the set of keys whose value's token set is a
// superset of query's token set (AND semantics). An empty query returns no
// keys.
func (e *Engine) SearchFullText(query string) map[string]struct{} {
	e.mu.RLock()
	defer e.mu.RUnlock()

	queryTokens := tokenize(query)
	result := make(map[string]struct{})
	if len(queryTokens) == 0 {
		return result
	}

	candidates := e.inverted[queryTokens[0]]
	for k := range candidates {
		result[k] = struct{}{}
	}
	for _, tok := range queryTokens[1:] {
		next := make(map[string]struct{})
		for k := range result {
			if _, ok := e.inverted[tok][k]; ok {
				next[k] = struct{}{}
			}
		}
		result = next
	}
	return result
}

// SearchResult is one hit returned by SearchEmbedding.
type SearchResult struct {
	Key   string
	Score float64
}

// SearchEmbedding returns up to topK keys ranked by cosine similarity to the
// embedding of query, ties broken by key ascending. topK <= 0 yields no
// results.
func (e *Engine) SearchEmbedding(query string, topK int) []SearchResult {
	if topK <= 0 {
		return nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	queryVec := embed(query)
	results := make([]SearchResult, 0, len(e.embeddings))
	for k, vec := range e.embeddings {
		results = append(results, SearchResult{Key: k, Score: cosineSimilarity(queryVec, vec)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Key < results[j].Key
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Version returns the current version assigned to key, for quorum-mode
// callers implementing LWW. It is 0 for a key no versioned write has touched;
// a key removed by a versioned delete keeps that delete's version.
func (e *Engine) Version(key string) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version[key]
}

// Close closes the underlying WAL file.
func (e *Engine) Close() error {
	return e.wal.Close()
}

func (e *Engine) observe(op string, err error) {
	if e.metrics != nil {
		e.metrics.ObserveOp(op, err)
	}
}
