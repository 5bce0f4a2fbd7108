package kvstore

import (
	"fmt"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/walrecord"
)

// applyRecord is the single apply path used both by live writes (after a
// successful WAL append) and by WAL replay at open — I2 depends on both
// paths producing identical in-memory state from the same record stream. It
// must never touch the WAL itself.
func (e *Engine) applyRecord(rec walrecord.Record) error {
	switch rec.Op {
	case walrecord.OpSet:
		e.applySetLocked(rec.Key, rec.Value, rec.Version)
	case walrecord.OpDelete:
		e.applyDeleteLocked(rec.Key, rec.Version)
	case walrecord.OpBulkSet:
		e.applyBulkSetLocked(rec.Items, rec.Version)
	default:
		return fmt.Errorf("apply: unknown op %q", rec.Op)
	}
	return nil
}

// versionAllows implements the quorum-mode last-writer-wins rule: a write at
// version v is applied only if v > current version (or the key is absent).
// Outside quorum mode, version is nil and every write applies.
func (e *Engine) versionAllows(key string, version *int64) bool {
	if version == nil {
		return true
	}
	return *version > e.version[key]
}

func (e *Engine) commitVersion(key string, version *int64) {
	if version != nil {
		e.version[key] = *version
	}
}

// applySetLocked mutates kv/inverted/embeddings/version for a single set.
// Caller must hold e.mu for writing (or be the single-threaded replay path).
func (e *Engine) applySetLocked(key, value string, version *int64) {
	if !e.versionAllows(key, version) {
		return
	}
	e.removeFromInvertedLocked(key)
	e.kv[key] = value
	e.indexValueLocked(key, value)
	e.commitVersion(key, version)
}

// applyDeleteLocked removes key, returning whether it existed. Delete always
// wins under last-writer-wins once its version is accepted — a stale version
// is a no-op, reported as "did not exist" to the caller.
func (e *Engine) applyDeleteLocked(key string, version *int64) bool {
	if !e.versionAllows(key, version) {
		return false
	}
	_, existed := e.kv[key]
	if existed {
		delete(e.kv, key)
		e.removeFromInvertedLocked(key)
		delete(e.embeddings, key)
	}
	e.commitVersion(key, version)
	return existed
}

// applyBulkSetLocked applies items in order under the single lock already
// held by the caller, so the whole batch is atomic with respect to any
// reader. In quorum mode, each key is accepted or skipped individually
// against its local version from before the batch — an accepted key ends at
// its last value in the batch, and the batch still commits either way.
func (e *Engine) applyBulkSetLocked(items []walrecord.Item, version *int64) {
	accepted := make(map[string]bool, len(items))
	for _, it := range items {
		ok, seen := accepted[it.Key]
		if !seen {
			ok = e.versionAllows(it.Key, version)
			accepted[it.Key] = ok
		}
		if ok {
			e.applySetLocked(it.Key, it.Value, nil)
			e.commitVersion(it.Key, version)
		}
	}
}

// removeFromInvertedLocked drops key from every token bucket of its current
// value, keeping the inverted index consistent with kv before the new value
// is indexed.
func (e *Engine) removeFromInvertedLocked(key string) {
	old, ok := e.kv[key]
	if !ok {
		return
	}
	for tok := range tokenSet(old) {
		bucket := e.inverted[tok]
		delete(bucket, key)
		if len(bucket) == 0 {
			delete(e.inverted, tok)
		}
	}
}

// indexValueLocked adds key to the inverted index under every token of value
// and recomputes its embedding.
func (e *Engine) indexValueLocked(key, value string) {
	for tok := range tokenSet(value) {
		bucket := e.inverted[tok]
		if bucket == nil {
			bucket = make(map[string]struct{})
			e.inverted[tok] = bucket
		}
		bucket[key] = struct{}{}
	}
	e.embeddings[key] = embed(value)
}
