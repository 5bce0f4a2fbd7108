// Package wal implements the write-ahead log: append with fsync, and replay
// with torn-trailing-line recovery. It is deliberately dumb about what a
// record means — internal/kvstore owns the apply logic; wal.WAL only
// guarantees that once Append returns, the record is durably on disk, and
// that Replay hands every well-formed record to the caller in file order.
package wal

import (
	"bufio"
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kverrors"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/metrics"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/walrecord"
)

// unreliableSkipProbability is the chance that a fsync is skipped under the
// unreliable flag. It only ever applies to "set" — bulk_set and delete
// always sync.
const unreliableSkipProbability = 0.01

// WAL owns one append-only file for the lifetime of the process. It is safe
// for concurrent use; the caller (internal/kvstore.Engine) is expected to
// hold its own lock around Append + apply, but WAL does not rely on that —
// Append takes its own mutex so the file handle is never corrupted by
// concurrent writers even if a future caller forgets to serialize.
type WAL struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	logger  *zap.Logger
	metrics *metrics.Metrics
	rng     *rand.Rand
}

// Open opens (creating if absent) the WAL file at path for append.
func Open(path string, logger *zap.Logger, m *metrics.Metrics) (*WAL, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, kverrors.NewIoFailure("open", err)
	}
	if _, err := f.Seek(0, os.SEEK_END); err != nil {
		f.Close()
		return nil, kverrors.NewIoFailure("seek", err)
	}
	return &WAL{
		file:    f,
		path:    path,
		logger:  logger,
		metrics: m,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Append serializes rec, appends it to the file, and fsyncs before
// returning. When unreliable is true and rec.Op is "set", the fsync is
// probabilistically skipped (never for "delete" or "bulk_set") — an
// asymmetric durability-testing hook for simulating flaky disks.
func (w *WAL) Append(rec walrecord.Record, unreliable bool) error {
	line, err := walrecord.Encode(rec)
	if err != nil {
		return kverrors.NewProtocolError(err.Error())
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Write(line); err != nil {
		return kverrors.NewIoFailure("append", err)
	}

	skip := unreliable && rec.Op == walrecord.OpSet && w.rng.Float64() < unreliableSkipProbability
	if skip {
		if w.metrics != nil {
			w.metrics.WalFsyncSkipped.Inc()
		}
		w.logger.Debug("skipped fsync under unreliable flag", zap.String("op", string(rec.Op)))
		return nil
	}

	start := time.Now()
	err = w.file.Sync()
	if w.metrics != nil {
		w.metrics.WalFsyncSeconds.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return kverrors.NewIoFailure("fsync", err)
	}
	return nil
}

// Replay reads the file from the start and invokes apply for every
// well-formed record in order. A torn trailing line (the last line fails to
// parse) is discarded silently and the file is truncated to drop it. A parse
// failure on any earlier line is fatal corruption.
func (w *WAL) Replay(apply func(walrecord.Record) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, os.SEEK_SET); err != nil {
		return kverrors.NewIoFailure("seek", err)
	}

	scanner := bufio.NewScanner(w.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var offset int64
	lineNo := 0
	tornPending := false
	var tornOffset int64
	var tornLineNo int

	for scanner.Scan() {
		raw := scanner.Bytes()
		lineEnd := offset + int64(len(raw)) + 1 // +1 for the newline this Scan consumed
		lineNo++

		// A prior iteration's parse failure is only a tolerated "torn write"
		// if nothing followed it. Since we just scanned another line, that
		// prior failure was not the last line in the file — fatal.
		if tornPending {
			return kverrors.NewCorruptLog(w.path, tornLineNo, "failed to parse non-trailing wal line")
		}

		rec, err := walrecord.Decode(bytes.TrimRight(raw, "\r"))
		if err != nil {
			tornPending = true
			tornOffset = offset
			tornLineNo = lineNo
			offset = lineEnd
			continue
		}

		if applyErr := apply(rec); applyErr != nil {
			return fmt.Errorf("replay line %d: %w", lineNo, applyErr)
		}
		offset = lineEnd
	}
	if err := scanner.Err(); err != nil {
		return kverrors.NewIoFailure("scan", err)
	}

	if tornPending {
		w.logger.Warn("discarding torn trailing wal line", zap.String("path", w.path), zap.Int64("offset", tornOffset))
		if err := w.file.Truncate(tornOffset); err != nil {
			return kverrors.NewIoFailure("truncate", err)
		}
		if _, err := w.file.Seek(0, os.SEEK_END); err != nil {
			return kverrors.NewIoFailure("seek", err)
		}
		return nil
	}

	if _, err := w.file.Seek(0, os.SEEK_END); err != nil {
		return kverrors.NewIoFailure("seek", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Close(); err != nil {
		return kverrors.NewIoFailure("close", err)
	}
	return nil
}
