// Package workerpool provides a small bounded goroutine pool used by the
// cluster layers to fan a write out to secondaries/peers without spawning an
// unbounded number of goroutines per request.
package workerpool

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// job is an internal task wrapper carrying its own completion signal so
// RunAll can block on exactly the work it submitted.
type job struct {
	id   string
	fn   func() error
	done func(error)
}

// Pool runs submitted jobs on a bounded set of worker goroutines.
type Pool struct {
	logger  *zap.Logger
	jobs    chan job
	wg      sync.WaitGroup
	closed  bool
	closeMu sync.Mutex
}

// New starts a pool with maxWorkers goroutines draining a bounded queue.
func New(maxWorkers, queueSize int, logger *zap.Logger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = maxWorkers * 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		logger: logger,
		jobs:   make(chan job, queueSize),
	}
	for i := 0; i < maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		err := p.safeExecute(j)
		j.done(err)
	}
}

func (p *Pool) safeExecute(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", j.id, r)
		}
	}()
	return j.fn()
}

// RunAll submits every task through the bounded pool and blocks until all
// have run, returning each task's error in the same order as tasks. The
// cluster layers use this to collect per-peer outcomes for quorum counting
// without spawning one goroutine per peer directly.
func (p *Pool) RunAll(ids []string, fns []func() error) []error {
	results := make([]error, len(fns))
	var wg sync.WaitGroup
	for i := range fns {
		wg.Add(1)
		idx := i
		p.jobs <- job{
			id: ids[idx],
			fn: fns[idx],
			done: func(err error) {
				results[idx] = err
				wg.Done()
			},
		}
	}
	wg.Wait()
	return results
}

// Close stops accepting new jobs and waits for workers to drain.
func (p *Pool) Close() {
	p.closeMu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.closeMu.Unlock()
	p.wg.Wait()
}
