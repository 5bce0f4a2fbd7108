package workerpool_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/workerpool"
)

func TestRunAllReturnsPerTaskErrorsInOrder(t *testing.T) {
	p := workerpool.New(2, 4, zap.NewNop())
	defer p.Close()

	ids := []string{"a", "b", "c"}
	fns := []func() error{
		func() error { return nil },
		func() error { return fmt.Errorf("boom") },
		func() error { return nil },
	}

	errs := p.RunAll(ids, fns)
	assert.NoError(t, errs[0])
	assert.EqualError(t, errs[1], "boom")
	assert.NoError(t, errs[2])
}

func TestRunAllCapsConcurrency(t *testing.T) {
	p := workerpool.New(2, 16, zap.NewNop())
	defer p.Close()

	var inFlight, maxInFlight int32
	n := 10
	ids := make([]string, n)
	fns := make([]func() error, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("task-%d", i)
		fns[i] = func() error {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				m := atomic.LoadInt32(&maxInFlight)
				if cur <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, cur) {
					break
				}
			}
			atomic.AddInt32(&inFlight, -1)
			return nil
		}
	}

	p.RunAll(ids, fns)
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(2))
}

func TestRunAllRecoversPanickingTask(t *testing.T) {
	p := workerpool.New(1, 1, zap.NewNop())
	defer p.Close()

	errs := p.RunAll([]string{"panics"}, []func() error{
		func() error { panic("boom") },
	})
	assert.Error(t, errs[0])
}

func TestCloseIsIdempotent(t *testing.T) {
	p := workerpool.New(1, 1, zap.NewNop())
	p.Close()
	p.Close()
}
