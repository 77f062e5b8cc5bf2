package workers

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool runs jobs on their own goroutines with at most size of them running at once.
// Submit blocks while the pool is saturated, which back-pressures the caller.
type Pool struct {
	sem      *semaphore.Weighted
	size     int64
	wg       sync.WaitGroup
	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewPool returns a pool allowing size concurrent jobs.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Submit waits for a free slot and starts job on it. It returns ctx.Err()
// without running job if ctx ends first.
func (p *Pool) Submit(ctx context.Context, job func(ctx context.Context)) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	n := p.inFlight.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	p.wg.Add(1)
	go func() {
		defer func() {
			p.inFlight.Add(-1)
			p.sem.Release(1)
			p.wg.Done()
		}()
		job(ctx)
	}()
	return nil
}

// Wait blocks until all submitted jobs are completed.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// InFlight returns the number of jobs currently running.
func (p *Pool) InFlight() int64 {
	return p.inFlight.Load()
}

// Peak returns the highest InFlight value observed.
func (p *Pool) Peak() int64 {
	return p.peak.Load()
}

// Size returns the concurrency limit.
func (p *Pool) Size() int {
	return int(p.size)
}
