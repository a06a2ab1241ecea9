package channel

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultWorkers bounds concurrent handler execution when unset.
const DefaultWorkers = 8

// Pool runs handler work on a bounded set of goroutines.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewPool creates a pool running at most workers tasks at once.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers))}
}

// Go blocks until a worker slot is free, then runs fn on its own goroutine.
// It returns ctx's error if ctx ends first.
func (p *Pool) Go(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		fn()
	}()
	return nil
}

// Wait blocks until every started task has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
