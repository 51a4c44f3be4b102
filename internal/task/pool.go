// Package task runs background work for a single-threaded poll loop. A Pool
// executes submitted functions on a fixed set of workers; a Slot bridges one
// logical operation back to the loop, holding at most one in-flight task and
// one undelivered result.
package task

import (
	"context"
	"sync"
)

// Pool is a bounded worker pool. Submissions never block the caller; they
// queue on a buffered channel drained by the workers.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup
}

// NewPool starts workers goroutines draining a queue of queueSize jobs.
func NewPool(workers, queueSize int) *Pool {
	p := &Pool{jobs: make(chan func(), queueSize)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

// Submit queues job for execution. Returns false if the queue is full or the
// pool is shutting down.
func (p *Pool) Submit(job func()) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Shutdown stops accepting jobs and waits for in-flight ones to finish, or
// for ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	close(p.jobs)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
