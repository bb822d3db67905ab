// Package worker runs generation jobs concurrently and throttles calls to
// the generation service.
package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type queued struct {
	index int
	job   Job
}

type completed struct {
	index  int
	result Result
}

// Pool manages a pool of workers that execute jobs concurrently.
// Wait returns results in submission order.
type Pool struct {
	workers    int
	jobQueue   chan queued
	results    chan completed
	submitted  int
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once

	// collected is filled by the collector goroutine until results closes
	collected   []completed
	collectDone chan struct{}
}

// NewPool creates a new worker pool with the specified number of workers.
// Jobs run under ctx; cancelling it stops the pool.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	p := &Pool{
		workers:     workers,
		jobQueue:    make(chan queued, workers*2), // Buffered to prevent blocking
		results:     make(chan completed, workers*2),
		ctx:         ctx,
		cancelFunc:  cancel,
		collectDone: make(chan struct{}),
	}
	// Drain results while jobs are still being submitted
	go p.collect()
	return p
}

func (p *Pool) collect() {
	defer close(p.collectDone)
	for c := range p.results {
		p.collected = append(p.collected, c)
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker is the worker goroutine that processes jobs
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case q, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := q.job.Execute(p.ctx)
			select {
			case p.results <- completed{index: q.index, result: result}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit submits a job to the pool for execution. It must not be called
// concurrently with itself or after Wait.
func (p *Pool) Submit(job Job) {
	if p.ctx.Err() != nil {
		return
	}
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- queued{index: p.submitted, job: job}:
		p.submitted++
	}
}

// Wait waits for all jobs to complete and returns the results in the
// order the jobs were submitted. Jobs that never ran because the pool's
// context ended have a nil result.
func (p *Pool) Wait() []Result {
	// Close job queue to signal workers to exit when done
	close(p.jobQueue)

	p.wg.Wait()
	p.closeResults()
	<-p.collectDone

	results := make([]Result, p.submitted)
	for _, c := range p.collected {
		results[c.index] = c.result
	}
	p.cancelFunc()
	return results
}

// Shutdown shuts down the worker pool immediately
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
