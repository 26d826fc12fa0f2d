// Package worker provides the concurrency plumbing for batch ingestion:
// a bounded job pool and a per-host rate limiter.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work executed by the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one job
type Result interface {
	GetError() error
}

// Pool executes jobs across a fixed number of workers. Submit all jobs,
// then call Wait to collect results; Shutdown aborts outstanding work.
// Results are collected concurrently with submission, so Submit never
// blocks on a full results buffer no matter how many jobs are queued.
type Pool struct {
	workers     int
	jobs        chan Job
	results     chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	closeOnce   sync.Once
	collected   []Result
	collectDone chan struct{}
}

// NewPool creates a pool with the given number of workers (minimum 1)
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:     workers,
		jobs:        make(chan Job, workers*2),
		results:     make(chan Result, workers*2),
		ctx:         ctx,
		cancel:      cancel,
		collectDone: make(chan struct{}),
	}
}

// Start launches the workers and the result collector
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	go p.collect()
}

// collect drains results as workers produce them; only Wait and Shutdown
// read collected, and only after collectDone is closed
func (p *Pool) collect() {
	for r := range p.results {
		p.collected = append(p.collected, r)
	}
	close(p.collectDone)
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			select {
			case p.results <- job.Execute(p.ctx):
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job; it is dropped if the pool has been shut down
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

// Wait closes the queue, waits for workers to drain it, and returns all
// collected results
func (p *Pool) Wait() []Result {
	close(p.jobs)
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone
	return p.collected
}

// Shutdown aborts outstanding work immediately
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() { close(p.results) })
}
