// Package worker provides the concurrency primitives shared by the pipeline:
// a bounded pool for per-segment step generation and knowledge fetching, a
// per-host rate limiter, and a batch runner for multi-transcript jobs.
package worker

import (
	"context"
	"sync"
)

// Job is one unit of work submitted to a Pool.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one job. Jobs that record failures as data rather
// than errors return nil from GetError.
type Result interface {
	GetError() error
}

// Pool runs submitted jobs on a fixed number of goroutines. Usage is
// single-shot: Start, Submit every job, then Wait exactly once to collect
// the results. Results are drained continuously by a collector goroutine,
// so callers may submit any number of jobs before calling Wait without
// filling the channel buffers. Completion order is not input order; jobs
// that need ordering carry their own index.
type Pool struct {
	workers     int
	jobs        chan Job
	results     chan Result
	collected   []Result
	collectDone chan struct{}
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	closeOnce   sync.Once
}

// NewPool creates a pool with the given number of workers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		workers:     workers,
		jobs:        make(chan Job, workers*2),
		results:     make(chan Result, workers*2),
		collectDone: make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	go p.collect()

	return p
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

// collect drains results as workers produce them, keeping workers from
// blocking on the results channel while submissions are still in flight.
func (p *Pool) collect() {
	for result := range p.results {
		p.collected = append(p.collected, result)
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
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues one job. Submissions after Shutdown are dropped.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobs <- job:
	}
}

// Wait closes the queue, waits for every submitted job to finish, and
// returns all results.
func (p *Pool) Wait() []Result {
	close(p.jobs)

	p.wg.Wait()
	p.closeResults()
	<-p.collectDone

	return p.collected
}

// Shutdown cancels in-flight jobs and stops the workers without draining
// the queue.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
