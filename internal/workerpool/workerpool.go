// Package workerpool fans independent jobs out to a fixed number of
// goroutines and collects their results.
package workerpool

import (
	"context"
	"runtime"
	"sync"
)

// Pool runs workerFn over submitted jobs on a fixed set of workers.
type Pool[Job any, Result any] struct {
	numWorkers int
	jobs       chan Job
	results    chan Result
	wg         sync.WaitGroup
}

// New creates a pool. If numWorkers is 0 or negative it defaults to
// runtime.NumCPU(); if numJobs is positive and smaller, the pool is sized to
// match numJobs.
func New[Job any, Result any](numWorkers, numJobs int) *Pool[Job, Result] {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numJobs > 0 {
		numWorkers = min(numWorkers, numJobs)
	}

	return &Pool[Job, Result]{
		numWorkers: numWorkers,
		jobs:       make(chan Job, max(numJobs, 0)),
		results:    make(chan Result, max(numJobs, 0)),
	}
}

// Workers reports the number of workers the pool starts.
func (p *Pool[Job, Result]) Workers() int {
	return p.numWorkers
}

// Start launches the workers. Jobs still queued once ctx is done are
// drained without being run.
func (p *Pool[Job, Result]) Start(ctx context.Context, workerFn func(context.Context, Job) Result) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				if ctx.Err() != nil {
					continue
				}
				p.results <- workerFn(ctx, job)
			}
		}()
	}
}

// Submit queues a job, blocking while the queue is full. It returns
// ctx.Err() if ctx is done first.
func (p *Pool[Job, Result]) Submit(ctx context.Context, job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the job channel. The results channel is closed once every
// worker has returned.
func (p *Pool[Job, Result]) Close() {
	close(p.jobs)
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Results returns the channel of worker outputs.
func (p *Pool[Job, Result]) Results() <-chan Result {
	return p.results
}
