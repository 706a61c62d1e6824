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

// Pool runs jobs on a fixed number of workers. Results are collected
// internally, so Submit never waits on a reader.
type Pool struct {
	workers    int
	jobQueue   chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	// queueMu guards closing jobQueue against concurrent sends.
	queueMu sync.RWMutex
	closed  bool

	mu       sync.Mutex
	results  []Result
	onResult func(Result)
}

// NewPool creates a pool whose jobs run under a context derived from ctx.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan Job, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// OnResult registers fn to be called after each job. Calls are serialized.
// Register before Start.
func (p *Pool) OnResult(fn func(Result)) {
	p.onResult = fn
}

// Start starts the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.collect(job.Execute(p.ctx))
		}
	}
}

func (p *Pool) collect(result Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.results = append(p.results, result)
	if p.onResult != nil {
		p.onResult(result)
	}
}

// Submit queues a job. It returns false once the pool is cancelled, waited
// on or shut down.
func (p *Pool) Submit(job Job) bool {
	p.queueMu.RLock()
	defer p.queueMu.RUnlock()

	if p.closed || p.ctx.Err() != nil {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- job:
		return true
	}
}

// Wait closes the queue, waits for running jobs and returns all results in
// completion order.
func (p *Pool) Wait() []Result {
	p.closeQueue()
	p.wg.Wait()
	p.cancelFunc()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.results
}

// Shutdown cancels outstanding work and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeQueue()
}

func (p *Pool) closeQueue() {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.jobQueue)
	}
}
