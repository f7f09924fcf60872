// Package worker runs bounded concurrent fetches and paces requests per host.
package worker

import (
	"context"
	"sync"
)

// Task is one unit of work run by a Pool
type Task func(ctx context.Context) error

// Outcome is the result of a submitted task
type Outcome struct {
	Name string
	Err  error
}

type job struct {
	index int
	task  Task
}

// Pool runs tasks on a fixed number of goroutines. Every submitted task gets
// an outcome: tasks still queued when the context ends report its error.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	queue  chan job
	wg     sync.WaitGroup

	sendMu sync.RWMutex // guards closed and sends on queue
	closed bool

	mu       sync.Mutex
	outcomes []Outcome
}

// NewPool starts workers goroutines bound to ctx
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan job, workers*2),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.queue {
		err := p.ctx.Err()
		if err == nil {
			err = j.task(p.ctx)
		}
		p.mu.Lock()
		p.outcomes[j.index].Err = err
		p.mu.Unlock()
	}
}

// Submit queues task under name, blocking while the queue is full.
// It reports false once Wait has been called.
func (p *Pool) Submit(name string, task Task) bool {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()
	if p.closed {
		return false
	}

	p.mu.Lock()
	index := len(p.outcomes)
	p.outcomes = append(p.outcomes, Outcome{Name: name})
	p.mu.Unlock()

	p.queue <- job{index: index, task: task}
	return true
}

// Wait stops accepting tasks, waits for the queued ones and returns their
// outcomes in submission order
func (p *Pool) Wait() []Outcome {
	p.sendMu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.sendMu.Unlock()

	p.wg.Wait()
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Outcome, len(p.outcomes))
	copy(out, p.outcomes)
	return out
}
