// Package workerpool provides a bounded goroutine pool with backpressure.
//
// A Pool limits how many tasks run at once. Submit never blocks and reports
// ErrPoolFull under load; SubmitCtx waits for room. With WithQueueSize(0)
// the hand-off is unbuffered, so SubmitCtx returns only once an idle worker
// has taken the task. The queue package relies on that to pop a job only
// when a slot is free:
//
//	pool := workerpool.New(5, workerpool.WithQueueSize(0))
//	defer pool.Shutdown()
//
//	for ctx.Err() == nil {
//	    if err := pool.SubmitCtx(ctx, pollOnce); err != nil {
//	        break
//	    }
//	}
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrPoolFull is returned by Submit when every worker is busy and the task
// buffer is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Option customises a Pool.
type Option func(*options)

type options struct {
	queueSize int
	onPanic   func(recovered any)
}

// WithQueueSize sets the task buffer. The default is twice the worker count;
// zero makes every submission a direct hand-off to an idle worker.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.queueSize = n
		}
	}
}

// WithPanicHandler is called with the recovered value when a task panics.
func WithPanicHandler(fn func(recovered any)) Option {
	return func(o *options) { o.onPanic = fn }
}

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	closeCh chan struct{}
	onPanic func(any)
	busy    atomic.Int64
	size    int
}

// New creates a Pool with size workers. size below 1 is treated as 1.
func New(size int, opts ...Option) *Pool {
	if size <= 0 {
		size = 1
	}

	o := options{queueSize: size * 2}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool{
		tasks:   make(chan func(), o.queueSize),
		closeCh: make(chan struct{}),
		onPanic: o.onPanic,
		size:    size,
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Busy returns how many workers are executing a task right now.
func (p *Pool) Busy() int { return int(p.busy.Load()) }

// Submit hands task to the pool without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until the task is accepted or the pool is closed.
func (p *Pool) SubmitWait(task func()) error {
	return p.SubmitCtx(context.Background(), task)
}

// SubmitCtx blocks until the task is accepted, ctx is done, or the pool is
// closed.
func (p *Pool) SubmitCtx(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closeCh:
		return ErrPoolClosed
	case p.tasks <- task:
		return nil
	}
}

// Shutdown stops accepting tasks, waits for queued and in-flight tasks to
// finish, and releases the workers. Safe to call multiple times.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.closeCh)
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task func()) {
	p.busy.Add(1)
	defer p.busy.Add(-1)
	defer func() {
		if r := recover(); r != nil && p.onPanic != nil {
			p.onPanic(r)
		}
	}()
	task()
}
