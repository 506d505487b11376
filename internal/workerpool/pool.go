// Package workerpool runs tasks on a bounded set of goroutines fed by a
// bounded queue, rejecting work instead of blocking when both are full.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/coyote/internal/logger"
)

var (
	// ErrRejected is returned by Submit when every worker is busy, the
	// worker count is at its maximum and the queue is full.
	ErrRejected = errors.New("workerpool: task rejected, pool saturated")

	// ErrPoolClosed is returned by Submit after Shutdown.
	ErrPoolClosed = errors.New("workerpool: pool is shut down")
)

// Task is a unit of work. ctx is cancelled when ShutdownNow is called, so
// long-running tasks can abandon their work.
type Task func(ctx context.Context)

// Config sizes the pool.
type Config struct {
	// MinWorkers are kept alive for the life of the pool once started.
	MinWorkers int

	// MaxWorkers caps the number of goroutines. Workers above MinWorkers
	// are only spawned when the queue is full.
	MaxWorkers int

	// QueueSize is the number of tasks that may wait for a worker.
	QueueSize int

	// IdleTimeout retires a worker above MinWorkers after this long
	// without a task.
	IdleTimeout time.Duration
}

func (c *Config) normalize() error {
	if c.MinWorkers < 1 {
		return fmt.Errorf("invalid MinWorkers %d: must be >= 1", c.MinWorkers)
	}
	if c.MaxWorkers < c.MinWorkers {
		return fmt.Errorf("invalid MaxWorkers %d: must be >= MinWorkers (%d)", c.MaxWorkers, c.MinWorkers)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("invalid QueueSize %d: must be >= 0", c.QueueSize)
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	return nil
}

// Pool is a bounded worker pool.
//
// Submission order of preference:
//  1. fewer than MinWorkers running: start a worker for the task
//  2. queue has room: enqueue
//  3. fewer than MaxWorkers running: start a worker for the task
//  4. otherwise: ErrRejected
//
// Workers start lazily, so an idle pool holds no goroutines until the first
// Submit.
//
// Thread safety:
// All methods are safe for concurrent use.
type Pool struct {
	cfg Config

	// mu guards workers, closed and sends on tasks (a send must never race
	// the close in Shutdown)
	mu      sync.Mutex
	workers int
	closed  bool

	tasks chan Task
	wg    sync.WaitGroup

	// ctx is handed to every task and cancelled by ShutdownNow
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a pool. It returns an error when cfg is inconsistent.
func New(cfg Config) (*Pool, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		cfg:    cfg,
		tasks:  make(chan Task, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Submit schedules t. It never blocks.
func (p *Pool) Submit(t Task) error {
	if t == nil {
		return errors.New("workerpool: nil task")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	if p.workers < p.cfg.MinWorkers {
		p.spawnLocked(t)
		return nil
	}

	select {
	case p.tasks <- t:
		return nil
	default:
	}

	if p.workers < p.cfg.MaxWorkers {
		p.spawnLocked(t)
		return nil
	}

	return ErrRejected
}

func (p *Pool) spawnLocked(first Task) {
	p.workers++
	p.wg.Add(1)
	go p.work(first)
}

func (p *Pool) work(first Task) {
	defer p.wg.Done()

	p.run(first)

	idle := time.NewTimer(p.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case t, ok := <-p.tasks:
			if !ok {
				p.retire()
				return
			}
			p.run(t)

		case <-idle.C:
			if p.tryRetireIdle() {
				return
			}
		}

		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(p.cfg.IdleTimeout)
	}
}

// tryRetireIdle removes the calling worker if the pool is above its floor.
func (p *Pool) tryRetireIdle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.workers > p.cfg.MinWorkers {
		p.workers--
		return true
	}
	return false
}

func (p *Pool) retire() {
	p.mu.Lock()
	p.workers--
	p.mu.Unlock()
}

func (p *Pool) run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in worker task: %v", r)
		}
	}()
	t(p.ctx)
}

// Workers returns the number of live worker goroutines.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// Queued returns the number of tasks waiting for a worker.
func (p *Pool) Queued() int {
	return len(p.tasks)
}

// Shutdown stops accepting new tasks. Queued and running tasks still run
// to completion. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.tasks)
}

// ShutdownNow stops accepting tasks and cancels the context handed to
// running and queued tasks. Cancellation is cooperative: a task blocked in
// I/O that ignores ctx keeps its worker until the I/O returns.
func (p *Pool) ShutdownNow() {
	p.Shutdown()
	p.cancel()
}

// AwaitTermination waits up to timeout for every worker to exit after
// Shutdown. It reports whether the pool terminated in time.
func (p *Pool) AwaitTermination(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
