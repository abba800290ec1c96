package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	ErrQueueFull   = errors.New("invocation queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// Observer is notified on every invocation state change. It is called from
// worker goroutines and must not block.
type Observer func(inv *Invocation)

// Pool runs invocations concurrently and limits database load.
// It implements a worker pool pattern with a separate semaphore for database
// sessions, so queue depth, worker count and session count are tuned apart.
type Pool struct {
	// queue buffers incoming invocations before workers pick them up.
	queue   chan *Invocation
	workers int
	// dbSem restricts the number of concurrently open database sessions.
	dbSem *semaphore.Weighted
	wg    sync.WaitGroup
	quit  chan struct{}

	// base is the context every task runs on.
	base     context.Context
	logger   *slog.Logger
	observer Observer

	mu      sync.RWMutex
	stopped bool
}

// NewPool initializes a worker pool with the specified configuration.
// It does not start the workers; call Start() to begin processing.
func NewPool(workers, queueSize int, maxDBConcurrency int64, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pool{
		queue:   make(chan *Invocation, queueSize),
		workers: workers,
		dbSem:   semaphore.NewWeighted(maxDBConcurrency),
		quit:    make(chan struct{}),
		base:    context.Background(),
		logger:  logger,
	}
}

// SetObserver installs fn as the state-change observer. Call before Start.
func (p *Pool) SetObserver(fn Observer) {
	p.observer = fn
}

func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}
	p.logger.Info("Worker pool started", "workers", p.workers, "queue_size", cap(p.queue))
}

// Submit queues inv without blocking.
func (p *Pool) Submit(inv *Invocation) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.queue <- inv:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do submits a task and waits for its outcome. If ctx ends first the caller
// stops waiting but the invocation still runs to completion.
func (p *Pool) Do(ctx context.Context, command string, task Task) (any, error) {
	inv := NewInvocation(command, task)
	if err := p.Submit(inv); err != nil {
		return nil, err
	}

	select {
	case out := <-inv.Done():
		return out.Result, out.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop initiates graceful shutdown. Running invocations finish; queued ones
// fail with ErrPoolStopped.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.quit)
	p.wg.Wait()

	for {
		select {
		case inv := <-p.queue:
			p.finish(inv, nil, ErrPoolStopped)
		default:
			p.logger.Info("Worker pool stopped")
			return
		}
	}
}

func (p *Pool) workerLoop(id int) {
	defer p.wg.Done()
	p.logger.Debug("Worker started", "worker_id", id)

	for {
		select {
		case <-p.quit:
			return
		default:
		}

		select {
		case inv := <-p.queue:
			p.process(id, inv)
		case <-p.quit:
			return
		}
	}
}

func (p *Pool) process(workerID int, inv *Invocation) {
	inv.Started = time.Now()
	inv.Status = StatusProcessing
	p.logger.Debug("Processing invocation",
		"worker_id", workerID,
		"invocation_id", inv.ID,
		"command", inv.Command,
		"wait", inv.Started.Sub(inv.Submitted),
	)
	p.notify(inv)

	if err := p.dbSem.Acquire(p.base, 1); err != nil {
		p.finish(inv, nil, fmt.Errorf("failed to acquire db slot: %w", err))
		return
	}
	result, err := p.run(inv)
	p.dbSem.Release(1)

	p.finish(inv, result, err)
}

func (p *Pool) run(inv *Invocation) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invocation %s panicked: %v", inv.Command, r)
		}
	}()
	return inv.task(p.base)
}

func (p *Pool) finish(inv *Invocation, result any, err error) {
	inv.Finished = time.Now()
	if err != nil {
		inv.Status = StatusFailed
		inv.Error = err
		p.logger.Debug("Invocation failed", "invocation_id", inv.ID, "command", inv.Command, "error", err)
	} else {
		inv.Status = StatusCompleted
		p.logger.Debug("Invocation completed", "invocation_id", inv.ID, "command", inv.Command, "duration", inv.Duration())
	}
	p.notify(inv)
	inv.done <- Outcome{Result: result, Err: err}
}

func (p *Pool) notify(inv *Invocation) {
	if p.observer != nil {
		p.observer(inv)
	}
}
