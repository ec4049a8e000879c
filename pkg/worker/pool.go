package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

// Task is a unit of background work
type Task func(ctx context.Context) error

type PoolConfig struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

type job struct {
	name string
	fn   Task
}

// Pool runs fire-and-forget tasks on a fixed set of goroutines. Tasks
// get a context detached from the submitter so they outlive the request
// that queued them.
type Pool struct {
	config  PoolConfig
	logger  *logger.Logger
	metrics *metrics.Metrics

	tasks chan job
	wg    sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	started bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewPool(config PoolConfig, logger *logger.Logger, metrics *metrics.Metrics) *Pool {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		config:  config,
		logger:  logger,
		metrics: metrics,
		tasks:   make(chan job, config.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	p.logger.Info("Worker pool started", "workers", p.config.Workers, "queue_size", p.config.QueueSize)
}

// Submit queues a task without blocking. It returns false when the
// queue is full or the pool is stopping.
func (p *Pool) Submit(name string, fn Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.metrics.TasksDropped.WithLabelValues(name).Inc()
		return false
	}

	select {
	case p.tasks <- job{name: name, fn: fn}:
		p.metrics.TaskQueueDepth.Inc()
		return true
	default:
		p.metrics.TasksDropped.WithLabelValues(name).Inc()
		p.logger.Warn("Worker queue full, dropping task", "task", name)
		return false
	}
}

// Stop refuses new tasks and waits for queued ones to finish. If ctx
// expires first, running tasks are cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	started := p.started
	p.mu.Unlock()

	if !started {
		p.cancel()
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("Worker pool drained")
		return nil
	case <-ctx.Done():
		p.cancel()
		return fmt.Errorf("worker pool did not drain: %w", ctx.Err())
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.tasks {
		p.metrics.TaskQueueDepth.Dec()
		p.execute(j)
	}
}

func (p *Pool) execute(j job) {
	ctx, cancel := context.WithTimeout(p.ctx, p.config.TaskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(fmt.Errorf("panic: %v", r), "Background task panicked", "task", j.name)
		}
	}()

	if err := j.fn(ctx); err != nil {
		p.logger.Error(err, "Background task failed", "task", j.name)
	}
}
