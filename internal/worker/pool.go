package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/studyup/studyup/internal/logger"
)

var (
	// ErrPoolClosed is returned by Submit after Stop.
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrJobAbandoned is handed to queued jobs the pool will never run.
	ErrJobAbandoned = errors.New("worker pool cancelled before the job ran")
)

type Job interface {
	Run(context.Context) error
	Name() string
}

// Abandoner is implemented by jobs that need to know when they are dropped
// from the queue without running.
type Abandoner interface {
	Abandon(err error)
}

// Stats are cumulative job counters.
type Stats struct {
	Completed int64
	Failed    int64
	Pending   int
}

type Pool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	workers int
	queue   int
	cancel  context.CancelFunc
	log     *logger.Logger

	mu     sync.RWMutex
	closed bool

	completed atomic.Int64
	failed    atomic.Int64
}

func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	log := logger.Default().WithPrefix("worker-pool")
	log.Debug("creating worker pool with %d workers and queue size %d", workers, queueSize)
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		queue:   queueSize,
		log:     log,
	}
}

// Start launches the workers. Jobs submitted before Start wait in the queue.
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.log.Info("starting worker pool with %d workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			workerLog := p.log.WithField("worker_id", id)
			workerLog.Debug("worker started")

			for {
				if ctx.Err() != nil {
					workerLog.Debug("worker shutting down (context cancelled)")
					p.abandonQueued(workerLog)
					return
				}
				select {
				case <-ctx.Done():
					continue
				case job, ok := <-p.jobs:
					if !ok {
						workerLog.Debug("worker shutting down (queue drained)")
						return
					}
					p.run(ctx, workerLog, job)
				}
			}
		}(i + 1)
	}
}

func (p *Pool) run(ctx context.Context, workerLog *logger.Logger, job Job) {
	jobLog := workerLog.WithField("job", job.Name())
	jobLog.Debug("starting job")
	start := time.Now()

	// Create a context with the logger for the job
	jobCtx := logger.NewContext(ctx, jobLog)

	if err := job.Run(jobCtx); err != nil {
		p.failed.Add(1)
		jobLog.Error("job failed after %v: %v", time.Since(start), err)
		return
	}
	p.completed.Add(1)
	jobLog.Debug("job completed in %v", time.Since(start))
}

// abandonQueued drops every job currently queued.
func (p *Pool) abandonQueued(log *logger.Logger) {
	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.abandon(log, job)
		default:
			return
		}
	}
}

func (p *Pool) abandon(log *logger.Logger, job Job) {
	p.failed.Add(1)
	log.Warn("job %s abandoned: %v", job.Name(), ErrJobAbandoned)
	if a, ok := job.(Abandoner); ok {
		a.Abandon(ErrJobAbandoned)
	}
}

// Stop refuses new jobs, lets the workers drain the queue, then returns.
// Jobs the workers will not run are abandoned.
func (p *Pool) Stop() {
	p.log.Info("stopping worker pool")
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	// Left over when the workers were cancelled or never started.
	for job := range p.jobs {
		p.abandon(p.log, job)
	}
	p.log.Info("worker pool stopped")
}

// Submit enqueues job, blocking while the queue is full.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.log.Debug("submitting job: %s", job.Name())
	p.jobs <- job
	return nil
}

// QueueSize returns the current number of pending jobs.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

func (p *Pool) Stats() Stats {
	return Stats{
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Pending:   len(p.jobs),
	}
}
