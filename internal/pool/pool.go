// Package pool runs build jobs on a fixed set of worker goroutines.
//
// All workers pull from one FIFO queue guarded by a single mutex. A worker
// blocks only while the queue is empty and runs each job without holding the
// lock. Close enqueues one stop marker per worker behind all submitted work
// and waits for every worker to exit, so every job submitted before Close is
// dequeued exactly once.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/starford/kiln/internal/logfields"
	"github.com/starford/kiln/internal/metrics"
)

// ErrClosed is returned by Submit once Close has been called.
var ErrClosed = errors.New("pool: closed")

// Job is one unit of pipeline work.
type Job interface {
	// Kind names the job variant for logs and metrics.
	Kind() string
	Execute(ctx context.Context) error
}

type item struct {
	id   string
	job  Job
	stop bool
}

// Stats counts job outcomes since the pool started.
type Stats struct {
	Submitted int64
	Succeeded int64
	Failed    int64
}

// Pool is a fixed-size worker pool.
type Pool struct {
	ctx      context.Context
	size     int
	logger   *slog.Logger
	recorder metrics.Recorder

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []item
	closed bool

	wg        sync.WaitGroup
	closeOnce sync.Once

	submitted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for job failures and worker lifecycle.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pool) {
		if r != nil {
			p.recorder = r
		}
	}
}

// New starts size workers. Jobs receive ctx when they execute; cancelling it
// does not stop the pool, which always drains submitted work.
func New(ctx context.Context, size int, opts ...Option) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool: size must be positive, got %d", size)
	}
	p := &Pool{
		ctx:      ctx,
		size:     size,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}

	p.logger.Debug("pool: starting workers", logfields.Count(size))
	p.wg.Add(size)
	for i := range size {
		go p.worker(fmt.Sprintf("worker-%d", i))
	}
	return p, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Submit enqueues job behind everything submitted before it.
func (p *Pool) Submit(job Job) error {
	if job == nil {
		return errors.New("pool: nil job")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.queue = append(p.queue, item{id: uuid.NewString(), job: job})
	p.submitted.Add(1)
	p.cond.Signal()
	return nil
}

// Close stops accepting jobs, enqueues one stop marker per worker and waits
// for all workers to exit. Submitted jobs still run. Close is idempotent.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		for range p.size {
			p.queue = append(p.queue, item{stop: true})
		}
		p.cond.Broadcast()
		p.mu.Unlock()

		p.wg.Wait()
		p.logger.Debug("pool: all workers stopped",
			slog.Int64("succeeded", p.succeeded.Load()),
			slog.Int64("failed", p.failed.Load()))
	})
}

// Stats returns a snapshot of the job counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
	}
}

func (p *Pool) worker(name string) {
	defer p.wg.Done()
	for {
		it := p.dequeue()
		if it.stop {
			p.logger.Debug("pool: worker exiting", logfields.Worker(name))
			return
		}
		p.run(name, it)
	}
}

func (p *Pool) dequeue() item {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 {
		p.cond.Wait()
	}
	it := p.queue[0]
	p.queue[0] = item{}
	p.queue = p.queue[1:]
	return it
}

// run executes one job, converting a panic into a failure so the worker
// keeps serving the queue.
func (p *Pool) run(worker string, it item) {
	kind := it.job.Kind()
	start := time.Now()
	result := metrics.ResultSuccess

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				result = metrics.ResultPanic
				err = fmt.Errorf("pool: job panicked: %v", r)
			}
		}()
		return it.job.Execute(p.ctx)
	}()

	elapsed := time.Since(start)
	p.recorder.ObserveJobDuration(kind, elapsed)

	if err != nil {
		if result == metrics.ResultSuccess {
			result = metrics.ResultFailed
		}
		p.failed.Add(1)
		p.logger.Error("pool: job failed",
			logfields.JobID(it.id),
			logfields.JobKind(kind),
			logfields.Worker(worker),
			logfields.DurationMS(elapsed),
			logfields.Error(err))
	} else {
		p.succeeded.Add(1)
		p.logger.Debug("pool: job done",
			logfields.JobID(it.id),
			logfields.JobKind(kind),
			logfields.Worker(worker),
			logfields.DurationMS(elapsed))
	}
	p.recorder.IncJobResult(kind, result)
}
