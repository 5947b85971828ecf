// Package workerx runs CPU bound jobs on a fixed set of goroutines so that
// request handlers never block the accept path on hashing.
package workerx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrClosed is returned by Do after Close has been called.
	ErrClosed = errors.New("workerx: pool closed")

	// ErrPanic wraps a value recovered from a panicking job.
	ErrPanic = errors.New("workerx: job panicked")
)

// Observer receives per job timings. wait is time spent queued, run is time
// spent executing.
type Observer interface {
	ObserveJob(wait, run time.Duration, err error)
}

type Option func(*Pool)

// WithObserver reports job timings to o.
func WithObserver(o Observer) Option {
	return func(p *Pool) { p.observer = o }
}

// WithLogger sets the logger used for recovered panics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

type job struct {
	ctx      context.Context
	fn       func(context.Context) error
	queuedAt time.Time
	done     chan error
}

// Pool is a fixed size worker pool. The zero value is not usable; build one
// with New.
type Pool struct {
	jobs     chan job
	group    errgroup.Group
	observer Observer
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// New starts workers goroutines reading from a queue of the given depth.
// workers <= 0 means runtime.NumCPU().
func New(workers, queue int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queue < 0 {
		queue = 0
	}

	p := &Pool{
		jobs:   make(chan job, queue),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := range workers {
		p.group.Go(func() error {
			p.worker(i)
			return nil
		})
	}
	return p
}

// Do runs fn on a worker and waits for its result. It returns ctx.Err() if
// ctx ends first, in which case fn may still run if it was already picked up.
func (p *Pool) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j := job{ctx: ctx, fn: fn, queuedAt: time.Now(), done: make(chan error, 1)}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	select {
	case p.jobs <- j:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs, drains the queue and waits for the workers.
// It is safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	return p.group.Wait()
}

func (p *Pool) worker(id int) {
	for j := range p.jobs {
		start := time.Now()
		err := p.run(id, j)
		if p.observer != nil {
			p.observer.ObserveJob(start.Sub(j.queuedAt), time.Since(start), err)
		}
		j.done <- err
	}
}

func (p *Pool) run(id int, j job) (err error) {
	// Abandoned jobs are skipped.
	if ctxErr := j.ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker job panicked",
				"worker", id,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	return j.fn(j.ctx)
}
