package concurrency

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxorio/threadpool/pkg/core"
)

const instrumentationName = "github.com/fluxorio/threadpool/pkg/core/concurrency"

// ThreadPool is a fixed-size pool of worker goroutines fed from a shared
// TaskQueue by a single dispatcher goroutine.
//
// Submit never blocks on execution. Stop refuses new work, waits for every
// accepted item to finish, then lets the workers and the dispatcher exit at
// their next wake point. In-flight items are never interrupted.
type ThreadPool struct {
	queue    *TaskQueue
	workers  []*worker
	dispatch *signal // pool-wide "work may be available"

	// mu guards stopping so that the stopping check and the enqueue in
	// Submit happen together.
	mu       sync.RWMutex
	stopping bool

	// tableMu guards the worker states and the round-robin cursor.
	tableMu    sync.Mutex
	nextWorker int

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	releaseOnce sync.Once
	disposed    atomic.Bool

	logger  core.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer

	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

// NewThreadPool starts a dispatcher and workerCount workers. All of them
// are running and idle when it returns.
func NewThreadPool(workerCount int, opts ...Option) (*ThreadPool, error) {
	if workerCount < 1 {
		return nil, fmt.Errorf("worker count %d must be positive: %w", workerCount, ErrInvalidArgument)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &ThreadPool{
		queue:    NewTaskQueue(),
		dispatch: newSignal(),
		ctx:      ctx,
		cancel:   cancel,
		logger:   core.NewDefaultLogger(),
		metrics:  nopRecorder{},
		tracer:   otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.workers = make([]*worker, workerCount)
	for i := range p.workers {
		p.workers[i] = newWorker(i, p)
	}

	p.wg.Add(workerCount + 1)
	go p.dispatchLoop(ctx)
	for _, w := range p.workers {
		go w.loop(ctx)
	}

	p.logger.Infof("thread pool started with %d workers", workerCount)
	return p, nil
}

// Submit queues action for execution.
// Returns ErrInvalidArgument for a nil action and ErrRejected once the pool
// is stopping.
func (p *ThreadPool) Submit(action func()) error {
	if action == nil {
		return fmt.Errorf("submit: action is nil: %w", ErrInvalidArgument)
	}
	return p.SubmitTask(Action(action))
}

// Execute is Submit reporting only whether the action was accepted.
func (p *ThreadPool) Execute(action func()) bool {
	return p.Submit(action) == nil
}

// SubmitTask queues a Task for execution. Errors returned by the task are
// logged and counted; they never reach the submitter.
func (p *ThreadPool) SubmitTask(task Task) error {
	item, err := NewWorkItem(task)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	p.mu.RLock()
	if p.stopping {
		p.mu.RUnlock()
		p.rejected.Add(1)
		p.metrics.ItemRejected()
		p.logger.Debugf("rejected task %s: pool is stopping", item.Name())
		return fmt.Errorf("submit %s: %w", item.Name(), ErrRejected)
	}
	err = p.queue.Enqueue(item)
	p.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	p.metrics.ItemSubmitted()
	p.metrics.QueueDepth(p.queue.Size())
	p.dispatch.Set()
	return nil
}

// Stop refuses new work, blocks until every accepted item has finished,
// then releases the worker and dispatcher goroutines. Calling it again, or
// from several goroutines at once, is safe.
func (p *ThreadPool) Stop() {
	// Cannot fail with a context that is never cancelled.
	_ = p.Shutdown(context.Background())
}

// Shutdown is Stop with the drain wait bounded by ctx. On timeout the pool
// stays stopping with its goroutines alive; a later Stop or Shutdown
// finishes the job.
func (p *ThreadPool) Shutdown(ctx context.Context) error {
	if p.beginStopping() {
		p.logger.Infof("thread pool stopping, draining %d item(s)", p.queue.Size())
	}

	select {
	case <-p.queue.Drained():
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout with %d item(s) left: %w", p.queue.Size(), ctx.Err())
	}

	p.releaseOnce.Do(p.release)
	return nil
}

// Close disposes of the pool. It is Stop satisfying io.Closer.
func (p *ThreadPool) Close() error {
	p.Stop()
	return nil
}

// beginStopping sets the stopping flag and reports whether this call set it.
func (p *ThreadPool) beginStopping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopping {
		return false
	}
	p.stopping = true
	return true
}

// release cancels the loops and waits for every goroutine to exit. It runs
// exactly once.
func (p *ThreadPool) release() {
	start := time.Now()
	p.cancel()
	p.wg.Wait()

	// Drop anything raised after the last wake so no signal outlives the pool.
	p.dispatch.Reset()
	for _, w := range p.workers {
		if w.run.IsSet() {
			p.logger.Warnf("worker %d: run-signal still raised at release", w.id)
			w.run.Reset()
		}
	}

	p.disposed.Store(true)
	p.logger.Infof("thread pool stopped in %v (completed=%d failed=%d rejected=%d)",
		time.Since(start), p.completed.Load(), p.failed.Load(), p.rejected.Load())
}

// Workers returns the fixed number of worker goroutines.
func (p *ThreadPool) Workers() int {
	return len(p.workers)
}

// IsStopping reports whether Stop or Shutdown has been called.
func (p *ThreadPool) IsStopping() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stopping
}

// IsDisposed reports whether all goroutines have exited.
func (p *ThreadPool) IsDisposed() bool {
	return p.disposed.Load()
}

// QueueSize returns the number of items accepted but not yet finished.
func (p *ThreadPool) QueueSize() int {
	return p.queue.Size()
}

// Stats returns a snapshot of the pool.
func (p *ThreadPool) Stats() PoolStats {
	return PoolStats{
		Workers:        len(p.workers),
		BusyWorkers:    p.busyWorkers(),
		QueuedTasks:    p.queue.Size(),
		PendingTasks:   p.queue.Pending(),
		CompletedTasks: p.completed.Load(),
		FailedTasks:    p.failed.Load(),
		RejectedTasks:  p.rejected.Load(),
	}
}
