package concurrency

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxorio/threadpool/pkg/core"
)

type workerState int

const (
	workerIdle workerState = iota
	workerBusy             // signaled by the dispatcher or running an item
)

// worker is one of the pool's long-lived execution goroutines. state is
// owned by the pool's worker table and guarded by ThreadPool.tableMu.
type worker struct {
	id    int
	pool  *ThreadPool
	run   *signal
	state workerState
}

func newWorker(id int, pool *ThreadPool) *worker {
	return &worker{
		id:   id,
		pool: pool,
		run:  newSignal(),
	}
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// loop waits for the run-signal, claims and runs at most one item per wake,
// and exits when ctx is cancelled.
func (w *worker) loop(ctx context.Context) {
	defer w.pool.wg.Done()

	p := w.pool
	for {
		if err := w.run.Wait(ctx); err != nil {
			return
		}

		item, pending, err := p.queue.DequeueNextRunnable()
		if err != nil {
			// Raced empty: another worker took the item we were woken for.
			p.logger.Debugf("worker %d: woke with nothing to run", w.id)
			w.idle()
			continue
		}
		if pending > 0 {
			p.dispatch.Set()
		}

		w.execute(ctx, item)

		if p.queue.Complete(item) > 0 {
			p.dispatch.Set()
		}
		p.metrics.QueueDepth(p.queue.Size())
		w.idle()
	}
}

// idle returns the worker to the idle set. Work enqueued between the last
// completion and now may have found every worker busy, so the pending
// count is read again after the state change.
func (w *worker) idle() {
	w.pool.setWorkerState(w, workerIdle)
	if w.pool.queue.Pending() > 0 {
		w.pool.dispatch.Set()
	}
}

// execute runs item with panic isolation and records the outcome. The
// worker survives whatever the task does.
func (w *worker) execute(ctx context.Context, item *WorkItem) {
	p := w.pool

	ctx = core.WithWorkerID(ctx, w.id)
	ctx, span := p.tracer.Start(ctx, "threadpool.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("threadpool.item.id", item.ID()),
			attribute.String("threadpool.item.name", item.Name()),
			attribute.Int("threadpool.worker.id", w.id),
			attribute.Int64("threadpool.item.wait_ms", time.Since(item.SubmittedAt()).Milliseconds()),
		))
	defer span.End()

	p.metrics.ItemStarted(w.id)
	start := time.Now()

	err := w.safeExecute(ctx, item)

	outcome := OutcomeSuccess
	var panicErr *PanicError
	switch {
	case errors.As(err, &panicErr):
		outcome = OutcomePanic
		p.logger.Errorf("worker %d: task %s (%s) panicked: %v\n%s", w.id, item.Name(), item.ID(), panicErr.Value, panicErr.Stack)
	case err != nil:
		outcome = OutcomeError
		p.logger.Errorf("worker %d: task %s (%s) failed: %v", w.id, item.Name(), item.ID(), err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.failed.Add(1)
	}
	p.completed.Add(1)
	p.metrics.ItemFinished(w.id, outcome, time.Since(start))
}

func (w *worker) safeExecute(ctx context.Context, item *WorkItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return item.execute(ctx)
}
