package concurrency

import "context"

// Executor abstracts goroutine pool management and task execution.
// Hides goroutine creation and signaling from application code.
type Executor interface {
	// Submit queues a plain action for execution
	// Returns ErrRejected once the executor is stopping
	Submit(action func()) error

	// SubmitTask queues a task for execution
	SubmitTask(task Task) error

	// Shutdown refuses new work and waits for accepted tasks to complete
	// (up to ctx timeout). Returns error if shutdown times out
	Shutdown(ctx context.Context) error

	// Stats returns current executor statistics
	Stats() PoolStats
}

var _ Executor = (*ThreadPool)(nil)
