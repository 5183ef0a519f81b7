package concurrency

import "time"

// PoolStats is a point-in-time view of a ThreadPool.
type PoolStats struct {
	Workers        int   // Fixed number of worker goroutines
	BusyWorkers    int   // Workers signaled or running an item
	QueuedTasks    int   // Items in the queue, running ones included
	PendingTasks   int   // Items not yet claimed by a worker
	CompletedTasks int64 // Items finished, failed ones included
	FailedTasks    int64 // Items that returned an error or panicked
	RejectedTasks  int64 // Submissions refused because the pool was stopping
}

// Outcome classifies how a work item finished.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomePanic   Outcome = "panic"
)

// MetricsRecorder receives pool events. Implementations must be safe for
// concurrent use; the pool calls them from workers and submitters alike.
type MetricsRecorder interface {
	ItemSubmitted()
	ItemRejected()
	ItemStarted(workerID int)
	ItemFinished(workerID int, outcome Outcome, duration time.Duration)
	QueueDepth(size int)
}

type nopRecorder struct{}

func (nopRecorder) ItemSubmitted()                           {}
func (nopRecorder) ItemRejected()                            {}
func (nopRecorder) ItemStarted(int)                          {}
func (nopRecorder) ItemFinished(int, Outcome, time.Duration) {}
func (nopRecorder) QueueDepth(int)                           {}
