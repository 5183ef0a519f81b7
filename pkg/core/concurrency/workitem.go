package concurrency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fluxorio/threadpool/pkg/core"
)

// ItemState is the execution state of a WorkItem.
type ItemState int32

const (
	StatePending ItemState = iota
	StateRunning
	StateDone
)

func (s ItemState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("ItemState(%d)", int32(s))
	}
}

// WorkItem is a single queued unit of work with its own execution state.
// State only moves forward: pending -> running -> done.
type WorkItem struct {
	id          string
	task        Task
	submittedAt time.Time

	mu    sync.Mutex
	state ItemState
	owned bool // enqueued; only the queue may claim it
}

// NewWorkItem wraps task in a pending WorkItem.
func NewWorkItem(task Task) (*WorkItem, error) {
	if isNilTask(task) {
		return nil, fmt.Errorf("work item: task is nil: %w", ErrInvalidArgument)
	}
	return &WorkItem{
		id:          core.NewID(),
		task:        task,
		submittedAt: time.Now(),
		state:       StatePending,
	}, nil
}

// ID returns the item's unique identifier.
func (wi *WorkItem) ID() string {
	return wi.id
}

// Name returns the underlying task's name.
func (wi *WorkItem) Name() string {
	return wi.task.Name()
}

// SubmittedAt returns the time the item was created.
func (wi *WorkItem) SubmittedAt() time.Time {
	return wi.submittedAt
}

// State returns the current execution state.
func (wi *WorkItem) State() ItemState {
	wi.mu.Lock()
	defer wi.mu.Unlock()
	return wi.state
}

// Run claims the item and executes its task on the calling goroutine.
// The item ends in StateDone even if the task panics; the panic is not
// recovered here.
func (wi *WorkItem) Run(ctx context.Context) error {
	if !wi.tryClaim() {
		return fmt.Errorf("work item %s: %w", wi.id, ErrAlreadyClaimed)
	}
	return wi.execute(ctx)
}

// tryClaim moves a free-standing item from pending to running.
func (wi *WorkItem) tryClaim() bool {
	wi.mu.Lock()
	defer wi.mu.Unlock()
	if wi.state != StatePending || wi.owned {
		return false
	}
	wi.state = StateRunning
	return true
}

// adopt hands a pending item over to a queue.
func (wi *WorkItem) adopt() bool {
	wi.mu.Lock()
	defer wi.mu.Unlock()
	if wi.state != StatePending || wi.owned {
		return false
	}
	wi.owned = true
	return true
}

// claimQueued is tryClaim for the owning queue. Callers hold the queue lock.
func (wi *WorkItem) claimQueued() bool {
	wi.mu.Lock()
	defer wi.mu.Unlock()
	if wi.state != StatePending {
		return false
	}
	wi.state = StateRunning
	return true
}

// execute runs a claimed item.
func (wi *WorkItem) execute(ctx context.Context) error {
	defer wi.markDone()
	return wi.task.Execute(core.WithItemID(ctx, wi.id))
}

func (wi *WorkItem) markDone() {
	wi.mu.Lock()
	wi.state = StateDone
	wi.mu.Unlock()
}
