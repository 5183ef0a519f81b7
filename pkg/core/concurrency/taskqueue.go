package concurrency

import (
	"container/list"
	"fmt"
	"sync"
)

// TaskQueue is the shared ordered collection of not-yet-completed work
// items. Every read and mutation happens under mu, which lives as long as
// the queue.
type TaskQueue struct {
	mu      sync.Mutex
	items   *list.List
	index   map[*WorkItem]*list.Element
	pending int
	drained chan struct{} // closed while the queue is empty
}

// NewTaskQueue creates an empty queue.
func NewTaskQueue() *TaskQueue {
	drained := make(chan struct{})
	close(drained)
	return &TaskQueue{
		items:   list.New(),
		index:   make(map[*WorkItem]*list.Element),
		drained: drained,
	}
}

// Enqueue appends a pending item to the tail. The queue takes ownership:
// from here on only the queue may claim the item.
func (q *TaskQueue) Enqueue(item *WorkItem) error {
	if item == nil {
		return fmt.Errorf("enqueue: nil work item: %w", ErrInvalidArgument)
	}
	if !item.adopt() {
		return fmt.Errorf("enqueue: work item %s: %w", item.ID(), ErrAlreadyClaimed)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		q.drained = make(chan struct{})
	}
	q.index[item] = q.items.PushBack(item)
	q.pending++
	return nil
}

// DequeueNextRunnable claims the first pending item, marking it running,
// and returns it together with the number of items still pending.
// The item stays in the queue until Complete or Remove.
//
// The scan is O(size): running items ahead of the first pending one are
// walked over on every call.
func (q *TaskQueue) DequeueNextRunnable() (*WorkItem, int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending == 0 {
		return nil, 0, ErrEmptyQueue
	}
	for e := q.items.Front(); e != nil; e = e.Next() {
		item := e.Value.(*WorkItem)
		if item.claimQueued() {
			q.pending--
			return item, q.pending, nil
		}
	}
	return nil, q.pending, ErrEmptyQueue
}

// Complete removes a finished item and returns how many items are still
// pending. Removal and count happen in one critical section so a caller
// deciding whether to wake the dispatcher cannot miss a concurrent enqueue.
func (q *TaskQueue) Complete(item *WorkItem) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(item)
	item.markDone()
	return q.pending
}

// Remove drops item from the queue by identity. It reports whether the
// item was present.
func (q *TaskQueue) Remove(item *WorkItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(item)
}

func (q *TaskQueue) removeLocked(item *WorkItem) bool {
	e, ok := q.index[item]
	if !ok {
		return false
	}
	if item.State() == StatePending {
		q.pending--
	}
	q.items.Remove(e)
	delete(q.index, item)
	if q.items.Len() == 0 {
		close(q.drained)
	}
	return true
}

// Size returns the number of items in the queue, running ones included.
func (q *TaskQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Pending returns the number of items not yet claimed.
func (q *TaskQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Drained returns a channel that is closed once the queue is empty. The
// channel is replaced when the next item is enqueued, so callers should
// fetch it after they stop new submissions.
func (q *TaskQueue) Drained() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.drained
}
