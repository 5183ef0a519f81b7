package concurrency

import (
	"errors"
	"sync"
	"testing"
)

func newTestItems(t *testing.T, n int) []*WorkItem {
	t.Helper()
	items := make([]*WorkItem, n)
	for i := range items {
		item, err := NewWorkItem(Action(func() {}))
		if err != nil {
			t.Fatalf("NewWorkItem() error = %v", err)
		}
		items[i] = item
	}
	return items
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestTaskQueue_EnqueueAndSize(t *testing.T) {
	q := NewTaskQueue()
	for _, item := range newTestItems(t, 3) {
		if err := q.Enqueue(item); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	if q.Size() != 3 {
		t.Errorf("Size() = %d, want 3", q.Size())
	}
	if q.Pending() != 3 {
		t.Errorf("Pending() = %d, want 3", q.Pending())
	}
}

func TestTaskQueue_EnqueueRejectsBadItems(t *testing.T) {
	q := NewTaskQueue()

	if err := q.Enqueue(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Enqueue(nil) error = %v, want ErrInvalidArgument", err)
	}

	item := newTestItems(t, 1)[0]
	if err := q.Enqueue(item); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := q.Enqueue(item); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("second Enqueue() error = %v, want ErrAlreadyClaimed", err)
	}
	if q.Size() != 1 {
		t.Errorf("Size() = %d, want 1", q.Size())
	}
}

func TestTaskQueue_DequeueNextRunnable(t *testing.T) {
	q := NewTaskQueue()
	items := newTestItems(t, 3)
	for _, item := range items {
		_ = q.Enqueue(item)
	}

	for i, want := range items {
		got, pending, err := q.DequeueNextRunnable()
		if err != nil {
			t.Fatalf("DequeueNextRunnable() #%d error = %v", i, err)
		}
		if got != want {
			t.Errorf("DequeueNextRunnable() #%d returned %s, want %s", i, got.ID(), want.ID())
		}
		if got.State() != StateRunning {
			t.Errorf("claimed item state = %v, want running", got.State())
		}
		if wantPending := len(items) - i - 1; pending != wantPending {
			t.Errorf("pending = %d, want %d", pending, wantPending)
		}
	}

	// Every item is running: nothing left to claim, but nothing removed either.
	if _, _, err := q.DequeueNextRunnable(); !errors.Is(err, ErrEmptyQueue) {
		t.Errorf("DequeueNextRunnable() error = %v, want ErrEmptyQueue", err)
	}
	if q.Size() != 3 {
		t.Errorf("Size() = %d, want 3", q.Size())
	}
}

func TestTaskQueue_DequeueEmpty(t *testing.T) {
	q := NewTaskQueue()
	item, pending, err := q.DequeueNextRunnable()
	if !errors.Is(err, ErrEmptyQueue) {
		t.Errorf("DequeueNextRunnable() error = %v, want ErrEmptyQueue", err)
	}
	if item != nil || pending != 0 {
		t.Errorf("DequeueNextRunnable() = (%v, %d), want (nil, 0)", item, pending)
	}
}

func TestTaskQueue_CompleteReportsPending(t *testing.T) {
	q := NewTaskQueue()
	for _, item := range newTestItems(t, 3) {
		_ = q.Enqueue(item)
	}

	first, _, _ := q.DequeueNextRunnable()
	second, _, _ := q.DequeueNextRunnable()

	if got := q.Complete(first); got != 1 {
		t.Errorf("Complete() = %d, want 1", got)
	}
	if first.State() != StateDone {
		t.Errorf("completed item state = %v, want done", first.State())
	}
	if q.Size() != 2 {
		t.Errorf("Size() = %d, want 2", q.Size())
	}

	last, _, _ := q.DequeueNextRunnable()
	q.Complete(last)
	if got := q.Complete(second); got != 0 {
		t.Errorf("Complete() = %d, want 0", got)
	}
	if q.Size() != 0 {
		t.Errorf("Size() = %d, want 0", q.Size())
	}
}

func TestTaskQueue_Remove(t *testing.T) {
	q := NewTaskQueue()
	items := newTestItems(t, 2)
	for _, item := range items {
		_ = q.Enqueue(item)
	}

	if !q.Remove(items[1]) {
		t.Error("Remove() = false, want true")
	}
	if q.Remove(items[1]) {
		t.Error("second Remove() = true, want false")
	}
	if q.Size() != 1 || q.Pending() != 1 {
		t.Errorf("Size(), Pending() = %d, %d, want 1, 1", q.Size(), q.Pending())
	}
}

func TestTaskQueue_Drained(t *testing.T) {
	q := NewTaskQueue()
	if !isClosed(q.Drained()) {
		t.Error("Drained() should be closed on a new queue")
	}

	item := newTestItems(t, 1)[0]
	_ = q.Enqueue(item)
	drained := q.Drained()
	if isClosed(drained) {
		t.Error("Drained() should be open while items are queued")
	}

	claimed, _, _ := q.DequeueNextRunnable()
	if isClosed(drained) {
		t.Error("Drained() should stay open while an item is running")
	}

	q.Complete(claimed)
	if !isClosed(drained) {
		t.Error("Drained() should be closed after the last item completes")
	}
}

func TestTaskQueue_ConcurrentClaimsAreExclusive(t *testing.T) {
	const numItems = 500
	const claimers = 8

	q := NewTaskQueue()
	for _, item := range newTestItems(t, numItems) {
		_ = q.Enqueue(item)
	}

	var mu sync.Mutex
	claimed := make(map[*WorkItem]int)

	var wg sync.WaitGroup
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				item, _, err := q.DequeueNextRunnable()
				if err != nil {
					return
				}
				mu.Lock()
				claimed[item]++
				mu.Unlock()
				q.Complete(item)
			}
		}()
	}
	wg.Wait()

	if len(claimed) != numItems {
		t.Errorf("claimed %d distinct items, want %d", len(claimed), numItems)
	}
	for item, n := range claimed {
		if n != 1 {
			t.Errorf("item %s claimed %d times", item.ID(), n)
		}
	}
	if q.Size() != 0 {
		t.Errorf("Size() = %d, want 0", q.Size())
	}
}
