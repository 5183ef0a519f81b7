package core

import (
	"context"
	"testing"
)

func TestItemID(t *testing.T) {
	ctx := context.Background()
	if got := ItemIDFrom(ctx); got != "" {
		t.Errorf("ItemIDFrom(empty) = %q, want empty", got)
	}

	id := NewID()
	if got := ItemIDFrom(WithItemID(ctx, id)); got != id {
		t.Errorf("ItemIDFrom() = %q, want %q", got, id)
	}
	if NewID() == id {
		t.Error("NewID() returned the same ID twice")
	}
}

func TestWorkerID(t *testing.T) {
	if _, ok := WorkerIDFrom(context.Background()); ok {
		t.Error("WorkerIDFrom(empty) ok = true, want false")
	}

	id, ok := WorkerIDFrom(WithWorkerID(context.Background(), 0))
	if !ok || id != 0 {
		t.Errorf("WorkerIDFrom() = %d, %v, want 0, true", id, ok)
	}
}
