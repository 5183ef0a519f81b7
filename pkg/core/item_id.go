package core

import (
	"context"

	"github.com/google/uuid"
)

type (
	itemIDKey   struct{}
	workerIDKey struct{}
)

// WithItemID attaches a work item ID to the context handed to a running task.
func WithItemID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, itemIDKey{}, id)
}

// ItemIDFrom returns the work item ID stored in ctx, or "" outside a task.
func ItemIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(itemIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithWorkerID attaches the index of the worker running a task.
func WithWorkerID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, workerIDKey{}, id)
}

// WorkerIDFrom returns the worker index stored in ctx. ok is false when the
// task was not run by a pool worker, e.g. through WorkItem.Run.
func WorkerIDFrom(ctx context.Context) (id int, ok bool) {
	id, ok = ctx.Value(workerIDKey{}).(int)
	return id, ok
}

// NewID generates a random (v4) identifier.
func NewID() string {
	return uuid.New().String()
}
