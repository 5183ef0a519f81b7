package concurrency

import "errors"

var (
	// ErrInvalidArgument is returned for a nil task or action and for a
	// non-positive worker count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRejected is returned by Submit once the pool has begun stopping.
	ErrRejected = errors.New("thread pool is stopping, task rejected")

	// ErrEmptyQueue is returned by DequeueNextRunnable when no item is pending.
	// Workers treat it as a spurious wake-up.
	ErrEmptyQueue = errors.New("no runnable item in queue")

	// ErrAlreadyClaimed is returned by WorkItem.Run when the item has already
	// been claimed by someone else.
	ErrAlreadyClaimed = errors.New("work item already claimed")
)
