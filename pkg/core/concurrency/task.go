package concurrency

import (
	"context"
)

// Task represents a unit of work that can be executed by the pool
type Task interface {
	// Execute performs the task work
	// ctx carries the work item ID and the execution span
	Execute(ctx context.Context) error

	// Name returns a human-readable name for the task (for logging/debugging)
	Name() string
}

// Action is a plain zero-argument callable. It is the form most callers
// submit through ThreadPool.Submit.
type Action func()

// Execute implements Task interface for Action
func (a Action) Execute(context.Context) error {
	a()
	return nil
}

// Name returns a default name for Action
func (a Action) Name() string {
	return "action"
}

// TaskFunc is a function type that implements Task
// Allows functions to be used as tasks without creating a struct
type TaskFunc func(ctx context.Context) error

// Execute implements Task interface for TaskFunc
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Name returns a default name for TaskFunc
func (f TaskFunc) Name() string {
	return "task"
}

// NamedTask wraps a TaskFunc with a custom name
type NamedTask struct {
	name string
	task TaskFunc
}

// NewNamedTask creates a new NamedTask
func NewNamedTask(name string, task TaskFunc) *NamedTask {
	return &NamedTask{
		name: name,
		task: task,
	}
}

// Execute implements Task interface
func (nt *NamedTask) Execute(ctx context.Context) error {
	return nt.task(ctx)
}

// Name returns the task name
func (nt *NamedTask) Name() string {
	return nt.name
}

// isNilTask reports whether task carries no callable work. A nil func
// wrapped in Action or TaskFunc is a non-nil interface, so it is checked
// explicitly.
func isNilTask(task Task) bool {
	switch t := task.(type) {
	case nil:
		return true
	case Action:
		return t == nil
	case TaskFunc:
		return t == nil
	case *NamedTask:
		return t == nil || t.task == nil
	default:
		return false
	}
}
