package concurrency

import "context"

// signal is a binary wake/sleep gate. Set raises it (repeated raises
// coalesce) and Wait consumes it. A raise that lands while the owner is
// busy is kept, so the owner's next Wait returns at once.
type signal struct {
	ch chan struct{}
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{}, 1)}
}

// Set raises the signal. It never blocks.
func (s *signal) Set() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Reset lowers the signal without waiting.
func (s *signal) Reset() {
	select {
	case <-s.ch:
	default:
	}
}

// IsSet reports whether the signal is currently raised.
func (s *signal) IsSet() bool {
	return len(s.ch) > 0
}

// Wait blocks until the signal is raised, then lowers it. It returns
// ctx.Err() if ctx is cancelled first.
func (s *signal) Wait(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
