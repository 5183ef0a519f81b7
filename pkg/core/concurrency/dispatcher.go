package concurrency

import "context"

// dispatchLoop is the pool's single coordination goroutine. Each time the
// pool-wide signal is raised it hands the run-signal to at most one idle
// worker. The signal is consumed before the scan, so a raise that arrives
// mid-scan triggers another round instead of being lost.
func (p *ThreadPool) dispatchLoop(ctx context.Context) {
	defer p.wg.Done()

	for {
		if err := p.dispatch.Wait(ctx); err != nil {
			return
		}
		if p.queue.Pending() == 0 {
			continue
		}

		w := p.claimIdleWorker()
		if w == nil {
			// Every worker is busy; the next completion re-raises the signal.
			p.logger.Debugf("dispatcher: no idle worker for %d pending item(s)", p.queue.Pending())
			continue
		}
		w.run.Set()
	}
}

// claimIdleWorker scans the worker table round-robin, starting after the
// worker picked last time, and marks the first idle one busy. The scan is
// O(workers).
func (p *ThreadPool) claimIdleWorker() *worker {
	p.tableMu.Lock()
	defer p.tableMu.Unlock()

	n := len(p.workers)
	for i := 0; i < n; i++ {
		w := p.workers[(p.nextWorker+i)%n]
		if w.state == workerIdle {
			w.state = workerBusy
			p.nextWorker = (w.id + 1) % n
			return w
		}
	}
	return nil
}

func (p *ThreadPool) setWorkerState(w *worker, state workerState) {
	p.tableMu.Lock()
	w.state = state
	p.tableMu.Unlock()
}

func (p *ThreadPool) busyWorkers() int {
	p.tableMu.Lock()
	defer p.tableMu.Unlock()

	busy := 0
	for _, w := range p.workers {
		if w.state == workerBusy {
			busy++
		}
	}
	return busy
}
