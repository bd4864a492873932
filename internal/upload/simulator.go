package upload

import (
	"context"
	"sync"
	"time"

	"ocrdrop/internal/log"
)

// FailureMessage is the error shown when a simulated upload fails.
const FailureMessage = "Upload failed. Please try again."

// Callbacks receive the events of one simulated upload. They run on the
// task's goroutine and must not call Cancel for their own id.
type Callbacks struct {
	// Progress receives the new value after every tick; the last call is 100.
	Progress func(progress float64)
	// Done receives the outcome after the settle delay.
	Done func(success bool)
}

// Simulator runs one cancellable task per id.
type Simulator struct {
	strategy Strategy
	tick     time.Duration
	settle   time.Duration

	mu    sync.Mutex
	tasks map[string]*task
	wg    sync.WaitGroup
}

type task struct {
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

// emit runs fn unless the task was cancelled. Holding mu while fn runs means
// that once Cancel returns no callback is running or will run.
func (t *task) emit(ctx context.Context, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || ctx.Err() != nil {
		return false
	}
	fn()
	return true
}

func (t *task) stop() {
	t.cancel()
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// NewSimulator creates a simulator ticking every tick and resolving settle
// after progress reaches 100.
func NewSimulator(strategy Strategy, tick, settle time.Duration) *Simulator {
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	if settle < 0 {
		settle = 0
	}
	return &Simulator{
		strategy: strategy,
		tick:     tick,
		settle:   settle,
		tasks:    make(map[string]*task),
	}
}

// Start arms a task for id, superseding any task already running for it.
func (s *Simulator) Start(ctx context.Context, id string, cb Callbacks) {
	s.Cancel(id)

	ctx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel}

	s.mu.Lock()
	s.tasks[id] = t
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx, id, t, cb)
}

// Cancel stops the task for id. It reports whether a task was running.
func (s *Simulator) Cancel(id string) bool {
	s.mu.Lock()
	t, ok := s.tasks[id]
	delete(s.tasks, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	t.stop()
	log.Debugf("Cancelled upload task %s", id)
	return true
}

// Running reports whether a task is armed for id.
func (s *Simulator) Running(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	return ok
}

// Close cancels every task and waits for their goroutines to exit.
func (s *Simulator) Close() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = make(map[string]*task)
	s.mu.Unlock()

	for _, t := range tasks {
		t.stop()
	}
	s.wg.Wait()
}

func (s *Simulator) run(ctx context.Context, id string, t *task, cb Callbacks) {
	defer s.finish(id, t)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	progress := 0.0
	for progress < 100 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if step := s.strategy.Increment(); step > 0 {
			progress += step
		}
		if progress > 100 {
			progress = 100
		}
		p := progress
		if !t.emit(ctx, func() {
			if cb.Progress != nil {
				cb.Progress(p)
			}
		}) {
			return
		}
	}

	settle := time.NewTimer(s.settle)
	defer settle.Stop()
	select {
	case <-ctx.Done():
		return
	case <-settle.C:
	}

	ok := s.strategy.Succeeds()
	t.emit(ctx, func() {
		if cb.Done != nil {
			cb.Done(ok)
		}
	})
}

func (s *Simulator) finish(id string, t *task) {
	s.mu.Lock()
	if s.tasks[id] == t {
		delete(s.tasks, id)
	}
	s.mu.Unlock()
	t.cancel()
	s.wg.Done()
}
