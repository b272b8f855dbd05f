// Package queue decouples event producers from slow sink I/O with a
// bounded FIFO drained by a single background worker.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitranox/lib-log-rich/core"
	"github.com/bitranox/lib-log-rich/selflog"
)

// State describes the adapter lifecycle.
type State int32

const (
	// Idle means Start has not been called yet.
	Idle State = iota

	// Running means the worker is consuming the queue.
	Running

	// Draining means Stop was requested and the worker is emptying the
	// queue before exiting.
	Draining

	// Stopped means the worker has exited. After a draining Stop the
	// queue is empty; after Stop(false) events still queued are left
	// unprocessed.
	Stopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrNotRunning is returned by Enqueue when the adapter is not accepting
// events.
var ErrNotRunning = errors.New("queue not running")

// Handler processes one dequeued event. It is the fan-out function bound
// via SetWorker.
type Handler func(*core.LogEvent) error

// Options configures an Adapter.
type Options struct {
	// MaxSize bounds the queue. Defaults to 2048.
	MaxSize int

	// PutTimeout bounds how long Enqueue blocks when the queue is full.
	// Defaults to 1s.
	PutTimeout time.Duration

	// StopTimeout bounds how long Stop waits for drain and worker exit.
	// Defaults to 5s.
	StopTimeout time.Duration

	// Cooldown is the pause after a handler failure before the worker
	// resumes dequeuing. Defaults to 1s.
	Cooldown time.Duration

	// Diagnose observes worker_failed and queue_shutdown_timeout events.
	Diagnose core.DiagnosticHook
}

// Adapter is a bounded work queue with a single consumer goroutine.
// Events are processed in enqueue order; a handler failure never
// terminates the worker.
type Adapter struct {
	opts   Options
	events chan *core.LogEvent
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	state   atomic.Int32
	pending atomic.Int64
	drain   atomic.Bool

	handlerMu sync.RWMutex
	handler   Handler

	stopMu sync.Mutex
}

// New creates an adapter in the Idle state.
func New(opts Options) *Adapter {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 2048
	}
	if opts.PutTimeout <= 0 {
		opts.PutTimeout = time.Second
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 5 * time.Second
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Adapter{
		opts:   opts,
		events: make(chan *core.LogEvent, opts.MaxSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetWorker late-binds the fan-out handler. It must be called before
// Start.
func (a *Adapter) SetWorker(h Handler) {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	a.handler = h
}

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	return State(a.state.Load())
}

// Len returns the number of events waiting in the queue.
func (a *Adapter) Len() int {
	return len(a.events)
}

// Pending returns the number of enqueued events not yet fully processed,
// including one currently in the handler.
func (a *Adapter) Pending() int {
	return int(a.pending.Load())
}

// Start spawns the worker. It fails unless the adapter is Idle.
func (a *Adapter) Start() error {
	if !a.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return fmt.Errorf("queue start: adapter is %s, not idle", a.State())
	}
	a.wg.Add(1)
	go a.worker()
	return nil
}

// Enqueue puts an event on the queue. It returns immediately when space
// is available, blocks up to PutTimeout when the queue is full, and
// returns core.ErrQueueFull on timeout. Events are never silently
// dropped.
func (a *Adapter) Enqueue(event *core.LogEvent) error {
	if a.State() != Running {
		return ErrNotRunning
	}

	a.pending.Add(1)
	select {
	case a.events <- event:
		return nil
	default:
	}

	timer := time.NewTimer(a.opts.PutTimeout)
	defer timer.Stop()
	select {
	case a.events <- event:
		return nil
	case <-timer.C:
		a.pending.Add(-1)
		return core.ErrQueueFull
	case <-a.ctx.Done():
		a.pending.Add(-1)
		return ErrNotRunning
	}
}

// Stop is transactional: it moves the adapter to Draining, waits up to
// StopTimeout for the worker to exit (after emptying the queue when
// drainQueue is true), and only then reaches Stopped. On timeout the
// adapter stays in Draining, a queue_shutdown_timeout diagnostic reports
// the remaining count, and
// core.ErrShutdownTimeout is returned so the caller can keep its state.
func (a *Adapter) Stop(drainQueue bool) error {
	a.stopMu.Lock()
	defer a.stopMu.Unlock()

	switch a.State() {
	case Stopped:
		return nil
	case Idle:
		a.state.Store(int32(Stopped))
		return nil
	case Running:
		a.drain.Store(drainQueue)
		a.state.Store(int32(Draining))
		a.cancel()
	case Draining:
		// A prior Stop timed out; wait again below.
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(a.opts.StopTimeout)
	defer timer.Stop()
	select {
	case <-done:
		a.state.Store(int32(Stopped))
		return nil
	case <-timer.C:
		remaining := a.pending.Load()
		a.diagnose(core.DiagQueueShutdownTimeout, map[string]any{
			"timeout_seconds": a.opts.StopTimeout.Seconds(),
			"remaining":       remaining,
		})
		selflog.Report("queue", "stop timed out after %s with %d events remaining", a.opts.StopTimeout, remaining)
		return fmt.Errorf("%w: %d events remaining after %s", core.ErrShutdownTimeout, remaining, a.opts.StopTimeout)
	}
}

// worker is the single consumer goroutine.
func (a *Adapter) worker() {
	defer a.wg.Done()

	for {
		select {
		case event := <-a.events:
			a.dispatch(event)

		case <-a.ctx.Done():
			if !a.drain.Load() {
				return
			}
			// Drain whatever was enqueued before the stop signal.
			for {
				select {
				case event := <-a.events:
					a.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

// dispatch runs the handler for one event. Handler errors and panics are
// diagnosed and absorbed; after a cooldown the worker resumes, so a
// failing sink can never kill the consumer.
func (a *Adapter) dispatch(event *core.LogEvent) {
	defer a.pending.Add(-1)

	err := a.invoke(event)
	if err == nil {
		return
	}

	a.diagnose(core.DiagWorkerFailed, map[string]any{
		"event_id":         event.EventID,
		"error":            err.Error(),
		"cooldown_seconds": a.opts.Cooldown.Seconds(),
	})
	selflog.Report("queue", "worker failed on event %s: %v", event.EventID, err)

	// Pause before resuming; cut the pause short when shutting down so a
	// failing handler cannot stall the drain.
	timer := time.NewTimer(a.opts.Cooldown)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-a.ctx.Done():
	}
}

func (a *Adapter) invoke(event *core.LogEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()

	a.handlerMu.RLock()
	h := a.handler
	a.handlerMu.RUnlock()
	if h == nil {
		return errors.New("no worker handler bound")
	}
	return h(event)
}

func (a *Adapter) diagnose(name string, payload map[string]any) {
	if a.opts.Diagnose == nil {
		return
	}
	a.opts.Diagnose(name, payload)
}
