package queue

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitranox/lib-log-rich/core"
)

// diagRecorder collects diagnostic events thread-safely.
type diagRecorder struct {
	mu     sync.Mutex
	events []string
	loads  []map[string]any
}

func (d *diagRecorder) hook(event string, payload map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	d.loads = append(d.loads, payload)
}

func (d *diagRecorder) count(event string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if e == event {
			n++
		}
	}
	return n
}

func (d *diagRecorder) lastPayload(event string) map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.events) - 1; i >= 0; i-- {
		if d.events[i] == event {
			return d.loads[i]
		}
	}
	return nil
}

func makeEvent(i int) *core.LogEvent {
	return &core.LogEvent{EventID: fmt.Sprintf("evt-%06d", i)}
}

func TestQueueOrderAndDrainIntegrity(t *testing.T) {
	const n = 1000

	var mu sync.Mutex
	var seen []string
	a := New(Options{MaxSize: n})
	a.SetWorker(func(e *core.LogEvent) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.EventID)
		return nil
	})
	require.NoError(t, a.Start())

	for i := 0; i < n; i++ {
		require.NoError(t, a.Enqueue(makeEvent(i)))
	}
	require.NoError(t, a.Stop(true))
	assert.Equal(t, Stopped, a.State())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, n)
	for i, id := range seen {
		assert.Equal(t, fmt.Sprintf("evt-%06d", i), id)
	}
}

func TestQueueEnqueueTimesOutWhenFull(t *testing.T) {
	block := make(chan struct{})
	a := New(Options{MaxSize: 1, PutTimeout: 50 * time.Millisecond})
	a.SetWorker(func(*core.LogEvent) error {
		<-block
		return nil
	})
	require.NoError(t, a.Start())
	defer func() {
		close(block)
		a.Stop(true)
	}()

	// First event parks in the handler, second fills the buffer.
	require.NoError(t, a.Enqueue(makeEvent(0)))
	require.Eventually(t, func() bool { return a.Len() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, a.Enqueue(makeEvent(1)))

	err := a.Enqueue(makeEvent(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrQueueFull)
}

func TestQueueWorkerSurvivesHandlerFailure(t *testing.T) {
	diag := &diagRecorder{}
	var mu sync.Mutex
	var processed []string

	a := New(Options{MaxSize: 16, Cooldown: time.Millisecond, Diagnose: diag.hook})
	a.SetWorker(func(e *core.LogEvent) error {
		mu.Lock()
		defer mu.Unlock()
		processed = append(processed, e.EventID)
		if e.EventID == "evt-000001" {
			return errors.New("sink exploded")
		}
		if e.EventID == "evt-000002" {
			panic("sink panicked")
		}
		return nil
	})
	require.NoError(t, a.Start())

	for i := 0; i < 5; i++ {
		require.NoError(t, a.Enqueue(makeEvent(i)))
	}
	require.NoError(t, a.Stop(true))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, processed, 5, "worker must keep consuming after failures")
	assert.Equal(t, 2, diag.count(core.DiagWorkerFailed))

	payload := diag.lastPayload(core.DiagWorkerFailed)
	require.NotNil(t, payload)
	assert.Equal(t, "evt-000002", payload["event_id"])
	assert.Contains(t, payload["error"], "panic")
}

func TestQueueStopTimeoutIsTransactional(t *testing.T) {
	diag := &diagRecorder{}
	block := make(chan struct{})

	a := New(Options{MaxSize: 16, StopTimeout: 100 * time.Millisecond, Diagnose: diag.hook})
	a.SetWorker(func(*core.LogEvent) error {
		<-block
		return nil
	})
	require.NoError(t, a.Start())

	for i := 0; i < 10; i++ {
		require.NoError(t, a.Enqueue(makeEvent(i)))
	}

	err := a.Stop(true)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrShutdownTimeout)
	assert.Equal(t, Draining, a.State(), "timeout must not reach Stopped")

	require.Equal(t, 1, diag.count(core.DiagQueueShutdownTimeout))
	payload := diag.lastPayload(core.DiagQueueShutdownTimeout)
	remaining, ok := payload["remaining"].(int64)
	require.True(t, ok, "remaining missing from payload: %v", payload)
	assert.GreaterOrEqual(t, remaining, int64(1))

	// New producers are rejected while draining.
	assert.Error(t, a.Enqueue(makeEvent(99)))

	// Unblocking the handler lets a retried Stop succeed.
	close(block)
	require.NoError(t, a.Stop(true))
	assert.Equal(t, Stopped, a.State())
}

func TestQueueStopIdempotent(t *testing.T) {
	a := New(Options{MaxSize: 4})
	a.SetWorker(func(*core.LogEvent) error { return nil })
	require.NoError(t, a.Start())
	require.NoError(t, a.Stop(true))
	require.NoError(t, a.Stop(true))
	assert.Equal(t, Stopped, a.State())
}

func TestQueueStopWithoutStart(t *testing.T) {
	a := New(Options{MaxSize: 4})
	require.NoError(t, a.Stop(true))
	assert.Equal(t, Stopped, a.State())
}

func TestQueueDoubleStart(t *testing.T) {
	a := New(Options{MaxSize: 4})
	a.SetWorker(func(*core.LogEvent) error { return nil })
	require.NoError(t, a.Start())
	defer a.Stop(true)
	assert.Error(t, a.Start())
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	a := New(Options{MaxSize: 4})
	assert.ErrorIs(t, a.Enqueue(makeEvent(0)), ErrNotRunning)
}
