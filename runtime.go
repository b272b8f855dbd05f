package logrich

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/bitranox/lib-log-rich/core"
	"github.com/bitranox/lib-log-rich/dump"
	"github.com/bitranox/lib-log-rich/internal/queue"
	"github.com/bitranox/lib-log-rich/internal/rate"
	"github.com/bitranox/lib-log-rich/internal/ringbuffer"
	"github.com/bitranox/lib-log-rich/internal/scrub"
	"github.com/bitranox/lib-log-rich/selflog"
	"github.com/bitranox/lib-log-rich/sinks"
)

// boundSink pairs a sink with its severity gate. Gates are evaluated
// independently per sink during fan-out.
type boundSink struct {
	sink      core.Sink
	threshold core.Level
}

// Runtime owns the component graph: binder state, ring buffer, scrubber,
// rate limiter, queue, and sinks. It is built once by Init (or New for
// embedded use) and torn down by Shutdown.
type Runtime struct {
	opts     Options
	identity core.IdentityProvider
	clock    core.Clock

	ring     *ringbuffer.RingBuffer
	scrubber *scrub.Scrubber
	limiter  *rate.Limiter
	queue    *queue.Adapter
	sinks    []boundSink

	mu     sync.Mutex
	closed bool
}

// New composes a runtime from the given options without touching the
// process-global singleton. Most applications use Init instead; New
// exists for tests and embedded setups that manage the lifecycle
// themselves.
func New(opts ...Option) (*Runtime, error) {
	resolved := defaultOptions()
	for _, opt := range opts {
		opt(&resolved)
	}
	if err := resolved.validate(); err != nil {
		return nil, err
	}
	if resolved.DumpTemplate == "" && resolved.DumpPreset != "" {
		resolved.DumpTemplate, _ = dump.TemplatePreset(resolved.DumpPreset)
	}

	rt := &Runtime{
		opts:     resolved,
		identity: resolved.Identity,
		clock:    resolved.Clock,
	}

	scrubber, err := scrub.New(resolved.ScrubPatterns)
	if err != nil {
		return nil, &core.ConfigError{Reason: err.Error()}
	}
	rt.scrubber = scrubber
	rt.limiter = rate.New(resolved.RateLimitMax, resolved.RateLimitWindow, resolved.Clock)

	if resolved.RingBufferEnabled {
		rt.ring = ringbuffer.New(resolved.RingBufferSize)
	}

	if err := rt.buildSinks(); err != nil {
		return nil, err
	}

	if resolved.QueueEnabled {
		rt.queue = queue.New(resolved.queueOptions(rt.diagnose))
		rt.queue.SetWorker(rt.fanOut)
		if err := rt.queue.Start(); err != nil {
			return nil, fmt.Errorf("start queue: %w", err)
		}
	}
	return rt, nil
}

// buildSinks constructs the enabled sinks. Platform-conditional sinks
// requested on an unsupported platform are left disabled and reported
// via a sink_unavailable diagnostic instead of failing init.
func (rt *Runtime) buildSinks() error {
	o := &rt.opts

	if o.ConsoleEnabled {
		consoleOpts := []sinks.ConsoleOption{
			sinks.WithConsoleTheme(sinks.ThemeByName(o.ConsoleTheme)),
		}
		if o.ConsoleWriter != nil {
			consoleOpts = append(consoleOpts, sinks.WithConsoleWriter(o.ConsoleWriter))
		}
		if o.ForceColor {
			consoleOpts = append(consoleOpts, sinks.WithConsoleForceColor())
		}
		if o.NoColor {
			consoleOpts = append(consoleOpts, sinks.WithConsoleNoColor())
		}
		if len(o.ConsoleStyles) > 0 {
			consoleOpts = append(consoleOpts, sinks.WithConsoleStyles(o.ConsoleStyles))
		}
		rt.sinks = append(rt.sinks, boundSink{sinks.NewConsoleSink(consoleOpts...), o.ConsoleLevel})
	}

	if o.JournaldEnabled {
		if o.JournaldTransport == nil && runtime.GOOS != "linux" {
			rt.diagnose(core.DiagSinkUnavailable, map[string]any{"sink": "journald", "platform": runtime.GOOS})
		} else {
			rt.sinks = append(rt.sinks, boundSink{sinks.NewJournaldSink(o.JournaldTransport), o.BackendLevel})
		}
	}

	if o.EventLogEnabled {
		if o.EventLogRecorder == nil {
			rt.diagnose(core.DiagSinkUnavailable, map[string]any{"sink": "eventlog", "platform": runtime.GOOS})
		} else {
			rt.sinks = append(rt.sinks, boundSink{sinks.NewEventLogSink(o.EventLogRecorder), o.BackendLevel})
		}
	}

	if o.GraylogEnabled {
		gelfOpts := []sinks.GelfOption{sinks.WithGelfProtocol(o.GraylogProtocol)}
		if o.GraylogTLS {
			gelfOpts = append(gelfOpts, sinks.WithGelfTLS(nil))
		}
		gelf, err := sinks.NewGelfSink(o.GraylogHost, o.GraylogPort, gelfOpts...)
		if err != nil {
			return err
		}
		rt.sinks = append(rt.sinks, boundSink{gelf, o.GraylogLevel})
	}
	return nil
}

// AddSink registers an additional sink with its own threshold. Intended
// for custom sink implementations; must be called before logging starts.
func (rt *Runtime) AddSink(sink core.Sink, threshold core.Level) {
	rt.sinks = append(rt.sinks, boundSink{sink, threshold})
}

// MinimumLevel returns the lowest threshold among active sinks.
// Producers may use it to skip expensive argument construction. With no
// sinks active it returns CriticalLevel.
func (rt *Runtime) MinimumLevel() core.Level {
	min := core.CriticalLevel
	for _, bs := range rt.sinks {
		if bs.threshold < min {
			min = bs.threshold
		}
	}
	return min
}

// Dump renders the current ring-buffer snapshot. The buffer is not
// cleared by a dump; use FlushRing for that.
func (rt *Runtime) Dump(opts dump.Options) (string, error) {
	if rt.ring == nil {
		return "", &core.ConfigError{Reason: "ring buffer is disabled"}
	}
	if opts.Template == "" {
		opts.Template = rt.opts.DumpTemplate
	}
	return dump.Render(rt.ring.Snapshot(), opts)
}

// FlushRing clears the ring buffer.
func (rt *Runtime) FlushRing() {
	if rt.ring != nil {
		rt.ring.Flush()
	}
}

// RingLen returns the number of retained events.
func (rt *Runtime) RingLen() int {
	if rt.ring == nil {
		return 0
	}
	return rt.ring.Len()
}

// QueueState reports the queue lifecycle state, or Stopped when the
// queue is disabled.
func (rt *Runtime) QueueState() queue.State {
	if rt.queue == nil {
		return queue.Stopped
	}
	return rt.queue.State()
}

// Shutdown drains the queue, flushes and closes every sink, and marks
// the runtime closed. It is transactional with respect to the queue: a
// drain timeout returns ErrShutdownTimeout and leaves the runtime open
// so the caller can retry or abandon deliberately. Flush and close
// failures are best-effort and surface only as diagnostics. Idempotent
// after the first successful call.
func (rt *Runtime) Shutdown() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return nil
	}

	if rt.queue != nil {
		if err := rt.queue.Stop(true); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	for _, bs := range rt.sinks {
		bs := bs
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bs.sink.Flush(); err != nil {
				rt.diagnose(core.DiagSinkFailed, map[string]any{
					"sink":  bs.sink.Name(),
					"op":    "flush",
					"error": err.Error(),
				})
				selflog.Report("shutdown", "sink %s flush failed: %v", bs.sink.Name(), err)
			}
			if err := bs.sink.Close(); err != nil {
				rt.diagnose(core.DiagSinkFailed, map[string]any{
					"sink":  bs.sink.Name(),
					"op":    "close",
					"error": err.Error(),
				})
				selflog.Report("shutdown", "sink %s close failed: %v", bs.sink.Name(), err)
			}
		}()
	}
	wg.Wait()

	rt.closed = true
	return nil
}
