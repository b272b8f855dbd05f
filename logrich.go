// Package logrich is a structured, multi-sink application logging
// runtime: ambient context bound to a context.Context, an event pipeline
// with scrubbing, rate limiting and ring-buffer retention, an optional
// asynchronous queue decoupling producers from sink I/O, and an
// on-demand dump engine rendering the retained history as text, JSON,
// or HTML.
//
// Typical use:
//
//	_, err := logrich.Init(
//		logrich.WithService("billing"),
//		logrich.WithEnvironment("prod"),
//		logrich.WithQueue(true),
//	)
//	defer logrich.Shutdown()
//
//	ctx, err := logrich.Bind(ctx, logrich.BindOptions{JobID: "invoice-42"})
//	log := logrich.Get("billing.invoices")
//	log.Info(ctx, "invoice created", logrich.Fields{"invoice_id": 42})
package logrich

import (
	"sync/atomic"

	"github.com/bitranox/lib-log-rich/core"
	"github.com/bitranox/lib-log-rich/dump"
)

// global is the process-wide runtime singleton. It is published
// atomically: readers observe a fully-initialized runtime or none.
var global atomic.Pointer[Runtime]

// Init composes the component graph from the given options and installs
// it as the process-global runtime. Calling Init again without an
// intervening successful Shutdown fails with ErrAlreadyInitialized.
func Init(opts ...Option) (*Runtime, error) {
	rt, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if !global.CompareAndSwap(nil, rt) {
		// Lost the race (or a runtime already exists): tear down the
		// fresh graph quietly.
		rt.Shutdown()
		return nil, core.ErrAlreadyInitialized
	}
	return rt, nil
}

// Active returns the global runtime, or ErrNotInitialized.
func Active() (*Runtime, error) {
	rt := global.Load()
	if rt == nil {
		return nil, core.ErrNotInitialized
	}
	return rt, nil
}

// Dump renders the global runtime's ring-buffer snapshot. The ring is
// not cleared; repeated dumps of an unchanged ring are byte-identical.
func Dump(opts dump.Options) (string, error) {
	rt, err := Active()
	if err != nil {
		return "", err
	}
	return rt.Dump(opts)
}

// FlushRing clears the global runtime's ring buffer.
func FlushRing() error {
	rt, err := Active()
	if err != nil {
		return err
	}
	rt.FlushRing()
	return nil
}

// MinimumLevel returns the lowest severity any active sink accepts.
func MinimumLevel() (core.Level, error) {
	rt, err := Active()
	if err != nil {
		return core.CriticalLevel, err
	}
	return rt.MinimumLevel(), nil
}

// Shutdown drains the queue, flushes the sinks, and clears the global
// runtime. When the queue cannot drain in time the error is returned
// and the runtime stays installed, so state is never lost silently.
// Idempotent once successful.
func Shutdown() error {
	rt := global.Load()
	if rt == nil {
		return nil
	}
	if err := rt.Shutdown(); err != nil {
		return err
	}
	global.CompareAndSwap(rt, nil)
	return nil
}

// ShutdownAsync runs Shutdown on its own goroutine and delivers the
// result on the returned channel, for callers that must not block on
// the queue drain.
func ShutdownAsync() <-chan error {
	done := make(chan error, 1)
	go func() { done <- Shutdown() }()
	return done
}
