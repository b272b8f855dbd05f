// Package selflog is the runtime's internal error log. Failures inside
// sinks, the queue worker, and the diagnostic hook would otherwise
// vanish; every one of them is recorded here. The most recent records
// are retained in memory for post-mortem inspection even when no
// destination is configured.
//
// Route records to stderr:
//
//	selflog.Enable(os.Stderr)
//	defer selflog.Disable()
//
// Or install a handler:
//
//	selflog.EnableHandler(func(component, message string) {
//		metrics.Count("logrich_internal_errors", component)
//	})
//
// Set LOGRICH_SELFLOG to "stderr", "stdout", or a file path to enable
// writer output at startup.
package selflog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Handler receives one internal error record.
type Handler func(component, message string)

// tailSize bounds the in-memory record tail; the oldest record is
// discarded on overflow.
const tailSize = 32

// stampLayout matches the timestamp format of rendered dumps.
const stampLayout = "2006-01-02T15:04:05.000000Z"

var (
	active atomic.Pointer[Handler]

	tailMu sync.Mutex
	tail   []string
)

// Enable routes records to w as timestamped lines. Writes are
// serialized internally, so any io.Writer is safe.
func Enable(w io.Writer) {
	if w == nil {
		return
	}
	var mu sync.Mutex
	EnableHandler(func(component, message string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "%s [%s] %s\n", time.Now().UTC().Format(stampLayout), component, message)
	})
}

// EnableHandler routes records to the given handler.
func EnableHandler(h Handler) {
	if h == nil {
		return
	}
	active.Store(&h)
}

// Disable stops routing records to the configured destination. The
// in-memory tail keeps recording.
func Disable() {
	active.Store(nil)
}

// Enabled reports whether a destination is configured.
func Enabled() bool {
	return active.Load() != nil
}

// Report records an internal error from the named component. The record
// always lands in the tail; the configured destination, if any,
// receives it as well.
func Report(component, format string, args ...any) {
	message := fmt.Sprintf(format, args...)

	tailMu.Lock()
	tail = append(tail, time.Now().UTC().Format(stampLayout)+" ["+component+"] "+message)
	if len(tail) > tailSize {
		tail = tail[len(tail)-tailSize:]
	}
	tailMu.Unlock()

	if h := active.Load(); h != nil {
		(*h)(component, message)
	}
}

// Recent returns a copy of the retained records, oldest first.
func Recent() []string {
	tailMu.Lock()
	defer tailMu.Unlock()
	return append([]string(nil), tail...)
}

// Reset discards the retained records. Mainly for tests.
func Reset() {
	tailMu.Lock()
	defer tailMu.Unlock()
	tail = nil
}

func init() {
	switch dest := os.Getenv("LOGRICH_SELFLOG"); dest {
	case "":
	case "stderr":
		Enable(os.Stderr)
	case "stdout":
		Enable(os.Stdout)
	default:
		if f, err := os.OpenFile(dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			Enable(f)
		}
	}
}
