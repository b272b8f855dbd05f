package logrich

import (
	"context"

	"github.com/bitranox/lib-log-rich/core"
)

// Fields is the per-event extra payload.
type Fields map[string]any

// Logger is a thin proxy bound to a logger name. It holds no pipeline
// state: the runtime is re-resolved on every call, so a logger obtained
// before a shutdown/init cycle keeps working against the new runtime.
type Logger struct {
	name    string
	resolve func() *Runtime
}

// Get returns a logger proxy bound to the given name, dispatching to the
// process-global runtime.
func Get(name string) *Logger {
	return &Logger{
		name:    name,
		resolve: func() *Runtime { return global.Load() },
	}
}

// Logger returns a proxy pinned to this runtime, for embedded setups
// that bypass the global singleton.
func (rt *Runtime) Logger(name string) *Logger {
	return &Logger{
		name:    name,
		resolve: func() *Runtime { return rt },
	}
}

// Name returns the bound logger name.
func (l *Logger) Name() string { return l.name }

// IsEnabled reports whether events at the given level reach any sink.
// Use it to gate expensive argument construction.
func (l *Logger) IsEnabled(level core.Level) bool {
	rt := l.resolve()
	return rt != nil && level >= rt.MinimumLevel()
}

// Debug logs at debug severity.
func (l *Logger) Debug(ctx context.Context, message string, extra Fields) (Result, error) {
	return l.log(ctx, core.DebugLevel, message, extra, nil)
}

// Info logs at info severity.
func (l *Logger) Info(ctx context.Context, message string, extra Fields) (Result, error) {
	return l.log(ctx, core.InfoLevel, message, extra, nil)
}

// Warning logs at warning severity.
func (l *Logger) Warning(ctx context.Context, message string, extra Fields) (Result, error) {
	return l.log(ctx, core.WarningLevel, message, extra, nil)
}

// Error logs at error severity.
func (l *Logger) Error(ctx context.Context, message string, extra Fields) (Result, error) {
	return l.log(ctx, core.ErrorLevel, message, extra, nil)
}

// Critical logs at critical severity.
func (l *Logger) Critical(ctx context.Context, message string, extra Fields) (Result, error) {
	return l.log(ctx, core.CriticalLevel, message, extra, nil)
}

// Log logs at an arbitrary severity, attaching exception info when err
// is non-nil.
func (l *Logger) Log(ctx context.Context, level core.Level, message string, extra Fields, err error) (Result, error) {
	return l.log(ctx, level, message, extra, err)
}

func (l *Logger) log(ctx context.Context, level core.Level, message string, extra Fields, cause error) (Result, error) {
	rt := l.resolve()
	if rt == nil {
		return Result{}, core.ErrNotInitialized
	}
	return rt.processEvent(ctx, l.name, level, message, extra, cause)
}
