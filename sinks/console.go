package sinks

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bitranox/lib-log-rich/core"
	"github.com/bitranox/lib-log-rich/dump"
	"github.com/bitranox/lib-log-rich/selflog"
)

// ConsoleSink writes log events to a terminal or arbitrary writer.
type ConsoleSink struct {
	mu       sync.Mutex
	output   io.Writer
	theme    *ConsoleTheme
	useColor bool
	template *dump.Template

	overrides map[core.Level]Color

	// styles memoizes the per-level ANSI wrappers so the hot path does
	// not rebuild them per event. Bounded by the level enumeration.
	styleMu sync.RWMutex
	styles  map[core.Level]levelStyle
}

type levelStyle struct {
	open  string
	close string
}

// ConsoleOption configures a console sink.
type ConsoleOption func(*ConsoleSink)

// WithConsoleWriter directs output to the given writer instead of stdout.
func WithConsoleWriter(w io.Writer) ConsoleOption {
	return func(cs *ConsoleSink) {
		cs.output = w
		cs.useColor = shouldUseColor(w)
	}
}

// WithConsoleTheme sets the theme.
func WithConsoleTheme(theme *ConsoleTheme) ConsoleOption {
	return func(cs *ConsoleSink) {
		cs.theme = theme
	}
}

// WithConsoleForceColor enables ANSI colors regardless of the writer.
func WithConsoleForceColor() ConsoleOption {
	return func(cs *ConsoleSink) {
		cs.useColor = true
	}
}

// WithConsoleNoColor disables ANSI colors regardless of the writer.
func WithConsoleNoColor() ConsoleOption {
	return func(cs *ConsoleSink) {
		cs.useColor = false
	}
}

// WithConsoleStyles overrides the theme color of individual levels.
func WithConsoleStyles(styles map[core.Level]Color) ConsoleOption {
	return func(cs *ConsoleSink) {
		cs.overrides = styles
	}
}

// NewConsoleSink creates a console sink writing to stdout.
func NewConsoleSink(opts ...ConsoleOption) *ConsoleSink {
	cs := &ConsoleSink{
		output:   os.Stdout,
		theme:    DefaultTheme(),
		useColor: shouldUseColor(os.Stdout),
		styles:   make(map[core.Level]levelStyle, len(core.Levels())),
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// NewConsoleSinkWithTemplate creates a console sink rendering each event
// through the given dump template instead of the default line format.
func NewConsoleSinkWithTemplate(template string, opts ...ConsoleOption) (*ConsoleSink, error) {
	parsed, err := dump.ParseTemplate(template)
	if err != nil {
		return nil, fmt.Errorf("invalid console template: %w", err)
	}
	cs := NewConsoleSink(opts...)
	cs.template = parsed
	return cs, nil
}

// Name identifies the sink in diagnostics.
func (cs *ConsoleSink) Name() string { return "console" }

// Emit writes the log event to the console.
func (cs *ConsoleSink) Emit(event *core.LogEvent) error {
	var line string
	if cs.template != nil {
		style := cs.levelStyle(event.Level)
		line = style.open + cs.template.Render(event) + style.close
	} else {
		line = cs.formatEvent(event)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, err := fmt.Fprintln(cs.output, line); err != nil {
		selflog.Report("console", "write failed: %v", err)
		return fmt.Errorf("console write: %w", err)
	}
	return nil
}

// Flush is a no-op; console writes are unbuffered.
func (cs *ConsoleSink) Flush() error { return nil }

// Close is a no-op; the sink does not own its writer.
func (cs *ConsoleSink) Close() error { return nil }

// levelStyle returns the memoized ANSI wrapper for a level, building it
// on first use.
func (cs *ConsoleSink) levelStyle(level core.Level) levelStyle {
	cs.styleMu.RLock()
	style, ok := cs.styles[level]
	cs.styleMu.RUnlock()
	if ok {
		return style
	}

	cs.styleMu.Lock()
	defer cs.styleMu.Unlock()
	if style, ok = cs.styles[level]; ok {
		return style
	}

	color := cs.theme.GetLevelColor(level)
	if override, ok := cs.overrides[level]; ok {
		color = override
	}
	if cs.useColor && color != "" && color != ColorReset {
		style = levelStyle{open: string(color), close: string(ColorReset)}
	}
	cs.styles[level] = style
	return style
}

// formatEvent builds the default console line:
// [timestamp] [CODE] logger: message key=value…
func (cs *ConsoleSink) formatEvent(event *core.LogEvent) string {
	style := cs.levelStyle(event.Level)

	timestamp := event.Timestamp.Format(cs.theme.TimestampFormat)
	timestampPart := colorize("["+timestamp+"]", cs.theme.TimestampColor, cs.useColor)
	levelPart := style.open + "[" + event.Level.Code() + "]" + style.close

	var sb strings.Builder
	sb.WriteString(timestampPart)
	sb.WriteString(" ")
	sb.WriteString(levelPart)
	sb.WriteString(" ")
	sb.WriteString(event.LoggerName)
	sb.WriteString(": ")
	sb.WriteString(event.Message)

	if len(event.Extra) > 0 {
		keys := make([]string, 0, len(event.Extra))
		for k := range event.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, event.Extra[k])
		}
	}
	return sb.String()
}
