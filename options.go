package logrich

import (
	"fmt"
	"io"
	"time"

	"github.com/bitranox/lib-log-rich/core"
	"github.com/bitranox/lib-log-rich/dump"
	"github.com/bitranox/lib-log-rich/internal/queue"
	"github.com/bitranox/lib-log-rich/internal/ringbuffer"
	"github.com/bitranox/lib-log-rich/sinks"
)

// Options is the fully-resolved runtime configuration. External loaders
// (CLI flags, env vars, config files) map onto this structure; the core
// consumes nothing else.
type Options struct {
	// Required identity fields.
	Service     string
	Environment string

	// Console sink.
	ConsoleEnabled bool
	ConsoleLevel   core.Level
	ConsoleWriter  io.Writer
	ConsoleTheme   string
	ConsoleStyles  map[core.Level]sinks.Color
	ForceColor     bool
	NoColor        bool

	// Structured OS backends, sharing one threshold.
	BackendLevel      core.Level
	JournaldEnabled   bool
	JournaldTransport sinks.JournaldTransport
	EventLogEnabled   bool
	EventLogRecorder  sinks.EventLogRecorder

	// Graylog-style central aggregator.
	GraylogEnabled  bool
	GraylogLevel    core.Level
	GraylogHost     string
	GraylogPort     int
	GraylogProtocol string
	GraylogTLS      bool

	// Ring retention.
	RingBufferEnabled bool
	RingBufferSize    int

	// Queue behavior.
	QueueEnabled     bool
	QueueMaxSize     int
	QueuePutTimeout  time.Duration
	QueueStopTimeout time.Duration
	QueueCooldown    time.Duration

	// Default dump rendering. A non-empty template wins over the preset.
	DumpTemplate string
	DumpPreset   string

	// Scrubber policy: field-name pattern → value pattern.
	ScrubPatterns map[string]string

	// Rate limiting per (logger, level).
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Payload truncation thresholds.
	MaxMessageBytes int
	MaxExtraBytes   int

	// Observability.
	DiagnosticHook core.DiagnosticHook

	// Pluggable system resolvers.
	Identity core.IdentityProvider
	Clock    core.Clock
}

// Option is a functional option for configuring the runtime.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		ConsoleEnabled:    true,
		ConsoleLevel:      core.InfoLevel,
		BackendLevel:      core.WarningLevel,
		GraylogLevel:      core.WarningLevel,
		GraylogProtocol:   "tcp",
		RingBufferEnabled: true,
		RingBufferSize:    ringbuffer.DefaultCapacity,
		QueueMaxSize:      2048,
		QueuePutTimeout:   time.Second,
		QueueStopTimeout:  5 * time.Second,
		QueueCooldown:     time.Second,
		MaxMessageBytes:   4096,
		MaxExtraBytes:     65536,
		Identity:          core.DefaultIdentityProvider(),
		Clock:             core.SystemClock(),
	}
}

// WithService sets the required service name.
func WithService(service string) Option {
	return func(o *Options) { o.Service = service }
}

// WithEnvironment sets the required environment name.
func WithEnvironment(environment string) Option {
	return func(o *Options) { o.Environment = environment }
}

// WithConsole toggles the console sink.
func WithConsole(enabled bool) Option {
	return func(o *Options) { o.ConsoleEnabled = enabled }
}

// WithConsoleLevel sets the console severity threshold.
func WithConsoleLevel(level core.Level) Option {
	return func(o *Options) { o.ConsoleLevel = level }
}

// WithConsoleWriter redirects console output, mainly for tests.
func WithConsoleWriter(w io.Writer) Option {
	return func(o *Options) { o.ConsoleWriter = w }
}

// WithConsoleTheme selects a named console theme.
func WithConsoleTheme(name string) Option {
	return func(o *Options) { o.ConsoleTheme = name }
}

// WithConsoleStyles overrides individual level colors.
func WithConsoleStyles(styles map[core.Level]sinks.Color) Option {
	return func(o *Options) { o.ConsoleStyles = styles }
}

// WithForceColor forces ANSI colors on.
func WithForceColor() Option {
	return func(o *Options) { o.ForceColor = true }
}

// WithNoColor forces ANSI colors off.
func WithNoColor() Option {
	return func(o *Options) { o.NoColor = true }
}

// WithBackendLevel sets the shared threshold of the structured OS
// backends.
func WithBackendLevel(level core.Level) Option {
	return func(o *Options) { o.BackendLevel = level }
}

// WithJournald toggles the journald-style sink.
func WithJournald(enabled bool) Option {
	return func(o *Options) { o.JournaldEnabled = enabled }
}

// WithJournaldTransport injects a journal transport, enabling the sink
// on any platform.
func WithJournaldTransport(t sinks.JournaldTransport) Option {
	return func(o *Options) { o.JournaldTransport = t }
}

// WithEventLog toggles the event-log-style sink.
func WithEventLog(enabled bool) Option {
	return func(o *Options) { o.EventLogEnabled = enabled }
}

// WithEventLogRecorder injects an event-log recorder, enabling the sink
// on any platform.
func WithEventLogRecorder(r sinks.EventLogRecorder) Option {
	return func(o *Options) { o.EventLogRecorder = r }
}

// WithGraylog enables the Graylog-style sink for the given endpoint.
func WithGraylog(host string, port int) Option {
	return func(o *Options) {
		o.GraylogEnabled = true
		o.GraylogHost = host
		o.GraylogPort = port
	}
}

// WithGraylogLevel sets the Graylog severity threshold.
func WithGraylogLevel(level core.Level) Option {
	return func(o *Options) { o.GraylogLevel = level }
}

// WithGraylogProtocol selects "tcp" or "udp".
func WithGraylogProtocol(protocol string) Option {
	return func(o *Options) { o.GraylogProtocol = protocol }
}

// WithGraylogTLS wraps the Graylog transport in TLS.
func WithGraylogTLS(enabled bool) Option {
	return func(o *Options) { o.GraylogTLS = enabled }
}

// WithRingBuffer configures ring retention.
func WithRingBuffer(enabled bool, size int) Option {
	return func(o *Options) {
		o.RingBufferEnabled = enabled
		if size > 0 {
			o.RingBufferSize = size
		}
	}
}

// WithQueue enables the asynchronous queue.
func WithQueue(enabled bool) Option {
	return func(o *Options) { o.QueueEnabled = enabled }
}

// WithQueueMaxSize bounds the queue.
func WithQueueMaxSize(size int) Option {
	return func(o *Options) { o.QueueMaxSize = size }
}

// WithQueuePutTimeout bounds the producer wait on a full queue.
func WithQueuePutTimeout(d time.Duration) Option {
	return func(o *Options) { o.QueuePutTimeout = d }
}

// WithQueueStopTimeout bounds the shutdown drain.
func WithQueueStopTimeout(d time.Duration) Option {
	return func(o *Options) { o.QueueStopTimeout = d }
}

// WithQueueCooldown sets the worker pause after a handler failure.
func WithQueueCooldown(d time.Duration) Option {
	return func(o *Options) { o.QueueCooldown = d }
}

// WithDumpTemplate sets the default text template for dumps.
func WithDumpTemplate(template string) Option {
	return func(o *Options) { o.DumpTemplate = template }
}

// WithDumpPreset selects a named default template ("default", "full",
// "short") for dumps. An explicit WithDumpTemplate takes precedence.
func WithDumpPreset(name string) Option {
	return func(o *Options) { o.DumpPreset = name }
}

// WithScrubPatterns replaces the scrubber policy.
func WithScrubPatterns(patterns map[string]string) Option {
	return func(o *Options) { o.ScrubPatterns = patterns }
}

// WithRateLimit throttles each (logger, level) pair to max events per
// window.
func WithRateLimit(max int, window time.Duration) Option {
	return func(o *Options) {
		o.RateLimitMax = max
		o.RateLimitWindow = window
	}
}

// WithPayloadLimits sets the truncation thresholds for message and extra
// payloads.
func WithPayloadLimits(maxMessageBytes, maxExtraBytes int) Option {
	return func(o *Options) {
		o.MaxMessageBytes = maxMessageBytes
		o.MaxExtraBytes = maxExtraBytes
	}
}

// WithDiagnosticHook installs the internal-event observer.
func WithDiagnosticHook(hook core.DiagnosticHook) Option {
	return func(o *Options) { o.DiagnosticHook = hook }
}

// WithIdentityProvider replaces the system identity resolver.
func WithIdentityProvider(p core.IdentityProvider) Option {
	return func(o *Options) { o.Identity = p }
}

// WithClock replaces the time source, for tests.
func WithClock(c core.Clock) Option {
	return func(o *Options) { o.Clock = c }
}

// validate rejects invalid option combinations.
func (o *Options) validate() error {
	if o.Service == "" {
		return &core.ConfigError{Reason: "service must not be empty"}
	}
	if o.Environment == "" {
		return &core.ConfigError{Reason: "environment must not be empty"}
	}
	if o.ForceColor && o.NoColor {
		return &core.ConfigError{Reason: "force_color and no_color are mutually exclusive"}
	}
	if o.GraylogEnabled {
		if o.GraylogHost == "" || o.GraylogPort == 0 {
			return &core.ConfigError{Reason: "graylog enabled without endpoint"}
		}
		if o.GraylogProtocol == "udp" && o.GraylogTLS {
			return &core.ConfigError{Reason: "graylog TLS requires the tcp protocol"}
		}
	}
	if o.DumpPreset != "" {
		if _, ok := dump.TemplatePreset(o.DumpPreset); !ok {
			return &core.ConfigError{Reason: fmt.Sprintf("unknown dump preset %q", o.DumpPreset)}
		}
	}
	return nil
}

func (o *Options) queueOptions(diagnose core.DiagnosticHook) queue.Options {
	return queue.Options{
		MaxSize:     o.QueueMaxSize,
		PutTimeout:  o.QueuePutTimeout,
		StopTimeout: o.QueueStopTimeout,
		Cooldown:    o.QueueCooldown,
		Diagnose:    diagnose,
	}
}
