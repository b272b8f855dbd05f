package sinks

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bitranox/lib-log-rich/core"
	"github.com/bitranox/lib-log-rich/selflog"
)

// gelfFieldPattern is the character set GELF allows for additional
// field names; anything else is mapped to '_'.
var gelfFieldPattern = regexp.MustCompile(`[^\w\.\-]`)

// GelfSink delivers events to a Graylog-style aggregator as GELF
// payloads over TCP (optionally TLS) or UDP. The connection is owned by
// the sink and reopened on failure. In queued mode only the worker
// touches the sink; in synchronous mode the internal lock serializes
// writers.
type GelfSink struct {
	host     string
	port     int
	protocol string
	useTLS   bool
	tlsConf  *tls.Config
	source   string

	dial        func(network, address string) (net.Conn, error)
	dialTimeout time.Duration
	retryCount  int
	retryDelay  time.Duration

	mu   sync.Mutex
	conn net.Conn
}

// GelfOption configures a GELF sink.
type GelfOption func(*GelfSink)

// WithGelfProtocol selects "tcp" or "udp". The default is tcp.
func WithGelfProtocol(protocol string) GelfOption {
	return func(g *GelfSink) {
		g.protocol = strings.ToLower(protocol)
	}
}

// WithGelfTLS wraps the TCP transport in TLS.
func WithGelfTLS(conf *tls.Config) GelfOption {
	return func(g *GelfSink) {
		g.useTLS = true
		g.tlsConf = conf
	}
}

// WithGelfSource sets the GELF "host" field. Defaults to the event's
// context hostname.
func WithGelfSource(source string) GelfOption {
	return func(g *GelfSink) {
		g.source = source
	}
}

// WithGelfRetry configures reconnect-and-retry behavior on write failure.
func WithGelfRetry(count int, delay time.Duration) GelfOption {
	return func(g *GelfSink) {
		g.retryCount = count
		g.retryDelay = delay
	}
}

// WithGelfDialer replaces the network dialer, for tests.
func WithGelfDialer(dial func(network, address string) (net.Conn, error)) GelfOption {
	return func(g *GelfSink) {
		g.dial = dial
	}
}

// NewGelfSink creates a GELF sink for the given endpoint.
// UDP combined with TLS is rejected.
func NewGelfSink(host string, port int, opts ...GelfOption) (*GelfSink, error) {
	if host == "" {
		return nil, &core.ConfigError{Reason: "graylog endpoint host must not be empty"}
	}
	g := &GelfSink{
		host:        host,
		port:        port,
		protocol:    "tcp",
		dialTimeout: 5 * time.Second,
		retryCount:  1,
		retryDelay:  100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.protocol != "tcp" && g.protocol != "udp" {
		return nil, &core.ConfigError{Reason: fmt.Sprintf("unsupported graylog protocol %q", g.protocol)}
	}
	if g.protocol == "udp" && g.useTLS {
		return nil, &core.ConfigError{Reason: "graylog TLS requires the tcp protocol"}
	}
	if g.dial == nil {
		g.dial = func(network, address string) (net.Conn, error) {
			return net.DialTimeout(network, address, g.dialTimeout)
		}
	}
	return g, nil
}

// Name identifies the sink in diagnostics.
func (g *GelfSink) Name() string { return "graylog" }

// Emit serializes the event as GELF and delivers it, reconnecting and
// retrying on transport failure.
func (g *GelfSink) Emit(event *core.LogEvent) error {
	payload, err := json.Marshal(g.buildPayload(event))
	if err != nil {
		return fmt.Errorf("gelf marshal: %w", err)
	}
	if g.protocol == "tcp" {
		// TCP framing: null-terminated messages.
		payload = append(payload, 0)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= g.retryCount; attempt++ {
		if attempt > 0 {
			g.closeConnLocked()
			time.Sleep(g.retryDelay)
		}
		if err := g.writeLocked(payload); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	selflog.Report("graylog", "delivery failed after %d attempts: %v", g.retryCount+1, lastErr)
	return fmt.Errorf("gelf delivery: %w", lastErr)
}

// Flush is a no-op; events are written unbatched.
func (g *GelfSink) Flush() error { return nil }

// Close tears down the transport connection.
func (g *GelfSink) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeConnLocked()
	return nil
}

func (g *GelfSink) writeLocked(payload []byte) error {
	if g.conn == nil {
		address := net.JoinHostPort(g.host, fmt.Sprint(g.port))
		conn, err := g.dial(g.protocol, address)
		if err != nil {
			return fmt.Errorf("dial %s %s: %w", g.protocol, address, err)
		}
		if g.useTLS {
			conf := g.tlsConf
			if conf == nil {
				conf = &tls.Config{ServerName: g.host}
			}
			conn = tls.Client(conn, conf)
		}
		g.conn = conn
	}
	if _, err := g.conn.Write(payload); err != nil {
		g.closeConnLocked()
		return err
	}
	return nil
}

func (g *GelfSink) closeConnLocked() {
	if g.conn != nil {
		g.conn.Close()
		g.conn = nil
	}
}

// buildPayload maps an event to GELF 1.1: standard fields plus
// underscore-prefixed additional fields.
func (g *GelfSink) buildPayload(event *core.LogEvent) map[string]any {
	source := g.source
	if source == "" {
		source = event.Context.Hostname
	}
	if source == "" {
		source = "localhost"
	}

	payload := map[string]any{
		"version":       "1.1",
		"host":          source,
		"short_message": event.Message,
		"timestamp":     float64(event.Timestamp.UnixMicro()) / 1e6,
		"level":         event.Level.Syslog(),
	}

	additional := map[string]any{
		"logger_name":      event.LoggerName,
		"event_id":         event.EventID,
		"level_name":       event.Level.String(),
		"service":          event.Context.Service,
		"environment":      event.Context.Environment,
		"job_id":           event.Context.JobID,
		"process_id":       event.Context.ProcessID,
		"process_id_chain": event.Context.PIDChainString(),
	}
	optional := map[string]string{
		"request_id": event.Context.RequestID,
		"user_id":    event.Context.UserID,
		"user_name":  event.Context.UserName,
		"trace_id":   event.Context.TraceID,
		"span_id":    event.Context.SpanID,
	}
	for k, v := range optional {
		if v != "" {
			additional[k] = v
		}
	}
	for k, v := range event.Context.Extra {
		additional["ctx_"+k] = v
	}
	for k, v := range event.Extra {
		additional[k] = v
	}
	if event.Exception != nil {
		payload["full_message"] = event.Exception.Trace
		additional["exception_type"] = event.Exception.Type
		additional["exception_message"] = event.Exception.Message
	}

	for k, v := range additional {
		payload["_"+sanitizeGelfField(k)] = v
	}
	return payload
}

func sanitizeGelfField(name string) string {
	name = gelfFieldPattern.ReplaceAllString(name, "_")
	if name == "id" {
		// "_id" is reserved by GELF.
		return "id_"
	}
	return name
}
