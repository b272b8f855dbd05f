package sinks

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/bitranox/lib-log-rich/core"
	"github.com/bitranox/lib-log-rich/selflog"
)

// JournaldTransport delivers normalized field sets to the journal. The
// OS-specific delivery is a collaborator behind this port; the sink owns
// only the field normalization.
type JournaldTransport interface {
	Send(fields map[string]string) error
	Close() error
}

// JournaldSink emits events as journald-style field sets: field names
// are upper-case ASCII with non-alphanumerics mapped to underscores.
type JournaldSink struct {
	transport JournaldTransport
}

// NewJournaldSink creates a journald-style sink over the given
// transport. A nil transport connects to the local journal socket.
func NewJournaldSink(transport JournaldTransport) *JournaldSink {
	if transport == nil {
		transport = &journalSocketTransport{path: "/run/systemd/journal/socket"}
	}
	return &JournaldSink{transport: transport}
}

// Name identifies the sink in diagnostics.
func (j *JournaldSink) Name() string { return "journald" }

// Emit normalizes the event and hands it to the transport.
func (j *JournaldSink) Emit(event *core.LogEvent) error {
	if err := j.transport.Send(JournaldFields(event)); err != nil {
		selflog.Report("journald", "send failed: %v", err)
		return fmt.Errorf("journald send: %w", err)
	}
	return nil
}

// Flush is a no-op; journal sends are unbuffered.
func (j *JournaldSink) Flush() error { return nil }

// Close releases the transport.
func (j *JournaldSink) Close() error { return j.transport.Close() }

// JournaldFields builds the journald field set for an event. Custom
// fields get the upper-case ASCII treatment journald requires.
func JournaldFields(event *core.LogEvent) map[string]string {
	fields := map[string]string{
		"MESSAGE":           event.Message,
		"PRIORITY":          strconv.Itoa(event.Level.Syslog()),
		"SYSLOG_IDENTIFIER": event.Context.Service,
		"LOGGER_NAME":       event.LoggerName,
		"EVENT_ID":          event.EventID,
		"LEVEL_NAME":        event.Level.String(),
		"ENVIRONMENT":       event.Context.Environment,
		"JOB_ID":            event.Context.JobID,
		"PROCESS_ID":        strconv.Itoa(event.Context.ProcessID),
		"PROCESS_ID_CHAIN":  event.Context.PIDChainString(),
	}
	optional := map[string]string{
		"REQUEST_ID": event.Context.RequestID,
		"USER_ID":    event.Context.UserID,
		"USER_NAME":  event.Context.UserName,
		"HOSTNAME":   event.Context.Hostname,
		"TRACE_ID":   event.Context.TraceID,
		"SPAN_ID":    event.Context.SpanID,
	}
	for k, v := range optional {
		if v != "" {
			fields[k] = v
		}
	}
	for k, v := range event.Extra {
		fields[journaldFieldName(k)] = fmt.Sprint(v)
	}
	if event.Exception != nil {
		fields["EXCEPTION_TYPE"] = event.Exception.Type
		fields["EXCEPTION_MESSAGE"] = event.Exception.Message
		fields["EXCEPTION_TRACE"] = event.Exception.Trace
	}
	return fields
}

// journaldFieldName maps an arbitrary key to a valid journald field
// name: upper-case ASCII, [A-Z0-9_] only, never starting with a digit.
func journaldFieldName(key string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(key) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	name := sb.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "X" + name
	}
	return name
}

// journalSocketTransport sends datagrams to the local journal socket.
type journalSocketTransport struct {
	path string

	mu   sync.Mutex
	conn net.Conn
}

func (t *journalSocketTransport) Send(fields map[string]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		conn, err := net.Dial("unixgram", t.path)
		if err != nil {
			return fmt.Errorf("dial journal socket: %w", err)
		}
		t.conn = conn
	}

	var sb strings.Builder
	for k, v := range fields {
		if strings.ContainsRune(v, '\n') {
			// Multi-line values use the length-prefixed binary framing.
			sb.WriteString(k)
			sb.WriteByte('\n')
			var size [8]byte
			n := len(v)
			for i := 0; i < 8; i++ {
				size[i] = byte(n >> (8 * i))
			}
			sb.Write(size[:])
			sb.WriteString(v)
			sb.WriteByte('\n')
			continue
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(v)
		sb.WriteByte('\n')
	}

	if _, err := t.conn.Write([]byte(sb.String())); err != nil {
		t.conn.Close()
		t.conn = nil
		return err
	}
	return nil
}

func (t *journalSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		err := t.conn.Close()
		t.conn = nil
		return err
	}
	return nil
}
