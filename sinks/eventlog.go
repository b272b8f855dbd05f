package sinks

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bitranox/lib-log-rich/core"
	"github.com/bitranox/lib-log-rich/selflog"
)

// EventLogRecorder receives event-log-style records. The Windows-specific
// delivery is a collaborator behind this port.
type EventLogRecorder interface {
	Record(level core.Level, payload map[string]string) error
	Close() error
}

// EventLogSink emits events as event-log-style records with camelCase
// payload keys.
type EventLogSink struct {
	recorder EventLogRecorder
}

// NewEventLogSink creates an event-log-style sink over the given
// recorder.
func NewEventLogSink(recorder EventLogRecorder) *EventLogSink {
	return &EventLogSink{recorder: recorder}
}

// Name identifies the sink in diagnostics.
func (s *EventLogSink) Name() string { return "eventlog" }

// Emit normalizes the event and hands it to the recorder.
func (s *EventLogSink) Emit(event *core.LogEvent) error {
	if err := s.recorder.Record(event.Level, EventLogPayload(event)); err != nil {
		selflog.Report("eventlog", "record failed: %v", err)
		return fmt.Errorf("eventlog record: %w", err)
	}
	return nil
}

// Flush is a no-op; records are written unbuffered.
func (s *EventLogSink) Flush() error { return nil }

// Close releases the recorder.
func (s *EventLogSink) Close() error { return s.recorder.Close() }

// EventLogPayload builds the camelCase payload for an event.
func EventLogPayload(event *core.LogEvent) map[string]string {
	payload := map[string]string{
		"message":        event.Message,
		"loggerName":     event.LoggerName,
		"eventId":        event.EventID,
		"levelName":      event.Level.String(),
		"service":        event.Context.Service,
		"environment":    event.Context.Environment,
		"jobId":          event.Context.JobID,
		"processId":      fmt.Sprint(event.Context.ProcessID),
		"processIdChain": event.Context.PIDChainString(),
	}
	optional := map[string]string{
		"requestId": event.Context.RequestID,
		"userId":    event.Context.UserID,
		"userName":  event.Context.UserName,
		"hostname":  event.Context.Hostname,
		"traceId":   event.Context.TraceID,
		"spanId":    event.Context.SpanID,
	}
	for k, v := range optional {
		if v != "" {
			payload[k] = v
		}
	}
	for k, v := range event.Extra {
		payload[camelCase(k)] = fmt.Sprint(v)
	}
	if event.Exception != nil {
		payload["exceptionType"] = event.Exception.Type
		payload["exceptionMessage"] = event.Exception.Message
		payload["exceptionTrace"] = event.Exception.Trace
	}
	return payload
}

// camelCase converts snake_case, kebab-case, or space-separated keys to
// camelCase.
func camelCase(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	if len(parts) == 0 {
		return key
	}
	var sb strings.Builder
	sb.WriteString(strings.ToLower(parts[0]))
	for _, part := range parts[1:] {
		runes := []rune(strings.ToLower(part))
		if len(runes) == 0 {
			continue
		}
		runes[0] = unicode.ToUpper(runes[0])
		sb.WriteString(string(runes))
	}
	return sb.String()
}
