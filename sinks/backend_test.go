package sinks

import (
	"errors"
	"testing"
	"time"

	"github.com/bitranox/lib-log-rich/core"
)

func backendEvent() *core.LogEvent {
	return &core.LogEvent{
		EventID:    "evt-5",
		Timestamp:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		LoggerName: "app.db",
		Level:      core.WarningLevel,
		Message:    "slow query",
		Context: core.LogContext{
			Service: "svc", Environment: "prod", JobID: "j1",
			UserName: "alice", ProcessID: 42, ProcessIDChain: []int{42},
		},
		Extra: map[string]any{"query-time_ms": 930, "table": "orders"},
	}
}

func TestJournaldFields(t *testing.T) {
	fields := JournaldFields(backendEvent())

	cases := map[string]string{
		"MESSAGE":           "slow query",
		"PRIORITY":          "4",
		"SYSLOG_IDENTIFIER": "svc",
		"LOGGER_NAME":       "app.db",
		"LEVEL_NAME":        "WARNING",
		"JOB_ID":            "j1",
		"USER_NAME":         "alice",
		"PROCESS_ID_CHAIN":  "42",
		"QUERY_TIME_MS":     "930",
		"TABLE":             "orders",
	}
	for key, want := range cases {
		if got := fields[key]; got != want {
			t.Errorf("fields[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestJournaldFieldName(t *testing.T) {
	cases := map[string]string{
		"simple":     "SIMPLE",
		"kebab-case": "KEBAB_CASE",
		"dotted.key": "DOTTED_KEY",
		"9lives":     "X9LIVES",
	}
	for in, want := range cases {
		if got := journaldFieldName(in); got != want {
			t.Errorf("journaldFieldName(%q) = %q, want %q", in, got, want)
		}
	}
}

// recordingTransport captures journald sends.
type recordingTransport struct {
	sent []map[string]string
	err  error
}

func (r *recordingTransport) Send(fields map[string]string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, fields)
	return nil
}

func (r *recordingTransport) Close() error { return nil }

func TestJournaldSinkEmit(t *testing.T) {
	transport := &recordingTransport{}
	j := NewJournaldSink(transport)

	if err := j.Emit(backendEvent()); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("sent %d field sets, want 1", len(transport.sent))
	}
	if transport.sent[0]["MESSAGE"] != "slow query" {
		t.Errorf("MESSAGE = %q", transport.sent[0]["MESSAGE"])
	}

	transport.err = errors.New("socket gone")
	if err := j.Emit(backendEvent()); err == nil {
		t.Error("transport failure not surfaced")
	}
}

func TestEventLogPayload(t *testing.T) {
	payload := EventLogPayload(backendEvent())

	cases := map[string]string{
		"message":        "slow query",
		"loggerName":     "app.db",
		"levelName":      "WARNING",
		"jobId":          "j1",
		"userName":       "alice",
		"processIdChain": "42",
		"queryTimeMs":    "930",
		"table":          "orders",
	}
	for key, want := range cases {
		if got := payload[key]; got != want {
			t.Errorf("payload[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestCamelCase(t *testing.T) {
	cases := map[string]string{
		"snake_case":  "snakeCase",
		"kebab-case":  "kebabCase",
		"with space":  "withSpace",
		"Plain":       "plain",
		"a_b_c":       "aBC",
	}
	for in, want := range cases {
		if got := camelCase(in); got != want {
			t.Errorf("camelCase(%q) = %q, want %q", in, got, want)
		}
	}
}

// recordingRecorder captures event-log records.
type recordingRecorder struct {
	levels   []core.Level
	payloads []map[string]string
}

func (r *recordingRecorder) Record(level core.Level, payload map[string]string) error {
	r.levels = append(r.levels, level)
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *recordingRecorder) Close() error { return nil }

func TestEventLogSinkEmit(t *testing.T) {
	recorder := &recordingRecorder{}
	s := NewEventLogSink(recorder)

	if err := s.Emit(backendEvent()); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(recorder.payloads) != 1 || recorder.levels[0] != core.WarningLevel {
		t.Fatalf("unexpected recording: %v %v", recorder.levels, recorder.payloads)
	}
}

func TestMemorySink(t *testing.T) {
	m := NewMemorySink()
	e := backendEvent()
	m.Emit(e)

	if m.Count() != 1 {
		t.Fatalf("Count() = %d", m.Count())
	}

	// Stored events are copies.
	e.Extra["table"] = "mutated"
	if m.Events()[0].Extra["table"] != "orders" {
		t.Error("memory sink shares extra map with caller")
	}

	if m.LastEvent().EventID != "evt-5" {
		t.Errorf("LastEvent() = %v", m.LastEvent().EventID)
	}

	found := m.FindEvents(func(e *core.LogEvent) bool { return e.Level == core.WarningLevel })
	if len(found) != 1 {
		t.Errorf("FindEvents() = %d", len(found))
	}

	m.Clear()
	if m.Count() != 0 {
		t.Error("Clear() left events behind")
	}
}
