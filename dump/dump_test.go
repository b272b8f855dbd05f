package dump

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bitranox/lib-log-rich/core"
)

func snapshot() []*core.LogEvent {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	ctx := core.LogContext{
		Service:        "svc",
		Environment:    "dev",
		JobID:          "j1",
		ProcessID:      10,
		ProcessIDChain: []int{10},
	}
	return []*core.LogEvent{
		{EventID: "evt-1", Timestamp: base, LoggerName: "a", Level: core.DebugLevel, Message: "one", Context: ctx},
		{EventID: "evt-2", Timestamp: base.Add(time.Second), LoggerName: "a", Level: core.InfoLevel, Message: "two", Context: ctx, Extra: map[string]any{"k": 1}},
		{EventID: "evt-3", Timestamp: base.Add(2 * time.Second), LoggerName: "b", Level: core.ErrorLevel, Message: "three", Context: ctx,
			Exception: &core.ExceptionInfo{Type: "*errors.errorString", Message: "boom", Trace: "line1\nline2"}},
	}
}

func TestDumpTextTemplate(t *testing.T) {
	out, err := Render(snapshot(), Options{
		Format:   core.TextFormat,
		Template: "{timestamp} {level_code} {logger_name} {message}",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "2026-03-14T09:00:00.000000Z DEBG a one" {
		t.Errorf("line[0] = %q", lines[0])
	}
	if lines[2] != "2026-03-14T09:00:02.000000Z ERRO b three" {
		t.Errorf("line[2] = %q", lines[2])
	}
}

func TestDumpUnknownPlaceholder(t *testing.T) {
	_, err := Render(snapshot(), Options{Format: core.TextFormat, Template: "{oops}"})
	var terr *core.TemplateError
	if !errors.As(err, &terr) {
		t.Errorf("expected TemplateError, got %v", err)
	}
}

func TestDumpLevelFilter(t *testing.T) {
	out, err := Render(snapshot(), Options{Format: core.TextFormat, MinLevel: core.InfoLevel})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out, "one") {
		t.Error("debug event not filtered out")
	}
	for _, msg := range []string{"two", "three"} {
		if !strings.Contains(out, msg) {
			t.Errorf("missing message %q", msg)
		}
	}
}

func TestDumpJSON(t *testing.T) {
	out, err := Render(snapshot(), Options{Format: core.JSONFormat})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, fragment := range []string{
		`"event_id":"evt-2"`,
		`"level":"INFO"`,
		`"message":"two"`,
		`"timestamp":"2026-03-14T09:00:01.000000Z"`,
		`"service":"svc"`,
		`"job_id":"j1"`,
		`"extra":{"k":1}`,
		`"exception":{"type":"*errors.errorString","message":"boom","trace":"line1\nline2"}`,
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("JSON missing %s\n%s", fragment, out)
		}
	}

	t.Run("deterministic", func(t *testing.T) {
		again, err := Render(snapshot(), Options{Format: core.JSONFormat})
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if out != again {
			t.Error("repeated dumps differ byte-wise")
		}
	})

	t.Run("fixed key order", func(t *testing.T) {
		idx := func(s string) int { return strings.Index(out, s) }
		if !(idx(`"event_id"`) < idx(`"timestamp"`) && idx(`"timestamp"`) < idx(`"logger_name"`)) {
			t.Error("key order not fixed")
		}
	})
}

func TestDumpHTMLTable(t *testing.T) {
	out, err := Render(snapshot(), Options{Format: core.HTMLTableFormat})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "<table") || !strings.Contains(out, "<th>timestamp</th>") {
		t.Errorf("missing table scaffolding:\n%s", out)
	}
	// Header row plus one row per event.
	if strings.Count(out, "<tr>") != 4 {
		t.Errorf("expected 4 rows, got %d", strings.Count(out, "<tr>"))
	}
	if strings.Contains(out, "style=") {
		t.Error("colorless dump contains inline styles")
	}

	t.Run("colored", func(t *testing.T) {
		out, err := Render(snapshot(), Options{Format: core.HTMLTableFormat, Color: true})
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if !strings.Contains(out, "style=\"color:") {
			t.Error("colored dump missing styles")
		}
	})
}

func TestDumpHTMLText(t *testing.T) {
	out, err := Render(snapshot(), Options{Format: core.HTMLTxtFormat, Template: "{level_code} {message}"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "<pre") || !strings.Contains(out, "INFO two") {
		t.Errorf("unexpected html_txt output:\n%s", out)
	}
}

func TestDumpWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.json")
	out, err := Render(snapshot(), Options{Format: core.JSONFormat, Path: path})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != out {
		t.Error("file content differs from returned rendering")
	}

	// Create-or-truncate: a second dump replaces the file.
	if _, err := Render(snapshot()[:1], Options{Format: core.JSONFormat, Path: path}); err != nil {
		t.Fatalf("second Render: %v", err)
	}
	data, _ = os.ReadFile(path)
	if strings.Contains(string(data), "evt-3") {
		t.Error("file not truncated on second dump")
	}
}

func TestDumpEmptySnapshot(t *testing.T) {
	out, err := Render(nil, Options{Format: core.JSONFormat})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("empty snapshot JSON = %q", out)
	}
}
