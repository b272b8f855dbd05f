package sinks

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bitranox/lib-log-rich/core"
)

func consoleEvent() *core.LogEvent {
	return &core.LogEvent{
		EventID:    "evt-1",
		Timestamp:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		LoggerName: "app.api",
		Level:      core.InfoLevel,
		Message:    "request served",
		Context: core.LogContext{
			Service: "svc", Environment: "dev", JobID: "j1",
			ProcessID: 10, ProcessIDChain: []int{10},
		},
		Extra: map[string]any{"status": 200, "path": "/health"},
	}
}

func TestConsoleSinkDefaultLine(t *testing.T) {
	var buf bytes.Buffer
	cs := NewConsoleSink(WithConsoleWriter(&buf))

	if err := cs.Emit(consoleEvent()); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	line := strings.TrimRight(buf.String(), "\n")
	for _, fragment := range []string{"[INFO]", "app.api: request served", "path=/health", "status=200"} {
		if !strings.Contains(line, fragment) {
			t.Errorf("line missing %q: %s", fragment, line)
		}
	}
	if strings.Contains(line, "\033[") {
		t.Errorf("non-terminal writer got ANSI codes: %q", line)
	}
}

func TestConsoleSinkExtraSorted(t *testing.T) {
	var buf bytes.Buffer
	cs := NewConsoleSink(WithConsoleWriter(&buf))
	cs.Emit(consoleEvent())

	line := buf.String()
	if strings.Index(line, "path=") > strings.Index(line, "status=") {
		t.Errorf("extra keys not sorted: %s", line)
	}
}

func TestConsoleSinkForceColor(t *testing.T) {
	var buf bytes.Buffer
	cs := NewConsoleSink(WithConsoleWriter(&buf), WithConsoleForceColor())
	cs.Emit(consoleEvent())

	if !strings.Contains(buf.String(), string(ColorGreen)) {
		t.Errorf("forced color missing level color: %q", buf.String())
	}
}

func TestConsoleSinkStyleOverride(t *testing.T) {
	var buf bytes.Buffer
	cs := NewConsoleSink(
		WithConsoleWriter(&buf),
		WithConsoleForceColor(),
		WithConsoleStyles(map[core.Level]Color{core.InfoLevel: ColorMagenta}),
	)
	cs.Emit(consoleEvent())

	if !strings.Contains(buf.String(), string(ColorMagenta)) {
		t.Errorf("style override not applied: %q", buf.String())
	}
}

func TestConsoleSinkTemplate(t *testing.T) {
	var buf bytes.Buffer
	cs, err := NewConsoleSinkWithTemplate("{level_code} {logger_name} {message}", WithConsoleWriter(&buf))
	if err != nil {
		t.Fatalf("NewConsoleSinkWithTemplate: %v", err)
	}
	cs.Emit(consoleEvent())

	if got := strings.TrimRight(buf.String(), "\n"); got != "INFO app.api request served" {
		t.Errorf("templated line = %q", got)
	}
}

func TestConsoleSinkTemplateInvalid(t *testing.T) {
	if _, err := NewConsoleSinkWithTemplate("{nope}"); err == nil {
		t.Error("expected error for unknown placeholder")
	}
}

func TestConsoleSinkStyleCache(t *testing.T) {
	var buf bytes.Buffer
	cs := NewConsoleSink(WithConsoleWriter(&buf), WithConsoleForceColor())

	for i := 0; i < 3; i++ {
		cs.Emit(consoleEvent())
	}

	cs.styleMu.RLock()
	defer cs.styleMu.RUnlock()
	if len(cs.styles) != 1 {
		t.Errorf("style cache has %d entries, want 1", len(cs.styles))
	}
	if len(cs.styles) > len(core.Levels()) {
		t.Error("style cache exceeds level enumeration")
	}
}

func TestThemeByName(t *testing.T) {
	if ThemeByName("lite") == nil || ThemeByName("dark") == nil {
		t.Fatal("named themes missing")
	}
	if ThemeByName("unknown").InfoColor != DefaultTheme().InfoColor {
		t.Error("unknown theme does not fall back to default")
	}
}
