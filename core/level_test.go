package core

import "testing"

func TestLevelOrdering(t *testing.T) {
	levels := Levels()
	for i := 1; i < len(levels); i++ {
		if levels[i-1] >= levels[i] {
			t.Errorf("expected %v < %v", levels[i-1], levels[i])
		}
		if levels[i-1].Severity() >= levels[i].Severity() {
			t.Errorf("expected severity %d < %d", levels[i-1].Severity(), levels[i].Severity())
		}
	}
}

func TestLevelCodes(t *testing.T) {
	cases := []struct {
		level  Level
		name   string
		code   string
		syslog int
	}{
		{DebugLevel, "DEBUG", "DEBG", 7},
		{InfoLevel, "INFO", "INFO", 6},
		{WarningLevel, "WARNING", "WARN", 4},
		{ErrorLevel, "ERROR", "ERRO", 3},
		{CriticalLevel, "CRITICAL", "CRIT", 2},
	}
	for _, tc := range cases {
		if got := tc.level.String(); got != tc.name {
			t.Errorf("String() = %q, want %q", got, tc.name)
		}
		if got := tc.level.Code(); got != tc.code {
			t.Errorf("Code() = %q, want %q", got, tc.code)
		}
		if len(tc.level.Code()) != 4 {
			t.Errorf("Code() %q is not four characters", tc.level.Code())
		}
		if got := tc.level.Syslog(); got != tc.syslog {
			t.Errorf("Syslog() = %d, want %d", got, tc.syslog)
		}
		if tc.level.Icon() == "" {
			t.Errorf("Icon() empty for %v", tc.level)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"DEBG", DebugLevel},
		{"info", InfoLevel},
		{"  Warning ", WarningLevel},
		{"warn", WarningLevel},
		{"error", ErrorLevel},
		{"CRIT", CriticalLevel},
		{"critical", CriticalLevel},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.input)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestParseDumpFormat(t *testing.T) {
	cases := []struct {
		input string
		want  DumpFormat
	}{
		{"text", TextFormat},
		{"TEXT", TextFormat},
		{"json", JSONFormat},
		{"HTML_TABLE", HTMLTableFormat},
		{"html_txt", HTMLTxtFormat},
	}
	for _, tc := range cases {
		got, err := ParseDumpFormat(tc.input)
		if err != nil {
			t.Errorf("ParseDumpFormat(%q) error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDumpFormat(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}

	if _, err := ParseDumpFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
