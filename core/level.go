package core

import (
	"fmt"
	"strings"
)

// Level specifies the severity of a log event.
type Level int

const (
	// DebugLevel is for detailed debugging information.
	DebugLevel Level = iota

	// InfoLevel is for informational messages.
	InfoLevel

	// WarningLevel is for warnings.
	WarningLevel

	// ErrorLevel is for errors.
	ErrorLevel

	// CriticalLevel is for unrecoverable errors.
	CriticalLevel
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarningLevel:
		return "WARNING"
	case ErrorLevel:
		return "ERROR"
	case CriticalLevel:
		return "CRITICAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Code returns the fixed four-character level code used in rendered output.
func (l Level) Code() string {
	switch l {
	case DebugLevel:
		return "DEBG"
	case InfoLevel:
		return "INFO"
	case WarningLevel:
		return "WARN"
	case ErrorLevel:
		return "ERRO"
	case CriticalLevel:
		return "CRIT"
	default:
		return "????"
	}
}

// Icon returns the level's icon string.
func (l Level) Icon() string {
	switch l {
	case DebugLevel:
		return "🐞"
	case InfoLevel:
		return "ℹ️"
	case WarningLevel:
		return "⚠️"
	case ErrorLevel:
		return "✖"
	case CriticalLevel:
		return "💥"
	default:
		return "?"
	}
}

// Severity returns the numeric severity used for comparisons. Higher
// means more severe.
func (l Level) Severity() int {
	return (int(l) + 1) * 10
}

// Syslog returns the syslog priority equivalent of the level.
func (l Level) Syslog() int {
	switch l {
	case DebugLevel:
		return 7
	case InfoLevel:
		return 6
	case WarningLevel:
		return 4
	case ErrorLevel:
		return 3
	case CriticalLevel:
		return 2
	default:
		return 6
	}
}

// ParseLevel parses a level from its name or four-character code,
// case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "debg":
		return DebugLevel, nil
	case "info", "information":
		return InfoLevel, nil
	case "warning", "warn":
		return WarningLevel, nil
	case "error", "erro", "err":
		return ErrorLevel, nil
	case "critical", "crit":
		return CriticalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level: %q", s)
	}
}

// Levels returns all levels in ascending severity order.
func Levels() []Level {
	return []Level{DebugLevel, InfoLevel, WarningLevel, ErrorLevel, CriticalLevel}
}
