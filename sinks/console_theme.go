package sinks

import (
	"os"
	"strings"

	"github.com/bitranox/lib-log-rich/core"
)

// Color represents an ANSI color code.
type Color string

const (
	ColorReset Color = "\033[0m"
	ColorBold  Color = "\033[1m"
	ColorDim   Color = "\033[2m"

	ColorRed     Color = "\033[31m"
	ColorGreen   Color = "\033[32m"
	ColorYellow  Color = "\033[33m"
	ColorBlue    Color = "\033[34m"
	ColorMagenta Color = "\033[35m"
	ColorCyan    Color = "\033[36m"
	ColorWhite   Color = "\033[37m"

	ColorBrightBlack Color = "\033[90m"
	ColorBrightRed   Color = "\033[91m"
	ColorBrightCyan  Color = "\033[96m"
)

// ConsoleTheme defines the colors and formats for console output.
type ConsoleTheme struct {
	DebugColor    Color
	InfoColor     Color
	WarningColor  Color
	ErrorColor    Color
	CriticalColor Color

	TimestampColor Color

	// TimestampFormat is the time layout for the default line format.
	TimestampFormat string
}

// DefaultTheme returns the standard console theme.
func DefaultTheme() *ConsoleTheme {
	return &ConsoleTheme{
		DebugColor:     ColorCyan,
		InfoColor:      ColorGreen,
		WarningColor:   ColorYellow,
		ErrorColor:     ColorRed,
		CriticalColor:  ColorBrightRed + ColorBold,
		TimestampColor: ColorBrightBlack,

		TimestampFormat: "2006-01-02 15:04:05.000",
	}
}

// LiteTheme returns a minimalist theme with subtle colors.
func LiteTheme() *ConsoleTheme {
	return &ConsoleTheme{
		DebugColor:     ColorDim,
		InfoColor:      ColorReset,
		WarningColor:   ColorYellow,
		ErrorColor:     ColorRed,
		CriticalColor:  ColorRed + ColorBold,
		TimestampColor: ColorDim,

		TimestampFormat: "15:04:05.000",
	}
}

// DarkTheme returns a theme tuned for dark terminals.
func DarkTheme() *ConsoleTheme {
	return &ConsoleTheme{
		DebugColor:     ColorBrightCyan,
		InfoColor:      ColorWhite,
		WarningColor:   ColorYellow,
		ErrorColor:     ColorBrightRed,
		CriticalColor:  ColorBrightRed + ColorBold,
		TimestampColor: ColorBrightBlack,

		TimestampFormat: "2006-01-02 15:04:05.000",
	}
}

// ThemeByName resolves a named theme, falling back to the default.
func ThemeByName(name string) *ConsoleTheme {
	switch name {
	case "lite":
		return LiteTheme()
	case "dark":
		return DarkTheme()
	default:
		return DefaultTheme()
	}
}

// ColorByName resolves a configuration color name to its ANSI code.
func ColorByName(name string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "red":
		return ColorRed, true
	case "green":
		return ColorGreen, true
	case "yellow":
		return ColorYellow, true
	case "blue":
		return ColorBlue, true
	case "magenta":
		return ColorMagenta, true
	case "cyan":
		return ColorCyan, true
	case "white":
		return ColorWhite, true
	case "bright-black", "gray", "grey":
		return ColorBrightBlack, true
	case "bright-red":
		return ColorBrightRed, true
	case "bright-cyan":
		return ColorBrightCyan, true
	case "bold":
		return ColorBold, true
	case "dim":
		return ColorDim, true
	case "bold-red":
		return ColorBold + ColorRed, true
	default:
		return "", false
	}
}

// GetLevelColor returns the theme color for the given level.
func (t *ConsoleTheme) GetLevelColor(level core.Level) Color {
	switch level {
	case core.DebugLevel:
		return t.DebugColor
	case core.InfoLevel:
		return t.InfoColor
	case core.WarningLevel:
		return t.WarningColor
	case core.ErrorLevel:
		return t.ErrorColor
	case core.CriticalLevel:
		return t.CriticalColor
	default:
		return t.InfoColor
	}
}

// colorize wraps text in the given color when color output is enabled.
func colorize(text string, color Color, useColor bool) string {
	if !useColor || color == "" || color == ColorReset {
		return text
	}
	return string(color) + text + string(ColorReset)
}

// shouldUseColor decides whether the writer gets ANSI colors: terminals
// only, honoring NO_COLOR and TERM=dumb.
func shouldUseColor(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
