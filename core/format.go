package core

import (
	"fmt"
	"strings"
)

// DumpFormat selects the rendering of a ring-buffer dump.
type DumpFormat int

const (
	// TextFormat renders one templated line per event.
	TextFormat DumpFormat = iota

	// JSONFormat renders an array of event objects.
	JSONFormat

	// HTMLTableFormat renders an HTML table with one row per event.
	HTMLTableFormat

	// HTMLTxtFormat renders preformatted text wrapped in HTML.
	HTMLTxtFormat
)

// String returns the canonical lower-case format name.
func (f DumpFormat) String() string {
	switch f {
	case TextFormat:
		return "text"
	case JSONFormat:
		return "json"
	case HTMLTableFormat:
		return "html_table"
	case HTMLTxtFormat:
		return "html_txt"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseDumpFormat parses a dump format name case-insensitively.
func ParseDumpFormat(s string) (DumpFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt":
		return TextFormat, nil
	case "json":
		return JSONFormat, nil
	case "html_table", "html-table", "html":
		return HTMLTableFormat, nil
	case "html_txt", "html-txt":
		return HTMLTxtFormat, nil
	default:
		return TextFormat, fmt.Errorf("unknown dump format: %q", s)
	}
}
