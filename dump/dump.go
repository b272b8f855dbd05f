package dump

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitranox/lib-log-rich/core"
)

// Options configures a single dump rendering.
type Options struct {
	// Format selects the output rendering.
	Format core.DumpFormat

	// MinLevel drops events below the given severity before rendering.
	MinLevel core.Level

	// Template overrides DefaultTemplate for text and html_txt output.
	Template string

	// Color enables the theme palette for HTML output.
	Color bool

	// Palette overrides the default level palette.
	Palette Palette

	// Path, when non-empty, additionally writes the rendering to the
	// given file as UTF-8 with atomic create-or-truncate semantics.
	Path string
}

// Render renders a snapshot. Repeated calls with the same snapshot and
// options produce byte-identical output; the snapshot itself is never
// modified, so dumps are idempotent.
func Render(snapshot []*core.LogEvent, opts Options) (string, error) {
	events := make([]*core.LogEvent, 0, len(snapshot))
	for _, e := range snapshot {
		if e.Level >= opts.MinLevel {
			events = append(events, e)
		}
	}

	var rendered string
	switch opts.Format {
	case core.TextFormat:
		tmpl, err := resolveTemplate(opts.Template)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		for _, e := range events {
			sb.WriteString(tmpl.Render(e))
			sb.WriteString("\n")
		}
		rendered = sb.String()

	case core.JSONFormat:
		rendered = renderJSON(events)

	case core.HTMLTableFormat:
		rendered = renderHTMLTable(events, opts.Color, opts.Palette)

	case core.HTMLTxtFormat:
		tmpl, err := resolveTemplate(opts.Template)
		if err != nil {
			return "", err
		}
		rendered = renderHTMLText(events, tmpl, opts.Color, opts.Palette)

	default:
		return "", fmt.Errorf("unsupported dump format: %v", opts.Format)
	}

	if opts.Path != "" {
		if err := writeFileAtomic(opts.Path, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func resolveTemplate(template string) (*Template, error) {
	if template == "" {
		template = DefaultTemplate
	}
	return ParseTemplate(template)
}

// writeFileAtomic writes via a temp file in the target directory and
// renames it over the destination, so readers never observe a partial
// dump.
func writeFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".logrich-dump-*")
	if err != nil {
		return fmt.Errorf("create dump file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write dump file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close dump file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace dump file: %w", err)
	}
	return nil
}
