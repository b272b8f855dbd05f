package dump

import (
	"fmt"
	"html"
	"strings"

	"github.com/bitranox/lib-log-rich/core"
)

// Palette maps levels to CSS colors for HTML rendering.
type Palette map[core.Level]string

// DefaultPalette mirrors the console theme's level colors.
func DefaultPalette() Palette {
	return Palette{
		core.DebugLevel:    "#00a7a7",
		core.InfoLevel:     "#19a319",
		core.WarningLevel:  "#b58900",
		core.ErrorLevel:    "#d30102",
		core.CriticalLevel: "#ff2d2d",
	}
}

// renderHTMLTable renders one table row per event. Output is monochrome
// unless color is enabled, in which case level cells carry the palette
// color.
func renderHTMLTable(events []*core.LogEvent, color bool, palette Palette) string {
	if palette == nil {
		palette = DefaultPalette()
	}
	var sb strings.Builder
	sb.WriteString("<table class=\"logrich-dump\">\n")
	sb.WriteString("<thead><tr><th>timestamp</th><th>level</th><th>logger_name</th><th>event_id</th><th>message</th><th>context</th></tr></thead>\n")
	sb.WriteString("<tbody>\n")
	for _, e := range events {
		levelCell := html.EscapeString(e.Level.String())
		if color {
			if css, ok := palette[e.Level]; ok {
				levelCell = fmt.Sprintf("<span style=\"color:%s\">%s</span>", css, levelCell)
			}
		}
		sb.WriteString("<tr>")
		fmt.Fprintf(&sb, "<td>%s</td>", e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"))
		fmt.Fprintf(&sb, "<td>%s</td>", levelCell)
		fmt.Fprintf(&sb, "<td>%s</td>", html.EscapeString(e.LoggerName))
		fmt.Fprintf(&sb, "<td>%s</td>", html.EscapeString(e.EventID))
		fmt.Fprintf(&sb, "<td>%s</td>", html.EscapeString(e.Message))
		fmt.Fprintf(&sb, "<td>%s</td>", html.EscapeString(encodeDeterministic(e.Context.AsMap())))
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</tbody>\n</table>\n")
	return sb.String()
}

// renderHTMLText renders the text template inside a preformatted block,
// one line per event, colored per level when enabled.
func renderHTMLText(events []*core.LogEvent, tmpl *Template, color bool, palette Palette) string {
	if palette == nil {
		palette = DefaultPalette()
	}
	var sb strings.Builder
	sb.WriteString("<pre class=\"logrich-dump\">\n")
	for _, e := range events {
		line := html.EscapeString(tmpl.Render(e))
		if color {
			if css, ok := palette[e.Level]; ok {
				line = fmt.Sprintf("<span style=\"color:%s\">%s</span>", css, line)
			}
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("</pre>\n")
	return sb.String()
}
