// Package dump renders ring-buffer snapshots as text, JSON, or HTML.
package dump

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bitranox/lib-log-rich/core"
)

// DefaultTemplate is used for text dumps when no template is configured.
const DefaultTemplate = "{timestamp} {level_code} {logger_name} {message}"

// TemplatePreset resolves a named template preset. Presets are fixed so
// that a preset name in configuration renders the same on every host.
func TemplatePreset(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "default":
		return DefaultTemplate, true
	case "full":
		return "{timestamp} {level_code} {level_icon} {logger_name} {event_id} {message} {context} {extra}", true
	case "short":
		return "{hh}:{mm}:{ss} {level_code} {message}", true
	default:
		return "", false
	}
}

// placeholderNames is the closed set of recognized template placeholders.
var placeholderNames = map[string]struct{}{
	"timestamp":        {},
	"timestamp_loc":    {},
	"YYYY":             {},
	"MM":               {},
	"DD":               {},
	"hh":               {},
	"mm":               {},
	"ss":               {},
	"YYYY_loc":         {},
	"MM_loc":           {},
	"DD_loc":           {},
	"hh_loc":           {},
	"mm_loc":           {},
	"ss_loc":           {},
	"level":            {},
	"level_code":       {},
	"level_icon":       {},
	"logger_name":      {},
	"event_id":         {},
	"message":          {},
	"user_name":        {},
	"hostname":         {},
	"process_id":       {},
	"process_id_chain": {},
	"context":          {},
	"extra":            {},
}

type templateToken interface {
	render(event *core.LogEvent) string
}

type textToken struct {
	text string
}

func (t *textToken) render(*core.LogEvent) string { return t.text }

type placeholderToken struct {
	name  string
	align byte // '<', '>', '^', or 0 for default left
	width int
}

func (t *placeholderToken) render(event *core.LogEvent) string {
	return pad(placeholderValue(event, t.name), t.align, t.width)
}

// Template is a parsed dump template.
type Template struct {
	raw    string
	tokens []templateToken
}

// ParseTemplate parses a "{placeholder}" template. Unknown placeholders
// and unbalanced braces yield a TemplateError. "{{" and "}}" escape
// literal braces. A placeholder may carry a format spec after a colon:
// an optional alignment ('<', '>', '^') followed by a width.
func ParseTemplate(template string) (*Template, error) {
	t := &Template{raw: template}
	runes := []rune(template)
	var literal strings.Builder

	flushLiteral := func() {
		if literal.Len() > 0 {
			t.tokens = append(t.tokens, &textToken{text: literal.String()})
			literal.Reset()
		}
	}

	i := 0
	for i < len(runes) {
		switch {
		case runes[i] == '{' && i+1 < len(runes) && runes[i+1] == '{':
			literal.WriteByte('{')
			i += 2

		case runes[i] == '}' && i+1 < len(runes) && runes[i+1] == '}':
			literal.WriteByte('}')
			i += 2

		case runes[i] == '{':
			end := i + 1
			for end < len(runes) && runes[end] != '}' {
				end++
			}
			if end >= len(runes) {
				return nil, &core.TemplateError{Template: template, Reason: fmt.Sprintf("unclosed placeholder at position %d", i)}
			}
			token, err := parsePlaceholder(template, string(runes[i+1:end]))
			if err != nil {
				return nil, err
			}
			flushLiteral()
			t.tokens = append(t.tokens, token)
			i = end + 1

		case runes[i] == '}':
			return nil, &core.TemplateError{Template: template, Reason: fmt.Sprintf("unmatched '}' at position %d", i)}

		default:
			literal.WriteRune(runes[i])
			i++
		}
	}
	flushLiteral()
	return t, nil
}

func parsePlaceholder(template, body string) (*placeholderToken, error) {
	name, spec, hasSpec := strings.Cut(body, ":")
	if _, ok := placeholderNames[name]; !ok {
		return nil, &core.TemplateError{Template: template, Reason: fmt.Sprintf("unknown placeholder %q", name)}
	}
	token := &placeholderToken{name: name}
	if !hasSpec {
		return token, nil
	}
	if spec == "" {
		return nil, &core.TemplateError{Template: template, Reason: fmt.Sprintf("empty format spec for %q", name)}
	}
	if spec[0] == '<' || spec[0] == '>' || spec[0] == '^' {
		token.align = spec[0]
		spec = spec[1:]
	}
	if spec != "" {
		width, err := strconv.Atoi(spec)
		if err != nil || width < 0 {
			return nil, &core.TemplateError{Template: template, Reason: fmt.Sprintf("invalid width %q for %q", spec, name)}
		}
		token.width = width
	}
	return token, nil
}

// Render substitutes one event into the template.
func (t *Template) Render(event *core.LogEvent) string {
	var sb strings.Builder
	for _, token := range t.tokens {
		sb.WriteString(token.render(event))
	}
	return sb.String()
}

// Raw returns the original template string.
func (t *Template) Raw() string { return t.raw }

func placeholderValue(e *core.LogEvent, name string) string {
	utc := e.Timestamp.UTC()
	loc := e.Timestamp.Local()

	switch name {
	case "timestamp":
		return utc.Format("2006-01-02T15:04:05.000000Z")
	case "timestamp_loc":
		return loc.Format("2006-01-02T15:04:05.000000-07:00")
	case "YYYY":
		return utc.Format("2006")
	case "MM":
		return utc.Format("01")
	case "DD":
		return utc.Format("02")
	case "hh":
		return utc.Format("15")
	case "mm":
		return utc.Format("04")
	case "ss":
		return utc.Format("05")
	case "YYYY_loc":
		return loc.Format("2006")
	case "MM_loc":
		return loc.Format("01")
	case "DD_loc":
		return loc.Format("02")
	case "hh_loc":
		return loc.Format("15")
	case "mm_loc":
		return loc.Format("04")
	case "ss_loc":
		return loc.Format("05")
	case "level":
		return e.Level.String()
	case "level_code":
		return e.Level.Code()
	case "level_icon":
		return e.Level.Icon()
	case "logger_name":
		return e.LoggerName
	case "event_id":
		return e.EventID
	case "message":
		return e.Message
	case "user_name":
		return e.Context.UserName
	case "hostname":
		return e.Context.Hostname
	case "process_id":
		return strconv.Itoa(e.Context.ProcessID)
	case "process_id_chain":
		return e.Context.PIDChainString()
	case "context":
		return encodeDeterministic(e.Context.AsMap())
	case "extra":
		return encodeDeterministic(mapAny(e.Extra))
	default:
		return ""
	}
}

func mapAny(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func pad(s string, align byte, width int) string {
	gap := width - len([]rune(s))
	if gap <= 0 {
		return s
	}
	switch align {
	case '>':
		return strings.Repeat(" ", gap) + s
	case '^':
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}
