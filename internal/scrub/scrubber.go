// Package scrub redacts sensitive field values before an event leaves
// the pipeline.
package scrub

import (
	"fmt"
	"regexp"
)

// Placeholder replaces every redacted value.
const Placeholder = "***"

// DefaultPatterns matches the usual credential field names and redacts
// the full value.
var DefaultPatterns = map[string]string{
	"password|secret|token": ".+",
}

type rule struct {
	field *regexp.Regexp
	value *regexp.Regexp
}

// Scrubber redacts map values whose field name matches a configured
// pattern. Field-name matching is case-insensitive. Nested maps are
// walked one level deep.
type Scrubber struct {
	rules []rule
}

// New compiles the given field-pattern → value-pattern mapping. A nil
// or empty mapping falls back to DefaultPatterns.
func New(patterns map[string]string) (*Scrubber, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	s := &Scrubber{}
	for fieldPat, valuePat := range patterns {
		field, err := regexp.Compile("(?i)" + fieldPat)
		if err != nil {
			return nil, fmt.Errorf("invalid scrub field pattern %q: %w", fieldPat, err)
		}
		if valuePat == "" {
			valuePat = ".*"
		}
		value, err := regexp.Compile(valuePat)
		if err != nil {
			return nil, fmt.Errorf("invalid scrub value pattern %q: %w", valuePat, err)
		}
		s.rules = append(s.rules, rule{field: field, value: value})
	}
	return s, nil
}

// Scrub returns a copy of fields with sensitive values replaced by the
// placeholder. The input map is never mutated. Scrubbing is idempotent:
// a redacted value stays redacted.
func (s *Scrubber) Scrub(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch nested := v.(type) {
		case map[string]any:
			out[k] = s.scrubShallow(nested)
		default:
			out[k] = s.scrubValue(k, v)
		}
	}
	return out
}

// scrubShallow handles one level of nesting; deeper maps pass through.
func (s *Scrubber) scrubShallow(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = s.scrubValue(k, v)
	}
	return out
}

// ScrubString redacts matches of every rule whose field pattern matches
// the given field name. Used for the message text, which carries the
// implicit field name "message".
func (s *Scrubber) ScrubString(field, value string) string {
	for _, r := range s.rules {
		if r.field.MatchString(field) {
			value = r.value.ReplaceAllString(value, Placeholder)
		}
	}
	return value
}

func (s *Scrubber) scrubValue(key string, value any) any {
	for _, r := range s.rules {
		if !r.field.MatchString(key) {
			continue
		}
		// Non-string values are stringified only for matching.
		str, ok := value.(string)
		if !ok {
			str = fmt.Sprint(value)
		}
		if r.value.MatchString(str) {
			return Placeholder
		}
	}
	return value
}
