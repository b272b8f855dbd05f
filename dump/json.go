package dump

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/bitranox/lib-log-rich/core"
)

// renderJSON renders events as a JSON array with a fixed key order and
// deterministic map encoding, so identical snapshots produce
// byte-identical output.
func renderJSON(events []*core.LogEvent) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, e := range events {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("\n  ")
		sb.WriteString(encodeEvent(e))
	}
	if len(events) > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString("]\n")
	return sb.String()
}

func encodeEvent(e *core.LogEvent) string {
	var sb strings.Builder
	sb.WriteString("{")
	writeMember(&sb, "event_id", e.EventID, true)
	writeMember(&sb, "timestamp", e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"), false)
	writeMember(&sb, "logger_name", e.LoggerName, false)
	writeMember(&sb, "level", e.Level.String(), false)
	writeMember(&sb, "message", e.Message, false)

	sb.WriteString(",\"context\":")
	sb.WriteString(encodeDeterministic(e.Context.AsMap()))
	sb.WriteString(",\"extra\":")
	sb.WriteString(encodeDeterministic(mapAny(e.Extra)))

	if e.Exception != nil {
		sb.WriteString(",\"exception\":{")
		writeMember(&sb, "type", e.Exception.Type, true)
		writeMember(&sb, "message", e.Exception.Message, false)
		writeMember(&sb, "trace", e.Exception.Trace, false)
		sb.WriteString("}")
	}
	sb.WriteString("}")
	return sb.String()
}

func writeMember(sb *strings.Builder, key, value string, first bool) {
	if !first {
		sb.WriteString(",")
	}
	sb.WriteString(encodeString(key))
	sb.WriteString(":")
	sb.WriteString(encodeString(value))
}

// encodeDeterministic encodes an arbitrary JSON-serializable value with
// map keys emitted in sorted order at every depth.
func encodeDeterministic(v any) string {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(encodeString(k))
			sb.WriteString(":")
			sb.WriteString(encodeDeterministic(val[k]))
		}
		sb.WriteString("}")
		return sb.String()
	case []any:
		var sb strings.Builder
		sb.WriteString("[")
		for i, item := range val {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(encodeDeterministic(item))
		}
		sb.WriteString("]")
		return sb.String()
	case []int:
		var sb strings.Builder
		sb.WriteString("[")
		for i, item := range val {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "%d", item)
		}
		sb.WriteString("]")
		return sb.String()
	case nil:
		return "null"
	default:
		// Scalars and anything else defer to encoding/json; a value it
		// cannot marshal degrades to its string form.
		b, err := json.Marshal(val)
		if err != nil {
			return encodeString(fmt.Sprint(val))
		}
		return string(b)
	}
}

func encodeString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
