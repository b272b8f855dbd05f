package logrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bitranox/lib-log-rich/core"
	"github.com/bitranox/lib-log-rich/internal/queue"
	"github.com/bitranox/lib-log-rich/selflog"
)

// Status classifies the outcome of a logger call.
type Status int

const (
	// StatusOK means the event was delivered synchronously.
	StatusOK Status = iota

	// StatusQueued means the event was handed to the queue worker.
	StatusQueued

	// StatusRateLimited means the rate limiter rejected the event.
	StatusRateLimited

	// StatusDropped means the event was discarded; Result.Reason says why.
	StatusDropped
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusQueued:
		return "queued"
	case StatusRateLimited:
		return "rate_limited"
	case StatusDropped:
		return "dropped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the status record returned by every logger call. Expected
// failure modes (rate limiting, queue overflow) are statuses, not
// errors, so hot loops can react without unwinding.
type Result struct {
	Status  Status
	EventID string
	Reason  string
}

// processEvent runs the full pipeline for one candidate event: resolve
// context, truncate, scrub, rate-limit, retain, then queue or fan out.
func (rt *Runtime) processEvent(ctx context.Context, loggerName string, level core.Level, message string, extra map[string]any, cause error) (Result, error) {
	frame, ok := Current(ctx)
	if !ok {
		return Result{}, core.ErrContextMissing
	}
	if loggerName == "" {
		return Result{}, errors.New("logger name must not be empty")
	}
	if message == "" {
		return Result{}, errors.New("message must not be empty")
	}

	message, extra = rt.applyPayloadLimits(message, extra)

	message = rt.scrubber.ScrubString("message", message)
	extra = rt.scrubber.Scrub(extra)

	frame = frame.Clone()
	frame.Extra = rt.scrubber.Scrub(frame.Extra)

	event := &core.LogEvent{
		EventID:    newEventID(),
		Timestamp:  rt.clock.Now().UTC().Truncate(time.Microsecond),
		LoggerName: loggerName,
		Level:      level,
		Message:    message,
		Context:    frame,
		Extra:      extra,
	}
	if cause != nil {
		event.Exception = &core.ExceptionInfo{
			Type:    fmt.Sprintf("%T", cause),
			Message: cause.Error(),
			Trace:   string(debug.Stack()),
		}
	}

	if !rt.limiter.Allow(loggerName, level) {
		rt.diagnose(core.DiagRateLimited, map[string]any{
			"logger_name": loggerName,
			"level":       level.String(),
		})
		return Result{Status: StatusRateLimited}, nil
	}

	if rt.ring != nil {
		rt.ring.Append(event)
	}

	if rt.queue != nil {
		switch err := rt.queue.Enqueue(event); {
		case err == nil:
			rt.diagnose(core.DiagQueued, map[string]any{"event_id": event.EventID})
			return Result{Status: StatusQueued, EventID: event.EventID}, nil
		case errors.Is(err, core.ErrQueueFull), errors.Is(err, queue.ErrNotRunning):
			rt.diagnose(core.DiagDropped, map[string]any{
				"event_id": event.EventID,
				"reason":   "queue_full",
			})
			return Result{Status: StatusDropped, EventID: event.EventID, Reason: "queue_full"}, nil
		default:
			return Result{}, err
		}
	}

	rt.fanOut(event)
	return Result{Status: StatusOK, EventID: event.EventID}, nil
}

// fanOut delivers one event to every enabled sink whose gate admits the
// event's level. It doubles as the queue worker handler. A failing sink
// is diagnosed and never affects its siblings or the caller; the
// returned error is always nil so the worker treats sink failures as
// handled.
func (rt *Runtime) fanOut(event *core.LogEvent) error {
	for _, bs := range rt.sinks {
		if event.Level < bs.threshold {
			continue
		}
		if err := emitGuarded(bs.sink, event); err != nil {
			rt.diagnose(core.DiagSinkFailed, map[string]any{
				"sink":     bs.sink.Name(),
				"event_id": event.EventID,
				"error":    err.Error(),
			})
			selflog.Report("fanout", "sink %s failed on event %s: %v", bs.sink.Name(), event.EventID, err)
		}
	}
	rt.diagnose(core.DiagEmitted, map[string]any{"event_id": event.EventID})
	return nil
}

// emitGuarded converts a sink panic into an error so one misbehaving
// sink cannot take down the fan-out loop.
func emitGuarded(sink core.Sink, event *core.LogEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return sink.Emit(event)
}

// applyPayloadLimits truncates the message to MaxMessageBytes and, when
// the serialized extra exceeds MaxExtraBytes, walks the keys in sorted
// order, keeping each key whose serialized entry still fits the remaining
// budget and dropping the others. Truncation is reported once via a
// payload_truncated diagnostic.
func (rt *Runtime) applyPayloadLimits(message string, extra map[string]any) (string, map[string]any) {
	messageBytesDropped := 0
	if max := rt.opts.MaxMessageBytes; max > 0 && len(message) > max {
		truncated := message[:max]
		// Never cut a rune in half.
		for len(truncated) > 0 && !utf8.ValidString(truncated) {
			truncated = truncated[:len(truncated)-1]
		}
		messageBytesDropped = len(message) - len(truncated)
		message = truncated
	}

	extraKeysDropped := 0
	if max := rt.opts.MaxExtraBytes; max > 0 && len(extra) > 0 {
		if size := serializedSize(extra); size > max {
			keys := make([]string, 0, len(extra))
			for k := range extra {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			kept := make(map[string]any, len(extra))
			budget := 0
			for _, k := range keys {
				entry := serializedSize(map[string]any{k: extra[k]})
				if budget+entry > max {
					extraKeysDropped++
					continue
				}
				budget += entry
				kept[k] = extra[k]
			}
			extra = kept
		}
	}

	if messageBytesDropped > 0 || extraKeysDropped > 0 {
		rt.diagnose(core.DiagPayloadTruncated, map[string]any{
			"message_bytes_dropped": messageBytesDropped,
			"extra_keys_dropped":    extraKeysDropped,
		})
	}
	return message, extra
}

func serializedSize(m map[string]any) int {
	b, err := json.Marshal(m)
	if err != nil {
		return len(fmt.Sprint(m))
	}
	return len(b)
}

// newEventID mints a unique, time-ordered event ID. UUIDv7 keeps IDs
// monotonic across the process; the rare clock-source failure falls
// back to a random UUID.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
