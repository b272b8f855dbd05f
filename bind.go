package logrich

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/bitranox/lib-log-rich/core"
)

// bindStackKey is a private context key type to avoid collisions.
type bindStackKey struct{}

// bindStack is the immutable stack of context frames carried on a
// context.Context. Each Bind pushes one merged frame; dropping the
// derived context pops the frame on every exit path.
type bindStack struct {
	frames []core.LogContext
}

// BindOptions are the fields applied by a Bind call. At the root of a
// process, service, environment, and job_id must resolve to non-empty
// values (service and environment may come from the runtime identity).
// Nested binds inherit the parent frame and overlay only the fields set
// here.
type BindOptions struct {
	Service     string
	Environment string
	JobID       string

	RequestID string
	UserID    string
	UserName  string
	Hostname  string
	TraceID   string
	SpanID    string

	Extra map[string]any
}

// Current returns the innermost bound context frame.
func Current(ctx context.Context) (core.LogContext, bool) {
	if ctx == nil {
		return core.LogContext{}, false
	}
	if stack, ok := ctx.Value(bindStackKey{}).(*bindStack); ok && len(stack.frames) > 0 {
		return stack.frames[len(stack.frames)-1], true
	}
	return core.LogContext{}, false
}

// Serialize encodes the full bind stack for hand-off to a subprocess.
func Serialize(ctx context.Context) (string, error) {
	stack, ok := ctx.Value(bindStackKey{}).(*bindStack)
	if !ok || len(stack.frames) == 0 {
		return "", core.ErrContextMissing
	}
	payload, err := json.Marshal(serializedStack{Frames: toSerializedFrames(stack.frames)})
	if err != nil {
		return "", fmt.Errorf("serialize log context: %w", err)
	}
	return string(payload), nil
}

// Deserialize restores a serialized bind stack in a child process. The
// child's PID is appended to the chain by its next Bind at the root,
// never here.
func Deserialize(ctx context.Context, payload string) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var decoded serializedStack
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, fmt.Errorf("deserialize log context: %w", err)
	}
	if len(decoded.Frames) == 0 {
		return nil, fmt.Errorf("deserialize log context: %w: empty stack", core.ErrContextIncomplete)
	}
	frames := fromSerializedFrames(decoded.Frames)
	for _, frame := range frames {
		if err := frame.Validate(); err != nil {
			return nil, err
		}
	}
	return context.WithValue(ctx, bindStackKey{}, &bindStack{frames: frames}), nil
}

// Bind pushes a context frame and returns the derived context. See
// Runtime.Bind.
func Bind(ctx context.Context, opts BindOptions) (context.Context, error) {
	rt := global.Load()
	if rt == nil {
		return nil, core.ErrNotInitialized
	}
	return rt.Bind(ctx, opts)
}

// Bind pushes a new context frame. At the root (no frame bound yet) the
// frame starts from the runtime's identity: service and environment from
// configuration, user and host from the identity provider. Nested binds
// inherit the parent and overlay the fields set in opts. The current PID
// is appended to the chain exactly once per process boundary.
func (rt *Runtime) Bind(ctx context.Context, opts BindOptions) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var frame core.LogContext
	var frames []core.LogContext
	if stack, ok := ctx.Value(bindStackKey{}).(*bindStack); ok && len(stack.frames) > 0 {
		frames = stack.frames
		frame = stack.frames[len(stack.frames)-1].Clone()
	} else {
		identity := rt.identity.Identity()
		frame = core.LogContext{
			Service:     rt.opts.Service,
			Environment: rt.opts.Environment,
			UserName:    identity.UserName,
			Hostname:    identity.Hostname,
		}
	}

	overlay(&frame, opts)
	frame = frame.WithPID(rt.identity.Identity().PID)

	if err := frame.Validate(); err != nil {
		return nil, err
	}

	next := make([]core.LogContext, len(frames)+1)
	copy(next, frames)
	next[len(frames)] = frame
	return context.WithValue(ctx, bindStackKey{}, &bindStack{frames: next}), nil
}

func overlay(frame *core.LogContext, opts BindOptions) {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&frame.Service, opts.Service)
	set(&frame.Environment, opts.Environment)
	set(&frame.JobID, opts.JobID)
	set(&frame.RequestID, opts.RequestID)
	set(&frame.UserID, opts.UserID)
	set(&frame.UserName, opts.UserName)
	set(&frame.Hostname, opts.Hostname)
	set(&frame.TraceID, opts.TraceID)
	set(&frame.SpanID, opts.SpanID)

	if len(opts.Extra) > 0 {
		merged := make(map[string]any, len(frame.Extra)+len(opts.Extra))
		maps.Copy(merged, frame.Extra)
		maps.Copy(merged, opts.Extra)
		frame.Extra = merged
	}
}

// serializedStack is the wire form of a bind stack.
type serializedStack struct {
	Frames []serializedFrame `json:"frames"`
}

type serializedFrame struct {
	Service        string         `json:"service"`
	Environment    string         `json:"environment"`
	JobID          string         `json:"job_id"`
	RequestID      string         `json:"request_id,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	UserName       string         `json:"user_name,omitempty"`
	Hostname       string         `json:"hostname,omitempty"`
	TraceID        string         `json:"trace_id,omitempty"`
	SpanID         string         `json:"span_id,omitempty"`
	ProcessID      int            `json:"process_id"`
	ProcessIDChain []int          `json:"process_id_chain"`
	Extra          map[string]any `json:"extra,omitempty"`
}

func toSerializedFrames(frames []core.LogContext) []serializedFrame {
	out := make([]serializedFrame, len(frames))
	for i, f := range frames {
		out[i] = serializedFrame{
			Service:        f.Service,
			Environment:    f.Environment,
			JobID:          f.JobID,
			RequestID:      f.RequestID,
			UserID:         f.UserID,
			UserName:       f.UserName,
			Hostname:       f.Hostname,
			TraceID:        f.TraceID,
			SpanID:         f.SpanID,
			ProcessID:      f.ProcessID,
			ProcessIDChain: f.ProcessIDChain,
			Extra:          f.Extra,
		}
	}
	return out
}

func fromSerializedFrames(frames []serializedFrame) []core.LogContext {
	out := make([]core.LogContext, len(frames))
	for i, f := range frames {
		out[i] = core.LogContext{
			Service:        f.Service,
			Environment:    f.Environment,
			JobID:          f.JobID,
			RequestID:      f.RequestID,
			UserID:         f.UserID,
			UserName:       f.UserName,
			Hostname:       f.Hostname,
			TraceID:        f.TraceID,
			SpanID:         f.SpanID,
			ProcessID:      f.ProcessID,
			ProcessIDChain: f.ProcessIDChain,
			Extra:          f.Extra,
		}.Clone()
	}
	return out
}
