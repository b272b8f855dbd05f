package logrich

import (
	"context"
	"errors"
	"testing"

	"github.com/bitranox/lib-log-rich/core"
)

func testRuntime(t *testing.T, pid int, opts ...Option) *Runtime {
	t.Helper()
	base := []Option{
		WithService("svc"),
		WithEnvironment("dev"),
		WithConsole(false),
		WithIdentityProvider(core.StaticIdentityProvider(core.SystemIdentity{
			UserName: "alice",
			Hostname: "node1",
			PID:      pid,
		})),
	}
	rt, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { rt.Shutdown() })
	return rt
}

func TestBindRootRequiresJobID(t *testing.T) {
	rt := testRuntime(t, 100)

	_, err := rt.Bind(context.Background(), BindOptions{})
	if !errors.Is(err, core.ErrContextIncomplete) {
		t.Errorf("expected ErrContextIncomplete, got %v", err)
	}
}

func TestBindRootInheritsRuntimeIdentity(t *testing.T) {
	rt := testRuntime(t, 100)

	ctx, err := rt.Bind(context.Background(), BindOptions{JobID: "j1"})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	frame, ok := Current(ctx)
	if !ok {
		t.Fatal("no current frame")
	}
	if frame.Service != "svc" || frame.Environment != "dev" || frame.JobID != "j1" {
		t.Errorf("unexpected frame: %+v", frame)
	}
	if frame.UserName != "alice" || frame.Hostname != "node1" {
		t.Errorf("identity not applied: %+v", frame)
	}
	if frame.ProcessID != 100 || frame.PIDChainString() != "100" {
		t.Errorf("pid chain = %q (pid %d)", frame.PIDChainString(), frame.ProcessID)
	}
}

func TestBindNestedOverlay(t *testing.T) {
	rt := testRuntime(t, 100)

	root, err := rt.Bind(context.Background(), BindOptions{JobID: "j1", Extra: map[string]any{"a": 1, "b": 1}})
	if err != nil {
		t.Fatalf("root Bind: %v", err)
	}
	child, err := rt.Bind(root, BindOptions{RequestID: "r-9", Extra: map[string]any{"b": 2}})
	if err != nil {
		t.Fatalf("nested Bind: %v", err)
	}

	frame, _ := Current(child)
	if frame.JobID != "j1" || frame.RequestID != "r-9" {
		t.Errorf("overlay wrong: %+v", frame)
	}
	if frame.Extra["a"] != 1 || frame.Extra["b"] != 2 {
		t.Errorf("extra merge wrong: %v", frame.Extra)
	}
	if frame.PIDChainString() != "100" {
		t.Errorf("nested bind grew the chain: %q", frame.PIDChainString())
	}

	// Scope exit: the parent context is untouched.
	parent, _ := Current(root)
	if parent.RequestID != "" || parent.Extra["b"] != 1 {
		t.Errorf("parent frame mutated: %+v", parent)
	}
}

func TestBindCurrentWithoutBind(t *testing.T) {
	if _, ok := Current(context.Background()); ok {
		t.Error("unexpected frame on fresh context")
	}
	if _, ok := Current(nil); ok {
		t.Error("unexpected frame on nil context")
	}
}

func TestSerializeDeserializeAcrossProcess(t *testing.T) {
	parent := testRuntime(t, 100)

	ctx, err := parent.Bind(context.Background(), BindOptions{JobID: "j1", TraceID: "t-1"})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	ctx, err = parent.Bind(ctx, BindOptions{RequestID: "r-1"})
	if err != nil {
		t.Fatalf("nested Bind: %v", err)
	}

	payload, err := Serialize(ctx)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	// Hydrate in a "child process" with a different PID.
	child := testRuntime(t, 200)
	restored, err := Deserialize(context.Background(), payload)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	frame, ok := Current(restored)
	if !ok {
		t.Fatal("no frame after deserialize")
	}
	if frame.RequestID != "r-1" || frame.TraceID != "t-1" {
		t.Errorf("restored frame lost fields: %+v", frame)
	}
	if frame.PIDChainString() != "100" {
		t.Errorf("deserialize must not append the child PID, chain = %q", frame.PIDChainString())
	}

	// The next bind at the root appends the child PID exactly once.
	bound, err := child.Bind(restored, BindOptions{})
	if err != nil {
		t.Fatalf("child Bind: %v", err)
	}
	frame, _ = Current(bound)
	if frame.PIDChainString() != "100>200" {
		t.Errorf("chain = %q, want 100>200", frame.PIDChainString())
	}
	if frame.ProcessID != 200 {
		t.Errorf("ProcessID = %d, want 200", frame.ProcessID)
	}
	if len(frame.ProcessIDChain) > core.MaxPIDChain {
		t.Errorf("chain length %d exceeds cap", len(frame.ProcessIDChain))
	}
}

func TestSerializeWithoutBind(t *testing.T) {
	if _, err := Serialize(context.Background()); !errors.Is(err, core.ErrContextMissing) {
		t.Errorf("expected ErrContextMissing, got %v", err)
	}
}

func TestDeserializeInvalidPayload(t *testing.T) {
	if _, err := Deserialize(context.Background(), "not json"); err == nil {
		t.Error("expected error for malformed payload")
	}
	if _, err := Deserialize(context.Background(), `{"frames":[]}`); err == nil {
		t.Error("expected error for empty stack")
	}
	if _, err := Deserialize(context.Background(), `{"frames":[{"service":"","environment":"e","job_id":"j","process_id":1,"process_id_chain":[1]}]}`); err == nil {
		t.Error("expected error for invalid frame")
	}
}
