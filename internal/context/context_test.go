package context

import (
	"testing"

	"github.com/cwbudde/ecmago/internal/jsruntime"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	rt := jsruntime.NewRuntime(nil)
	global := object.New(rt.Tbl, nil, "global")
	return NewContext(rt, global)
}

func TestPushFrameEnforcesMaxCallDepth(t *testing.T) {
	ctx := newTestContext(t)
	ctx.MaxCallDepth = 3
	var rangeErrSeen bool
	for i := 0; i < 10; i++ {
		ok, _ := ctx.PushFrame(CallFrame{FunctionName: "f"})
		if !ok {
			rangeErrSeen = true
			break
		}
	}
	if !rangeErrSeen {
		t.Fatalf("expected PushFrame to refuse once MaxCallDepth is reached")
	}
	if ctx.Depth() != ctx.MaxCallDepth {
		t.Fatalf("expected depth to stop at %d, got %d", ctx.MaxCallDepth, ctx.Depth())
	}
}

func TestPushFrameReturnsRangeErrorViaFactory(t *testing.T) {
	ctx := newTestContext(t)
	ctx.MaxCallDepth = 1
	var gotKind, gotMessage string
	ctx.NewError = func(kind, message string) value.Value {
		gotKind, gotMessage = kind, message
		return value.Undefined
	}
	ok, _ := ctx.PushFrame(CallFrame{FunctionName: "f"})
	if !ok {
		t.Fatalf("expected the first PushFrame to succeed")
	}
	ok, _ = ctx.PushFrame(CallFrame{FunctionName: "g"})
	if ok {
		t.Fatalf("expected the second PushFrame to fail past MaxCallDepth")
	}
	if gotKind != "RangeError" {
		t.Fatalf("expected RangeError, got %q", gotKind)
	}
	if gotMessage == "" {
		t.Fatalf("expected a non-empty message")
	}
}

func TestPopFrameOnEmptyStackIsNoop(t *testing.T) {
	ctx := newTestContext(t)
	ctx.PopFrame()
	if ctx.Depth() != 0 {
		t.Fatalf("expected depth 0, got %d", ctx.Depth())
	}
}

func TestDeclareGlobalVarRejectsLexClash(t *testing.T) {
	ctx := newTestContext(t)
	x := ctx.Runtime.Tbl.Intern("x")
	if err := ctx.DeclareGlobalLex(x); err != nil {
		t.Fatalf("unexpected error declaring let x: %v", err)
	}
	if err := ctx.DeclareGlobalVar(x); err == nil {
		t.Fatalf("expected var x to clash with the existing let x")
	}
}

func TestDeclareGlobalLexRejectsVarClash(t *testing.T) {
	ctx := newTestContext(t)
	x := ctx.Runtime.Tbl.Intern("x")
	if err := ctx.DeclareGlobalVar(x); err != nil {
		t.Fatalf("unexpected error declaring var x: %v", err)
	}
	if err := ctx.DeclareGlobalLex(x); err == nil {
		t.Fatalf("expected let x to clash with the existing var x")
	}
}

func TestMicrotasksRunInFIFOOrderIncludingEnqueuedDuringDrain(t *testing.T) {
	ctx := newTestContext(t)
	var order []int
	ctx.EnqueueMicrotask(func() {
		order = append(order, 1)
		ctx.EnqueueMicrotask(func() { order = append(order, 3) })
	})
	ctx.EnqueueMicrotask(func() { order = append(order, 2) })
	ctx.ProcessMicrotasks()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected FIFO order [1 2 3], got %v", order)
	}
	if ctx.HasPendingMicrotasks() {
		t.Fatalf("expected queue to be drained")
	}
}

func TestResetEvalStateClearsTransientState(t *testing.T) {
	ctx := newTestContext(t)
	ctx.PushFrame(CallFrame{FunctionName: "f"})
	ctx.InCatchHandler = true
	ctx.ResetEvalState()
	if ctx.Depth() != 0 {
		t.Fatalf("expected call stack cleared, depth=%d", ctx.Depth())
	}
	if ctx.InCatchHandler {
		t.Fatalf("expected InCatchHandler cleared")
	}
	if ctx.PendingException != nil {
		t.Fatalf("expected no pending exception")
	}
}

func TestSetPendingExceptionSuppressedInCatchHandler(t *testing.T) {
	ctx := newTestContext(t)
	ctx.InCatchHandler = true
	ctx.SetPendingException(value.String("boom"))
	if ctx.PendingException != nil {
		t.Fatalf("expected SetPendingException to be suppressed while InCatchHandler")
	}
}

func TestSetPendingExceptionCapturesStackTrace(t *testing.T) {
	ctx := newTestContext(t)
	ctx.PushFrame(CallFrame{FunctionName: "outer", FileName: "main.js", Line: 3, Column: 1})
	ctx.SetPendingException(value.String("boom"))
	if ctx.PendingException == nil {
		t.Fatalf("expected a pending exception to be set")
	}
	if len(ctx.PendingException.Trace) != 1 {
		t.Fatalf("expected one captured frame, got %d", len(ctx.PendingException.Trace))
	}
	if ctx.PendingException.Trace[0].FunctionName != "outer" {
		t.Fatalf("expected captured frame name 'outer', got %q", ctx.PendingException.Trace[0].FunctionName)
	}
}
