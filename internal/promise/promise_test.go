package promise

import (
	"testing"

	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/jsruntime"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

func newTestContext(t *testing.T) *context.Context {
	t.Helper()
	rt := jsruntime.NewRuntime(nil)
	global := object.New(rt.Tbl, nil, "global")
	ctx := context.NewContext(rt, global)
	ctx.NewError = func(kind, message string) value.Value { return value.String(kind + ": " + message) }
	return ctx
}

// testCallFor builds an Invoker that only knows how to invoke
// object.NativeFunction — everything this package hands to script
// (resolve/reject functions, reaction handlers in these tests) is one, and
// the VM's real Invoker is exercised separately in internal/vm. It passes
// ctx as the realm argument, matching how wrapUnaryNative-built functions
// recover it.
func testCallFor(ctx *context.Context) object.Invoker {
	return func(fn value.Value, this value.Value, args []value.Value) (value.Value, *object.OpError) {
		nf, ok := fn.Object().(*object.NativeFunction)
		if !ok {
			return value.Value{}, &object.OpError{Kind: "TypeError", Message: "value is not callable"}
		}
		return nf.Fn(ctx, this, args, value.Value{})
	}
}

func nativeHandler(tbl *jsruntime.Runtime, fn func(args []value.Value) (value.Value, *object.OpError)) value.Value {
	nf := object.NewNativeFunction(tbl.Tbl, nil, "", 1, func(realm any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return fn(args)
	})
	return value.FromObject(nf)
}

func TestResolveFulfillsAndReactionRunsOnlyAfterMicrotaskDrain(t *testing.T) {
	ctx := newTestContext(t)
	call := testCallFor(ctx)
	cap := NewCapability(ctx.Runtime.Tbl, nil)
	cap.Resolve(ctx, call, value.Number(42))

	var got value.Value
	ran := false
	handler := nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
		ran = true
		got = args[0]
		return value.Undefined, nil
	})
	Then(ctx, call, cap.Promise, handler, value.Value{}, nil)

	if ran {
		t.Fatalf("expected the reaction not to run before the microtask queue drains")
	}
	ctx.ProcessMicrotasks()
	if !ran {
		t.Fatalf("expected the reaction to run after draining microtasks")
	}
	if got.ToFloat64() != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
}

func TestRejectInvokesOnRejectedHandler(t *testing.T) {
	ctx := newTestContext(t)
	call := testCallFor(ctx)
	cap := NewCapability(ctx.Runtime.Tbl, nil)
	cap.Reject(ctx, call, value.String("boom"))

	var got value.Value
	handler := nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
		got = args[0]
		return value.Undefined, nil
	})
	Then(ctx, call, cap.Promise, value.Value{}, handler, nil)
	ctx.ProcessMicrotasks()

	if !got.IsString() || got.ToGoString() != "boom" {
		t.Fatalf("expected 'boom', got %v", got)
	}
}

func TestThenChainsHandlerReturnValueIntoDerivedPromise(t *testing.T) {
	ctx := newTestContext(t)
	call := testCallFor(ctx)
	cap := NewCapability(ctx.Runtime.Tbl, nil)
	cap.Resolve(ctx, call, value.Number(1))

	double := nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
		return value.Number(args[0].ToFloat64() * 2), nil
	})
	derived := Then(ctx, call, cap.Promise, double, value.Value{}, nil)

	var final value.Value
	collect := nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
		final = args[0]
		return value.Undefined, nil
	})
	Then(ctx, call, derived, collect, value.Value{}, nil)
	ctx.ProcessMicrotasks()

	if final.ToFloat64() != 2 {
		t.Fatalf("expected derived chain to produce 2, got %v", final)
	}
}

// TestMicrotaskOrderingMatchesSyncThenRegistrationOrder exercises the
// ordering property a resolved-at-construction promise guarantees: every
// .then() callback runs strictly after the synchronous code that registered
// it, in the order those reactions were registered.
func TestMicrotaskOrderingMatchesSyncThenRegistrationOrder(t *testing.T) {
	ctx := newTestContext(t)
	call := testCallFor(ctx)
	var log []string
	cap := NewCapability(ctx.Runtime.Tbl, nil)
	cap.Resolve(ctx, call, value.Undefined)

	record := func(tag string) value.Value {
		return nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
			log = append(log, tag)
			return value.Undefined, nil
		})
	}
	Then(ctx, call, cap.Promise, record("A"), value.Value{}, nil)
	Then(ctx, call, cap.Promise, record("B"), value.Value{}, nil)
	Then(ctx, call, cap.Promise, record("C"), value.Value{}, nil)
	log = append(log, "sync")

	ctx.ProcessMicrotasks()

	want := []string{"sync", "A", "B", "C"}
	if len(log) != len(want) {
		t.Fatalf("expected %v, got %v", want, log)
	}
	for i, tag := range want {
		if log[i] != tag {
			t.Fatalf("expected %v, got %v", want, log)
		}
	}
}

// fakeThenable is a foreign thenable object (not an object.PromiseData) to
// exercise thenable assimilation.
type fakeThenable struct {
	*object.Object
	resolveWith value.Value
}

func newFakeThenable(tbl *jsruntime.Runtime, call object.Invoker, resolveWith value.Value) *fakeThenable {
	ft := &fakeThenable{Object: object.New(tbl.Tbl, nil, "Object"), resolveWith: resolveWith}
	ft.SetSelf(ft)
	thenFn := object.NewNativeFunction(tbl.Tbl, nil, "then", 2, func(realm any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		resolveFn := args[0]
		_, err := call(resolveFn, value.Undefined, []value.Value{ft.resolveWith})
		return value.Undefined, err
	})
	ft.DefineOwnProperty(object.AtomKey(tbl.Tbl.Intern("then")), object.DataDescriptor(value.FromObject(thenFn), true, true, true))
	return ft
}

func TestResolveAssimilatesForeignThenable(t *testing.T) {
	ctx := newTestContext(t)
	call := testCallFor(ctx)
	thenable := newFakeThenable(ctx.Runtime, call, value.Number(99))

	cap := NewCapability(ctx.Runtime.Tbl, nil)
	cap.Resolve(ctx, call, value.FromObject(thenable))

	var got value.Value
	handler := nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
		got = args[0]
		return value.Undefined, nil
	})
	Then(ctx, call, cap.Promise, handler, value.Value{}, nil)

	// The resolution job itself is a microtask, and the reaction it
	// schedules is enqueued during that same drain — one ProcessMicrotasks
	// call must flush both.
	ctx.ProcessMicrotasks()

	if got.ToFloat64() != 99 {
		t.Fatalf("expected assimilated value 99, got %v", got)
	}
}

func TestAllFulfillsWithValuesInInputOrder(t *testing.T) {
	ctx := newTestContext(t)
	call := testCallFor(ctx)
	arrayProto := object.New(ctx.Runtime.Tbl, nil, "Object")
	items := []value.Value{value.Number(1), value.Number(2), value.Number(3)}

	result := All(ctx, call, nil, arrayProto, items)
	var got value.Value
	handler := nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
		got = args[0]
		return value.Undefined, nil
	})
	Then(ctx, call, result, handler, value.Value{}, nil)
	ctx.ProcessMicrotasks()

	arr, ok := got.Object().(*object.Array)
	if !ok {
		t.Fatalf("expected an Array result, got %T", got.Object())
	}
	for i, want := range []float64{1, 2, 3} {
		v, _ := arr.Get(object.IndexKey(uint32(i)), got, call)
		if v.ToFloat64() != want {
			t.Fatalf("expected index %d to be %v, got %v", i, want, v)
		}
	}
}

func TestAllRejectsAsSoonAsOneInputRejects(t *testing.T) {
	ctx := newTestContext(t)
	call := testCallFor(ctx)
	arrayProto := object.New(ctx.Runtime.Tbl, nil, "Object")
	rejected := NewCapability(ctx.Runtime.Tbl, nil)
	rejected.Reject(ctx, call, value.String("nope"))

	result := All(ctx, call, nil, arrayProto, []value.Value{value.Number(1), value.FromObject(rejected.Promise)})
	var reason value.Value
	handler := nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
		reason = args[0]
		return value.Undefined, nil
	})
	Then(ctx, call, result, value.Value{}, handler, nil)
	ctx.ProcessMicrotasks()

	if !reason.IsString() || reason.ToGoString() != "nope" {
		t.Fatalf("expected rejection reason 'nope', got %v", reason)
	}
}

func TestRaceSettlesToFirstSettledInput(t *testing.T) {
	ctx := newTestContext(t)
	call := testCallFor(ctx)
	slow := NewCapability(ctx.Runtime.Tbl, nil)
	fast := NewCapability(ctx.Runtime.Tbl, nil)
	fast.Resolve(ctx, call, value.String("fast"))

	result := Race(ctx, call, nil, []value.Value{value.FromObject(slow.Promise), value.FromObject(fast.Promise)})
	var got value.Value
	handler := nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
		got = args[0]
		return value.Undefined, nil
	})
	Then(ctx, call, result, handler, value.Value{}, nil)
	ctx.ProcessMicrotasks()

	if !got.IsString() || got.ToGoString() != "fast" {
		t.Fatalf("expected 'fast', got %v", got)
	}
}

func TestAllSettledRecordsEachOutcomeRegardlessOfRejection(t *testing.T) {
	ctx := newTestContext(t)
	call := testCallFor(ctx)
	arrayProto := object.New(ctx.Runtime.Tbl, nil, "Object")
	objectProto := object.New(ctx.Runtime.Tbl, nil, "Object")
	rejected := NewCapability(ctx.Runtime.Tbl, nil)
	rejected.Reject(ctx, call, value.String("bad"))

	result := AllSettled(ctx, call, nil, arrayProto, objectProto, []value.Value{value.Number(1), value.FromObject(rejected.Promise)})
	var got value.Value
	handler := nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
		got = args[0]
		return value.Undefined, nil
	})
	Then(ctx, call, result, handler, value.Value{}, nil)
	ctx.ProcessMicrotasks()

	arr, ok := got.Object().(*object.Array)
	if !ok {
		t.Fatalf("expected an Array result, got %T", got.Object())
	}
	first, _ := arr.Get(object.IndexKey(0), got, call)
	status, _ := first.Object().(object.JSObject).Get(object.AtomKey(ctx.Runtime.Tbl.Intern("status")), first, call)
	if status.ToGoString() != "fulfilled" {
		t.Fatalf("expected first record fulfilled, got %v", status)
	}
	second, _ := arr.Get(object.IndexKey(1), got, call)
	status2, _ := second.Object().(object.JSObject).Get(object.AtomKey(ctx.Runtime.Tbl.Intern("status")), second, call)
	if status2.ToGoString() != "rejected" {
		t.Fatalf("expected second record rejected, got %v", status2)
	}
}

func TestAnyFulfillsWithFirstFulfilledInputAndRejectsOnlyWhenAllReject(t *testing.T) {
	ctx := newTestContext(t)
	call := testCallFor(ctx)
	arrayProto := object.New(ctx.Runtime.Tbl, nil, "Object")
	aggregateError := func(errs value.Value) value.Value { return value.String("AggregateError") }

	rejectedA := NewCapability(ctx.Runtime.Tbl, nil)
	rejectedA.Reject(ctx, call, value.String("a"))
	fulfilledB := NewCapability(ctx.Runtime.Tbl, nil)
	fulfilledB.Resolve(ctx, call, value.String("b"))

	result := Any(ctx, call, nil, arrayProto, []value.Value{value.FromObject(rejectedA.Promise), value.FromObject(fulfilledB.Promise)}, aggregateError)
	var got value.Value
	handler := nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
		got = args[0]
		return value.Undefined, nil
	})
	Then(ctx, call, result, handler, value.Value{}, nil)
	ctx.ProcessMicrotasks()

	if !got.IsString() || got.ToGoString() != "b" {
		t.Fatalf("expected 'b', got %v", got)
	}
}

func TestWithResolversExposesWorkingResolveAndReject(t *testing.T) {
	ctx := newTestContext(t)
	call := testCallFor(ctx)
	p, resolveFn, _ := WithResolvers(ctx, call, nil)

	var got value.Value
	handler := nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
		got = args[0]
		return value.Undefined, nil
	})
	Then(ctx, call, p, handler, value.Value{}, nil)

	call(resolveFn, value.Undefined, []value.Value{value.Number(7)})
	ctx.ProcessMicrotasks()

	if got.ToFloat64() != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestDoubleResolveIsIgnored(t *testing.T) {
	ctx := newTestContext(t)
	call := testCallFor(ctx)
	cap := NewCapability(ctx.Runtime.Tbl, nil)
	cap.Resolve(ctx, call, value.Number(1))
	cap.Resolve(ctx, call, value.Number(2))

	var got value.Value
	handler := nativeHandler(ctx.Runtime, func(args []value.Value) (value.Value, *object.OpError) {
		got = args[0]
		return value.Undefined, nil
	})
	Then(ctx, call, cap.Promise, handler, value.Value{}, nil)
	ctx.ProcessMicrotasks()

	if got.ToFloat64() != 1 {
		t.Fatalf("expected the first resolve (1) to win, got %v", got)
	}
}
