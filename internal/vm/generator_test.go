package vm

import (
	"testing"

	"github.com/cwbudde/ecmago/internal/bytecode"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/promise"
	"github.com/cwbudde/ecmago/internal/value"
)

// newGeneratorFunction builds a one-local generator: yields the argument,
// then yields (sent value + 1), then returns (sent value * 2). This
// exercises two suspensions plus a final return, and that .next(v)'s v
// feeds back as OpYield's result on resume.
func newGeneratorFunction() *bytecode.Function {
	fn := bytecode.NewFunction("g", 1)
	fn.IsGenerator = true
	fn.NumLocals = 1
	fn.Chunk.Constants = []value.Value{value.Number(1), value.Number(2)}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadLocal, 0, 0),  // 0: push arg
		ins(bytecode.OpYield, 0, 0),      // 1: yield arg, pushes sent value on resume
		ins(bytecode.OpStoreLocal, 0, 0), // 2: store sent value into local 0
		ins(bytecode.OpLoadLocal, 0, 0),  // 3
		ins(bytecode.OpLoadConst, 0, 0),  // 4: push 1
		ins(bytecode.OpAdd, 0, 0),        // 5: sent + 1
		ins(bytecode.OpYield, 0, 0),      // 6: yield sent+1, pushes second sent value
		ins(bytecode.OpStoreLocal, 0, 0), // 7
		ins(bytecode.OpLoadLocal, 0, 0),  // 8
		ins(bytecode.OpLoadConst, 0, 1),  // 9: push 2
		ins(bytecode.OpMul, 0, 0),        // 10: sent * 2
		ins(bytecode.OpReturn, 0, 0),     // 11
	}
	return fn
}

func TestGeneratorYieldsThenReturnsFinalValue(t *testing.T) {
	vmInst, _ := newTestVM(t)
	result, err := runFunction(vmInst, newGeneratorFunction(), value.Number(10))
	if err != nil {
		t.Fatalf("calling a generator function should not run its body: %v", err)
	}
	genObj, ok := result.Object().(*object.GeneratorObject)
	if !ok {
		t.Fatalf("expected a GeneratorObject, got %T", result.Object())
	}

	next := getMethod(t, genObj, vmInst, "next")

	r1, err := vmInst.Invoke(next, result, []value.Value{value.Undefined})
	requireNoErr(t, err)
	assertIterResult(t, vmInst, r1, 10, false)

	r2, err := vmInst.Invoke(next, result, []value.Value{value.Number(5)})
	requireNoErr(t, err)
	assertIterResult(t, vmInst, r2, 6, false)

	r3, err := vmInst.Invoke(next, result, []value.Value{value.Number(7)})
	requireNoErr(t, err)
	assertIterResult(t, vmInst, r3, 14, true)
}

func TestGeneratorThrowIsCaughtInsideBody(t *testing.T) {
	vmInst, _ := newTestVM(t)
	fn := bytecode.NewFunction("g", 0)
	fn.IsGenerator = true
	fn.Chunk.Constants = []value.Value{value.Number(1)}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadConst, 0, 0), // 0: push 1
		ins(bytecode.OpYield, 0, 0),     // 1: yield 1; a .throw() here is caught below
		ins(bytecode.OpReturn, 0, 0),    // 2: (unreached on the throw path)
		ins(bytecode.OpReturn, 0, 0),    // 3: handler returns the caught value
	}
	fn.Chunk.Handlers = []bytecode.ExceptionHandler{
		{StartPC: 0, EndPC: 2, HandlerPC: 3, StackDepth: 0, IsFinally: false},
	}
	result, err := runFunction(vmInst, fn)
	requireNoErr(t, err)
	genObj := result.Object().(*object.GeneratorObject)

	next := getMethod(t, genObj, vmInst, "next")
	r1, err := vmInst.Invoke(next, result, nil)
	requireNoErr(t, err)
	assertIterResult(t, vmInst, r1, 1, false)

	throwMethod := getMethod(t, genObj, vmInst, "throw")
	r2, err := vmInst.Invoke(throwMethod, result, []value.Value{value.String("boom")})
	requireNoErr(t, err)
	assertIterResult(t, vmInst, r2, "boom", true)
}

func TestAsyncFunctionResolvesAfterAwaitingAFulfilledPromise(t *testing.T) {
	vmInst, ctx := newTestVM(t)
	fn := bytecode.NewFunction("f", 0)
	fn.IsAsync = true
	fn.Chunk.Constants = []value.Value{value.Number(41)}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadConst, 0, 0), // 0: push 41 (not itself a promise)
		ins(bytecode.OpAwait, 0, 0),     // 1: await 41 -> resolves immediately to 41
		ins(bytecode.OpReturn, 0, 0),    // 2
	}
	result, err := runFunction(vmInst, fn)
	requireNoErr(t, err)

	p, ok := result.Object().(*object.PromiseData)
	if !ok {
		t.Fatalf("expected an async function call to return a Promise, got %T", result.Object())
	}
	ctx.ProcessMicrotasks()
	if p.State != object.PromiseFulfilled {
		t.Fatalf("expected the async function's promise to be fulfilled, got %v", p.State)
	}
	if !p.Result.IsNumber() || p.Result.ToFloat64() != 41 {
		t.Fatalf("expected 41, got %v", p.Result)
	}
}

func TestAsyncFunctionRejectsWhenAwaitedPromiseRejects(t *testing.T) {
	vmInst, ctx := newTestVM(t)
	fn := bytecode.NewFunction("f", 1)
	fn.IsAsync = true
	fn.NumLocals = 1
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadLocal, 0, 0), // 0: push the single arg
		ins(bytecode.OpAwait, 0, 0),     // 1: await it
		ins(bytecode.OpReturn, 0, 0),    // 2
	}

	rejected := promise.Rejected(ctx, nil, value.String("nope"))
	result, err := runFunction(vmInst, fn, value.FromObject(rejected))
	requireNoErr(t, err)

	p := result.Object().(*object.PromiseData)
	ctx.ProcessMicrotasks()
	if p.State != object.PromiseRejected {
		t.Fatalf("expected rejection, got %v", p.State)
	}
	if !p.Result.IsString() || p.Result.ToGoString() != "nope" {
		t.Fatalf("expected the rejection reason to survive, got %v", p.Result)
	}
}

func getMethod(t *testing.T, obj object.JSObject, vmInst *VM, name string) value.Value {
	t.Helper()
	v, err := obj.Get(object.AtomKey(vmInst.Ctx.Runtime.Tbl.Intern(name)), value.FromObject(obj), vmInst.Invoke)
	if err != nil {
		t.Fatalf("getting %q: %v", name, err)
	}
	return v
}

func requireNoErr(t *testing.T, err *object.OpError) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertIterResult(t *testing.T, vmInst *VM, result value.Value, wantValue any, wantDone bool) {
	t.Helper()
	obj, ok := result.Object().(object.JSObject)
	if !ok {
		t.Fatalf("expected an iterator result object, got %T", result.Object())
	}
	v, err := obj.Get(object.AtomKey(vmInst.Ctx.Runtime.Tbl.Intern("value")), result, vmInst.Invoke)
	requireNoErr(t, err)
	done, err := obj.Get(object.AtomKey(vmInst.Ctx.Runtime.Tbl.Intern("done")), result, vmInst.Invoke)
	requireNoErr(t, err)
	if !done.IsBoolean() || done.ToBool() != wantDone {
		t.Fatalf("expected done=%v, got %v", wantDone, done)
	}
	switch want := wantValue.(type) {
	case int:
		if !v.IsNumber() || v.ToFloat64() != float64(want) {
			t.Fatalf("expected value %v, got %v", want, v)
		}
	case string:
		if !v.IsString() || v.ToGoString() != want {
			t.Fatalf("expected value %q, got %v", want, v)
		}
	}
}
