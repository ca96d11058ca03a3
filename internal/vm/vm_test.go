package vm

import (
	"testing"

	"github.com/cwbudde/ecmago/internal/bytecode"
	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/jsruntime"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// newTestVM wires a bare Runtime/Context/global object, enough for programs
// that don't touch a populated builtins realm.
func newTestVM(t *testing.T) (*VM, *context.Context) {
	t.Helper()
	rt := jsruntime.NewRuntime(nil)
	global := object.New(rt.Tbl, nil, "global")
	ctx := context.NewContext(rt, global)
	ctx.NewError = func(kind, message string) value.Value {
		o := object.New(rt.Tbl, nil, kind)
		o.DefineOwnProperty(object.AtomKey(rt.Tbl.Intern("message")), object.DataDescriptor(value.String(message), true, false, true))
		o.DefineOwnProperty(object.AtomKey(rt.Tbl.Intern("name")), object.DataDescriptor(value.String(kind), true, false, true))
		return value.FromObject(o)
	}
	return New(ctx), ctx
}

func ins(op bytecode.OpCode, a uint8, b uint16) uint32 {
	return bytecode.Encode(bytecode.Instruction{Op: op, A: a, B: b})
}

// runFunction wraps fn in a BytecodeFunctionObject with no captured
// environment and calls it with the given arguments, `this` undefined.
func runFunction(vm *VM, fn *bytecode.Function, args ...value.Value) (value.Value, *object.OpError) {
	fo := object.NewBytecodeFunctionObject(vm.Ctx.Runtime.Tbl, nil, fn, nil)
	return vm.Call(value.FromObject(fo), value.Undefined, args, value.Value{})
}

func TestArithmeticAddsNumbers(t *testing.T) {
	vmInst, _ := newTestVM(t)
	fn := bytecode.NewFunction("f", 0)
	fn.Chunk.Constants = []value.Value{value.Number(2), value.Number(3)}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadConst, 0, 0),
		ins(bytecode.OpLoadConst, 0, 1),
		ins(bytecode.OpAdd, 0, 0),
		ins(bytecode.OpReturn, 0, 0),
	}
	result, err := runFunction(vmInst, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsNumber() || result.ToFloat64() != 5 {
		t.Fatalf("expected 5, got %v", result)
	}
}

func TestAddConcatenatesWhenEitherOperandIsString(t *testing.T) {
	vmInst, _ := newTestVM(t)
	fn := bytecode.NewFunction("f", 0)
	fn.Chunk.Constants = []value.Value{value.String("x="), value.Number(3)}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadConst, 0, 0),
		ins(bytecode.OpLoadConst, 0, 1),
		ins(bytecode.OpAdd, 0, 0),
		ins(bytecode.OpReturn, 0, 0),
	}
	result, err := runFunction(vmInst, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsString() || result.ToGoString() != "x=3" {
		t.Fatalf("expected %q, got %v", "x=3", result)
	}
}

func TestStrictEqualityDistinguishesTypes(t *testing.T) {
	vmInst, _ := newTestVM(t)
	fn := bytecode.NewFunction("f", 0)
	fn.Chunk.Constants = []value.Value{value.Number(1), value.String("1")}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadConst, 0, 0),
		ins(bytecode.OpLoadConst, 0, 1),
		ins(bytecode.OpStrictEq, 0, 0),
		ins(bytecode.OpReturn, 0, 0),
	}
	result, err := runFunction(vmInst, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ToBool() {
		t.Fatalf("expected 1 === '1' to be false")
	}
}

func TestAbstractEqualityCoercesStringToNumber(t *testing.T) {
	vmInst, _ := newTestVM(t)
	fn := bytecode.NewFunction("f", 0)
	fn.Chunk.Constants = []value.Value{value.Number(1), value.String("1")}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadConst, 0, 0),
		ins(bytecode.OpLoadConst, 0, 1),
		ins(bytecode.OpEq, 0, 0),
		ins(bytecode.OpReturn, 0, 0),
	}
	result, err := runFunction(vmInst, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.ToBool() {
		t.Fatalf("expected 1 == '1' to be true")
	}
}

// TestLocalsRoundTrip stores into local slot 0 and loads it back, exercising
// OpStoreLocal/OpLoadLocal through the boxed-Cell path.
func TestLocalsRoundTrip(t *testing.T) {
	vmInst, _ := newTestVM(t)
	fn := bytecode.NewFunction("f", 1)
	fn.NumLocals = 1
	fn.Chunk.Constants = []value.Value{value.Number(10)}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadLocal, 0, 0),
		ins(bytecode.OpLoadConst, 0, 0),
		ins(bytecode.OpAdd, 0, 0),
		ins(bytecode.OpStoreLocal, 0, 0),
		ins(bytecode.OpLoadLocal, 0, 0),
		ins(bytecode.OpReturn, 0, 0),
	}
	result, err := runFunction(vmInst, fn, value.Number(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ToFloat64() != 15 {
		t.Fatalf("expected 15, got %v", result)
	}
}

// TestClosureCapturesUpvalueByReference builds an outer function that
// allocates a counter local, makes a closure over it, calls the closure
// twice, and returns the counter — checking upvalue writes propagate back
// through the shared Cell (spec "closures capture by reference").
func TestClosureCapturesUpvalueByReference(t *testing.T) {
	vmInst, _ := newTestVM(t)

	inner := bytecode.NewFunction("increment", 0)
	inner.Chunk.Constants = []value.Value{value.Number(1)}
	inner.Upvalues = []bytecode.UpvalueDef{{FromParentLocal: true, Index: 0}}
	inner.Chunk.Code = []uint32{
		ins(bytecode.OpLoadUpvalue, 0, 0),
		ins(bytecode.OpLoadConst, 0, 0),
		ins(bytecode.OpAdd, 0, 0),
		ins(bytecode.OpStoreUpvalue, 0, 0),
		ins(bytecode.OpReturnUndefined, 0, 0),
	}

	outer := bytecode.NewFunction("outer", 0)
	outer.NumLocals = 1
	outer.Inner = []*bytecode.Function{inner}
	outer.Chunk.Constants = []value.Value{value.Number(0)}
	outer.Chunk.Code = []uint32{
		ins(bytecode.OpLoadConst, 0, 0),   // [0]
		ins(bytecode.OpStoreLocal, 0, 0),  // local0 = 0; []
		ins(bytecode.OpMakeClosure, 0, 0), // [closure]
		ins(bytecode.OpDup, 0, 0),         // [closure, closure]
		ins(bytecode.OpCall, 0, 0),        // call #1: [closure, undefined]
		ins(bytecode.OpPop, 0, 0),         // [closure]
		ins(bytecode.OpCall, 0, 0),        // call #2: [undefined]
		ins(bytecode.OpPop, 0, 0),         // []
		ins(bytecode.OpLoadLocal, 0, 0),
		ins(bytecode.OpReturn, 0, 0),
	}

	result, err := runFunction(vmInst, outer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ToFloat64() != 2 {
		t.Fatalf("expected counter 2 after two calls, got %v", result)
	}
}

// TestTryCatchUnwindsToHandler exercises the static per-function handler
// table: a throw inside [0, 2) unwinds to HandlerPC 3, which returns the
// caught value plus one.
func TestTryCatchUnwindsToHandler(t *testing.T) {
	vmInst, _ := newTestVM(t)
	fn := bytecode.NewFunction("f", 0)
	fn.Chunk.Constants = []value.Value{value.Number(41), value.Number(1)}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadConst, 0, 0), // 0: push 41
		ins(bytecode.OpThrow, 0, 0),     // 1: throw 41
		ins(bytecode.OpHalt, 0, 0),      // 2: unreachable filler (handler starts at 3)
		ins(bytecode.OpLoadConst, 0, 1), // 3: handler: push 1 (on top of caught value)
		ins(bytecode.OpAdd, 0, 0),       // 4: caught + 1
		ins(bytecode.OpReturn, 0, 0),    // 5
	}
	fn.Chunk.Handlers = []bytecode.ExceptionHandler{
		{StartPC: 0, EndPC: 2, HandlerPC: 3, StackDepth: 0, IsFinally: false},
	}
	result, err := runFunction(vmInst, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ToFloat64() != 42 {
		t.Fatalf("expected 42, got %v", result)
	}
}

// TestThrownObjectSurvivesUnwindUnchanged verifies OpThrow's thrown value
// (not a reconstructed Kind/Message error) is exactly what the handler sees
// — the arbitrary-throw-value fix for the former __thrown__ placeholder.
func TestThrownObjectSurvivesUnwindUnchanged(t *testing.T) {
	vmInst, _ := newTestVM(t)
	fn := bytecode.NewFunction("f", 0)
	fn.Chunk.Constants = []value.Value{value.String("custom payload")}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadConst, 0, 0), // 0: push the string
		ins(bytecode.OpThrow, 0, 0),     // 1: throw it
		ins(bytecode.OpHalt, 0, 0),      // 2: filler
		ins(bytecode.OpReturn, 0, 0),    // 3: handler returns the caught value untouched
	}
	fn.Chunk.Handlers = []bytecode.ExceptionHandler{
		{StartPC: 0, EndPC: 2, HandlerPC: 3, StackDepth: 0, IsFinally: false},
	}
	result, err := runFunction(vmInst, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsString() || result.ToGoString() != "custom payload" {
		t.Fatalf("expected the exact thrown string back, got %v", result)
	}
}

// TestUncaughtThrowSetsPendingException checks a throw with no covering
// handler propagates as an OpError and records the thrown value on the
// Context rather than losing it.
func TestUncaughtThrowSetsPendingException(t *testing.T) {
	vmInst, ctx := newTestVM(t)
	fn := bytecode.NewFunction("f", 0)
	fn.Chunk.Constants = []value.Value{value.String("uncaught")}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadConst, 0, 0),
		ins(bytecode.OpThrow, 0, 0),
	}
	_, err := runFunction(vmInst, fn)
	if err == nil {
		t.Fatalf("expected an OpError to propagate")
	}
	if ctx.PendingException == nil {
		t.Fatalf("expected a pending exception to be recorded")
	}
	if got := ctx.PendingException.Value; !got.IsString() || got.ToGoString() != "uncaught" {
		t.Fatalf("expected the pending exception to carry the thrown string, got %v", got)
	}
}

func TestCallingANonFunctionIsATypeError(t *testing.T) {
	vmInst, _ := newTestVM(t)
	_, err := vmInst.Call(value.Number(1), value.Undefined, nil, value.Value{})
	if err == nil || err.Kind != "TypeError" {
		t.Fatalf("expected a TypeError, got %v", err)
	}
}

// TestMaxCallDepthRaisesRangeError has a bytecode function call itself via a
// global binding, unconditionally, so PushFrame's depth check is the only
// thing that can stop it (spec §4.4 "configurable max depth").
func TestMaxCallDepthRaisesRangeError(t *testing.T) {
	vmInst, ctx := newTestVM(t)
	ctx.MaxCallDepth = 5

	fn := bytecode.NewFunction("recurse", 0)
	nameAtom := ctx.Runtime.Tbl.Intern("recurse")
	fn.Chunk.Constants = []value.Value{value.String("recurse")}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadGlobal, 0, 0),
		ins(bytecode.OpCall, 0, 0),
		ins(bytecode.OpReturn, 0, 0),
	}
	fo := object.NewBytecodeFunctionObject(ctx.Runtime.Tbl, nil, fn, nil)
	callee := value.FromObject(fo)
	ctx.Global.DefineOwnProperty(object.AtomKey(nameAtom), object.DataDescriptor(callee, true, true, true))

	_, err := vmInst.Call(callee, value.Undefined, nil, value.Value{})
	if err == nil || err.Kind != "RangeError" {
		t.Fatalf("expected a RangeError once MaxCallDepth is exceeded, got %v", err)
	}
}

func TestObjectPropertyGetSet(t *testing.T) {
	vmInst, _ := newTestVM(t)
	fn := bytecode.NewFunction("f", 0)
	fn.Chunk.Constants = []value.Value{value.String("answer"), value.Number(42)}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpNewObject, 0, 0),  // [obj]
		ins(bytecode.OpDup, 0, 0),        // [obj, obj]
		ins(bytecode.OpLoadConst, 0, 1),  // [obj, obj, 42]
		ins(bytecode.OpSetProp, 0, 0),    // [obj, 42]  (key: constants[0] "answer")
		ins(bytecode.OpPop, 0, 0),        // [obj]
		ins(bytecode.OpGetProp, 0, 0),    // [42]
		ins(bytecode.OpReturn, 0, 0),
	}
	result, err := runFunction(vmInst, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ToFloat64() != 42 {
		t.Fatalf("expected 42, got %v", result)
	}
}

func TestTypeOfOperator(t *testing.T) {
	vmInst, _ := newTestVM(t)
	fn := bytecode.NewFunction("f", 0)
	fn.Chunk.Constants = []value.Value{value.Undefined}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadConst, 0, 0),
		ins(bytecode.OpTypeOf, 0, 0),
		ins(bytecode.OpReturn, 0, 0),
	}
	result, err := runFunction(vmInst, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ToGoString() != "undefined" {
		t.Fatalf("expected 'undefined', got %q", result.ToGoString())
	}
}

func TestJumpIfFalseSkipsBranch(t *testing.T) {
	vmInst, _ := newTestVM(t)
	fn := bytecode.NewFunction("f", 0)
	fn.Chunk.Constants = []value.Value{value.Number(1), value.Number(2)}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadFalse, 0, 0),    // 0
		ins(bytecode.OpJumpIfFalse, 0, 2),  // 1: jump +2 -> pc 4
		ins(bytecode.OpLoadConst, 0, 0),    // 2: skipped
		ins(bytecode.OpReturn, 0, 0),       // 3: skipped
		ins(bytecode.OpLoadConst, 0, 1),    // 4
		ins(bytecode.OpReturn, 0, 0),       // 5
	}
	result, err := runFunction(vmInst, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ToFloat64() != 2 {
		t.Fatalf("expected the jump target's value 2, got %v", result)
	}
}
