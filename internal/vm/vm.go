// Package vm implements the bytecode dispatch loop: a
// stack-based interpreter over internal/bytecode's instruction set,
// generalizing the teacher's single flat Run loop (internal/bytecode.VM in
// go-dws) from its Int/Float-split opcodes to ES's single dynamically-typed
// arithmetic/comparison operators, property access through the object
// model's [[Get]]/[[Set]], and exception unwinding through a per-function
// handler table instead of a side exception-handler stack.
package vm

import (
	"fmt"
	"math"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/bytecode"
	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

const defaultStackCapacity = 256

// thrownSentinelKind marks an *object.OpError as carrying an arbitrary
// already-materialized JS value (via its own Value field) rather than a
// Kind/Message pair the Context should turn into a new Error object — the
// one case a bare Kind/Message OpError cannot express. Context.Eval uses the
// same sentinel (object.ThrownValueKind) when re-raising a pending exception,
// so both packages share one source of truth.
const thrownSentinelKind = object.ThrownValueKind

// Cell is a boxed local, captured by reference when a closure is made over
// it. Locals that are never captured still go through a Cell so capture
// can happen lazily without reshaping the frame.
type Cell struct{ V value.Value }

// Frame is one activation record. Frames are pushed on VM.frames rather
// than recursing through Go's call stack, matching the teacher's
// trampoline shape and letting Context.MaxCallDepth be enforced uniformly.
type Frame struct {
	Fn         *bytecode.Function
	IP         int
	Locals     []*Cell
	Upvalues   []*Cell
	This       value.Value
	NewTarget  value.Value
	StackBase  int
	HandlerTop int // index into VM.stack recorded when entering this frame, for handler stackDepth bookkeeping
}

// VM executes bytecode.Function bodies against one Context. It is not
// safe for concurrent use by multiple goroutines; generators run their own
// VM sharing the owning Context (see generator.go).
type VM struct {
	Ctx    *context.Context
	stack  []value.Value
	frames []*Frame

	// Suspend, when non-nil, is called by OpYield/OpAwait to hand the
	// popped operand back to whatever is driving this frame as a coroutine
	// and block until it is resumed (see generator.go). nil for an
	// ordinary call — the bytecode compiler never emits either opcode
	// outside a generator or async function body, so OpYield/OpAwait is
	// unreachable with Suspend unset in practice; the SyntaxError below only
	// guards against a malformed Function reaching the VM directly.
	Suspend SuspendHook
}

// SuspendHook suspends the running frame at an OpYield/OpAwait, returning
// once resumed: resumed is the value fed back in (from .next(v) or a
// settled awaited promise), opErr non-nil means resume with a throw
// (from .throw(v) or a rejected promise), and isReturn means resume by
// returning resumed immediately from the suspend point (.return(v); an
// await driver never does this).
type SuspendHook func(v value.Value) (resumed value.Value, opErr *object.OpError, isReturn bool)

// New allocates a VM bound to ctx.
func New(ctx *context.Context) *VM {
	return &VM{Ctx: ctx, stack: make([]value.Value, 0, defaultStackCapacity)}
}

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek() value.Value { return vm.stack[len(vm.stack)-1] }

func (vm *VM) top() *Frame { return vm.frames[len(vm.frames)-1] }

// Invoke is the object-layer object.Invoker this VM supplies to
// Get/Set/DefineOwnProperty for accessor properties, and the single choke
// point every opcode-level call funnels through.
func (vm *VM) Invoke(fn value.Value, this value.Value, args []value.Value) (value.Value, *object.OpError) {
	return vm.Call(fn, this, args, value.Value{})
}

// Call dispatches a Value that should be callable;
// newTarget.IsUndefined()==false marks a `new` expression.
func (vm *VM) Call(callee value.Value, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
	if !callee.IsObject() {
		return value.Value{}, &object.OpError{Kind: "TypeError", Message: "value is not a function"}
	}
	switch fn := callee.Object().(type) {
	case *object.NativeFunction:
		native := fn.Fn
		if !newTarget.IsUndefined() && fn.Construct != nil {
			native = fn.Construct
		}
		return native(vm.Ctx, this, args, newTarget)
	case *object.BoundFunction:
		return vm.Call(value.FromObject(fn.Target), fn.BoundThis, fn.CallArgs(args), newTarget)
	case *object.BytecodeFunctionObject:
		return vm.callBytecode(fn, this, args, newTarget)
	default:
		return value.Value{}, &object.OpError{Kind: "TypeError", Message: "value is not a function"}
	}
}

func (vm *VM) callBytecode(fo *object.BytecodeFunctionObject, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
	fn, ok := fo.Code.(*bytecode.Function)
	if !ok {
		return value.Value{}, &object.OpError{Kind: "TypeError", Message: "malformed bytecode function"}
	}
	// IsGenerator takes priority: an async generator's combined semantics
	// (an iterator whose next() returns a Promise, body able to await)
	// are not modeled yet — see DESIGN.md.
	if fn.IsGenerator {
		return vm.startGenerator(fo, fn, this, newTarget, args)
	}
	if fn.IsAsync {
		return vm.startAsync(fo, fn, this, newTarget, args)
	}

	ok2, rangeErr := vm.Ctx.PushFrame(context.CallFrame{FunctionName: fn.Name})
	if !ok2 {
		return value.Value{}, &object.OpError{Kind: "RangeError", Message: "Maximum call stack size exceeded"}
	}
	defer vm.Ctx.PopFrame()

	locals := make([]*Cell, fn.NumLocals)
	for i := range locals {
		locals[i] = &Cell{}
	}
	for i := 0; i < fn.ParamCount_ && i < len(args); i++ {
		locals[i].V = args[i]
	}

	var parentEnv *Frame
	if env, ok := fo.Env.(*Frame); ok {
		parentEnv = env
	}
	frame := &Frame{Fn: fn, Locals: locals, This: this, NewTarget: newTarget, StackBase: len(vm.stack)}
	if parentEnv != nil {
		frame.Upvalues = resolveUpvalues(fn, parentEnv)
	}

	vm.frames = append(vm.frames, frame)
	result, opErr := vm.run(frame)
	vm.frames = vm.frames[:len(vm.frames)-1]
	_ = rangeErr
	return result, opErr
}

func resolveUpvalues(fn *bytecode.Function, parent *Frame) []*Cell {
	if len(fn.Upvalues) == 0 {
		return nil
	}
	cells := make([]*Cell, len(fn.Upvalues))
	for i, def := range fn.Upvalues {
		if def.FromParentLocal {
			if def.Index < len(parent.Locals) {
				cells[i] = parent.Locals[def.Index]
			} else {
				cells[i] = &Cell{}
			}
		} else {
			if def.Index < len(parent.Upvalues) {
				cells[i] = parent.Upvalues[def.Index]
			} else {
				cells[i] = &Cell{}
			}
		}
	}
	return cells
}

// run executes frame's chunk to completion (a return, an uncaught throw
// propagated to the caller, or end-of-code implicit-undefined return).
func (vm *VM) run(frame *Frame) (value.Value, *object.OpError) {
	code := frame.Fn.Chunk.Code
	for {
		if vm.Ctx.Runtime.Interrupted() {
			return value.Value{}, &object.OpError{Kind: "RangeError", Message: "execution interrupted"}
		}
		if frame.IP >= len(code) {
			return value.Undefined, nil
		}
		ins := bytecode.Decode(code[frame.IP])
		pc := frame.IP
		frame.IP++

		result, opErr, done := vm.step(frame, ins)
		if opErr != nil {
			next, handled := vm.unwind(frame, pc, opErr)
			if handled {
				continue
			}
			return value.Value{}, next
		}
		if done {
			return result, nil
		}
	}
}

// unwind looks up the exception handler covering pc in frame's chunk. On a
// match it trims the operand stack to the handler's recorded depth, pushes
// the thrown value, and resumes at HandlerPC. No match propagates the
// error to the caller frame.
func (vm *VM) unwind(frame *Frame, pc int, opErr *object.OpError) (*object.OpError, bool) {
	var errVal value.Value
	if opErr.Kind == thrownSentinelKind {
		// The thrown value rides along on the OpError itself (set by
		// OpThrow, or by a coroutine resumed via Generator.Throw), so it
		// survives re-propagation through any number of enclosing frames
		// unchanged — nothing here needs to mutate VM-local state.
		errVal = opErr.Value
	} else {
		errVal = vm.Ctx.NewError(opErr.Kind, opErr.Message)
	}
	for _, h := range frame.Fn.Chunk.Handlers {
		if pc >= h.StartPC && pc < h.EndPC {
			if len(vm.stack) > frame.StackBase+h.StackDepth {
				vm.stack = vm.stack[:frame.StackBase+h.StackDepth]
			}
			if !h.IsFinally {
				vm.push(errVal)
			}
			frame.IP = h.HandlerPC
			return nil, true
		}
	}
	vm.Ctx.SetPendingException(errVal)
	return opErr, false
}

// step executes a single instruction. done reports a return; result is
// only meaningful when done is true.
func (vm *VM) step(frame *Frame, ins bytecode.Instruction) (result value.Value, opErr *object.OpError, done bool) {
	c := frame.Fn.Chunk
	switch ins.Op {
	case bytecode.OpLoadConst:
		vm.push(c.Constants[ins.B])
	case bytecode.OpLoadUndefined:
		vm.push(value.Undefined)
	case bytecode.OpLoadNull:
		vm.push(value.Null)
	case bytecode.OpLoadTrue:
		vm.push(value.Bool(true))
	case bytecode.OpLoadFalse:
		vm.push(value.Bool(false))
	case bytecode.OpLoadLocal:
		vm.push(frame.Locals[ins.B].V)
	case bytecode.OpStoreLocal:
		frame.Locals[ins.B].V = vm.pop()
	case bytecode.OpLoadUpvalue:
		vm.push(frame.Upvalues[ins.B].V)
	case bytecode.OpStoreUpvalue:
		frame.Upvalues[ins.B].V = vm.pop()
	case bytecode.OpLoadGlobal:
		name := c.Constants[ins.B].ToGoString()
		a := vm.Ctx.Runtime.Tbl.Intern(name)
		v, err := vm.Ctx.Global.Get(object.AtomKey(a), value.FromObject(vm.Ctx.Global), vm.Invoke)
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(v)
	case bytecode.OpStoreGlobal:
		name := c.Constants[ins.B].ToGoString()
		a := vm.Ctx.Runtime.Tbl.Intern(name)
		v := vm.pop()
		if _, err := vm.Ctx.Global.Set(object.AtomKey(a), v, value.FromObject(vm.Ctx.Global), vm.Invoke); err != nil {
			return value.Value{}, err, false
		}
	case bytecode.OpDeclareVar, bytecode.OpDeclareLet, bytecode.OpInitBinding:
		// GlobalDeclarationInstantiation is performed by the compiler's
		// emitted OpStoreGlobal sequence plus Context.DeclareGlobalVar/Lex
		// ahead of execution; at runtime these are no-ops placeholders kept
		// for symmetry with the instruction stream the compiler emits.
	case bytecode.OpPop:
		vm.pop()
	case bytecode.OpDup:
		vm.push(vm.peek())
	case bytecode.OpSwap:
		n := len(vm.stack)
		vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]
	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod, bytecode.OpExp,
		bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor, bytecode.OpShl, bytecode.OpShr, bytecode.OpUShr:
		v, err := vm.binaryArith(ins.Op)
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(v)
	case bytecode.OpNeg:
		v := vm.pop()
		n, err := vm.toNumber(v)
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(value.Number(-n))
	case bytecode.OpPlus:
		v := vm.pop()
		n, err := vm.toNumber(v)
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(value.Number(n))
	case bytecode.OpBitNot:
		v := vm.pop()
		n, err := vm.toNumber(v)
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(value.Number(float64(^toInt32(n))))
	case bytecode.OpEq, bytecode.OpNotEq:
		r, l := vm.pop(), vm.pop()
		eq := abstractEquals(l, r)
		if ins.Op == bytecode.OpNotEq {
			eq = !eq
		}
		vm.push(value.Bool(eq))
	case bytecode.OpStrictEq, bytecode.OpStrictNotEq:
		r, l := vm.pop(), vm.pop()
		eq := strictEquals(l, r)
		if ins.Op == bytecode.OpStrictNotEq {
			eq = !eq
		}
		vm.push(value.Bool(eq))
	case bytecode.OpLess, bytecode.OpLessEq, bytecode.OpGreater, bytecode.OpGreaterEq:
		v, err := vm.compare(ins.Op)
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(v)
	case bytecode.OpNot:
		v := vm.pop()
		vm.push(value.Bool(!toBoolean(v)))
	case bytecode.OpGetIterator:
		v := vm.pop()
		obj, ok := objectOf(v)
		if !ok {
			return value.Value{}, &object.OpError{Kind: "TypeError", Message: "value is not iterable"}, false
		}
		sym := vm.Ctx.Runtime.WellKnownSymbol(atom.SymIterator)
		iterFn, err := obj.Get(object.SymbolKey(sym), v, vm.Invoke)
		if err != nil {
			return value.Value{}, err, false
		}
		iter, err := vm.Call(iterFn, v, nil, value.Value{})
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(iter)
	case bytecode.OpIterNext:
		iter := vm.pop()
		obj, ok := objectOf(iter)
		if !ok {
			return value.Value{}, &object.OpError{Kind: "TypeError", Message: "iterator result is not an object"}, false
		}
		nextFn, err := obj.Get(object.AtomKey(atom.Next), iter, vm.Invoke)
		if err != nil {
			return value.Value{}, err, false
		}
		res, err := vm.Call(nextFn, iter, nil, value.Value{})
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(res)
	case bytecode.OpTypeOf:
		v := vm.pop()
		vm.push(value.String(typeOf(v)))
	case bytecode.OpIn:
		r, l := vm.pop(), vm.pop()
		obj, ok := objectOf(r)
		if !ok {
			return value.Value{}, &object.OpError{Kind: "TypeError", Message: "cannot use 'in' on non-object"}, false
		}
		vm.push(value.Bool(obj.Has(keyOf(vm.Ctx, l))))
	case bytecode.OpInstanceOf:
		r, l := vm.pop(), vm.pop()
		v, err := vm.instanceOf(l, r)
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(v)
	case bytecode.OpJump:
		frame.IP += int(int16(ins.B))
	case bytecode.OpJumpIfFalse:
		if !toBoolean(vm.pop()) {
			frame.IP += int(int16(ins.B))
		}
	case bytecode.OpJumpIfTrue:
		if toBoolean(vm.pop()) {
			frame.IP += int(int16(ins.B))
		}
	case bytecode.OpJumpIfNullish:
		if vm.peek().IsNullish() {
			frame.IP += int(int16(ins.B))
		} else {
			vm.pop()
		}
	case bytecode.OpMakeClosure:
		inner := frame.Fn.Inner[ins.B]
		proto := vm.functionPrototype()
		fo := object.NewBytecodeFunctionObject(vm.Ctx.Runtime.Tbl, proto, inner, frame)
		vm.push(value.FromObject(fo))
	case bytecode.OpCall, bytecode.OpCallMethod:
		argc := int(ins.A)
		args := make([]value.Value, argc)
		for i := argc - 1; i >= 0; i-- {
			args[i] = vm.pop()
		}
		callee := vm.pop()
		this := value.Undefined
		if ins.Op == bytecode.OpCallMethod {
			this = vm.pop()
		}
		v, err := vm.Call(callee, this, args, value.Value{})
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(v)
	case bytecode.OpNew:
		argc := int(ins.A)
		args := make([]value.Value, argc)
		for i := argc - 1; i >= 0; i-- {
			args[i] = vm.pop()
		}
		callee := vm.pop()
		v, err := vm.construct(callee, args)
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(v)
	case bytecode.OpSpreadCall:
		iterable := vm.pop()
		callee := vm.pop()
		args, err := vm.spreadToArgs(iterable)
		if err != nil {
			return value.Value{}, err, false
		}
		v, cerr := vm.Call(callee, value.Undefined, args, value.Value{})
		if cerr != nil {
			return value.Value{}, cerr, false
		}
		vm.push(v)
	case bytecode.OpReturn:
		return vm.pop(), nil, true
	case bytecode.OpReturnUndefined:
		return value.Undefined, nil, true
	case bytecode.OpNewObject:
		proto := vm.objectPrototype()
		o := object.New(vm.Ctx.Runtime.Tbl, proto, "Object")
		vm.push(value.FromObject(o))
	case bytecode.OpNewArray:
		n := int(ins.B)
		elems := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			elems[i] = vm.pop()
		}
		arr := object.NewArray(vm.Ctx.Runtime.Tbl, vm.arrayPrototype())
		for i, e := range elems {
			arr.DefineOwnProperty(object.IndexKey(uint32(i)), object.DataDescriptor(e, true, true, true))
		}
		vm.push(value.FromObject(arr))
	case bytecode.OpGetProp:
		name := c.Constants[ins.B].ToGoString()
		recv := vm.pop()
		obj, ok := objectOf(recv)
		if !ok {
			return value.Value{}, &object.OpError{Kind: "TypeError", Message: "cannot read properties of " + recv.Kind().String()}, false
		}
		a := vm.Ctx.Runtime.Tbl.Intern(name)
		v, err := obj.Get(object.AtomKey(a), recv, vm.Invoke)
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(v)
	case bytecode.OpSetProp:
		name := c.Constants[ins.B].ToGoString()
		v := vm.pop()
		recv := vm.pop()
		obj, ok := objectOf(recv)
		if !ok {
			return value.Value{}, &object.OpError{Kind: "TypeError", Message: "cannot set properties of " + recv.Kind().String()}, false
		}
		a := vm.Ctx.Runtime.Tbl.Intern(name)
		if _, err := obj.Set(object.AtomKey(a), v, recv, vm.Invoke); err != nil {
			return value.Value{}, err, false
		}
		vm.push(v)
	case bytecode.OpGetElem:
		key := vm.pop()
		recv := vm.pop()
		obj, ok := objectOf(recv)
		if !ok {
			return value.Value{}, &object.OpError{Kind: "TypeError", Message: "cannot read properties of " + recv.Kind().String()}, false
		}
		v, err := obj.Get(keyOf(vm.Ctx, key), recv, vm.Invoke)
		if err != nil {
			return value.Value{}, err, false
		}
		vm.push(v)
	case bytecode.OpSetElem:
		v := vm.pop()
		key := vm.pop()
		recv := vm.pop()
		obj, ok := objectOf(recv)
		if !ok {
			return value.Value{}, &object.OpError{Kind: "TypeError", Message: "cannot set properties of " + recv.Kind().String()}, false
		}
		if _, err := obj.Set(keyOf(vm.Ctx, key), v, recv, vm.Invoke); err != nil {
			return value.Value{}, err, false
		}
		vm.push(v)
	case bytecode.OpDeleteProp:
		key := vm.pop()
		recv := vm.pop()
		obj, ok := objectOf(recv)
		if !ok {
			vm.push(value.Bool(true))
		} else {
			ok2, err := obj.Delete(keyOf(vm.Ctx, key), false)
			if err != nil {
				return value.Value{}, err, false
			}
			vm.push(value.Bool(ok2))
		}
	case bytecode.OpThrow:
		v := vm.pop()
		return value.Value{}, &object.OpError{Kind: thrownSentinelKind, Value: v}, false
	case bytecode.OpYield, bytecode.OpAwait:
		v := vm.pop()
		if vm.Suspend == nil {
			return value.Value{}, &object.OpError{Kind: "SyntaxError", Message: ins.Op.String() + " outside generator or async function"}, false
		}
		resumed, suspErr, isReturn := vm.Suspend(v)
		if suspErr != nil {
			return value.Value{}, suspErr, false
		}
		if isReturn {
			return resumed, nil, true
		}
		vm.push(resumed)
	case bytecode.OpPushHandler, bytecode.OpPopHandler:
		// handler scope bookkeeping is static (Chunk.Handlers); these
		// opcodes exist for the disassembly listing's readability only.
	case bytecode.OpNop:
		// no-op
	case bytecode.OpHalt:
		return value.Undefined, nil, true
	default:
		return value.Value{}, &object.OpError{Kind: "TypeError", Message: fmt.Sprintf("unsupported opcode %s", ins.Op)}, false
	}
	return value.Value{}, nil, false
}

func (vm *VM) construct(callee value.Value, args []value.Value) (value.Value, *object.OpError) {
	if !callee.IsObject() {
		return value.Value{}, &object.OpError{Kind: "TypeError", Message: "not a constructor"}
	}
	callable, ok := callee.Object().(object.Callable)
	if !ok || !callable.IsConstructor() {
		return value.Value{}, &object.OpError{Kind: "TypeError", Message: "not a constructor"}
	}
	protoVal, _ := callable.Get(object.AtomKey(atom.Prototype), callee, vm.Invoke)
	proto := vm.objectPrototype()
	if protoVal.IsObject() {
		if p, ok := protoVal.Object().(object.JSObject); ok {
			proto = p
		}
	}
	inst := object.New(vm.Ctx.Runtime.Tbl, proto, "Object")
	this := value.FromObject(inst)
	result, err := vm.Call(callee, this, args, callee)
	if err != nil {
		return value.Value{}, err
	}
	if result.IsObject() {
		return result, nil
	}
	return this, nil
}

func (vm *VM) spreadToArgs(iterable value.Value) ([]value.Value, *object.OpError) {
	obj, ok := objectOf(iterable)
	if !ok {
		return nil, &object.OpError{Kind: "TypeError", Message: "spread target is not iterable"}
	}
	var out []value.Value
	keys := obj.OwnKeys()
	for _, k := range keys {
		if !k.IsIndex() {
			continue
		}
		v, err := obj.Get(k, iterable, vm.Invoke)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (vm *VM) instanceOf(l, r value.Value) (value.Value, *object.OpError) {
	if !r.IsObject() {
		return value.Value{}, &object.OpError{Kind: "TypeError", Message: "right-hand side of 'instanceof' is not an object"}
	}
	callable, ok := r.Object().(object.Callable)
	if !ok {
		return value.Value{}, &object.OpError{Kind: "TypeError", Message: "right-hand side of 'instanceof' is not callable"}
	}
	if !l.IsObject() {
		return value.Bool(false), nil
	}
	protoVal, _ := callable.Get(object.AtomKey(atom.Prototype), r, vm.Invoke)
	if !protoVal.IsObject() {
		return value.Value{}, &object.OpError{Kind: "TypeError", Message: "prototype is not an object"}
	}
	target, _ := protoVal.Object().(object.JSObject)
	cur := l.Object().(object.JSObject).Prototype()
	for cur != nil {
		if cur == target {
			return value.Bool(true), nil
		}
		cur = cur.Prototype()
	}
	return value.Bool(false), nil
}

// functionPrototype/objectPrototype/arrayPrototype look up the realm's
// standard prototypes off the global object, so the VM never hardcodes a
// particular builtins layout.
func (vm *VM) functionPrototype() object.JSObject { return vm.protoFromGlobal("Function") }
func (vm *VM) objectPrototype() object.JSObject   { return vm.protoFromGlobal("Object") }
func (vm *VM) arrayPrototype() object.JSObject    { return vm.protoFromGlobal("Array") }

func (vm *VM) protoFromGlobal(ctorName string) object.JSObject {
	a := vm.Ctx.Runtime.Tbl.Intern(ctorName)
	ctorVal, _ := vm.Ctx.Global.Get(object.AtomKey(a), value.FromObject(vm.Ctx.Global), vm.Invoke)
	if !ctorVal.IsObject() {
		return nil
	}
	ctor, ok := ctorVal.Object().(object.JSObject)
	if !ok {
		return nil
	}
	protoVal, _ := ctor.Get(object.AtomKey(atom.Prototype), ctorVal, vm.Invoke)
	if !protoVal.IsObject() {
		return nil
	}
	p, _ := protoVal.Object().(object.JSObject)
	return p
}

func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(f)))
}

func objectOf(v value.Value) (object.JSObject, bool) {
	if !v.IsObject() {
		return nil, false
	}
	o, ok := v.Object().(object.JSObject)
	return o, ok
}

func keyOf(ctx *context.Context, v value.Value) object.Key {
	if v.Kind() == value.KindSymbol {
		return object.SymbolKey(v.Symbol())
	}
	s := toStringCoerce(v)
	if idx, ok := parseIndex(s); ok {
		return object.IndexKey(idx)
	}
	return object.AtomKey(ctx.Runtime.Tbl.Intern(s))
}

func parseIndex(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	var n uint64
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		n = n*10 + uint64(ch-'0')
		if n > math.MaxUint32 {
			return 0, false
		}
	}
	if s[0] == '0' && len(s) > 1 {
		return 0, false
	}
	return uint32(n), true
}

func typeOf(v value.Value) string {
	switch v.Kind() {
	case value.KindUndefined:
		return "undefined"
	case value.KindNull:
		return "object"
	case value.KindBoolean:
		return "boolean"
	case value.KindNumber:
		return "number"
	case value.KindBigInt:
		return "bigint"
	case value.KindString:
		return "string"
	case value.KindSymbol:
		return "symbol"
	default:
		if _, ok := v.Object().(object.Callable); ok {
			return "function"
		}
		return "object"
	}
}

func toBoolean(v value.Value) bool {
	switch v.Kind() {
	case value.KindUndefined, value.KindNull:
		return false
	case value.KindBoolean:
		return v.ToBool()
	case value.KindNumber:
		f := v.ToFloat64()
		return f != 0 && !math.IsNaN(f)
	case value.KindString:
		return len(v.StringUnits()) > 0
	default:
		return true
	}
}
