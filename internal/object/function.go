package object

import (
	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

// Callable marks an object as invocable via the VM's call opcode. Every
// function exotic (native, bytecode, bound) implements it; ordinary objects
// do not, and the VM's IsCallable/instanceof-style checks use a type
// assertion against this interface rather than a class-name string compare.
type Callable interface {
	JSObject
	IsConstructor() bool
}

// NativeFn is the calling convention native functions use (spec §6, "Native
// function calling convention"): it receives an opaque realm handle (the
// *Context, type-asserted by the callback) so built-ins can allocate errors
// and look up well-known objects without the object package depending on
// internal/context, plus `this`, the argument list, and new.target (Value{}
// / Undefined when the call is not a `new` expression).
type NativeFn func(realm any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *OpError)

// NativeFunction is a built-in function backed by Go code rather than
// bytecode (spec §9 dynamic-dispatch discriminant "native-function").
type NativeFunction struct {
	*Object
	Fn            NativeFn
	Construct     NativeFn // nil if this function cannot be used with `new`
	RequiresNew   bool     // true for functions that throw if called without `new` (most constructors)
}

// NewNativeFunction allocates a native function object with own "name" and
// "length" properties, matching the shape every ordinary JS function
// exposes (non-writable, non-enumerable, configurable — spec function
// objects' default own-property attributes).
func NewNativeFunction(tbl *atom.Table, proto JSObject, name string, length int, fn NativeFn) *NativeFunction {
	f := &NativeFunction{Object: New(tbl, proto, "Function"), Fn: fn}
	f.SetSelf(f)
	f.props.set(AtomKey(atom.Name), DataDescriptor(value.String(name), false, false, true))
	f.props.set(AtomKey(atom.Length), DataDescriptor(value.Number(float64(length)), false, false, true))
	return f
}

func (f *NativeFunction) IsConstructor() bool { return f.Construct != nil }

// BytecodeFunctionRef is implemented by internal/bytecode.Function. It is
// declared here (rather than imported) to avoid a dependency from the
// object model onto the compiler-collaborator contract; internal/vm, which
// already depends on both packages, is what actually calls through it.
type BytecodeFunctionRef interface {
	FunctionName() string
	ParamCount() int
}

// BytecodeFunctionObject is a user-defined function compiled to bytecode
// (spec §9 discriminant "bytecode-function"). Closures bind their captured
// environment at MakeClosure time (spec §3 Lifecycle); Env is that opaque,
// VM-owned capture.
type BytecodeFunctionObject struct {
	*Object
	Code      BytecodeFunctionRef
	Env       any // *vm.Environment, opaque here to avoid an import cycle
	IsArrow   bool
	IsAsync   bool
	IsGenerator bool
}

func NewBytecodeFunctionObject(tbl *atom.Table, proto JSObject, code BytecodeFunctionRef, env any) *BytecodeFunctionObject {
	f := &BytecodeFunctionObject{Object: New(tbl, proto, "Function"), Code: code, Env: env}
	f.SetSelf(f)
	f.props.set(AtomKey(atom.Name), DataDescriptor(value.String(code.FunctionName()), false, false, true))
	f.props.set(AtomKey(atom.Length), DataDescriptor(value.Number(float64(code.ParamCount())), false, false, true))
	return f
}

// IsConstructor reports whether this bytecode function may be called with
// `new`. Arrow functions, async functions and generators never can (ES
// function-kind rules); ordinary function declarations/expressions can.
func (f *BytecodeFunctionObject) IsConstructor() bool {
	return !f.IsArrow && !f.IsAsync && !f.IsGenerator
}

// BoundFunction implements Function.prototype.bind's exotic object (spec
// §4.3): it stores the target, the bound `this`, and a bound argument
// prefix, and forwards [[Call]]/[[Construct]] to target with the prefix
// prepended. length and name are derived from target at bind time.
type BoundFunction struct {
	*Object
	Target   Callable
	BoundThis value.Value
	BoundArgs []value.Value
}

func NewBoundFunction(tbl *atom.Table, proto JSObject, target Callable, boundThis value.Value, boundArgs []value.Value, call Invoker) *BoundFunction {
	b := &BoundFunction{Object: New(tbl, proto, "Function"), Target: target, BoundThis: boundThis, BoundArgs: boundArgs}
	b.SetSelf(b)

	name, _ := target.Get(AtomKey(atom.Name), value.FromObject(target), call)
	boundName := "bound "
	if name.IsString() {
		boundName += name.ToGoString()
	}
	b.props.set(AtomKey(atom.Name), DataDescriptor(value.String(boundName), false, false, true))

	targetLen, _ := target.Get(AtomKey(atom.Length), value.FromObject(target), call)
	length := 0.0
	if targetLen.IsNumber() {
		length = targetLen.ToFloat64() - float64(len(boundArgs))
		if length < 0 {
			length = 0
		}
	}
	b.props.set(AtomKey(atom.Length), DataDescriptor(value.Number(length), false, false, true))
	return b
}

func (b *BoundFunction) IsConstructor() bool { return b.Target.IsConstructor() }

// CallArgs prepends the bound argument prefix to a fresh call's arguments,
// the substance of [[Call]]/[[Construct]] forwarding.
func (b *BoundFunction) CallArgs(args []value.Value) []value.Value {
	out := make([]value.Value, 0, len(b.BoundArgs)+len(args))
	out = append(out, b.BoundArgs...)
	out = append(out, args...)
	return out
}
