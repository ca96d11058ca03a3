// Package builtins wires the object model (internal/object), the promise
// orchestration layer (internal/promise) and a Context (internal/context)
// together into a populated global object: every constructor, prototype and
// free-standing function a script sees before any user code runs.
// Generalizes the teacher's internal/interp/builtins package — a flat,
// case-insensitive registry of (name, func(ctx, args) Value) built-ins bound
// once into a single DWScript global scope — to ECMAScript's deeper,
// prototype-chained built-in surface: most work here is building real
// exotic objects (Array, Error, Map, Promise, ...) and installing native
// methods onto their own prototypes rather than a single flat function
// table.
package builtins

import (
	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// realm bundles the handles every installer in this package needs: the atom
// table for interning property names, the global object being populated,
// and the prototypes already built (so a later step — e.g. Array — can
// root its own prototype's prototype at Object.prototype without a global
// property lookup).
type realm struct {
	tbl    *atom.Table
	ctx    *context.Context
	global object.JSObject

	objectProto   object.JSObject
	functionProto object.JSObject
	errorProto    object.JSObject
	iteratorProto object.JSObject

	// errorProtos holds each Error subclass's own prototype
	// (TypeError.prototype, ...), keyed by object.ErrorKind.
	errorProtos map[object.ErrorKind]object.JSObject

	// arrayProto/etc. are recorded too, for the collections/promise/binary
	// files that need to build arrays or call back into Array.prototype.
	arrayProto    object.JSObject
	stringProto   object.JSObject
	numberProto   object.JSObject
	booleanProto  object.JSObject
	symbolProto   object.JSObject
	promiseProto  object.JSObject
	mapProto      object.JSObject
	setProto      object.JSObject
	weakMapProto  object.JSObject
	weakSetProto  object.JSObject
	weakRefProto  object.JSObject
	finalRegProto object.JSObject
	arrayBufProto object.JSObject
	dataViewProto object.JSObject
	typedArrProto object.JSObject
}

// noInvoke is the Invoker this package hands to Get/Set calls that do not
// go through the Context's own Invoke, on objects it built itself and on
// script-supplied ones alike (JSON.stringify's input, Object.assign's
// sources, Error.prototype.toString's this, ...). It never runs an
// accessor: reaching one fails with a TypeError instead.
func noInvoke(fn value.Value, this value.Value, args []value.Value) (value.Value, *object.OpError) {
	return value.Value{}, &object.OpError{Kind: "TypeError", Message: "unexpected accessor access during builtin initialization"}
}

func (r *realm) intern(name string) atom.Atom { return r.tbl.Intern(name) }

func (r *realm) key(name string) object.Key { return object.AtomKey(r.intern(name)) }

// define installs an own, non-enumerable, writable, configurable data
// property — the shape every built-in method and most built-in value
// properties use (ECMAScript's own default attributes for a built-in
// function/method property).
func (r *realm) define(obj object.JSObject, name string, v value.Value) {
	obj.DefineOwnProperty(r.key(name), object.DataDescriptor(v, true, false, true))
}

// defineFrozen installs a non-writable, non-enumerable, non-configurable
// data property, the shape of value properties like NaN/Infinity/undefined.
func (r *realm) defineFrozen(obj object.JSObject, name string, v value.Value) {
	obj.DefineOwnProperty(r.key(name), object.DataDescriptor(v, false, false, false))
}

// method installs a native method named name on obj, backed by fn.
func (r *realm) method(obj object.JSObject, name string, length int, fn object.NativeFn) {
	nf := object.NewNativeFunction(r.tbl, r.functionProto, name, length, fn)
	r.define(obj, name, value.FromObject(nf))
}

// newObject allocates a bare ordinary object rooted at Object.prototype.
func (r *realm) newObject() *object.Object {
	return object.New(r.tbl, r.objectProto, "Object")
}

// newArray allocates an array rooted at Array.prototype, the makeArray
// collaborator internal/object and internal/promise both need in order to
// build an array without importing a prototype registry of their own.
func (r *realm) newArray(elems []value.Value) *object.Array {
	arr := object.NewArray(r.tbl, r.arrayProto)
	for i, v := range elems {
		arr.DefineOwnProperty(object.IndexKey(uint32(i)), object.DataDescriptor(v, true, true, true))
	}
	return arr
}

// ctxOf recovers the owning Context from a native function's realm
// parameter — every built-in in this package is called with this Context,
// never any other.
func ctxOf(realmArg any) *context.Context { return realmArg.(*context.Context) }

// throwErr builds a materialized Error value of kind via the Context's
// ErrorFactory and wraps it as an OpError a native function can return
// directly.
func throwErr(c *context.Context, kind, message string) *object.OpError {
	if c.NewError == nil {
		return &object.OpError{Kind: kind, Message: message}
	}
	return &object.OpError{Kind: object.ThrownValueKind, Value: c.NewError(kind, message)}
}
