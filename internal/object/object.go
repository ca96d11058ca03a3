package object

import (
	"fmt"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

// OpError is the sentinel a property operation returns when it fails in a
// way ECMAScript defines as an exception rather than a false return (e.g.
// [[Set]] on a non-extensible object in strict mode, or a revoked proxy).
// It names the error constructor the owning Context should materialize
// rather than allocating one itself, since the object package has no
// realm to allocate from.
type OpError struct {
	Kind    string // "TypeError", "RangeError", ...
	Message string

	// Value, when set (Kind == ThrownValueKind), carries the exact
	// already-materialized value a `throw` statement raised — the one
	// case a Kind/Message pair cannot express. Every other OpError leaves
	// this zero and is turned into a fresh Error object from Kind/Message
	// by whoever owns a realm to allocate one.
	Value value.Value
}

// ThrownValueKind marks an OpError carrying an arbitrary already-materialized
// value rather than a Kind/Message pair to turn into a fresh Error — used by
// a `throw` statement, by Context.Eval re-raising a pending exception, and by
// a coroutine resumed via Generator.Throw, all of which already hold a
// concrete value rather than a diagnostic string.
const ThrownValueKind = "__vm_thrown__"

func (e *OpError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func typeErr(format string, args ...any) *OpError {
	return &OpError{Kind: "TypeError", Message: fmt.Sprintf(format, args...)}
}

// JSObject is implemented by every object shape the VM manipulates:
// ordinary objects and every exotic specialization in this package. Each
// exotic type embeds *Object for storage and overrides only the methods
// where its behavior diverges.
type JSObject interface {
	value.Object

	Base() *Object
	Prototype() JSObject
	SetPrototypeOf(proto JSObject) (bool, *OpError)
	IsExtensible() bool
	PreventExtensions() bool

	Get(key Key, receiver value.Value, call Invoker) (value.Value, *OpError)
	Set(key Key, v value.Value, receiver value.Value, call Invoker) (bool, *OpError)
	Has(key Key) bool
	Delete(key Key, strict bool) (bool, *OpError)
	DefineOwnProperty(key Key, desc Descriptor) (bool, *OpError)
	GetOwnProperty(key Key) (Descriptor, bool)
	OwnKeys() []Key
}

// Object is the ordinary object: a prototype link, an extensible flag, and
// an insertion-ordered property store. Exotic types
// embed *Object and delegate to these methods for every operation they do
// not override.
type Object struct {
	Tbl        *atom.Table
	class      string
	proto      JSObject
	extensible bool
	props      *store

	// self lets the base Object's default method bodies re-dispatch through
	// an embedding exotic type's overrides (e.g. an ordinary Get walking the
	// prototype chain must call the *prototype's* possibly-overridden Get,
	// which Go's embedding alone cannot do without this back-pointer).
	self JSObject
}

// New allocates a bare ordinary object with the given prototype (nil for
// none) and class discriminant, e.g. "Object", "Error".
func New(tbl *atom.Table, proto JSObject, class string) *Object {
	o := &Object{Tbl: tbl, class: class, proto: proto, extensible: true, props: newStore()}
	o.self = o
	return o
}

// SetSelf rebinds the dynamic-dispatch target used by the default Get/Set
// prototype-chain walk. Exotic constructors (NewArray, NewProxy, ...) call
// this once, immediately after embedding an *Object, so that
// `base.self.Get(...)` reaches the exotic override rather than looping back
// into Object's own default.
func (o *Object) SetSelf(self JSObject) { o.self = self }

func (o *Object) Base() *Object      { return o }
func (o *Object) ClassName() string  { return o.class }
func (o *Object) Prototype() JSObject { return o.proto }
func (o *Object) IsExtensible() bool { return o.extensible }

// PreventExtensions implements the one-way extensible->non-extensible
// transition. It always succeeds for ordinary objects.
func (o *Object) PreventExtensions() bool {
	o.extensible = false
	return true
}

// SetPrototypeOf implements OrdinarySetPrototypeOf: a cycle check walking
// the candidate's own prototype chain, and a no-op rejection once the
// object is non-extensible.
func (o *Object) SetPrototypeOf(proto JSObject) (bool, *OpError) {
	if o.proto == proto {
		return true, nil
	}
	if !o.extensible {
		return false, nil
	}
	// Cycle guard: walk proto's chain looking for o.self. Proxies can make
	// this chain arbitrarily expensive to walk honestly; a depth guard
	// mirrors the fixed 1000-deep proxy guard used elsewhere.
	p := proto
	for depth := 0; p != nil; depth++ {
		if depth > maxPrototypeChainDepth {
			return false, typeErr("maximum prototype chain depth exceeded")
		}
		if p == o.self {
			return false, nil
		}
		p = p.Prototype()
	}
	o.proto = proto
	return true, nil
}

const maxPrototypeChainDepth = 1000

// Get implements OrdinaryGet: walk the prototype chain for the
// first object with an own property at key; if it is a data property
// return its value; if accessor, invoke the getter with receiver bound as
// `this`. call performs the actual call since the object package
// has no notion of the VM call convention.
func (o *Object) Get(key Key, receiver value.Value, call Invoker) (value.Value, *OpError) {
	desc, ok := o.self.GetOwnProperty(key)
	if !ok {
		if o.proto == nil {
			return value.Undefined, nil
		}
		return o.proto.Get(key, receiver, call)
	}
	if desc.IsAccessor() {
		if desc.Get.IsUndefined() {
			return value.Undefined, nil
		}
		return call(desc.Get, receiver, nil)
	}
	return desc.Value, nil
}

// Invoker is supplied by the VM so property operations can call accessor
// functions without the object package importing the VM.
type Invoker func(fn value.Value, this value.Value, args []value.Value) (value.Value, *OpError)

// GetOwnProperty returns the own descriptor at key, if any. Ordinary
// objects answer straight from the property store.
func (o *Object) GetOwnProperty(key Key) (Descriptor, bool) {
	return o.props.get(key)
}

// Has implements OrdinaryHasProperty: a chain walk stopping at the first
// own property found.
func (o *Object) Has(key Key) bool {
	if _, ok := o.self.GetOwnProperty(key); ok {
		return true
	}
	if o.proto == nil {
		return false
	}
	return o.proto.Has(key)
}

// Set implements OrdinarySet: find the property on the chain; if it is an
// inherited or own data property, [[DefineOwnProperty]] it onto receiver
// (not necessarily o itself — matters for Reflect.set with a distinct
// receiver); if accessor, call the setter on receiver.
func (o *Object) Set(key Key, v value.Value, receiver value.Value, call Invoker) (bool, *OpError) {
	desc, ok := o.self.GetOwnProperty(key)
	if !ok {
		if o.proto != nil {
			return o.proto.Set(key, v, receiver, call)
		}
		return setOnReceiver(receiver, key, v, call)
	}
	if desc.IsAccessor() {
		if desc.Set.IsUndefined() {
			return false, nil
		}
		_, err := call(desc.Set, receiver, []value.Value{v})
		return err == nil, err
	}
	if !desc.Writable {
		return false, nil
	}
	return setOnReceiver(receiver, key, v, call)
}

func setOnReceiver(receiver value.Value, key Key, v value.Value, call Invoker) (bool, *OpError) {
	if !receiver.IsObject() {
		return false, nil
	}
	recvObj := receiver.Object().(JSObject)
	existing, ok := recvObj.GetOwnProperty(key)
	if ok {
		if existing.IsAccessor() {
			return false, nil
		}
		if !existing.Writable {
			return false, nil
		}
		return recvObj.DefineOwnProperty(key, Descriptor{Value: v, HasValue: true})
	}
	return recvObj.DefineOwnProperty(key, DataDescriptor(v, true, true, true))
}

// Delete implements OrdinaryDelete: remove an own configurable property;
// for a non-configurable one return false, or, in strict mode, a
// TypeError.
func (o *Object) Delete(key Key, strict bool) (bool, *OpError) {
	desc, ok := o.props.get(key)
	if !ok {
		return true, nil
	}
	if !desc.Configurable {
		if strict {
			return false, typeErr("cannot delete non-configurable property %q", key.String(o.Tbl))
		}
		return false, nil
	}
	o.props.delete(key)
	return true, nil
}

// DefineOwnProperty implements OrdinaryDefineOwnProperty: validate against
// the current descriptor (if any) per ValidateAndApplyPropertyDescriptor,
// then store the merged result.
func (o *Object) DefineOwnProperty(key Key, desc Descriptor) (bool, *OpError) {
	current, ok := o.props.get(key)
	var cur *Descriptor
	if ok {
		cur = &current
	}
	merged, allowed := validateAndApply(cur, o.extensible, desc)
	if !allowed {
		return false, nil
	}
	o.props.set(key, merged)
	return true, nil
}

// OwnKeys implements OrdinaryOwnPropertyKeys: ascending integer
// indices, then string keys in insertion order, then symbol keys in
// insertion order.
func (o *Object) OwnKeys() []Key { return o.props.ownKeys() }
