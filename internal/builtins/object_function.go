package builtins

import (
	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// installObjectAndFunction builds Object.prototype/Object and
// Function.prototype/Function, the two prototypes every other built-in in
// this package roots itself at, so they must exist before anything else is
// built (the first entries of the fixed global-init order).
func installObjectAndFunction(r *realm) {
	r.objectProto = object.New(r.tbl, nil, "Object")
	r.functionProto = object.NewNativeFunction(r.tbl, r.objectProto, "", 0, func(any, value.Value, []value.Value, value.Value) (value.Value, *object.OpError) {
		return value.Undefined, nil
	})

	objectNew := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if len(args) > 0 && args[0].IsObject() {
			return args[0], nil
		}
		return value.FromObject(r.newObject()), nil
	}
	objectCtor := object.NewNativeFunction(r.tbl, r.functionProto, "Object", 1, objectNew)
	objectCtor.Construct = objectNew
	objectCtor.RequiresNew = false
	r.define(objectCtor.Base(), "prototype", value.FromObject(r.objectProto))
	r.defineFrozen(r.objectProto, "constructor", value.FromObject(objectCtor))
	installObjectStatics(r, objectCtor.Base())
	installObjectProtoMethods(r)
	r.define(r.global, "Object", value.FromObject(objectCtor))

	functionCtor := object.NewNativeFunction(r.tbl, r.functionProto, "Function", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "the Function constructor (compiling source text at runtime) requires a wired compiler and is not supported by this built-in")
	})
	r.define(functionCtor.Base(), "prototype", value.FromObject(r.functionProto))
	r.defineFrozen(r.functionProto, "constructor", value.FromObject(functionCtor))
	installFunctionProtoMethods(r)
	r.define(r.global, "Function", value.FromObject(functionCtor))
}

func installObjectStatics(r *realm, ctor object.JSObject) {
	r.method(ctor, "keys", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		obj, ok := argObject(args, 0)
		if !ok {
			return value.FromObject(r.newArray(nil)), nil
		}
		var out []value.Value
		for _, k := range obj.OwnKeys() {
			if k.IsSymbol() {
				continue
			}
			desc, _ := obj.GetOwnProperty(k)
			if desc.Enumerable {
				out = append(out, value.String(k.String(r.tbl)))
			}
		}
		return value.FromObject(r.newArray(out)), nil
	})
	r.method(ctor, "values", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		obj, ok := argObject(args, 0)
		if !ok {
			return value.FromObject(r.newArray(nil)), nil
		}
		var out []value.Value
		for _, k := range obj.OwnKeys() {
			if k.IsSymbol() {
				continue
			}
			desc, _ := obj.GetOwnProperty(k)
			if desc.Enumerable {
				out = append(out, desc.Value)
			}
		}
		return value.FromObject(r.newArray(out)), nil
	})
	r.method(ctor, "entries", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		obj, ok := argObject(args, 0)
		if !ok {
			return value.FromObject(r.newArray(nil)), nil
		}
		var out []value.Value
		for _, k := range obj.OwnKeys() {
			if k.IsSymbol() {
				continue
			}
			desc, _ := obj.GetOwnProperty(k)
			if desc.Enumerable {
				out = append(out, value.FromObject(r.newArray([]value.Value{value.String(k.String(r.tbl)), desc.Value})))
			}
		}
		return value.FromObject(r.newArray(out)), nil
	})
	r.method(ctor, "assign", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if len(args) == 0 {
			return value.Undefined, nil
		}
		target, ok := argObject(args, 0)
		if !ok {
			return args[0], nil
		}
		for _, src := range args[1:] {
			srcObj, ok := src.Object().(object.JSObject)
			if !src.IsObject() || !ok {
				continue
			}
			for _, k := range srcObj.OwnKeys() {
				desc, _ := srcObj.GetOwnProperty(k)
				if !desc.Enumerable {
					continue
				}
				v, _ := srcObj.Get(k, src, noInvoke)
				target.Set(k, v, value.FromObject(target), noInvoke)
			}
		}
		return args[0], nil
	})
	r.method(ctor, "freeze", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if obj, ok := argObject(args, 0); ok {
			obj.PreventExtensions()
			for _, k := range obj.OwnKeys() {
				desc, _ := obj.GetOwnProperty(k)
				desc.Writable, desc.Configurable = false, false
				desc.HasWritable, desc.HasConfigurable = true, true
				obj.DefineOwnProperty(k, desc)
			}
		}
		if len(args) > 0 {
			return args[0], nil
		}
		return value.Undefined, nil
	})
	r.method(ctor, "isFrozen", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		obj, ok := argObject(args, 0)
		if !ok {
			return value.Bool(true), nil
		}
		if obj.IsExtensible() {
			return value.Bool(false), nil
		}
		for _, k := range obj.OwnKeys() {
			desc, _ := obj.GetOwnProperty(k)
			if desc.Configurable || (desc.IsData() && desc.Writable) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})
	r.method(ctor, "getPrototypeOf", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		obj, ok := argObject(args, 0)
		if !ok || obj.Prototype() == nil {
			return value.Null, nil
		}
		return value.FromObject(obj.Prototype()), nil
	})
	r.method(ctor, "setPrototypeOf", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		obj, ok := argObject(args, 0)
		if !ok {
			if len(args) > 0 {
				return args[0], nil
			}
			return value.Undefined, nil
		}
		var proto object.JSObject
		if len(args) > 1 && args[1].IsObject() {
			proto, _ = args[1].Object().(object.JSObject)
		}
		obj.SetPrototypeOf(proto)
		return args[0], nil
	})
	r.method(ctor, "create", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		var proto object.JSObject
		if len(args) > 0 && args[0].IsObject() {
			proto, _ = args[0].Object().(object.JSObject)
		}
		return value.FromObject(object.New(r.tbl, proto, "Object")), nil
	})
	r.method(ctor, "defineProperty", 3, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if len(args) < 3 {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Object.defineProperty requires (target, key, descriptor)")
		}
		obj, ok := argObject(args, 0)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Object.defineProperty called on non-object")
		}
		descObj, ok := args[2].Object().(object.JSObject)
		if !args[2].IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "property descriptor must be an object")
		}
		desc := descriptorFromObject(r, descObj)
		key := keyFromValue(r, args[1])
		ok2, opErr := obj.DefineOwnProperty(key, desc)
		if opErr != nil {
			return value.Value{}, opErr
		}
		if !ok2 {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Cannot redefine property")
		}
		return args[0], nil
	})
}

// descriptorFromObject reads the subset of a descriptor object's own
// properties Object.defineProperty needs. Accessor properties (get/set) are
// out of scope for this built-in layer's native-only property model — this
// engine's exotic objects support them (Descriptor.IsAccessor), but wiring a
// JS getter/setter through requires the VM's Invoker, not available here.
func descriptorFromObject(r *realm, descObj object.JSObject) object.Descriptor {
	var d object.Descriptor
	if v, ok := descObj.GetOwnProperty(r.key("value")); ok {
		d.Value, d.HasValue = v.Value, true
	}
	if v, ok := descObj.GetOwnProperty(r.key("writable")); ok {
		d.Writable, d.HasWritable = v.Value.ToBool(), true
	}
	if v, ok := descObj.GetOwnProperty(r.key("enumerable")); ok {
		d.Enumerable, d.HasEnumerable = v.Value.ToBool(), true
	}
	if v, ok := descObj.GetOwnProperty(r.key("configurable")); ok {
		d.Configurable, d.HasConfigurable = v.Value.ToBool(), true
	}
	return d
}

func keyFromValue(r *realm, v value.Value) object.Key {
	if v.IsSymbol() {
		return object.SymbolKey(v.Symbol())
	}
	return r.key(v.ToGoString())
}

func argObject(args []value.Value, i int) (object.JSObject, bool) {
	if i >= len(args) || !args[i].IsObject() {
		return nil, false
	}
	o, ok := args[i].Object().(object.JSObject)
	return o, ok
}

func installObjectProtoMethods(r *realm) {
	r.method(r.objectProto, "hasOwnProperty", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		obj, ok := this.Object().(object.JSObject)
		if !this.IsObject() || !ok || len(args) == 0 {
			return value.Bool(false), nil
		}
		_, has := obj.GetOwnProperty(keyFromValue(r, args[0]))
		return value.Bool(has), nil
	})
	r.method(r.objectProto, "isPrototypeOf", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if len(args) == 0 || !args[0].IsObject() || !this.IsObject() {
			return value.Bool(false), nil
		}
		self, _ := this.Object().(object.JSObject)
		cur, _ := args[0].Object().(object.JSObject)
		for cur != nil {
			cur = cur.Prototype()
			if cur == self {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	r.method(r.objectProto, "toString", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if !this.IsObject() {
			return value.String("[object Undefined]"), nil
		}
		obj, _ := this.Object().(object.JSObject)
		return value.String("[object " + obj.ClassName() + "]"), nil
	})
	r.method(r.objectProto, "valueOf", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return this, nil
	})
}

func installFunctionProtoMethods(r *realm) {
	r.method(r.functionProto, "call", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		callable, ok := this.Object().(object.Callable)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Function.prototype.call called on non-callable")
		}
		var thisArg value.Value
		var rest []value.Value
		if len(args) > 0 {
			thisArg, rest = args[0], args[1:]
		}
		return invokeCallable(r, callable, thisArg, rest)
	})
	r.method(r.functionProto, "apply", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		callable, ok := this.Object().(object.Callable)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Function.prototype.apply called on non-callable")
		}
		var thisArg value.Value
		var rest []value.Value
		if len(args) > 0 {
			thisArg = args[0]
		}
		if len(args) > 1 {
			rest = spreadArrayLike(args[1])
		}
		return invokeCallable(r, callable, thisArg, rest)
	})
	r.method(r.functionProto, "bind", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		callable, ok := this.Object().(object.Callable)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Function.prototype.bind called on non-callable")
		}
		var boundThis value.Value
		var boundArgs []value.Value
		if len(args) > 0 {
			boundThis, boundArgs = args[0], args[1:]
		}
		invoker := func(fn value.Value, this value.Value, args []value.Value) (value.Value, *object.OpError) {
			c, ok := fn.Object().(object.Callable)
			if !ok {
				return value.Value{}, &object.OpError{Kind: "TypeError", Message: "bound target is not callable"}
			}
			return invokeCallable(r, c, this, args)
		}
		bf := object.NewBoundFunction(r.tbl, r.functionProto, callable, boundThis, boundArgs, invoker)
		return value.FromObject(bf), nil
	})
}

// invokeCallable runs a native function directly; anything else (a compiled
// bytecode function, a bound function, a proxy wrapping either) is handed to
// r.ctx.Invoke, the VM-backed dispatcher pkg/engine wires onto the Context
// once its VM exists, since this package has no access to the VM's own call
// opcode. Before that wiring (or in a test Context with no VM), such a call
// reports a TypeError rather than silently doing nothing.
func invokeCallable(r *realm, callable object.Callable, this value.Value, args []value.Value) (value.Value, *object.OpError) {
	if nf, ok := callable.(*object.NativeFunction); ok {
		return nf.Fn(r.ctx, this, args, value.Value{})
	}
	if r.ctx.Invoke != nil {
		return r.ctx.Invoke(value.FromObject(callable), this, args)
	}
	return value.Value{}, &object.OpError{Kind: "TypeError", Message: "call/apply on a non-native function requires the VM; use the VM's own Invoke"}
}

func spreadArrayLike(v value.Value) []value.Value {
	if !v.IsObject() {
		return nil
	}
	obj, ok := v.Object().(object.JSObject)
	if !ok {
		return nil
	}
	lenDesc, ok := obj.GetOwnProperty(object.AtomKey(atom.Length))
	if !ok {
		return nil
	}
	n := int(lenDesc.Value.ToFloat64())
	out := make([]value.Value, 0, n)
	for i := 0; i < n; i++ {
		el, _ := obj.Get(object.IndexKey(uint32(i)), v, noInvoke)
		out = append(out, el)
	}
	return out
}
