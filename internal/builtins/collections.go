package builtins

import (
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// accessor installs a getter-only accessor property, the shape every
// collection's `size` property (and WeakRef's none, notably) uses.
func (r *realm) accessor(obj object.JSObject, name string, get object.NativeFn) {
	getter := object.NewNativeFunction(r.tbl, r.functionProto, "get "+name, 0, get)
	obj.DefineOwnProperty(r.key(name), object.AccessorDescriptor(value.FromObject(getter), value.Undefined, false, true))
}

// installCollections builds Map/Set/WeakMap/WeakSet/WeakRef/
// FinalizationRegistry, generalizing the teacher's builtin-registry pattern
// (a Go struct wrapped by a thin method surface) from DWScript's lack of any
// such type to ES's six reference/lifecycle-aware collection types
// (internal/object/map_set.go, internal/object/weak.go).
func installCollections(r *realm) {
	installMap(r)
	installSet(r)
	installWeakMap(r)
	installWeakSet(r)
	installWeakRef(r)
	installFinalizationRegistry(r)
}

func installMap(r *realm) {
	r.mapProto = object.New(r.tbl, r.objectProto, "Map")

	ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Constructor Map requires 'new'")
		}
		m := object.NewMap(r.tbl, r.mapProto)
		if len(args) > 0 && !args[0].IsNullish() {
			for _, entry := range spreadArrayLike(args[0]) {
				pair, _ := arrayElems(entry)
				var k, v value.Value
				if len(pair) > 0 {
					k = pair[0]
				}
				if len(pair) > 1 {
					v = pair[1]
				}
				m.Set(k, v)
			}
		}
		return value.FromObject(m), nil
	}
	ctor := object.NewNativeFunction(r.tbl, r.functionProto, "Map", 0, ctorFn)
	ctor.Construct = ctorFn
	r.define(ctor.Base(), "prototype", value.FromObject(r.mapProto))
	r.defineFrozen(r.mapProto, "constructor", value.FromObject(ctor))

	asMap := func(this value.Value) (*object.MapData, bool) {
		m, ok := this.Object().(*object.MapData)
		return m, this.IsObject() && ok
	}
	r.method(r.mapProto, "get", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		m, ok := asMap(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Map.prototype.get called on incompatible receiver")
		}
		v, _ := m.Get(firstArg(args))
		return v, nil
	})
	r.method(r.mapProto, "set", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		m, ok := asMap(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Map.prototype.set called on incompatible receiver")
		}
		var k, v value.Value
		if len(args) > 0 {
			k = args[0]
		}
		if len(args) > 1 {
			v = args[1]
		}
		m.Set(k, v)
		return this, nil
	})
	r.method(r.mapProto, "has", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		m, ok := asMap(this)
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(m.Has(firstArg(args))), nil
	})
	r.method(r.mapProto, "delete", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		m, ok := asMap(this)
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(m.Delete(firstArg(args))), nil
	})
	r.method(r.mapProto, "clear", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if m, ok := asMap(this); ok {
			m.Clear()
		}
		return value.Undefined, nil
	})
	r.method(r.mapProto, "forEach", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		m, ok := asMap(this)
		callback, okc := callableArg(args, 0)
		if !ok || !okc {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Map.prototype.forEach requires a function argument")
		}
		var opErr *object.OpError
		m.ForEach(func(k, v value.Value) {
			if opErr != nil {
				return
			}
			_, opErr = invokeCallable(r, callback, value.Undefined, []value.Value{v, k, this})
		})
		if opErr != nil {
			return value.Value{}, opErr
		}
		return value.Undefined, nil
	})
	r.accessor(r.mapProto, "size", func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		m, ok := asMap(this)
		if !ok {
			return value.Number(0), nil
		}
		return value.Number(float64(m.Size())), nil
	})

	r.define(r.global, "Map", value.FromObject(ctor))
}

func installSet(r *realm) {
	r.setProto = object.New(r.tbl, r.objectProto, "Set")

	ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Constructor Set requires 'new'")
		}
		s := object.NewSet(r.tbl, r.setProto)
		if len(args) > 0 && !args[0].IsNullish() {
			for _, v := range spreadArrayLike(args[0]) {
				s.Add(v)
			}
		}
		return value.FromObject(s), nil
	}
	ctor := object.NewNativeFunction(r.tbl, r.functionProto, "Set", 0, ctorFn)
	ctor.Construct = ctorFn
	r.define(ctor.Base(), "prototype", value.FromObject(r.setProto))
	r.defineFrozen(r.setProto, "constructor", value.FromObject(ctor))

	asSet := func(this value.Value) (*object.SetData, bool) {
		s, ok := this.Object().(*object.SetData)
		return s, this.IsObject() && ok
	}
	r.method(r.setProto, "add", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s, ok := asSet(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Set.prototype.add called on incompatible receiver")
		}
		s.Add(firstArg(args))
		return this, nil
	})
	r.method(r.setProto, "has", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s, ok := asSet(this)
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(s.Has(firstArg(args))), nil
	})
	r.method(r.setProto, "delete", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s, ok := asSet(this)
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(s.Delete(firstArg(args))), nil
	})
	r.method(r.setProto, "clear", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if s, ok := asSet(this); ok {
			s.Clear()
		}
		return value.Undefined, nil
	})
	r.method(r.setProto, "forEach", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s, ok := asSet(this)
		callback, okc := callableArg(args, 0)
		if !ok || !okc {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Set.prototype.forEach requires a function argument")
		}
		var opErr *object.OpError
		s.ForEach(func(v value.Value) {
			if opErr != nil {
				return
			}
			_, opErr = invokeCallable(r, callback, value.Undefined, []value.Value{v, v, this})
		})
		if opErr != nil {
			return value.Value{}, opErr
		}
		return value.Undefined, nil
	})
	r.accessor(r.setProto, "size", func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s, ok := asSet(this)
		if !ok {
			return value.Number(0), nil
		}
		return value.Number(float64(s.Size())), nil
	})

	r.define(r.global, "Set", value.FromObject(ctor))
}

func installWeakMap(r *realm) {
	r.weakMapProto = object.New(r.tbl, r.objectProto, "WeakMap")

	ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Constructor WeakMap requires 'new'")
		}
		m := object.NewWeakMap(r.tbl, r.weakMapProto)
		if len(args) > 0 && !args[0].IsNullish() {
			for _, entry := range spreadArrayLike(args[0]) {
				pair, _ := arrayElems(entry)
				var k, v value.Value
				if len(pair) > 0 {
					k = pair[0]
				}
				if len(pair) > 1 {
					v = pair[1]
				}
				m.Set(k, v)
			}
		}
		return value.FromObject(m), nil
	}
	ctor := object.NewNativeFunction(r.tbl, r.functionProto, "WeakMap", 0, ctorFn)
	ctor.Construct = ctorFn
	r.define(ctor.Base(), "prototype", value.FromObject(r.weakMapProto))
	r.defineFrozen(r.weakMapProto, "constructor", value.FromObject(ctor))

	asWeakMap := func(this value.Value) (*object.WeakMapData, bool) {
		m, ok := this.Object().(*object.WeakMapData)
		return m, this.IsObject() && ok
	}
	r.method(r.weakMapProto, "get", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		m, ok := asWeakMap(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "WeakMap.prototype.get called on incompatible receiver")
		}
		v, _ := m.Get(firstArg(args))
		return v, nil
	})
	r.method(r.weakMapProto, "set", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		m, ok := asWeakMap(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "WeakMap.prototype.set called on incompatible receiver")
		}
		k := firstArg(args)
		if !k.IsObject() && !k.IsSymbol() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Invalid value used as weak map key")
		}
		var v value.Value
		if len(args) > 1 {
			v = args[1]
		}
		m.Set(k, v)
		return this, nil
	})
	r.method(r.weakMapProto, "has", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		m, ok := asWeakMap(this)
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(m.Has(firstArg(args))), nil
	})
	r.method(r.weakMapProto, "delete", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		m, ok := asWeakMap(this)
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(m.Delete(firstArg(args))), nil
	})

	r.define(r.global, "WeakMap", value.FromObject(ctor))
}

func installWeakSet(r *realm) {
	r.weakSetProto = object.New(r.tbl, r.objectProto, "WeakSet")

	ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Constructor WeakSet requires 'new'")
		}
		s := object.NewWeakSet(r.tbl, r.weakSetProto)
		if len(args) > 0 && !args[0].IsNullish() {
			for _, v := range spreadArrayLike(args[0]) {
				s.Add(v)
			}
		}
		return value.FromObject(s), nil
	}
	ctor := object.NewNativeFunction(r.tbl, r.functionProto, "WeakSet", 0, ctorFn)
	ctor.Construct = ctorFn
	r.define(ctor.Base(), "prototype", value.FromObject(r.weakSetProto))
	r.defineFrozen(r.weakSetProto, "constructor", value.FromObject(ctor))

	asWeakSet := func(this value.Value) (*object.WeakSetData, bool) {
		s, ok := this.Object().(*object.WeakSetData)
		return s, this.IsObject() && ok
	}
	r.method(r.weakSetProto, "add", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s, ok := asWeakSet(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "WeakSet.prototype.add called on incompatible receiver")
		}
		v := firstArg(args)
		if !v.IsObject() && !v.IsSymbol() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Invalid value used in weak set")
		}
		s.Add(v)
		return this, nil
	})
	r.method(r.weakSetProto, "has", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s, ok := asWeakSet(this)
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(s.Has(firstArg(args))), nil
	})
	r.method(r.weakSetProto, "delete", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s, ok := asWeakSet(this)
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(s.Delete(firstArg(args))), nil
	})

	r.define(r.global, "WeakSet", value.FromObject(ctor))
}

func installWeakRef(r *realm) {
	r.weakRefProto = object.New(r.tbl, r.objectProto, "WeakRef")

	ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Constructor WeakRef requires 'new'")
		}
		target := firstArg(args)
		if !target.IsObject() && !target.IsSymbol() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Invalid target for WeakRef")
		}
		w := object.NewWeakRef(r.tbl, r.weakRefProto, target)
		return value.FromObject(w), nil
	}
	ctor := object.NewNativeFunction(r.tbl, r.functionProto, "WeakRef", 1, ctorFn)
	ctor.Construct = ctorFn
	r.define(ctor.Base(), "prototype", value.FromObject(r.weakRefProto))
	r.defineFrozen(r.weakRefProto, "constructor", value.FromObject(ctor))

	r.method(r.weakRefProto, "deref", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		w, ok := this.Object().(*object.WeakRefData)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "WeakRef.prototype.deref called on incompatible receiver")
		}
		v, alive := w.Deref()
		if !alive {
			return value.Undefined, nil
		}
		return v, nil
	})

	r.define(r.global, "WeakRef", value.FromObject(ctor))
}

func installFinalizationRegistry(r *realm) {
	r.finalRegProto = object.New(r.tbl, r.objectProto, "FinalizationRegistry")

	ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Constructor FinalizationRegistry requires 'new'")
		}
		callback, ok := callableArg(args, 0)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "FinalizationRegistry callback must be a function")
		}
		c := ctxOf(realmArg)
		fr := object.NewFinalizationRegistry(r.tbl, r.finalRegProto, func(held value.Value) {
			// Enqueue only — invoked from the Go runtime's cleanup
			// goroutine, which must never run JS directly.
			c.EnqueueMicrotask(func() {
				invokeCallable(r, callback, value.Undefined, []value.Value{held})
			})
		})
		return value.FromObject(fr), nil
	}
	ctor := object.NewNativeFunction(r.tbl, r.functionProto, "FinalizationRegistry", 1, ctorFn)
	ctor.Construct = ctorFn
	r.define(ctor.Base(), "prototype", value.FromObject(r.finalRegProto))
	r.defineFrozen(r.finalRegProto, "constructor", value.FromObject(ctor))

	r.method(r.finalRegProto, "register", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		fr, ok := this.Object().(*object.FinalizationRegistryData)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "FinalizationRegistry.prototype.register called on incompatible receiver")
		}
		target := firstArg(args)
		if !target.IsObject() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "target must be an object")
		}
		var held, token value.Value
		if len(args) > 1 {
			held = args[1]
		}
		if len(args) > 2 {
			token = args[2]
		}
		fr.Register(target, held, token)
		return value.Undefined, nil
	})
	r.method(r.finalRegProto, "unregister", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		fr, ok := this.Object().(*object.FinalizationRegistryData)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "FinalizationRegistry.prototype.unregister called on incompatible receiver")
		}
		return value.Bool(fr.Unregister(firstArg(args))), nil
	})

	r.define(r.global, "FinalizationRegistry", value.FromObject(ctor))
}

func firstArg(args []value.Value) value.Value {
	if len(args) == 0 {
		return value.Undefined
	}
	return args[0]
}
