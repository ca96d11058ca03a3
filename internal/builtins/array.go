package builtins

import (
	"sort"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// installArray builds Array/Array.prototype. Array's own exotic
// DefineOwnProperty (the length-bookkeeping invariant) already lives in
// internal/object/array.go; this file only adds the constructor and the
// prototype method surface a script actually calls.
func installArray(r *realm) {
	r.arrayProto = object.NewArray(r.tbl, r.objectProto)

	ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if len(args) == 1 && args[0].IsNumber() {
			n := int(args[0].ToFloat64())
			elems := make([]value.Value, n)
			for i := range elems {
				elems[i] = value.Undefined
			}
			return value.FromObject(r.newArray(elems)), nil
		}
		return value.FromObject(r.newArray(append([]value.Value{}, args...))), nil
	}
	ctor := object.NewNativeFunction(r.tbl, r.functionProto, "Array", 1, ctorFn)
	ctor.Construct = ctorFn
	r.define(ctor.Base(), "prototype", value.FromObject(r.arrayProto))
	r.defineFrozen(r.arrayProto.Base(), "constructor", value.FromObject(ctor))

	r.method(ctor.Base(), "isArray", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if len(args) == 0 || !args[0].IsObject() {
			return value.Bool(false), nil
		}
		obj, ok := args[0].Object().(object.JSObject)
		return value.Bool(ok && object.IsArray(obj)), nil
	})
	r.method(ctor.Base(), "from", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if len(args) == 0 {
			return value.FromObject(r.newArray(nil)), nil
		}
		if args[0].IsString() {
			units := args[0].StringUnits()
			elems := make([]value.Value, len(units))
			for i, u := range units {
				elems[i] = value.StringFromUnits([]uint16{u})
			}
			return value.FromObject(r.newArray(elems)), nil
		}
		return value.FromObject(r.newArray(spreadArrayLike(args[0]))), nil
	})
	r.method(ctor.Base(), "of", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.FromObject(r.newArray(append([]value.Value{}, args...))), nil
	})

	installArrayProtoMethods(r)
	r.define(r.global, "Array", value.FromObject(ctor))
}

func arrayElems(this value.Value) ([]value.Value, bool) {
	if !this.IsObject() {
		return nil, false
	}
	obj, ok := this.Object().(object.JSObject)
	if !ok {
		return nil, false
	}
	n := int(readLength(obj))
	elems := make([]value.Value, n)
	for i := range elems {
		elems[i], _ = obj.Get(object.IndexKey(uint32(i)), this, noInvoke)
	}
	return elems, true
}

func readLength(obj object.JSObject) uint32 {
	d, ok := obj.GetOwnProperty(object.AtomKey(atom.Length))
	if !ok {
		return 0
	}
	return uint32(d.Value.ToFloat64())
}

func installArrayProtoMethods(r *realm) {
	proto := r.arrayProto.Base()

	r.method(proto, "push", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		arr, ok := this.Object().(*object.Array)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Array.prototype.push called on non-array")
		}
		n := readLength(arr)
		for _, a := range args {
			arr.DefineOwnProperty(object.IndexKey(n), object.DataDescriptor(a, true, true, true))
			n++
		}
		return value.Number(float64(n)), nil
	})
	r.method(proto, "pop", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		arr, ok := this.Object().(*object.Array)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Array.prototype.pop called on non-array")
		}
		n := readLength(arr)
		if n == 0 {
			return value.Undefined, nil
		}
		last := n - 1
		v, _ := arr.Get(object.IndexKey(last), this, noInvoke)
		arr.Delete(object.IndexKey(last), false)
		arr.DefineOwnProperty(object.AtomKey(atom.Length), object.DataDescriptor(value.Number(float64(last)), true, false, false))
		return v, nil
	})
	r.method(proto, "slice", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		elems, ok := arrayElems(this)
		if !ok {
			return value.FromObject(r.newArray(nil)), nil
		}
		start, end := sliceRange(len(elems), args)
		if start > end {
			return value.FromObject(r.newArray(nil)), nil
		}
		return value.FromObject(r.newArray(append([]value.Value{}, elems[start:end]...))), nil
	})
	r.method(proto, "concat", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		elems, _ := arrayElems(this)
		out := append([]value.Value{}, elems...)
		for _, a := range args {
			if a.IsObject() {
				if obj, ok := a.Object().(object.JSObject); ok && object.IsArray(obj) {
					more, _ := arrayElems(a)
					out = append(out, more...)
					continue
				}
			}
			out = append(out, a)
		}
		return value.FromObject(r.newArray(out)), nil
	})
	r.method(proto, "join", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		elems, _ := arrayElems(this)
		sep := ","
		if len(args) > 0 && !args[0].IsUndefined() {
			sep = args[0].ToGoString()
		}
		out := ""
		for i, e := range elems {
			if i > 0 {
				out += sep
			}
			if !e.IsNullish() {
				out += toDisplayString(r, e)
			}
		}
		return value.String(out), nil
	})
	r.method(proto, "indexOf", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		elems, _ := arrayElems(this)
		var target value.Value
		if len(args) > 0 {
			target = args[0]
		}
		for i, e := range elems {
			if value.StrictEquals(e, target) {
				return value.Number(float64(i)), nil
			}
		}
		return value.Number(-1), nil
	})
	r.method(proto, "includes", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		elems, _ := arrayElems(this)
		var target value.Value
		if len(args) > 0 {
			target = args[0]
		}
		for _, e := range elems {
			if value.SameValueZero(e, target) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	r.method(proto, "reverse", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		arr, ok := this.Object().(*object.Array)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Array.prototype.reverse called on non-array")
		}
		elems, _ := arrayElems(this)
		for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
			elems[i], elems[j] = elems[j], elems[i]
		}
		for i, e := range elems {
			arr.DefineOwnProperty(object.IndexKey(uint32(i)), object.DataDescriptor(e, true, true, true))
		}
		return this, nil
	})
	r.method(proto, "sort", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		arr, ok := this.Object().(*object.Array)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Array.prototype.sort called on non-array")
		}
		elems, _ := arrayElems(this)
		var compareErr *object.OpError
		var comparator object.Callable
		if len(args) > 0 && args[0].IsObject() {
			comparator, _ = args[0].Object().(object.Callable)
		}
		sort.SliceStable(elems, func(i, j int) bool {
			if compareErr != nil {
				return false
			}
			if comparator != nil {
				res, err := invokeCallable(r, comparator, value.Undefined, []value.Value{elems[i], elems[j]})
				if err != nil {
					compareErr = err
					return false
				}
				return res.ToFloat64() < 0
			}
			return toDisplayString(r, elems[i]) < toDisplayString(r, elems[j])
		})
		if compareErr != nil {
			return value.Value{}, compareErr
		}
		for i, e := range elems {
			arr.DefineOwnProperty(object.IndexKey(uint32(i)), object.DataDescriptor(e, true, true, true))
		}
		return this, nil
	})
	r.method(proto, "forEach", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		callback, ok := callableArg(args, 0)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Array.prototype.forEach requires a function argument")
		}
		elems, _ := arrayElems(this)
		for i, e := range elems {
			if _, err := invokeCallable(r, callback, value.Undefined, []value.Value{e, value.Number(float64(i)), this}); err != nil {
				return value.Value{}, err
			}
		}
		return value.Undefined, nil
	})
	r.method(proto, "map", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		callback, ok := callableArg(args, 0)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Array.prototype.map requires a function argument")
		}
		elems, _ := arrayElems(this)
		out := make([]value.Value, len(elems))
		for i, e := range elems {
			v, err := invokeCallable(r, callback, value.Undefined, []value.Value{e, value.Number(float64(i)), this})
			if err != nil {
				return value.Value{}, err
			}
			out[i] = v
		}
		return value.FromObject(r.newArray(out)), nil
	})
	r.method(proto, "filter", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		callback, ok := callableArg(args, 0)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Array.prototype.filter requires a function argument")
		}
		elems, _ := arrayElems(this)
		var out []value.Value
		for i, e := range elems {
			v, err := invokeCallable(r, callback, value.Undefined, []value.Value{e, value.Number(float64(i)), this})
			if err != nil {
				return value.Value{}, err
			}
			if v.ToBool() {
				out = append(out, e)
			}
		}
		return value.FromObject(r.newArray(out)), nil
	})
	r.method(proto, "reduce", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		callback, ok := callableArg(args, 0)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Array.prototype.reduce requires a function argument")
		}
		elems, _ := arrayElems(this)
		i := 0
		var acc value.Value
		if len(args) > 1 {
			acc = args[1]
		} else {
			if len(elems) == 0 {
				return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Reduce of empty array with no initial value")
			}
			acc = elems[0]
			i = 1
		}
		for ; i < len(elems); i++ {
			v, err := invokeCallable(r, callback, value.Undefined, []value.Value{acc, elems[i], value.Number(float64(i)), this})
			if err != nil {
				return value.Value{}, err
			}
			acc = v
		}
		return acc, nil
	})
	r.method(proto, "find", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		callback, ok := callableArg(args, 0)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Array.prototype.find requires a function argument")
		}
		elems, _ := arrayElems(this)
		for i, e := range elems {
			v, err := invokeCallable(r, callback, value.Undefined, []value.Value{e, value.Number(float64(i)), this})
			if err != nil {
				return value.Value{}, err
			}
			if v.ToBool() {
				return e, nil
			}
		}
		return value.Undefined, nil
	})
	r.method(proto, "some", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		callback, ok := callableArg(args, 0)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Array.prototype.some requires a function argument")
		}
		elems, _ := arrayElems(this)
		for i, e := range elems {
			v, err := invokeCallable(r, callback, value.Undefined, []value.Value{e, value.Number(float64(i)), this})
			if err != nil {
				return value.Value{}, err
			}
			if v.ToBool() {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	r.method(proto, "every", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		callback, ok := callableArg(args, 0)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Array.prototype.every requires a function argument")
		}
		elems, _ := arrayElems(this)
		for i, e := range elems {
			v, err := invokeCallable(r, callback, value.Undefined, []value.Value{e, value.Number(float64(i)), this})
			if err != nil {
				return value.Value{}, err
			}
			if !v.ToBool() {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})
	r.method(proto, "toString", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		elems, _ := arrayElems(this)
		out := ""
		for i, e := range elems {
			if i > 0 {
				out += ","
			}
			if !e.IsNullish() {
				out += toDisplayString(r, e)
			}
		}
		return value.String(out), nil
	})
}

func callableArg(args []value.Value, i int) (object.Callable, bool) {
	if i >= len(args) || !args[i].IsObject() {
		return nil, false
	}
	c, ok := args[i].Object().(object.Callable)
	return c, ok
}

func sliceRange(length int, args []value.Value) (int, int) {
	start, end := 0, length
	if len(args) > 0 {
		start = normalizeIndex(args[0].ToFloat64(), length)
	}
	if len(args) > 1 && !args[1].IsUndefined() {
		end = normalizeIndex(args[1].ToFloat64(), length)
	}
	return start, end
}

func normalizeIndex(f float64, length int) int {
	i := int(f)
	if i < 0 {
		i += length
	}
	if i < 0 {
		i = 0
	}
	if i > length {
		i = length
	}
	return i
}
