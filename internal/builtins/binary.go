package builtins

import (
	"math/big"

	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// typedArrayKinds lists every TypedArray family member, in the order its
// constructor is installed.
var typedArrayKinds = []object.ElementKind{
	object.ElemInt8, object.ElemUint8, object.ElemUint8Clamped,
	object.ElemInt16, object.ElemUint16,
	object.ElemInt32, object.ElemUint32,
	object.ElemFloat16, object.ElemFloat32, object.ElemFloat64,
	object.ElemBigInt64, object.ElemBigUint64,
}

// installBinary builds ArrayBuffer/SharedArrayBuffer, the twelve TypedArray
// constructors and a shared %TypedArray%.prototype method surface, and
// DataView — the raw-memory family the teacher never needed (DWScript has
// no byte-level buffer type) and so is built fresh, grounded directly on
// internal/object/arraybuffer.go and internal/object/typedarray.go's own
// exotic-object semantics rather than any teacher precedent.
func installBinary(r *realm) {
	installArrayBuffer(r)
	r.typedArrProto = object.New(r.tbl, r.objectProto, "TypedArray")
	installTypedArrayProtoMethods(r)
	for _, kind := range typedArrayKinds {
		installTypedArrayConstructor(r, kind)
	}
	installDataView(r)
}

func installArrayBuffer(r *realm) {
	r.arrayBufProto = object.New(r.tbl, r.objectProto, "ArrayBuffer")

	ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Constructor ArrayBuffer requires 'new'")
		}
		n := 0
		if len(args) > 0 {
			n = int(args[0].ToFloat64())
		}
		if n < 0 {
			return value.Value{}, throwErr(ctxOf(realmArg), "RangeError", "Invalid array buffer length")
		}
		return value.FromObject(object.NewArrayBuffer(r.tbl, r.arrayBufProto, n)), nil
	}
	ctor := object.NewNativeFunction(r.tbl, r.functionProto, "ArrayBuffer", 1, ctorFn)
	ctor.Construct = ctorFn
	r.define(ctor.Base(), "prototype", value.FromObject(r.arrayBufProto))
	r.defineFrozen(r.arrayBufProto, "constructor", value.FromObject(ctor))

	r.method(ctor.Base(), "isView", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if len(args) == 0 || !args[0].IsObject() {
			return value.Bool(false), nil
		}
		switch args[0].Object().(type) {
		case *object.TypedArray, *object.DataView:
			return value.Bool(true), nil
		default:
			return value.Bool(false), nil
		}
	})

	asBuffer := func(this value.Value) (*object.ArrayBuffer, bool) {
		b, ok := this.Object().(*object.ArrayBuffer)
		return b, this.IsObject() && ok
	}
	r.accessor(r.arrayBufProto, "byteLength", func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		b, ok := asBuffer(this)
		if !ok {
			return value.Number(0), nil
		}
		return value.Number(float64(len(b.Bytes))), nil
	})
	r.method(r.arrayBufProto, "slice", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		b, ok := asBuffer(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "ArrayBuffer.prototype.slice called on incompatible receiver")
		}
		start, end := sliceRange(len(b.Bytes), args)
		out := object.NewArrayBuffer(r.tbl, r.arrayBufProto, 0)
		if start < end {
			out.Bytes = append([]byte{}, b.Bytes[start:end]...)
		}
		return value.FromObject(out), nil
	})
	r.method(r.arrayBufProto, "resize", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		b, ok := asBuffer(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "ArrayBuffer.prototype.resize called on incompatible receiver")
		}
		n := 0
		if len(args) > 0 {
			n = int(args[0].ToFloat64())
		}
		if !b.Resize(n) {
			return value.Value{}, throwErr(ctxOf(realmArg), "RangeError", "Invalid ArrayBuffer resize")
		}
		return value.Undefined, nil
	})
	r.method(r.arrayBufProto, "transfer", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		b, ok := asBuffer(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "ArrayBuffer.prototype.transfer called on incompatible receiver")
		}
		newLen := len(b.Bytes)
		if len(args) > 0 && !args[0].IsUndefined() {
			newLen = int(args[0].ToFloat64())
		}
		return value.FromObject(b.Transfer(r.tbl, r.arrayBufProto, newLen, true)), nil
	})

	r.define(r.global, "ArrayBuffer", value.FromObject(ctor))

	sharedProto := object.New(r.tbl, r.objectProto, "SharedArrayBuffer")
	sharedCtorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Constructor SharedArrayBuffer requires 'new'")
		}
		n := 0
		if len(args) > 0 {
			n = int(args[0].ToFloat64())
		}
		return value.FromObject(object.NewSharedArrayBuffer(r.tbl, sharedProto, n)), nil
	}
	sharedCtor := object.NewNativeFunction(r.tbl, r.functionProto, "SharedArrayBuffer", 1, sharedCtorFn)
	sharedCtor.Construct = sharedCtorFn
	r.define(sharedCtor.Base(), "prototype", value.FromObject(sharedProto))
	r.defineFrozen(sharedProto, "constructor", value.FromObject(sharedCtor))
	r.accessor(sharedProto, "byteLength", func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		b, ok := asBuffer(this)
		if !ok {
			return value.Number(0), nil
		}
		return value.Number(float64(len(b.Bytes))), nil
	})
	r.method(sharedProto, "grow", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		b, ok := asBuffer(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "SharedArrayBuffer.prototype.grow called on incompatible receiver")
		}
		n := 0
		if len(args) > 0 {
			n = int(args[0].ToFloat64())
		}
		if !b.Grow(n) {
			return value.Value{}, throwErr(ctxOf(realmArg), "RangeError", "Invalid SharedArrayBuffer grow")
		}
		return value.Undefined, nil
	})
	r.define(r.global, "SharedArrayBuffer", value.FromObject(sharedCtor))
}

func installTypedArrayConstructor(r *realm, kind object.ElementKind) {
	name := kind.Name()
	elemSize := kind.Size()

	ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Constructor "+name+" requires 'new'")
		}
		if len(args) == 0 {
			buf := object.NewArrayBuffer(r.tbl, r.arrayBufProto, 0)
			return value.FromObject(object.NewTypedArray(r.tbl, r.typedArrProto, buf, kind, 0, 0, false)), nil
		}
		if buf, ok := args[0].Object().(*object.ArrayBuffer); args[0].IsObject() && ok {
			byteOffset := 0
			if len(args) > 1 {
				byteOffset = int(args[1].ToFloat64())
			}
			trackLength := len(args) < 3 || args[2].IsUndefined()
			length := 0
			if !trackLength {
				length = int(args[2].ToFloat64())
			} else {
				length = (len(buf.Bytes) - byteOffset) / elemSize
			}
			return value.FromObject(object.NewTypedArray(r.tbl, r.typedArrProto, buf, kind, byteOffset, length, trackLength)), nil
		}
		if args[0].IsNumber() {
			n := int(args[0].ToFloat64())
			buf := object.NewArrayBuffer(r.tbl, r.arrayBufProto, n*elemSize)
			return value.FromObject(object.NewTypedArray(r.tbl, r.typedArrProto, buf, kind, 0, n, false)), nil
		}
		elems := spreadArrayLike(args[0])
		buf := object.NewArrayBuffer(r.tbl, r.arrayBufProto, len(elems)*elemSize)
		ta := object.NewTypedArray(r.tbl, r.typedArrProto, buf, kind, 0, len(elems), false)
		for i, e := range elems {
			ta.SetElement(i, coerceElement(kind, e))
		}
		return value.FromObject(ta), nil
	}
	ctor := object.NewNativeFunction(r.tbl, r.functionProto, name, 1, ctorFn)
	ctor.Construct = ctorFn
	r.define(ctor.Base(), "prototype", value.FromObject(r.typedArrProto))
	r.defineFrozen(ctor.Base(), "BYTES_PER_ELEMENT", value.Number(float64(elemSize)))
	r.define(r.global, name, value.FromObject(ctor))
}

func coerceElement(kind object.ElementKind, v value.Value) value.Value {
	if kind.IsBigIntKind() {
		if v.IsBigInt() {
			return v
		}
		return value.BigInt(big.NewInt(int64(v.ToFloat64())))
	}
	return value.Number(v.ToFloat64())
}

func asTypedArray(this value.Value) (*object.TypedArray, bool) {
	ta, ok := this.Object().(*object.TypedArray)
	return ta, this.IsObject() && ok
}

func installTypedArrayProtoMethods(r *realm) {
	proto := r.typedArrProto.Base()
	r.accessor(proto, "length", func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		ta, ok := asTypedArray(this)
		if !ok {
			return value.Number(0), nil
		}
		return value.Number(float64(ta.Length())), nil
	})
	r.accessor(proto, "byteLength", func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		ta, ok := asTypedArray(this)
		if !ok {
			return value.Number(0), nil
		}
		return value.Number(float64(ta.Length() * ta.Kind.Size())), nil
	})
	r.accessor(proto, "buffer", func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		ta, ok := asTypedArray(this)
		if !ok {
			return value.Undefined, nil
		}
		return value.FromObject(ta.Buffer), nil
	})
	r.method(proto, "fill", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		ta, ok := asTypedArray(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "fill called on incompatible receiver")
		}
		v := coerceElement(ta.Kind, firstArg(args))
		start, end := sliceRange(ta.Length(), args[min(1, len(args)):])
		for i := start; i < end; i++ {
			ta.SetElement(i, v)
		}
		return this, nil
	})
	r.method(proto, "set", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		ta, ok := asTypedArray(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "set called on incompatible receiver")
		}
		offset := 0
		if len(args) > 1 {
			offset = int(args[1].ToFloat64())
		}
		src := spreadArrayLike(firstArg(args))
		for i, v := range src {
			ta.SetElement(offset+i, coerceElement(ta.Kind, v))
		}
		return value.Undefined, nil
	})
	r.method(proto, "slice", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		ta, ok := asTypedArray(this)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "slice called on incompatible receiver")
		}
		start, end := sliceRange(ta.Length(), args)
		n := end - start
		if n < 0 {
			n = 0
		}
		buf := object.NewArrayBuffer(r.tbl, r.arrayBufProto, n*ta.Kind.Size())
		out := object.NewTypedArray(r.tbl, r.typedArrProto, buf, ta.Kind, 0, n, false)
		for i := 0; i < n; i++ {
			out.SetElement(i, ta.GetElement(start+i))
		}
		return value.FromObject(out), nil
	})
	r.method(proto, "indexOf", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		ta, ok := asTypedArray(this)
		if !ok {
			return value.Number(-1), nil
		}
		target := coerceElement(ta.Kind, firstArg(args))
		for i := 0; i < ta.Length(); i++ {
			if value.StrictEquals(ta.GetElement(i), target) {
				return value.Number(float64(i)), nil
			}
		}
		return value.Number(-1), nil
	})
	r.method(proto, "join", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		ta, ok := asTypedArray(this)
		if !ok {
			return value.String(""), nil
		}
		sep := ","
		if len(args) > 0 && !args[0].IsUndefined() {
			sep = args[0].ToGoString()
		}
		out := ""
		for i := 0; i < ta.Length(); i++ {
			if i > 0 {
				out += sep
			}
			out += toDisplayString(r, ta.GetElement(i))
		}
		return value.String(out), nil
	})
	r.method(proto, "forEach", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		ta, ok := asTypedArray(this)
		callback, okc := callableArg(args, 0)
		if !ok || !okc {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "forEach requires a function argument")
		}
		for i := 0; i < ta.Length(); i++ {
			if _, err := invokeCallable(r, callback, value.Undefined, []value.Value{ta.GetElement(i), value.Number(float64(i)), this}); err != nil {
				return value.Value{}, err
			}
		}
		return value.Undefined, nil
	})
	r.method(proto, "map", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		ta, ok := asTypedArray(this)
		callback, okc := callableArg(args, 0)
		if !ok || !okc {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "map requires a function argument")
		}
		n := ta.Length()
		buf := object.NewArrayBuffer(r.tbl, r.arrayBufProto, n*ta.Kind.Size())
		out := object.NewTypedArray(r.tbl, r.typedArrProto, buf, ta.Kind, 0, n, false)
		for i := 0; i < n; i++ {
			v, err := invokeCallable(r, callback, value.Undefined, []value.Value{ta.GetElement(i), value.Number(float64(i)), this})
			if err != nil {
				return value.Value{}, err
			}
			out.SetElement(i, coerceElement(ta.Kind, v))
		}
		return value.FromObject(out), nil
	})
	r.method(proto, "toString", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		ta, ok := asTypedArray(this)
		if !ok {
			return value.String(""), nil
		}
		out := ""
		for i := 0; i < ta.Length(); i++ {
			if i > 0 {
				out += ","
			}
			out += toDisplayString(r, ta.GetElement(i))
		}
		return value.String(out), nil
	})
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func installDataView(r *realm) {
	r.dataViewProto = object.New(r.tbl, r.objectProto, "DataView")

	ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Constructor DataView requires 'new'")
		}
		buf, ok := argObject(args, 0)
		bufPtr, ok2 := buf.(*object.ArrayBuffer)
		if !ok || !ok2 {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "First argument to DataView constructor must be an ArrayBuffer")
		}
		byteOffset := 0
		if len(args) > 1 {
			byteOffset = int(args[1].ToFloat64())
		}
		trackLength := len(args) < 3 || args[2].IsUndefined()
		byteLength := 0
		if !trackLength {
			byteLength = int(args[2].ToFloat64())
		} else {
			byteLength = len(bufPtr.Bytes) - byteOffset
		}
		return value.FromObject(object.NewDataView(r.tbl, r.dataViewProto, bufPtr, byteOffset, byteLength, trackLength)), nil
	}
	ctor := object.NewNativeFunction(r.tbl, r.functionProto, "DataView", 1, ctorFn)
	ctor.Construct = ctorFn
	r.define(ctor.Base(), "prototype", value.FromObject(r.dataViewProto))
	r.defineFrozen(r.dataViewProto, "constructor", value.FromObject(ctor))

	asView := func(this value.Value) (*object.DataView, bool) {
		d, ok := this.Object().(*object.DataView)
		return d, this.IsObject() && ok
	}
	r.accessor(r.dataViewProto, "byteLength", func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		d, ok := asView(this)
		if !ok {
			return value.Number(0), nil
		}
		return value.Number(float64(d.ByteLength())), nil
	})
	r.accessor(r.dataViewProto, "buffer", func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		d, ok := asView(this)
		if !ok {
			return value.Undefined, nil
		}
		return value.FromObject(d.Buffer), nil
	})

	for _, kind := range typedArrayKinds {
		installDataViewAccessors(r, kind)
	}
}

// installDataViewAccessors wires getInt8/setInt8, getUint16/setUint16, etc.
// for one element kind onto DataView.prototype, each delegating to a
// scratch TypedArray view of the same bytes so the byte-level encode/decode
// logic lives in exactly one place (internal/object/typedarray.go).
func installDataViewAccessors(r *realm, kind object.ElementKind) {
	suffix := kind.Name()
	suffix = suffix[:len(suffix)-len("Array")]
	size := kind.Size()

	r.method(r.dataViewProto, "get"+suffix, 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		d, ok := this.Object().(*object.DataView)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "get"+suffix+" called on incompatible receiver")
		}
		byteOffset := 0
		if len(args) > 0 {
			byteOffset = int(args[0].ToFloat64())
		}
		if byteOffset < 0 || byteOffset+size > d.ByteLength() {
			return value.Value{}, throwErr(ctxOf(realmArg), "RangeError", "Offset is outside the bounds of the DataView")
		}
		view := object.NewTypedArray(r.tbl, r.typedArrProto, d.Buffer, kind, d.ByteOffset+byteOffset, 1, false)
		return view.GetElement(0), nil
	})
	r.method(r.dataViewProto, "set"+suffix, 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		d, ok := this.Object().(*object.DataView)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "set"+suffix+" called on incompatible receiver")
		}
		byteOffset := 0
		if len(args) > 0 {
			byteOffset = int(args[0].ToFloat64())
		}
		if byteOffset < 0 || byteOffset+size > d.ByteLength() {
			return value.Value{}, throwErr(ctxOf(realmArg), "RangeError", "Offset is outside the bounds of the DataView")
		}
		view := object.NewTypedArray(r.tbl, r.typedArrProto, d.Buffer, kind, d.ByteOffset+byteOffset, 1, false)
		view.SetElement(0, coerceElement(kind, firstArg(args[min(1, len(args)):])))
		return value.Undefined, nil
	})
}
