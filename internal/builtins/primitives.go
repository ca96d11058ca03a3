package builtins

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// installPrimitiveWrappers builds the String/Number/Boolean/Symbol/BigInt
// constructors and their prototype method surfaces. None of these need an
// exotic object of their own (spec §4.3's exotic list is Array/Arguments/
// typed data/Proxy/bound functions — a boxed primitive is an ordinary
// object whose [[PrimitiveValue]] this engine keeps as an own, hidden
// "[[primitive]]" property rather than a dedicated Go struct field, since
// nothing else needs to special-case it).
func installPrimitiveWrappers(r *realm) {
	primKey := r.key("[[primitive]]")

	installBoxed := func(name string, proto *object.Object, coerce func(value.Value) value.Value, methods func(*realm, object.JSObject)) object.JSObject {
		ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
			var v value.Value
			if len(args) > 0 {
				v = coerce(args[0])
			} else {
				v = coerce(value.Undefined)
			}
			if newTarget.IsUndefined() {
				return v, nil
			}
			boxed := object.New(r.tbl, proto, name)
			boxed.DefineOwnProperty(primKey, object.DataDescriptor(v, false, false, false))
			return value.FromObject(boxed), nil
		}
		ctor := object.NewNativeFunction(r.tbl, r.functionProto, name, 1, ctorFn)
		ctor.Construct = ctorFn
		r.define(ctor.Base(), "prototype", value.FromObject(proto))
		r.defineFrozen(proto, "constructor", value.FromObject(ctor))
		methods(r, proto)
		r.define(r.global, name, value.FromObject(ctor))
		return ctor.Base()
	}

	r.stringProto = object.New(r.tbl, r.objectProto, "String")
	installBoxed("String", r.stringProto.Base(), func(v value.Value) value.Value {
		if v.IsUndefined() {
			return value.String("")
		}
		return value.String(v.ToGoString())
	}, installStringProtoMethods)

	r.numberProto = object.New(r.tbl, r.objectProto, "Number")
	numberCtorBase := installBoxed("Number", r.numberProto.Base(), func(v value.Value) value.Value {
		if v.IsUndefined() {
			return value.Number(0)
		}
		return value.Number(v.ToFloat64())
	}, installNumberProtoMethods)
	installNumberStatics(r, numberCtorBase)

	r.booleanProto = object.New(r.tbl, r.objectProto, "Boolean")
	installBoxed("Boolean", r.booleanProto.Base(), func(v value.Value) value.Value {
		return value.Bool(v.ToBool())
	}, func(r *realm, proto object.JSObject) {
		r.method(proto, "toString", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
			return value.String(strconv.FormatBool(primitiveValueOf(this, primKey).ToBool())), nil
		})
		r.method(proto, "valueOf", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
			return primitiveValueOf(this, primKey), nil
		})
	})

	r.symbolProto = object.New(r.tbl, r.objectProto, "Symbol")
	symbolCtorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if !newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Symbol is not a constructor")
		}
		desc := ""
		has := false
		if len(args) > 0 && !args[0].IsUndefined() {
			desc, has = args[0].ToGoString(), true
		}
		return value.NewSymbol(desc, has), nil
	}
	symbolCtor := object.NewNativeFunction(r.tbl, r.functionProto, "Symbol", 0, symbolCtorFn)
	r.define(symbolCtor.Base(), "prototype", value.FromObject(r.symbolProto))
	r.defineFrozen(r.symbolProto, "constructor", value.FromObject(symbolCtor))
	r.method(r.symbolProto, "toString", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if !this.IsSymbol() {
			return value.String("Symbol()"), nil
		}
		sym := this.Symbol()
		if sym.HasDesc {
			return value.String("Symbol(" + sym.Description + ")"), nil
		}
		return value.String("Symbol()"), nil
	})
	r.define(r.global, "Symbol", value.FromObject(symbolCtor))

	bigIntCtorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if !newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "BigInt is not a constructor")
		}
		if len(args) == 0 {
			return value.BigInt(big.NewInt(0)), nil
		}
		if args[0].IsBigInt() {
			return args[0], nil
		}
		if args[0].IsNumber() {
			f := args[0].ToFloat64()
			if f != math.Trunc(f) {
				return value.Value{}, throwErr(ctxOf(realmArg), "RangeError", "The number is not a safe integer")
			}
			return value.BigInt(big.NewInt(int64(f))), nil
		}
		n, ok := new(big.Int).SetString(strings.TrimSpace(args[0].ToGoString()), 10)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "SyntaxError", "Cannot convert string to a BigInt")
		}
		return value.BigInt(n), nil
	}
	bigIntCtor := object.NewNativeFunction(r.tbl, r.functionProto, "BigInt", 1, bigIntCtorFn)
	r.define(r.global, "BigInt", value.FromObject(bigIntCtor))
}

func primitiveValueOf(this value.Value, primKey object.Key) value.Value {
	if this.IsObject() {
		if obj, ok := this.Object().(object.JSObject); ok {
			if d, ok := obj.GetOwnProperty(primKey); ok {
				return d.Value
			}
		}
		return value.Undefined
	}
	return this
}

func installStringProtoMethods(r *realm, proto object.JSObject) {
	primKey := r.key("[[primitive]]")
	asString := func(this value.Value) string {
		if this.IsString() {
			return this.ToGoString()
		}
		return primitiveValueOf(this, primKey).ToGoString()
	}
	r.method(proto, "toString", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.String(asString(this)), nil
	})
	r.method(proto, "valueOf", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.String(asString(this)), nil
	})
	r.method(proto, "charAt", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s := []rune(asString(this))
		i := 0
		if len(args) > 0 {
			i = int(args[0].ToFloat64())
		}
		if i < 0 || i >= len(s) {
			return value.String(""), nil
		}
		return value.String(string(s[i])), nil
	})
	r.method(proto, "indexOf", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s := asString(this)
		sub := ""
		if len(args) > 0 {
			sub = args[0].ToGoString()
		}
		return value.Number(float64(strings.Index(s, sub))), nil
	})
	r.method(proto, "includes", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s := asString(this)
		sub := ""
		if len(args) > 0 {
			sub = args[0].ToGoString()
		}
		return value.Bool(strings.Contains(s, sub)), nil
	})
	r.method(proto, "slice", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		runes := []rune(asString(this))
		start, end := sliceRange(len(runes), args)
		if start > end {
			return value.String(""), nil
		}
		return value.String(string(runes[start:end])), nil
	})
	r.method(proto, "split", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s := asString(this)
		if len(args) == 0 || args[0].IsUndefined() {
			return value.FromObject(r.newArray([]value.Value{value.String(s)})), nil
		}
		sep := args[0].ToGoString()
		var parts []string
		if sep == "" {
			for _, ch := range s {
				parts = append(parts, string(ch))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.String(p)
		}
		return value.FromObject(r.newArray(out)), nil
	})
	r.method(proto, "toUpperCase", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.String(strings.ToUpper(asString(this))), nil
	})
	r.method(proto, "toLowerCase", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.String(strings.ToLower(asString(this))), nil
	})
	r.method(proto, "trim", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.String(strings.TrimSpace(asString(this))), nil
	})
	r.method(proto, "replace", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s := asString(this)
		if len(args) < 2 {
			return value.String(s), nil
		}
		return value.String(strings.Replace(s, args[0].ToGoString(), args[1].ToGoString(), 1)), nil
	})
	r.method(proto, "replaceAll", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s := asString(this)
		if len(args) < 2 {
			return value.String(s), nil
		}
		return value.String(strings.ReplaceAll(s, args[0].ToGoString(), args[1].ToGoString())), nil
	})
	r.method(proto, "padStart", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.String(padString(asString(this), args, true)), nil
	})
	r.method(proto, "padEnd", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.String(padString(asString(this), args, false)), nil
	})
	r.method(proto, "repeat", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		n := 0
		if len(args) > 0 {
			n = int(args[0].ToFloat64())
		}
		if n < 0 {
			return value.Value{}, throwErr(ctxOf(realmArg), "RangeError", "Invalid count value")
		}
		return value.String(strings.Repeat(asString(this), n)), nil
	})
	r.method(proto, "startsWith", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		sub := ""
		if len(args) > 0 {
			sub = args[0].ToGoString()
		}
		return value.Bool(strings.HasPrefix(asString(this), sub)), nil
	})
	r.method(proto, "endsWith", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		sub := ""
		if len(args) > 0 {
			sub = args[0].ToGoString()
		}
		return value.Bool(strings.HasSuffix(asString(this), sub)), nil
	})
	r.method(proto, "concat", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		out := asString(this)
		for _, a := range args {
			out += a.ToGoString()
		}
		return value.String(out), nil
	})
}

func padString(s string, args []value.Value, atStart bool) string {
	target := 0
	if len(args) > 0 {
		target = int(args[0].ToFloat64())
	}
	pad := " "
	if len(args) > 1 && !args[1].IsUndefined() {
		pad = args[1].ToGoString()
	}
	if pad == "" || len([]rune(s)) >= target {
		return s
	}
	need := target - len([]rune(s))
	var b strings.Builder
	for b.Len() < need {
		b.WriteString(pad)
	}
	padding := []rune(b.String())[:need]
	if atStart {
		return string(padding) + s
	}
	return s + string(padding)
}

func installNumberProtoMethods(r *realm, proto object.JSObject) {
	primKey := r.key("[[primitive]]")
	asNumber := func(this value.Value) float64 {
		if this.IsNumber() {
			return this.ToFloat64()
		}
		return primitiveValueOf(this, primKey).ToFloat64()
	}
	r.method(proto, "toString", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		f := asNumber(this)
		base := 10
		if len(args) > 0 && !args[0].IsUndefined() {
			base = int(args[0].ToFloat64())
		}
		if base == 10 {
			return value.String(strconv.FormatFloat(f, 'g', -1, 64)), nil
		}
		return value.String(strconv.FormatInt(int64(f), base)), nil
	})
	r.method(proto, "valueOf", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.Number(asNumber(this)), nil
	})
	r.method(proto, "toFixed", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		digits := 0
		if len(args) > 0 {
			digits = int(args[0].ToFloat64())
		}
		return value.String(strconv.FormatFloat(asNumber(this), 'f', digits, 64)), nil
	})
}

func installNumberStatics(r *realm, ctor object.JSObject) {
	r.defineFrozen(ctor, "MAX_SAFE_INTEGER", value.Number(9007199254740991))
	r.defineFrozen(ctor, "MIN_SAFE_INTEGER", value.Number(-9007199254740991))
	r.defineFrozen(ctor, "MAX_VALUE", value.Number(math.MaxFloat64))
	r.defineFrozen(ctor, "MIN_VALUE", value.Number(5e-324))
	r.defineFrozen(ctor, "EPSILON", value.Number(2.220446049250313e-16))
	r.defineFrozen(ctor, "POSITIVE_INFINITY", value.Number(math.Inf(1)))
	r.defineFrozen(ctor, "NEGATIVE_INFINITY", value.Number(math.Inf(-1)))
	r.defineFrozen(ctor, "NaN", value.Number(math.NaN()))
	r.method(ctor, "isInteger", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if len(args) == 0 || !args[0].IsNumber() {
			return value.Bool(false), nil
		}
		f := args[0].ToFloat64()
		return value.Bool(!math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)), nil
	})
	r.method(ctor, "isFinite", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if len(args) == 0 || !args[0].IsNumber() {
			return value.Bool(false), nil
		}
		f := args[0].ToFloat64()
		return value.Bool(!math.IsNaN(f) && !math.IsInf(f, 0)), nil
	})
	r.method(ctor, "isNaN", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.Bool(len(args) > 0 && args[0].IsNumber() && math.IsNaN(args[0].ToFloat64())), nil
	})
	r.method(ctor, "parseFloat", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.Number(parseFloatLoose(argString(args, 0))), nil
	})
	r.method(ctor, "parseInt", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		radix := 10
		if len(args) > 1 && !args[1].IsUndefined() {
			radix = int(args[1].ToFloat64())
		}
		return value.Number(parseIntLoose(argString(args, 0), radix)), nil
	})
}

func argString(args []value.Value, i int) string {
	if i >= len(args) {
		return ""
	}
	return args[i].ToGoString()
}
