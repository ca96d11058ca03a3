package vm

import (
	"math"
	"strconv"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/bytecode"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// toPrimitive implements OrdinaryToPrimitive for object operands (spec
// §4.5 "Abstract Equality vs SameValue-except-for-zero" and the generic
// numeric-coercion note): try valueOf then toString (no hint support yet,
// object.OpError signals a non-function valueOf/toString as a TypeError).
func (vm *VM) toPrimitive(v value.Value) (value.Value, *object.OpError) {
	if !v.IsObject() {
		return v, nil
	}
	obj, ok := v.Object().(object.JSObject)
	if !ok {
		return v, nil
	}
	for _, name := range [...]atom.Atom{atom.ValueOf, atom.ToString} {
		fn, err := obj.Get(object.AtomKey(name), v, vm.Invoke)
		if err != nil {
			return value.Value{}, err
		}
		if !fn.IsObject() {
			continue
		}
		if _, ok := fn.Object().(object.Callable); !ok {
			continue
		}
		result, callErr := vm.Call(fn, v, nil, value.Value{})
		if callErr != nil {
			return value.Value{}, callErr
		}
		if !result.IsObject() {
			return result, nil
		}
	}
	return value.Value{}, &object.OpError{Kind: "TypeError", Message: "cannot convert object to primitive value"}
}

// toNumber implements ToNumber (spec §3/§4.5): numbers pass through,
// booleans/undefined/null map to their fixed values, strings parse (empty
// or whitespace-only strings are 0, unparsable strings are NaN), objects go
// through toPrimitive first.
func (vm *VM) toNumber(v value.Value) (float64, *object.OpError) {
	switch v.Kind() {
	case value.KindNumber:
		return v.ToFloat64(), nil
	case value.KindBoolean:
		if v.ToBool() {
			return 1, nil
		}
		return 0, nil
	case value.KindUndefined:
		return math.NaN(), nil
	case value.KindNull:
		return 0, nil
	case value.KindString:
		return stringToNumber(v.ToGoString()), nil
	case value.KindBigInt:
		return 0, &object.OpError{Kind: "TypeError", Message: "cannot convert a BigInt to a number"}
	default:
		prim, err := vm.toPrimitive(v)
		if err != nil {
			return 0, err
		}
		return vm.toNumber(prim)
	}
}

func stringToNumber(s string) float64 {
	trimmed := trimJSWhitespace(s)
	if trimmed == "" {
		return 0
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func trimJSWhitespace(s string) string {
	start, end := 0, len(s)
	isSpace := func(b byte) bool {
		return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
	}
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

// toStringCoerce implements ToString for the subset of kinds the VM's key
// and concatenation paths need. An object is not run through toPrimitive
// here: it renders as its class name (binaryArith applies toPrimitive to
// its operands before calling this; keyOf does not).
func toStringCoerce(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		return v.ToGoString()
	case value.KindNumber:
		return formatNumber(v.ToFloat64())
	case value.KindBoolean:
		if v.ToBool() {
			return "true"
		}
		return "false"
	case value.KindUndefined:
		return "undefined"
	case value.KindNull:
		return "null"
	case value.KindSymbol:
		return "Symbol(" + v.Symbol().Description + ")"
	default:
		if obj, ok := v.Object().(object.JSObject); ok {
			return obj.ClassName()
		}
		return "[object Object]"
	}
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// binaryArith pops the right then left operand and applies op (spec §4.5
// arithmetic opcodes), with the one ECMAScript special case: '+' on two
// strings (after ToPrimitive) concatenates instead of adding numerically.
func (vm *VM) binaryArith(op bytecode.OpCode) (value.Value, *object.OpError) {
	r := vm.pop()
	l := vm.pop()

	if op == bytecode.OpAdd {
		lp, err := vm.toPrimitive(l)
		if err != nil {
			return value.Value{}, err
		}
		rp, err := vm.toPrimitive(r)
		if err != nil {
			return value.Value{}, err
		}
		if lp.IsString() || rp.IsString() {
			return value.String(toStringCoerce(lp) + toStringCoerce(rp)), nil
		}
		l, r = lp, rp
	}

	ln, err := vm.toNumber(l)
	if err != nil {
		return value.Value{}, err
	}
	rn, err := vm.toNumber(r)
	if err != nil {
		return value.Value{}, err
	}

	switch op {
	case bytecode.OpAdd:
		return value.Number(ln + rn), nil
	case bytecode.OpSub:
		return value.Number(ln - rn), nil
	case bytecode.OpMul:
		return value.Number(ln * rn), nil
	case bytecode.OpDiv:
		return value.Number(ln / rn), nil
	case bytecode.OpMod:
		return value.Number(math.Mod(ln, rn)), nil
	case bytecode.OpExp:
		return value.Number(math.Pow(ln, rn)), nil
	case bytecode.OpBitAnd:
		return value.Number(float64(toInt32(ln) & toInt32(rn))), nil
	case bytecode.OpBitOr:
		return value.Number(float64(toInt32(ln) | toInt32(rn))), nil
	case bytecode.OpBitXor:
		return value.Number(float64(toInt32(ln) ^ toInt32(rn))), nil
	case bytecode.OpShl:
		return value.Number(float64(toInt32(ln) << (toUint32(rn) & 31))), nil
	case bytecode.OpShr:
		return value.Number(float64(toInt32(ln) >> (toUint32(rn) & 31))), nil
	case bytecode.OpUShr:
		return value.Number(float64(toUint32(ln) >> (toUint32(rn) & 31))), nil
	default:
		return value.Value{}, &object.OpError{Kind: "TypeError", Message: "unsupported arithmetic operator"}
	}
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return uint32(int64(f))
}

func abstractEquals(l, r value.Value) bool {
	if l.Kind() == r.Kind() {
		return strictEquals(l, r)
	}
	if l.IsNullish() && r.IsNullish() {
		return true
	}
	if l.IsNullish() || r.IsNullish() {
		return false
	}
	if l.IsNumber() && r.IsString() {
		return l.ToFloat64() == stringToNumber(r.ToGoString())
	}
	if l.IsString() && r.IsNumber() {
		return stringToNumber(l.ToGoString()) == r.ToFloat64()
	}
	if l.IsBoolean() {
		b := 0.0
		if l.ToBool() {
			b = 1
		}
		return abstractEquals(value.Number(b), r)
	}
	if r.IsBoolean() {
		b := 0.0
		if r.ToBool() {
			b = 1
		}
		return abstractEquals(l, value.Number(b))
	}
	return false
}

// strictEquals implements the '===' operator (spec §4.1 SameValueZero vs
// ±0/NaN note: strict equality treats +0 and -0 as equal and NaN as
// unequal to itself, distinct from SameValue used by Object.is).
func strictEquals(l, r value.Value) bool {
	if l.Kind() != r.Kind() {
		return false
	}
	switch l.Kind() {
	case value.KindUndefined, value.KindNull:
		return true
	case value.KindBoolean:
		return l.ToBool() == r.ToBool()
	case value.KindNumber:
		return l.ToFloat64() == r.ToFloat64()
	case value.KindString:
		return l.ToGoString() == r.ToGoString()
	case value.KindSymbol:
		return l.Symbol() == r.Symbol()
	case value.KindObject:
		return l.Object() == r.Object()
	default:
		return false
	}
}

// compare implements the relational operators (spec §4.5): string operands
// compare lexicographically by UTF-16 code unit; anything else goes through
// ToNumber, and a NaN operand makes every relational comparison false.
func (vm *VM) compare(op bytecode.OpCode) (value.Value, *object.OpError) {
	r := vm.pop()
	l := vm.pop()

	lp, err := vm.toPrimitive(l)
	if err != nil {
		return value.Value{}, err
	}
	rp, err := vm.toPrimitive(r)
	if err != nil {
		return value.Value{}, err
	}

	if lp.IsString() && rp.IsString() {
		lu, ru := lp.StringUnits(), rp.StringUnits()
		c := len(lu) - len(ru)
		for i := 0; i < len(lu) && i < len(ru); i++ {
			if lu[i] != ru[i] {
				c = int(lu[i]) - int(ru[i])
				break
			}
		}
		var result bool
		switch op {
		case bytecode.OpLess:
			result = c < 0
		case bytecode.OpLessEq:
			result = c <= 0
		case bytecode.OpGreater:
			result = c > 0
		case bytecode.OpGreaterEq:
			result = c >= 0
		}
		return value.Bool(result), nil
	}

	ln, err := vm.toNumber(lp)
	if err != nil {
		return value.Value{}, err
	}
	rn, err := vm.toNumber(rp)
	if err != nil {
		return value.Value{}, err
	}
	if math.IsNaN(ln) || math.IsNaN(rn) {
		return value.Bool(false), nil
	}
	var result bool
	switch op {
	case bytecode.OpLess:
		result = ln < rn
	case bytecode.OpLessEq:
		result = ln <= rn
	case bytecode.OpGreater:
		result = ln > rn
	case bytecode.OpGreaterEq:
		result = ln >= rn
	}
	return value.Bool(result), nil
}

// SameValueZero matches Map/Set key equality (±0 coalesce, NaN equals
// itself) — exposed for collection built-ins built on this VM's Invoker.
func SameValueZero(l, r value.Value) bool {
	if l.Kind() != r.Kind() {
		return false
	}
	if l.Kind() == value.KindNumber {
		lf, rf := l.ToFloat64(), r.ToFloat64()
		if math.IsNaN(lf) && math.IsNaN(rf) {
			return true
		}
		return lf == rf
	}
	return strictEquals(l, r)
}
