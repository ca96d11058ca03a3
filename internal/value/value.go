// Package value implements the tagged Value union described in spec §3: the
// seven ECMAScript language types (Undefined, Null, Boolean, Number, BigInt,
// String, Symbol) plus a handle to a heap object. A Value carries no
// methods of its own — behavior is dispatched by Kind, and for objects, by
// the object's own exotic-class discriminant (internal/object).
package value

import (
	"math"
	"math/big"
)

// Kind discriminates the member of the Value union that is populated.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindBigInt
	KindString
	KindSymbol
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindBigInt:
		return "bigint"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Object is implemented by internal/object.Object. Declared here (rather
// than imported) to break the import cycle: object.Object embeds Value
// fields, and Value needs to hold an Object handle.
type Object interface {
	// ClassName reports the exotic-class discriminant, e.g. "Array",
	// "Proxy", "Arguments" — used by IsArray/IsCallable-style queries and
	// by Object.prototype.toString's [[Class]] fallback.
	ClassName() string
}

// Value is a small value type: copying it copies the tag and, for Number,
// the float64 payload inline. Strings, BigInts, Symbols and Objects are
// reference payloads boxed behind the ref field so Value stays four words
// (tag, float64, two-word interface).
type Value struct {
	kind Kind
	num  float64 // populated when kind == KindNumber or KindBoolean (0/1)
	ref  any     // *big.Int | *StringData | *Symbol | Object, per kind
}

// StringData is the immutable UTF-16 backing of a JS string. Values of this
// type are never mutated after construction; String.prototype methods
// always return a fresh StringData.
type StringData struct {
	units []uint16
}

// Symbol is a unique, optionally-described ECMAScript symbol. Two Symbol
// values are the same ECMAScript symbol iff they are the same *Symbol
// pointer — there is deliberately no value-equality for Symbol.
type Symbol struct {
	Description string
	HasDesc     bool
}

var (
	Undefined = Value{kind: KindUndefined}
	Null      = Value{kind: KindNull}
	True      = Value{kind: KindBoolean, num: 1}
	False     = Value{kind: KindBoolean, num: 0}
)

// Kind reports which member of the union is populated.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsNullish() bool   { return v.kind == KindUndefined || v.kind == KindNull }
func (v Value) IsBoolean() bool   { return v.kind == KindBoolean }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) IsBigInt() bool    { return v.kind == KindBigInt }
func (v Value) IsString() bool    { return v.kind == KindString }
func (v Value) IsSymbol() bool    { return v.kind == KindSymbol }
func (v Value) IsObject() bool    { return v.kind == KindObject }

// Bool constructs a Boolean Value.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Number constructs a Number Value. NaN, +/-Infinity and +/-0 are all
// preserved as distinct IEEE-754 double bit patterns, per spec §3.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// BigInt constructs a BigInt Value from an arbitrary-precision integer. The
// supplied *big.Int is copied, so the Value does not retain it.
func BigInt(i *big.Int) Value {
	cp := new(big.Int).Set(i)
	return Value{kind: KindBigInt, ref: cp}
}

// String constructs a String Value from a Go (UTF-8) string, converting it
// to the UTF-16 code-unit sequence ECMAScript strings are defined over.
func String(s string) Value {
	return Value{kind: KindString, ref: &StringData{units: UTF8ToUTF16(s)}}
}

// StringFromUnits constructs a String Value directly from UTF-16 code
// units, e.g. when splicing two strings without a UTF-8 round trip.
func StringFromUnits(units []uint16) Value {
	cp := make([]uint16, len(units))
	copy(cp, units)
	return Value{kind: KindString, ref: &StringData{units: cp}}
}

// NewSymbol constructs a fresh, globally-unique Symbol Value.
func NewSymbol(description string, hasDesc bool) Value {
	return Value{kind: KindSymbol, ref: &Symbol{Description: description, HasDesc: hasDesc}}
}

// WrapSymbol rewraps an existing *Symbol identity as a Value, used when a
// property key already holds the *Symbol (internal/object.Key) and needs to
// be reported back out as a Value, e.g. from Reflect.ownKeys.
func WrapSymbol(s *Symbol) Value {
	return Value{kind: KindSymbol, ref: s}
}

// FromObject wraps a heap object handle as an object Value.
func FromObject(o Object) Value {
	return Value{kind: KindObject, ref: o}
}

// ToBool returns the boolean payload of a Boolean Value. Callers must check
// IsBoolean first; it panics otherwise, matching the teacher's convention of
// failing fast on a misuse of its typed accessors rather than silently
// coercing.
func (v Value) ToBool() bool {
	if v.kind != KindBoolean {
		panic("value: ToBool on non-boolean Value")
	}
	return v.num != 0
}

// ToFloat64 returns the Number payload. Panics if Kind() != KindNumber.
func (v Value) ToFloat64() float64 {
	if v.kind != KindNumber {
		panic("value: ToFloat64 on non-number Value")
	}
	return v.num
}

// ToBigInt returns the BigInt payload. Panics if Kind() != KindBigInt.
func (v Value) ToBigInt() *big.Int {
	if v.kind != KindBigInt {
		panic("value: ToBigInt on non-bigint Value")
	}
	return v.ref.(*big.Int)
}

// StringUnits returns the UTF-16 code units of a String Value. Panics if
// Kind() != KindString.
func (v Value) StringUnits() []uint16 {
	if v.kind != KindString {
		panic("value: StringUnits on non-string Value")
	}
	return v.ref.(*StringData).units
}

// ToGoString renders a String Value back to UTF-8 for host-side use (error
// messages, console output). Lone surrogates are replaced with U+FFFD.
func (v Value) ToGoString() string {
	if v.kind != KindString {
		panic("value: ToGoString on non-string Value")
	}
	return UTF16ToUTF8(v.ref.(*StringData).units)
}

// Symbol returns the *Symbol payload. Panics if Kind() != KindSymbol.
func (v Value) Symbol() *Symbol {
	if v.kind != KindSymbol {
		panic("value: Symbol on non-symbol Value")
	}
	return v.ref.(*Symbol)
}

// Object returns the object handle. Panics if Kind() != KindObject.
func (v Value) Object() Object {
	if v.kind != KindObject {
		panic("value: Object on non-object Value")
	}
	return v.ref.(Object)
}

// SameValueZero implements the SameValueZero algorithm: identical to
// SameValue except +0 and -0 compare equal. This is what Map/Set/includes
// key comparison uses.
func SameValueZero(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return a.num == b.num
	case KindNumber:
		if math.IsNaN(a.num) && math.IsNaN(b.num) {
			return true
		}
		return a.num == b.num
	case KindBigInt:
		return a.ref.(*big.Int).Cmp(b.ref.(*big.Int)) == 0
	case KindString:
		return sameUnits(a.ref.(*StringData).units, b.ref.(*StringData).units)
	case KindSymbol:
		return a.ref.(*Symbol) == b.ref.(*Symbol)
	case KindObject:
		return a.ref.(Object) == b.ref.(Object)
	}
	return false
}

// SameValue implements the SameValue algorithm used by ===-adjacent
// internal operations (Object.is, property-key comparison): like
// SameValueZero but +0 and -0 are distinct.
func SameValue(a, b Value) bool {
	if a.kind == KindNumber && b.kind == KindNumber {
		if a.num == 0 && b.num == 0 {
			return math.Signbit(a.num) == math.Signbit(b.num)
		}
	}
	return SameValueZero(a, b)
}

// StrictEquals implements the === operator: SameValueZero except that
// NaN !== NaN (+0 === -0 holds under both; spec §4.5,
// "SameValue-except-for-zero").
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindNumber {
		if math.IsNaN(a.num) || math.IsNaN(b.num) {
			return false
		}
		return a.num == b.num
	}
	return SameValueZero(a, b)
}

func sameUnits(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TypeOf implements the `typeof` operator, with the spec-mandated special
// case that callable objects report "function" rather than "object". The
// isCallable predicate is supplied by the caller (internal/object) to avoid
// a dependency cycle.
func TypeOf(v Value, isCallable func(Object) bool) string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindBigInt:
		return "bigint"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindObject:
		if isCallable != nil && isCallable(v.ref.(Object)) {
			return "function"
		}
		return "object"
	}
	return "undefined"
}
