// Package object implements the ordinary ECMAScript object model (spec §3,
// §4.2) and its exotic specializations (§4.3): arrays, typed arrays, array
// buffers, proxies, bound functions, the arguments object, and the
// collection types. It generalizes the teacher's property-store and
// class-hierarchy machinery (internal/interp/runtime in go-dws) from a
// class-based field map to ES's descriptor-based, prototype-chained model.
package object

import (
	"fmt"
	"strconv"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

// KeyKind discriminates the three PropertyKey shapes spec §3 allows.
type KeyKind uint8

const (
	KeyAtom KeyKind = iota
	KeyIndex
	KeySymbol
)

// Key is a PropertyKey: a string atom, a non-negative array index, or a
// symbol. It is comparable and usable as a Go map key, which backs the
// property store's O(1) lookup.
type Key struct {
	kind KeyKind
	a    atom.Atom
	idx  uint32
	sym  *value.Symbol
}

func AtomKey(a atom.Atom) Key  { return Key{kind: KeyAtom, a: a} }
func IndexKey(i uint32) Key    { return Key{kind: KeyIndex, idx: i} }
func SymbolKey(s *value.Symbol) Key { return Key{kind: KeySymbol, sym: s} }

func (k Key) Kind() KeyKind    { return k.kind }
func (k Key) Atom() atom.Atom  { return k.a }
func (k Key) Index() uint32    { return k.idx }
func (k Key) Symbol() *value.Symbol { return k.sym }

func (k Key) IsIndex() bool  { return k.kind == KeyIndex }
func (k Key) IsSymbol() bool { return k.kind == KeySymbol }

// maxArrayIndex is 2^32-2, the largest value ToUint32 allows for an array
// index (2^32-1 is reserved to mean "not an index", spec Array.length note).
const maxArrayIndex = 1<<32 - 2

// ToKey converts a property-access Value (already ToPropertyKey-coerced to
// string or symbol by the VM) into the canonical Key: array index strings
// (see CanonicalIndex) collapse to KeyIndex so array element
// access and property-store access agree on identity.
func ToKey(tbl *atom.Table, v value.Value) Key {
	if v.IsSymbol() {
		return SymbolKey(v.Symbol())
	}
	s := v.ToGoString()
	if idx, ok := CanonicalIndex(s); ok {
		return IndexKey(idx)
	}
	return AtomKey(tbl.Intern(s))
}

// CanonicalIndex reports whether s is an array index string, the canonical
// decimal form of an integer in [0, 2^32-2] (no sign, leading zero or
// fraction, so "-0" and "1.5" are rejected), and, if so, returns it as a
// uint32.
func CanonicalIndex(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	if s == "0" {
		return 0, true
	}
	if s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n > maxArrayIndex {
		return 0, false
	}
	if strconv.FormatUint(n, 10) != s {
		return 0, false
	}
	return uint32(n), true
}

// KeyToValue renders a Key back to the Value a [[Get]] trap or Reflect.ownKeys
// entry reports it as.
func KeyToValue(tbl *atom.Table, k Key) value.Value {
	switch k.kind {
	case KeyIndex:
		return value.String(strconv.FormatUint(uint64(k.idx), 10))
	case KeySymbol:
		return value.WrapSymbol(k.sym)
	default:
		return value.String(tbl.String(k.a))
	}
}

func (k Key) String(tbl *atom.Table) string {
	switch k.kind {
	case KeyIndex:
		return strconv.FormatUint(uint64(k.idx), 10)
	case KeySymbol:
		if k.sym.HasDesc {
			return fmt.Sprintf("Symbol(%s)", k.sym.Description)
		}
		return "Symbol()"
	default:
		return tbl.String(k.a)
	}
}
