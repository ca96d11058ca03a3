package atom

// Well-known atoms and symbol ids are assigned fixed, stable positions the
// moment a Table is created, ahead of anything the compiler or a script can
// intern. This lets the VM and the built-in initializer refer to them as
// untyped constants instead of threading a lookup through the runtime on
// every property access (spec §4.1).
const (
	Empty Atom = iota + reservedStart
	Length
	Name
	Message
	Stack
	Prototype
	Constructor
	Value
	Done
	Next
	Return_
	Throw_
	Get_
	Set_
	ToString
	ValueOf
)

// reservedStart leaves index 0 (the zero Atom, meaning "absent") free.
const reservedStart = 1

var reservedWords = []string{
	Empty:       "",
	Length:      "length",
	Name:        "name",
	Message:     "message",
	Stack:       "stack",
	Prototype:   "prototype",
	Constructor: "constructor",
	Value:       "value",
	Done:        "done",
	Next:        "next",
	Return_:     "return",
	Throw_:      "throw",
	Get_:        "get",
	Set_:        "set",
	ToString:    "toString",
	ValueOf:     "valueOf",
}

// WellKnownSymbol identifies one of the fixed-identity symbols ES requires
// (spec §4.1). Unlike ordinary Symbols (internal/value), these never carry
// a per-Runtime description and always compare equal across contexts of the
// same Runtime.
type WellKnownSymbol int

const (
	SymIterator WellKnownSymbol = iota
	SymAsyncIterator
	SymToStringTag
	SymToPrimitive
	SymHasInstance
	SymIsConcatSpreadable
	SymSpecies
	SymMatch
	SymMatchAll
	SymReplace
	SymSearch
	SymSplit
	SymUnscopables
	SymDispose
	SymAsyncDispose

	symCount
)

// SymbolCount is the number of well-known symbols, letting other packages
// size a per-symbol array without reaching into the unexported sentinel.
const SymbolCount = int(symCount)

var wellKnownSymbolNames = [symCount]string{
	SymIterator:           "Symbol.iterator",
	SymAsyncIterator:      "Symbol.asyncIterator",
	SymToStringTag:        "Symbol.toStringTag",
	SymToPrimitive:        "Symbol.toPrimitive",
	SymHasInstance:        "Symbol.hasInstance",
	SymIsConcatSpreadable: "Symbol.isConcatSpreadable",
	SymSpecies:            "Symbol.species",
	SymMatch:              "Symbol.match",
	SymMatchAll:           "Symbol.matchAll",
	SymReplace:            "Symbol.replace",
	SymSearch:             "Symbol.search",
	SymSplit:              "Symbol.split",
	SymUnscopables:        "Symbol.unscopables",
	SymDispose:            "Symbol.dispose",
	SymAsyncDispose:       "Symbol.asyncDispose",
}

// Description returns the spec-mandated description of a well-known symbol,
// e.g. "Symbol.iterator".
func (s WellKnownSymbol) Description() string {
	if s < 0 || int(s) >= int(symCount) {
		return "Symbol()"
	}
	return wellKnownSymbolNames[s]
}

// NewTableWithReserved builds a Table with the fixed reserved words already
// interned at their documented ids, so code can refer to e.g. atom.Length
// without a Table in hand.
func NewTableWithReserved() *Table {
	t := NewTable()
	for i, w := range reservedWords {
		if i == 0 {
			continue
		}
		a := t.Intern(w)
		if a != Atom(i) {
			// Reserved words must land at their documented index; a
			// mismatch here means reservedWords and the const block above
			// drifted apart.
			panic("atom: reserved word table out of sync")
		}
	}
	return t
}
