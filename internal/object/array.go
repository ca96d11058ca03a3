package object

import (
	"math"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

// Array is the exotic Array object (spec §4.3). It stores elements in the
// ordinary property store like any other indexed property, but maintains
// the invariant that the "length" own property always equals one more than
// the greatest own integer-indexed property key. The only operation that
// needs its own logic is DefineOwnProperty (the length-must-not-shrink-past-
// a-non-configurable-index case); everything else — Get, Set, Has, Delete,
// OwnKeys — is inherited from *Object unchanged.
type Array struct {
	*Object
}

// NewArray allocates an empty Array with the given prototype (normally
// Array.prototype) and its length initialized to 0.
func NewArray(tbl *atom.Table, proto JSObject) *Array {
	a := &Array{Object: New(tbl, proto, "Array")}
	a.SetSelf(a)
	a.Object.props.set(AtomKey(atom.Length), DataDescriptor(value.Number(0), true, false, false))
	return a
}

func (a *Array) lengthKey() Key { return AtomKey(atom.Length) }

// length reads the current length property directly (it is always present
// and always a Number by construction).
func (a *Array) length() uint32 {
	d, _ := a.Object.props.get(a.lengthKey())
	return uint32(d.Value.ToFloat64())
}

// DefineOwnProperty implements ArraySetLength plus the ordinary index path
// (spec §4.3, Array). Defining "length" to a smaller value deletes higher
// indices in descending order until a non-configurable index blocks
// further truncation, at which point length is clamped to one past that
// index (spec §3 Invariants, and scenario 2 in spec §8).
func (a *Array) DefineOwnProperty(key Key, desc Descriptor) (bool, *OpError) {
	if key == a.lengthKey() {
		return a.defineLength(desc)
	}
	if key.IsIndex() {
		ok, err := a.Object.DefineOwnProperty(key, desc)
		if err != nil || !ok {
			return ok, err
		}
		if key.Index() >= a.length() {
			newLen := key.Index() + 1
			a.Object.props.set(a.lengthKey(), DataDescriptor(value.Number(float64(newLen)), true, false, false))
		}
		return true, nil
	}
	return a.Object.DefineOwnProperty(key, desc)
}

func (a *Array) defineLength(desc Descriptor) (bool, *OpError) {
	lenDesc, _ := a.Object.props.get(a.lengthKey())
	if !desc.HasValue {
		merged, ok := validateAndApply(&lenDesc, a.extensible, desc)
		if !ok {
			return false, nil
		}
		a.Object.props.set(a.lengthKey(), merged)
		return true, nil
	}

	newLen, ok := toArrayLength(desc.Value)
	if !ok {
		return false, typeErr("invalid array length")
	}
	oldLen := a.length()

	if !lenDesc.Writable && newLen != oldLen {
		return false, nil
	}

	if newLen >= oldLen {
		d := desc
		d.Value = value.Number(float64(newLen))
		merged, okApply := validateAndApply(&lenDesc, a.extensible, d)
		if !okApply {
			return false, nil
		}
		a.Object.props.set(a.lengthKey(), merged)
		return true, nil
	}

	// Shrinking: delete indices in descending order from oldLen-1 down to
	// newLen. Stop (and clamp) at the first non-configurable index.
	newWritable := lenDesc.Writable
	finalLen := newLen
	for idx := oldLen; idx > newLen; idx-- {
		k := IndexKey(idx - 1)
		if d, exists := a.Object.props.get(k); exists {
			if !d.Configurable {
				finalLen = idx
				newWritable = false
				break
			}
			a.Object.props.delete(k)
		}
	}

	lenDesc.Value = value.Number(float64(finalLen))
	lenDesc.Writable = newWritable
	a.Object.props.set(a.lengthKey(), lenDesc)
	return finalLen == newLen, nil
}

// toArrayLength implements ToUint32 plus the additional ES ArraySetLength
// check that the value's ToNumber result equals its ToUint32 result
// exactly (rejecting e.g. 1.5 or -1 as a length).
func toArrayLength(v value.Value) (uint32, bool) {
	if !v.IsNumber() {
		return 0, false
	}
	f := v.ToFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	u := uint32(f)
	if float64(u) != f {
		return 0, false
	}
	return u, true
}

// IsArray reports the ECMAScript IsArray check. Array.prototype.concat's
// fallback for @@isConcatSpreadable, and Array.isArray itself, use this;
// the @@isConcatSpreadable override (when present) is resolved by the
// caller via an ordinary Get, since that needs the VM's Invoker to run a
// possible accessor.
func IsArray(o JSObject) bool {
	_, ok := o.(*Array)
	return ok
}
