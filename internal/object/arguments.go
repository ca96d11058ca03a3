package object

import (
	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

// Arguments is the exotic arguments object created for every non-arrow
// function call (spec §4.3). In non-strict mode it aliases indexed
// positions to the mapped formal parameters until either side is redefined
// with a non-writable data descriptor, at which point the alias is
// severed; in strict mode there is no parameter mapping and `callee`/
// `caller` are accessors that throw.
type Arguments struct {
	*Object
	Strict bool
	// mapped holds, for each still-aliased argument index, a pointer to the
	// call frame's local parameter slot. A nil entry at index i means the
	// alias for that index has been severed (or never existed, e.g. index
	// >= formal parameter count).
	mapped []*value.Value
}

// NewArguments builds the arguments object for one call. formalSlots are
// pointers into the VM's local-variable array for each formal parameter;
// len(formalSlots) may be less than len(args) (extra actual arguments) or
// more (missing actual arguments map to nil aliasing, like any unmapped
// index).
func NewArguments(tbl *atom.Table, proto JSObject, args []value.Value, formalSlots []*value.Value, strict bool, callee value.Value) *Arguments {
	a := &Arguments{Object: New(tbl, proto, "Arguments"), Strict: strict}
	a.SetSelf(a)

	a.mapped = make([]*value.Value, len(args))
	for i, v := range args {
		a.Object.props.set(IndexKey(uint32(i)), DataDescriptor(v, true, true, true))
		if !strict && i < len(formalSlots) {
			a.mapped[i] = formalSlots[i]
		}
	}
	a.Object.props.set(AtomKey(atom.Length), DataDescriptor(value.Number(float64(len(args))), true, false, true))

	if strict {
		thrower := value.Undefined // filled in by the builtin initializer with a %ThrowTypeError% function
		a.Object.props.set(calleeAtom(tbl), AccessorDescriptor(thrower, thrower, false, false))
		a.Object.props.set(AtomKey(tbl.Intern("caller")), AccessorDescriptor(thrower, thrower, false, false))
	} else {
		a.Object.props.set(calleeAtom(tbl), DataDescriptor(callee, true, false, true))
	}
	return a
}

func calleeAtom(tbl *atom.Table) Key { return AtomKey(tbl.Intern("callee")) }

// SetCalleeThrower installs the shared %ThrowTypeError% function as the
// callee/caller accessor once the built-in initializer has created it; this
// two-step construction mirrors how ordinary function objects bootstrap
// their own shared thrower before any user function exists to reference it.
func (a *Arguments) SetCalleeThrower(thrower value.Value) {
	if !a.Strict {
		return
	}
	a.Object.props.set(calleeAtom(a.Tbl), AccessorDescriptor(thrower, thrower, false, false))
	a.Object.props.set(AtomKey(a.Tbl.Intern("caller")), AccessorDescriptor(thrower, thrower, false, false))
}

// Get overrides the ordinary algorithm only for mapped indices: reading an
// aliased index must reflect the live parameter value, not the snapshot
// taken at construction.
func (a *Arguments) Get(key Key, receiver value.Value, call Invoker) (value.Value, *OpError) {
	if !a.Strict && key.IsIndex() && int(key.Index()) < len(a.mapped) && a.mapped[key.Index()] != nil {
		return *a.mapped[key.Index()], nil
	}
	return a.Object.Get(key, receiver, call)
}

// Set mirrors Get: writing a still-mapped index writes through to the
// parameter slot as well as the arguments object's own storage.
func (a *Arguments) Set(key Key, v value.Value, receiver value.Value, call Invoker) (bool, *OpError) {
	if !a.Strict && key.IsIndex() && int(key.Index()) < len(a.mapped) && a.mapped[key.Index()] != nil {
		*a.mapped[key.Index()] = v
	}
	return a.Object.Set(key, v, receiver, call)
}

// DefineOwnProperty severs the parameter alias whenever an index is
// redefined as a non-writable data descriptor (or any accessor), per the
// MapArgumentsGetOwnProperty/DefineOwnProperty algorithm (spec §4.3).
func (a *Arguments) DefineOwnProperty(key Key, desc Descriptor) (bool, *OpError) {
	ok, err := a.Object.DefineOwnProperty(key, desc)
	if !ok || err != nil {
		return ok, err
	}
	if !a.Strict && key.IsIndex() && int(key.Index()) < len(a.mapped) && a.mapped[key.Index()] != nil {
		if desc.IsAccessor() || (desc.HasWritable && !desc.Writable) {
			a.mapped[key.Index()] = nil
		} else if desc.HasValue {
			*a.mapped[key.Index()] = desc.Value
		}
	}
	return true, nil
}
