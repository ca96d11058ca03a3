package object

import "github.com/cwbudde/ecmago/internal/value"

// Descriptor is a PropertyDescriptor (spec §3). It models both of ES's two
// mutually-exclusive shapes — data {value, writable} and accessor
// {get, set} — in a single struct, with a "Has*" bit per field so that
// DefineOwnProperty can distinguish "this flag was specified as false" from
// "this flag was not specified at all", which is what ES's Partial
// Descriptor merge (spec §4.2 defineOwnProperty) depends on.
type Descriptor struct {
	Value      value.Value
	Get        value.Value // an object Value (callable) or Undefined
	Set        value.Value
	Writable   bool
	Enumerable bool
	Configurable bool

	HasValue        bool
	HasGet          bool
	HasSet          bool
	HasWritable     bool
	HasEnumerable   bool
	HasConfigurable bool
}

// IsAccessor reports whether this descriptor describes an accessor property
// (get/set specified) rather than a data property.
func (d Descriptor) IsAccessor() bool { return d.HasGet || d.HasSet }

// IsData reports whether this descriptor describes a data property. A
// descriptor with neither value/writable nor get/set specified (a "generic"
// descriptor, e.g. {enumerable: true} alone) is treated as data-shaped for
// the purposes of the default-descriptor completion below.
func (d Descriptor) IsData() bool { return !d.IsAccessor() }

// DataDescriptor builds a fully-specified data descriptor, the shape a
// normal property-store insert (`obj.x = 1`) uses.
func DataDescriptor(v value.Value, writable, enumerable, configurable bool) Descriptor {
	return Descriptor{
		Value: v, Writable: writable, Enumerable: enumerable, Configurable: configurable,
		HasValue: true, HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	}
}

// AccessorDescriptor builds a fully-specified accessor descriptor.
func AccessorDescriptor(get, set value.Value, enumerable, configurable bool) Descriptor {
	return Descriptor{
		Get: get, Set: set, Enumerable: enumerable, Configurable: configurable,
		HasGet: true, HasSet: true, HasEnumerable: true, HasConfigurable: true,
	}
}

// completeWithDefaults fills in ES's CompletePropertyDescriptor defaults
// (false/undefined) for any field the caller did not specify. Used only
// when creating a brand-new own property via DefineOwnProperty; merges
// against an *existing* descriptor never call this.
func completeWithDefaults(d Descriptor) Descriptor {
	if d.IsAccessor() {
		if !d.HasGet {
			d.Get = value.Undefined
		}
		if !d.HasSet {
			d.Set = value.Undefined
		}
	} else {
		if !d.HasValue {
			d.Value = value.Undefined
		}
		if !d.HasWritable {
			d.Writable = false
		}
	}
	if !d.HasEnumerable {
		d.Enumerable = false
	}
	if !d.HasConfigurable {
		d.Configurable = false
	}
	return d
}

// validateAndApply implements ValidateAndApplyPropertyDescriptor (ES 10.1.6.3)
// for the ordinary, extensible-object case. current is nil when the
// property does not yet exist. It returns the descriptor to store (with
// defaults/merges applied) and whether the operation is allowed.
func validateAndApply(current *Descriptor, extensible bool, desc Descriptor) (Descriptor, bool) {
	if current == nil {
		if !extensible {
			return Descriptor{}, false
		}
		return completeWithDefaults(desc), true
	}

	// No-op fast path: nothing in desc differs from current.
	if !current.Configurable {
		if desc.HasConfigurable && desc.Configurable {
			return Descriptor{}, false
		}
		if desc.HasEnumerable && desc.Enumerable != current.Enumerable {
			return Descriptor{}, false
		}
		switchingKind := desc.IsAccessor() != current.IsAccessor() &&
			(desc.HasValue || desc.HasWritable || desc.HasGet || desc.HasSet)
		if switchingKind {
			return Descriptor{}, false
		}
		if !current.IsAccessor() {
			if !current.Writable {
				if desc.HasWritable && desc.Writable {
					return Descriptor{}, false
				}
				if desc.HasValue && !value.SameValue(desc.Value, current.Value) {
					return Descriptor{}, false
				}
			}
		} else {
			if desc.HasGet && !value.SameValue(desc.Get, current.Get) {
				return Descriptor{}, false
			}
			if desc.HasSet && !value.SameValue(desc.Set, current.Set) {
				return Descriptor{}, false
			}
		}
	}

	merged := *current
	switchingKind := desc.IsAccessor() != current.IsAccessor() &&
		(desc.HasValue || desc.HasWritable || desc.HasGet || desc.HasSet)
	if switchingKind {
		if desc.IsAccessor() {
			merged = Descriptor{Get: value.Undefined, Set: value.Undefined, HasGet: true, HasSet: true}
		} else {
			merged = Descriptor{Value: value.Undefined, Writable: false, HasValue: true, HasWritable: true}
		}
		merged.Enumerable = current.Enumerable
		merged.Configurable = current.Configurable
		merged.HasEnumerable = true
		merged.HasConfigurable = true
	}

	if desc.HasValue {
		merged.Value, merged.HasValue = desc.Value, true
	}
	if desc.HasWritable {
		merged.Writable, merged.HasWritable = desc.Writable, true
	}
	if desc.HasGet {
		merged.Get, merged.HasGet = desc.Get, true
	}
	if desc.HasSet {
		merged.Set, merged.HasSet = desc.Set, true
	}
	if desc.HasEnumerable {
		merged.Enumerable, merged.HasEnumerable = desc.Enumerable, true
	}
	if desc.HasConfigurable {
		merged.Configurable, merged.HasConfigurable = desc.Configurable, true
	}
	return merged, true
}
