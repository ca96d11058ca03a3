package object

import (
	"testing"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

func TestNativeFunctionNameAndLength(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	fn := NewNativeFunction(tbl, nil, "concat", 2, func(realm any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *OpError) {
		return value.Undefined, nil
	})

	name, _ := fn.GetOwnProperty(AtomKey(atom.Name))
	if name.Value.ToGoString() != "concat" {
		t.Fatalf("expected name %q, got %v", "concat", name.Value)
	}
	length, _ := fn.GetOwnProperty(AtomKey(atom.Length))
	if length.Value.ToFloat64() != 2 {
		t.Fatalf("expected length 2, got %v", length.Value)
	}
	if fn.IsConstructor() {
		t.Fatalf("expected a function with no Construct to report not-constructor")
	}
}

func TestBoundFunctionDerivesNameAndLength(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	target := NewNativeFunction(tbl, nil, "greet", 3, func(realm any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *OpError) {
		return value.Undefined, nil
	})
	target.Construct = target.Fn

	bound := NewBoundFunction(tbl, nil, target, value.Undefined, []value.Value{value.Number(1)}, noopInvoker)

	name, _ := bound.GetOwnProperty(AtomKey(atom.Name))
	if name.Value.ToGoString() != "bound greet" {
		t.Fatalf("expected name %q, got %v", "bound greet", name.Value)
	}
	length, _ := bound.GetOwnProperty(AtomKey(atom.Length))
	if length.Value.ToFloat64() != 2 {
		t.Fatalf("expected length 3-1=2, got %v", length.Value)
	}
	if !bound.IsConstructor() {
		t.Fatalf("expected bound function to inherit constructibility from target")
	}
}

func TestBoundFunctionCallArgsPrependsBoundPrefix(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	target := NewNativeFunction(tbl, nil, "f", 0, nil)
	bound := NewBoundFunction(tbl, nil, target, value.Undefined, []value.Value{value.Number(1), value.Number(2)}, noopInvoker)

	args := bound.CallArgs([]value.Value{value.Number(3)})
	if len(args) != 3 || args[0].ToFloat64() != 1 || args[1].ToFloat64() != 2 || args[2].ToFloat64() != 3 {
		t.Fatalf("expected [1,2,3], got %v", args)
	}
}
