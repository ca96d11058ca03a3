package object

import (
	"testing"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

func TestArrayLengthGrowsOnIndexAssignment(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	a := NewArray(tbl, nil)

	a.DefineOwnProperty(IndexKey(3), DataDescriptor(value.Number(9), true, true, true))

	if got := a.length(); got != 4 {
		t.Fatalf("expected length 4, got %d", got)
	}
}

func TestArrayLengthTruncationStopsAtNonConfigurableIndex(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	a := NewArray(tbl, nil)

	a.DefineOwnProperty(IndexKey(0), DataDescriptor(value.Number(0), true, true, true))
	a.DefineOwnProperty(IndexKey(1), DataDescriptor(value.Number(1), true, true, false)) // non-configurable
	a.DefineOwnProperty(IndexKey(2), DataDescriptor(value.Number(2), true, true, true))

	ok, err := a.DefineOwnProperty(a.lengthKey(), Descriptor{Value: value.Number(0), HasValue: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected truncation past a non-configurable index to report failure")
	}
	if got := a.length(); got != 2 {
		t.Fatalf("expected length clamped to 2, got %d", got)
	}
	if _, exists := a.Object.props.get(IndexKey(1)); !exists {
		t.Fatalf("expected index 1 (non-configurable) to survive truncation")
	}
	if _, exists := a.Object.props.get(IndexKey(2)); exists {
		t.Fatalf("expected index 2 to be deleted by truncation")
	}
}

func TestArrayRejectsInvalidLength(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	a := NewArray(tbl, nil)

	_, err := a.DefineOwnProperty(a.lengthKey(), Descriptor{Value: value.Number(1.5), HasValue: true})
	if err == nil {
		t.Fatalf("expected fractional length to be rejected")
	}
}

func TestIsArray(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	a := NewArray(tbl, nil)
	o := New(tbl, nil, "Object")

	if !IsArray(a) {
		t.Fatalf("expected NewArray result to report IsArray")
	}
	if IsArray(o) {
		t.Fatalf("expected ordinary object to not report IsArray")
	}
}
