package object

import (
	"testing"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

func TestArgumentsAliasesMappedParameterNonStrict(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	param0 := value.Number(1)
	slots := []*value.Value{&param0}

	a := NewArguments(tbl, nil, []value.Value{value.Number(1)}, slots, false, value.Undefined)

	// Writing through the arguments object must update the aliased slot.
	ok, err := a.Set(IndexKey(0), value.Number(99), value.FromObject(a), noopInvoker)
	if !ok || err != nil {
		t.Fatalf("unexpected Set failure: ok=%v err=%v", ok, err)
	}
	if param0.ToFloat64() != 99 {
		t.Fatalf("expected aliased slot updated to 99, got %v", param0.ToFloat64())
	}

	// Writing the slot directly must be visible through Get.
	param0 = value.Number(7)
	v, err := a.Get(IndexKey(0), value.FromObject(a), noopInvoker)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ToFloat64() != 7 {
		t.Fatalf("expected live alias to read 7, got %v", v.ToFloat64())
	}
}

func TestArgumentsAliasSeveredByNonWritableRedefine(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	param0 := value.Number(1)
	slots := []*value.Value{&param0}
	a := NewArguments(tbl, nil, []value.Value{value.Number(1)}, slots, false, value.Undefined)

	a.DefineOwnProperty(IndexKey(0), Descriptor{
		Value: value.Number(5), HasValue: true, Writable: false, HasWritable: true,
	})

	param0 = value.Number(123)
	v, _ := a.Get(IndexKey(0), value.FromObject(a), noopInvoker)
	if v.ToFloat64() != 5 {
		t.Fatalf("expected severed alias to keep its own value 5, got %v", v.ToFloat64())
	}
}

func TestArgumentsStrictHasNoAliasing(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	param0 := value.Number(1)
	slots := []*value.Value{&param0}
	a := NewArguments(tbl, nil, []value.Value{value.Number(1)}, slots, true, value.Undefined)

	a.Set(IndexKey(0), value.Number(99), value.FromObject(a), noopInvoker)
	if param0.ToFloat64() != 1 {
		t.Fatalf("expected strict-mode arguments to never alias parameters, slot changed to %v", param0.ToFloat64())
	}
}
