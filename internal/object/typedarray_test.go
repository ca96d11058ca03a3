package object

import (
	"math"
	"math/big"
	"testing"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

func TestTypedArrayGetSetRoundTrip(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	buf := NewArrayBuffer(tbl, nil, 16)
	ta := NewTypedArray(tbl, nil, buf, ElemInt32, 0, 4, false)

	ta.SetElement(1, value.Number(-7))
	if got := ta.GetElement(1); got.ToFloat64() != -7 {
		t.Fatalf("expected -7, got %v", got.ToFloat64())
	}
}

func TestTypedArrayOutOfBoundsReadIsUndefined(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	buf := NewArrayBuffer(tbl, nil, 4)
	ta := NewTypedArray(tbl, nil, buf, ElemInt32, 0, 1, false)

	v := ta.GetElement(5)
	if !v.IsUndefined() {
		t.Fatalf("expected undefined for out-of-bounds read, got %v", v)
	}
}

func TestTypedArrayOutOfBoundsWriteIsNoop(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	buf := NewArrayBuffer(tbl, nil, 4)
	ta := NewTypedArray(tbl, nil, buf, ElemInt32, 0, 1, false)

	ta.SetElement(9, value.Number(1)) // must not panic
}

func TestTypedArrayWriteAfterDetachIsIgnored(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	buf := NewArrayBuffer(tbl, nil, 8)
	ta := NewTypedArray(tbl, nil, buf, ElemInt32, 0, 2, false)

	buf.Detach()
	ta.SetElement(0, value.Number(42)) // must not panic despite nil Bytes
	if v := ta.GetElement(0); !v.IsUndefined() {
		t.Fatalf("expected undefined read on detached buffer, got %v", v)
	}
}

func TestTypedArrayLengthTrackingRecomputesOnGrow(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	buf := NewResizableArrayBuffer(tbl, nil, 4, 16)
	ta := NewTypedArray(tbl, nil, buf, ElemUint8, 0, 0, true)

	if got := ta.Length(); got != 4 {
		t.Fatalf("expected tracking length 4, got %d", got)
	}
	buf.Resize(10)
	if got := ta.Length(); got != 10 {
		t.Fatalf("expected tracking length to follow resize to 10, got %d", got)
	}
}

func TestTypedArrayUint8ClampedClamps(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	buf := NewArrayBuffer(tbl, nil, 2)
	ta := NewTypedArray(tbl, nil, buf, ElemUint8Clamped, 0, 2, false)

	ta.SetElement(0, value.Number(999))
	ta.SetElement(1, value.Number(-50))
	if got := ta.GetElement(0).ToFloat64(); got != 255 {
		t.Fatalf("expected clamp to 255, got %v", got)
	}
	if got := ta.GetElement(1).ToFloat64(); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

func TestTypedArrayBigInt64RoundTrip(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	buf := NewArrayBuffer(tbl, nil, 8)
	ta := NewTypedArray(tbl, nil, buf, ElemBigInt64, 0, 1, false)

	ta.SetElement(0, value.BigInt(big.NewInt(-123456789)))
	got := ta.GetElement(0)
	if !got.IsBigInt() || got.ToBigInt().Int64() != -123456789 {
		t.Fatalf("expected round-tripped bigint, got %v", got)
	}
}

func TestFloat16RoundTrip(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	buf := NewArrayBuffer(tbl, nil, 2)
	ta := NewTypedArray(tbl, nil, buf, ElemFloat16, 0, 1, false)

	ta.SetElement(0, value.Number(1.5))
	got := ta.GetElement(0).ToFloat64()
	if math.Abs(got-1.5) > 1e-3 {
		t.Fatalf("expected ~1.5, got %v", got)
	}
}

func TestTypedArrayGetOwnPropertyShapeIsFixed(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	buf := NewArrayBuffer(tbl, nil, 4)
	ta := NewTypedArray(tbl, nil, buf, ElemUint8, 0, 4, false)
	ta.SetElement(0, value.Number(7))

	desc, ok := ta.GetOwnProperty(IndexKey(0))
	if !ok {
		t.Fatalf("expected in-bounds index to have an own property")
	}
	if !desc.Writable || !desc.Enumerable || !desc.Configurable {
		t.Fatalf("expected {writable,enumerable,configurable}=true, got %+v", desc)
	}
}
