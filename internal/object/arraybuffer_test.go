package object

import (
	"testing"

	"github.com/cwbudde/ecmago/internal/atom"
)

func TestArrayBufferDetach(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	b := NewArrayBuffer(tbl, nil, 8)
	b.Detach()
	if !b.Detached {
		t.Fatalf("expected buffer detached")
	}
	if b.Bytes != nil {
		t.Fatalf("expected detached buffer bytes to be nil")
	}
}

func TestSharedArrayBufferCannotBeDetached(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	b := NewSharedArrayBuffer(tbl, nil, 8)
	b.Detach()
	if b.Detached {
		t.Fatalf("expected SharedArrayBuffer.Detach to be a no-op")
	}
}

func TestResizableArrayBufferGrowZeroFills(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	b := NewResizableArrayBuffer(tbl, nil, 2, 8)
	b.Bytes[0], b.Bytes[1] = 0xff, 0xff

	if !b.Resize(6) {
		t.Fatalf("expected resize within MaxLength to succeed")
	}
	if len(b.Bytes) != 6 {
		t.Fatalf("expected length 6, got %d", len(b.Bytes))
	}
	for i := 2; i < 6; i++ {
		if b.Bytes[i] != 0 {
			t.Fatalf("expected newly exposed byte %d to be zero-filled, got %x", i, b.Bytes[i])
		}
	}
}

func TestResizableArrayBufferRejectsOverMaxLength(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	b := NewResizableArrayBuffer(tbl, nil, 2, 4)
	if b.Resize(5) {
		t.Fatalf("expected resize past MaxLength to fail")
	}
}

func TestSharedArrayBufferGrowOnlyGrows(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	b := NewSharedArrayBuffer(tbl, nil, 4)
	b.Resizable = true
	b.MaxLength = 8

	if !b.Grow(6) {
		t.Fatalf("expected grow to succeed")
	}
	if b.Grow(2) {
		t.Fatalf("expected grow to a smaller length to fail")
	}
}

func TestArrayBufferTransferDetachesOriginal(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	b := NewArrayBuffer(tbl, nil, 4)
	b.Bytes[0] = 0xAB

	out := b.Transfer(tbl, nil, 4, true)
	if !b.Detached {
		t.Fatalf("expected original buffer detached after transfer")
	}
	if out.Bytes[0] != 0xAB {
		t.Fatalf("expected transferred buffer to carry over original bytes")
	}
}
