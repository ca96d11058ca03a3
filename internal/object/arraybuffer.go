package object

import (
	"github.com/cwbudde/ecmago/internal/atom"
)

// ArrayBuffer is the fixed, resizable, or growable backing store for typed
// arrays and DataViews (spec §4.3). Detach(), Resize() and Grow() are the
// only mutating operations on the buffer identity itself; element reads/writes
// go through TypedArray/DataView, which consult Detached before touching
// Bytes.
type ArrayBuffer struct {
	*Object
	Bytes      []byte
	Detached   bool
	Resizable  bool
	MaxLength  int // only meaningful when Resizable
	Shared     bool
}

func NewArrayBuffer(tbl *atom.Table, proto JSObject, length int) *ArrayBuffer {
	b := &ArrayBuffer{Object: New(tbl, proto, "ArrayBuffer"), Bytes: make([]byte, length)}
	b.SetSelf(b)
	return b
}

func NewResizableArrayBuffer(tbl *atom.Table, proto JSObject, length, maxLength int) *ArrayBuffer {
	b := NewArrayBuffer(tbl, proto, length)
	b.Resizable = true
	b.MaxLength = maxLength
	return b
}

func NewSharedArrayBuffer(tbl *atom.Table, proto JSObject, length int) *ArrayBuffer {
	b := NewArrayBuffer(tbl, proto, length)
	b.Shared = true
	return b
}

// Detach marks the buffer unusable; every live view's reads become
// undefined and writes become no-ops (spec §3 Lifecycle). SharedArrayBuffer
// is never detachable — callers must not call Detach on one.
func (b *ArrayBuffer) Detach() {
	if b.Shared {
		return
	}
	b.Detached = true
	b.Bytes = nil
}

// Resize changes a resizable (non-shared) buffer's length in place,
// zero-filling any newly exposed bytes (spec §4.3 ArrayBuffer). It reports
// false if newLen exceeds MaxLength or the buffer is not resizable.
func (b *ArrayBuffer) Resize(newLen int) bool {
	if !b.Resizable || b.Detached || newLen < 0 || newLen > b.MaxLength {
		return false
	}
	if newLen <= len(b.Bytes) {
		b.Bytes = b.Bytes[:newLen]
		return true
	}
	grown := make([]byte, newLen)
	copy(grown, b.Bytes)
	b.Bytes = grown
	return true
}

// Grow grows a SharedArrayBuffer; unlike Resize it can only increase length
// (spec §4.3 SharedArrayBuffer, "grow only").
func (b *ArrayBuffer) Grow(newLen int) bool {
	if !b.Shared || !b.Resizable || newLen < len(b.Bytes) || newLen > b.MaxLength {
		return false
	}
	grown := make([]byte, newLen)
	copy(grown, b.Bytes)
	b.Bytes = grown
	return true
}

// Transfer implements ArrayBuffer.prototype.transfer /
// transferToFixedLength: detaches this buffer and returns a new buffer
// owning the same bytes (resizable iff toFixedLength is false and this
// buffer was resizable).
func (b *ArrayBuffer) Transfer(tbl *atom.Table, proto JSObject, newLen int, toFixedLength bool) *ArrayBuffer {
	bytes := make([]byte, newLen)
	copy(bytes, b.Bytes)
	b.Detach()

	out := &ArrayBuffer{Object: New(tbl, proto, "ArrayBuffer"), Bytes: bytes}
	out.SetSelf(out)
	if !toFixedLength && b.Resizable {
		out.Resizable = true
		out.MaxLength = b.MaxLength
	}
	return out
}
