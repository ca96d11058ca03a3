package object

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

// ElementKind identifies one member of the TypedArray family (spec §1,
// "the full TypedArray/DataView integer-indexed exotic semantics").
type ElementKind uint8

const (
	ElemInt8 ElementKind = iota
	ElemUint8
	ElemUint8Clamped
	ElemInt16
	ElemUint16
	ElemInt32
	ElemUint32
	ElemFloat16
	ElemFloat32
	ElemFloat64
	ElemBigInt64
	ElemBigUint64
)

// Size reports the element's byte width, used to compute BYTES_PER_ELEMENT
// and to step through the backing buffer.
func (k ElementKind) Size() int {
	switch k {
	case ElemInt8, ElemUint8, ElemUint8Clamped:
		return 1
	case ElemInt16, ElemUint16, ElemFloat16:
		return 2
	case ElemInt32, ElemUint32, ElemFloat32:
		return 4
	case ElemFloat64, ElemBigInt64, ElemBigUint64:
		return 8
	}
	return 1
}

// IsBigIntKind reports whether elements of this kind convert via ToBigInt
// rather than ToNumber (spec §4.3, TypedArray).
func (k ElementKind) IsBigIntKind() bool { return k == ElemBigInt64 || k == ElemBigUint64 }

func (k ElementKind) Name() string {
	switch k {
	case ElemInt8:
		return "Int8Array"
	case ElemUint8:
		return "Uint8Array"
	case ElemUint8Clamped:
		return "Uint8ClampedArray"
	case ElemInt16:
		return "Int16Array"
	case ElemUint16:
		return "Uint16Array"
	case ElemInt32:
		return "Int32Array"
	case ElemUint32:
		return "Uint32Array"
	case ElemFloat16:
		return "Float16Array"
	case ElemFloat32:
		return "Float32Array"
	case ElemFloat64:
		return "Float64Array"
	case ElemBigInt64:
		return "BigInt64Array"
	case ElemBigUint64:
		return "BigUint64Array"
	}
	return "TypedArray"
}

// TypedArray is an integer-indexed exotic object (spec §4.3). Its indexed
// elements are never stored in the property store; they are synthesized
// from Buffer on every access, always reported as
// {writable:true, enumerable:true, configurable:true}, and [[Get]] on a
// canonical numeric index never consults the prototype chain.
type TypedArray struct {
	*Object
	Buffer        *ArrayBuffer
	Kind          ElementKind
	ByteOffset    int
	length        int  // -1 when length-tracking on a resizable/growable buffer
	byteOrder     binary.ByteOrder
}

func NewTypedArray(tbl *atom.Table, proto JSObject, buf *ArrayBuffer, kind ElementKind, byteOffset, length int, trackLength bool) *TypedArray {
	t := &TypedArray{
		Object: New(tbl, proto, kind.Name()), Buffer: buf, Kind: kind,
		ByteOffset: byteOffset, byteOrder: binary.LittleEndian,
	}
	if trackLength {
		t.length = -1
	} else {
		t.length = length
	}
	t.SetSelf(t)
	return t
}

// Length recomputes length-tracking views on every access, per spec §4.3
// ("Length-tracking views on resizable buffers recompute length/byteLength
// on every access").
func (t *TypedArray) Length() int {
	if t.length >= 0 {
		return t.length
	}
	if t.Buffer.Detached {
		return 0
	}
	avail := len(t.Buffer.Bytes) - t.ByteOffset
	if avail <= 0 {
		return 0
	}
	return avail / t.Kind.Size()
}

func (t *TypedArray) inBounds(i int) bool {
	return !t.Buffer.Detached && i >= 0 && i < t.Length()
}

// GetElement reads the numeric/bigint Value at index i, synthesized from
// the backing buffer. Out-of-bounds reads return undefined, never an
// error (spec §4.3).
func (t *TypedArray) GetElement(i int) value.Value {
	if !t.inBounds(i) {
		return value.Undefined
	}
	off := t.ByteOffset + i*t.Kind.Size()
	b := t.Buffer.Bytes[off : off+t.Kind.Size()]
	switch t.Kind {
	case ElemInt8:
		return value.Number(float64(int8(b[0])))
	case ElemUint8, ElemUint8Clamped:
		return value.Number(float64(b[0]))
	case ElemInt16:
		return value.Number(float64(int16(t.byteOrder.Uint16(b))))
	case ElemUint16:
		return value.Number(float64(t.byteOrder.Uint16(b)))
	case ElemInt32:
		return value.Number(float64(int32(t.byteOrder.Uint32(b))))
	case ElemUint32:
		return value.Number(float64(t.byteOrder.Uint32(b)))
	case ElemFloat16:
		return value.Number(decodeFloat16(t.byteOrder.Uint16(b)))
	case ElemFloat32:
		return value.Number(float64(math.Float32frombits(t.byteOrder.Uint32(b))))
	case ElemFloat64:
		return value.Number(math.Float64frombits(t.byteOrder.Uint64(b)))
	case ElemBigInt64:
		return value.BigInt(new(big.Int).SetInt64(int64(t.byteOrder.Uint64(b))))
	case ElemBigUint64:
		return value.BigInt(new(big.Int).SetUint64(t.byteOrder.Uint64(b)))
	}
	return value.Undefined
}

// SetElement writes an already-coerced numeric (or bigint) Value at index
// i, silently ignoring out-of-bounds writes and detached buffers (spec
// §4.3, and scenario 1 in spec §8). Callers MUST perform ToNumber/ToBigInt
// on the incoming value *before* calling SetElement, since that coercion
// can run arbitrary user code (a valueOf that detaches the buffer) and the
// detached check below must observe its effects, not precede them.
func (t *TypedArray) SetElement(i int, v value.Value) {
	if !t.inBounds(i) {
		return
	}
	off := t.ByteOffset + i*t.Kind.Size()
	b := t.Buffer.Bytes[off : off+t.Kind.Size()]
	switch t.Kind {
	case ElemInt8:
		b[0] = byte(int8(toInt64Saturating(v)))
	case ElemUint8:
		b[0] = byte(toInt64Saturating(v))
	case ElemUint8Clamped:
		b[0] = clampToUint8(v.ToFloat64())
	case ElemInt16:
		t.byteOrder.PutUint16(b, uint16(toInt64Saturating(v)))
	case ElemUint16:
		t.byteOrder.PutUint16(b, uint16(toInt64Saturating(v)))
	case ElemInt32:
		t.byteOrder.PutUint32(b, uint32(toInt64Saturating(v)))
	case ElemUint32:
		t.byteOrder.PutUint32(b, uint32(toInt64Saturating(v)))
	case ElemFloat16:
		t.byteOrder.PutUint16(b, encodeFloat16(v.ToFloat64()))
	case ElemFloat32:
		t.byteOrder.PutUint32(b, math.Float32bits(float32(v.ToFloat64())))
	case ElemFloat64:
		t.byteOrder.PutUint64(b, math.Float64bits(v.ToFloat64()))
	case ElemBigInt64:
		t.byteOrder.PutUint64(b, uint64(v.ToBigInt().Int64()))
	case ElemBigUint64:
		t.byteOrder.PutUint64(b, v.ToBigInt().Uint64())
	}
}

func toInt64Saturating(v value.Value) int64 {
	f := v.ToFloat64()
	if math.IsNaN(f) {
		return 0
	}
	return int64(f)
}

func clampToUint8(f float64) byte {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return byte(math.Round(f))
}

// decodeFloat16/encodeFloat16 implement IEEE-754 binary16, used by
// Float16Array (added to the spec in ES2025 and included here per the
// expanded TypedArray family, spec §1).
func decodeFloat16(bits uint16) float64 {
	sign := uint32(bits>>15) & 1
	exp := uint32(bits>>10) & 0x1f
	frac := uint32(bits) & 0x3ff
	var f32bits uint32
	switch exp {
	case 0:
		if frac == 0 {
			f32bits = sign << 31
		} else {
			for frac&0x400 == 0 {
				frac <<= 1
				exp--
			}
			exp++
			frac &= 0x3ff
			f32bits = (sign << 31) | ((exp + 112) << 23) | (frac << 13)
		}
	case 0x1f:
		f32bits = (sign << 31) | (0xff << 23) | (frac << 13)
	default:
		f32bits = (sign << 31) | ((exp + 112) << 23) | (frac << 13)
	}
	return float64(math.Float32frombits(f32bits))
}

func encodeFloat16(f float64) uint16 {
	f32 := float32(f)
	bits := math.Float32bits(f32)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	frac := bits & 0x7fffff
	switch {
	case exp <= 0:
		return sign
	case exp >= 0x1f:
		return sign | 0x7c00
	default:
		return sign | uint16(exp<<10) | uint16(frac>>13)
	}
}

// GetOwnProperty overrides the ordinary algorithm for canonical numeric
// indices (spec §4.3: "always {writable, enumerable, configurable}... never
// stored in the property store"); any other key falls through to the
// ordinary property store, matching CanonicalNumericIndexString's
// non-canonical fallback (spec §8 invariant list).
func (t *TypedArray) GetOwnProperty(key Key) (Descriptor, bool) {
	if key.IsIndex() {
		if !t.inBounds(int(key.Index())) {
			return Descriptor{}, false
		}
		return DataDescriptor(t.GetElement(int(key.Index())), true, true, true), true
	}
	return t.Object.GetOwnProperty(key)
}

// Get never consults the prototype for a canonical index, even one that is
// currently out of bounds (it returns undefined directly, spec §4.3).
func (t *TypedArray) Get(key Key, receiver value.Value, call Invoker) (value.Value, *OpError) {
	if key.IsIndex() {
		return t.GetElement(int(key.Index())), nil
	}
	return t.Object.Get(key, receiver, call)
}

// DefineOwnProperty accepts only data descriptors matching the fixed
// {writable:true, enumerable:true, configurable:true} shape for canonical
// indices (spec §4.3); value coercion ordering (ToNumber before the bounds
// check) is the VM/builtin caller's responsibility, per SetElement's doc.
func (t *TypedArray) DefineOwnProperty(key Key, desc Descriptor) (bool, *OpError) {
	if key.IsIndex() {
		if desc.IsAccessor() {
			return false, nil
		}
		if desc.HasWritable && !desc.Writable {
			return false, nil
		}
		if desc.HasEnumerable && !desc.Enumerable {
			return false, nil
		}
		if desc.HasConfigurable && !desc.Configurable {
			return false, nil
		}
		if !t.inBounds(int(key.Index())) {
			return false, nil
		}
		if desc.HasValue {
			t.SetElement(int(key.Index()), desc.Value)
		}
		return true, nil
	}
	return t.Object.DefineOwnProperty(key, desc)
}

// OwnKeys reports canonical indices 0..Length()-1 ascending, then the
// ordinary string/symbol keys (spec §4.2 general ownKeys order still
// applies; indices are just synthesized rather than stored).
func (t *TypedArray) OwnKeys() []Key {
	n := t.Length()
	out := make([]Key, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, IndexKey(uint32(i)))
	}
	return append(out, t.Object.OwnKeys()...)
}

// DataView exposes raw, alignment-free reads/writes over an ArrayBuffer
// region (spec §2 row "Binary data"). Unlike TypedArray it has no indexed
// exotic behavior of its own — every accessor (getInt8, setFloat64, ...) is
// a built-in method, so DataView only needs to carry the view geometry.
type DataView struct {
	*Object
	Buffer     *ArrayBuffer
	ByteOffset int
	byteLength int
	trackLength bool
}

func NewDataView(tbl *atom.Table, proto JSObject, buf *ArrayBuffer, byteOffset, byteLength int, trackLength bool) *DataView {
	d := &DataView{Object: New(tbl, proto, "DataView"), Buffer: buf, ByteOffset: byteOffset, byteLength: byteLength, trackLength: trackLength}
	d.SetSelf(d)
	return d
}

func (d *DataView) ByteLength() int {
	if !d.trackLength {
		return d.byteLength
	}
	if d.Buffer.Detached {
		return 0
	}
	avail := len(d.Buffer.Bytes) - d.ByteOffset
	if avail < 0 {
		return 0
	}
	return avail
}
