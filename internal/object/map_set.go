package object

import (
	"math"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

// mapEntry is one (key, value) pair of a Map, kept in insertion order so
// iteration and Map.prototype.forEach observe ES's required order.
type mapEntry struct {
	key   value.Value
	val   value.Value
	alive bool
}

// hashOf produces a comparable Go value two Values hash identically to
// under SameValueZero — which is exactly the key-equality Map/Set/
// WeakMap/WeakSet use (spec §4.6 Glossary references, §3 collections).
func hashOf(v value.Value) any {
	switch v.Kind() {
	case value.KindUndefined:
		return struct{ k int }{0}
	case value.KindNull:
		return struct{ k int }{1}
	case value.KindBoolean:
		return v.ToBool()
	case value.KindNumber:
		f := v.ToFloat64()
		if math.IsNaN(f) {
			return struct{ k int }{2} // every NaN hashes identically (SameValueZero)
		}
		if f == 0 {
			f = 0 // +0 and -0 hash identically under SameValueZero
		}
		return f
	case value.KindBigInt:
		return v.ToBigInt().String()
	case value.KindString:
		return v.ToGoString()
	case value.KindSymbol:
		return v.Symbol()
	default:
		return v.Object()
	}
}

// MapData is the ES Map's backing store (spec §2 "Collections: Map, Set").
type MapData struct {
	*Object
	entries []mapEntry
	index   map[any]int
}

func NewMap(tbl *atom.Table, proto JSObject) *MapData {
	m := &MapData{Object: New(tbl, proto, "Map"), index: make(map[any]int)}
	m.SetSelf(m)
	return m
}

func (m *MapData) Get(k value.Value) (value.Value, bool) {
	if i, ok := m.index[hashOf(k)]; ok && m.entries[i].alive {
		return m.entries[i].val, true
	}
	return value.Undefined, false
}

func (m *MapData) Set(k, v value.Value) {
	h := hashOf(k)
	if i, ok := m.index[h]; ok && m.entries[i].alive {
		m.entries[i].val = v
		return
	}
	m.index[h] = len(m.entries)
	m.entries = append(m.entries, mapEntry{key: k, val: v, alive: true})
}

func (m *MapData) Has(k value.Value) bool {
	i, ok := m.index[hashOf(k)]
	return ok && m.entries[i].alive
}

func (m *MapData) Delete(k value.Value) bool {
	h := hashOf(k)
	i, ok := m.index[h]
	if !ok || !m.entries[i].alive {
		return false
	}
	m.entries[i].alive = false
	delete(m.index, h)
	return true
}

func (m *MapData) Clear() {
	m.entries = nil
	m.index = make(map[any]int)
}

// Size reports the live (non-deleted) entry count, the value of the `size`
// accessor.
func (m *MapData) Size() int {
	n := 0
	for _, e := range m.entries {
		if e.alive {
			n++
		}
	}
	return n
}

// ForEach calls fn(key, value) for every live entry in insertion order.
// Entries deleted by fn during iteration are skipped; entries added by fn
// during iteration are visited too (a live ES Map/Set guarantee), because
// the range below re-reads m.entries' length each iteration.
func (m *MapData) ForEach(fn func(k, v value.Value)) {
	for i := 0; i < len(m.entries); i++ {
		if m.entries[i].alive {
			fn(m.entries[i].key, m.entries[i].val)
		}
	}
}

// SetData is the ES Set's backing store, a MapData whose "value" is always
// equal to its key (spec §2 "Collections: ... Set").
type SetData struct {
	*Object
	backing *MapData
}

func NewSet(tbl *atom.Table, proto JSObject) *SetData {
	s := &SetData{Object: New(tbl, proto, "Set"), backing: &MapData{index: make(map[any]int)}}
	s.SetSelf(s)
	return s
}

func (s *SetData) Add(v value.Value)      { s.backing.Set(v, v) }
func (s *SetData) Has(v value.Value) bool { return s.backing.Has(v) }
func (s *SetData) Delete(v value.Value) bool { return s.backing.Delete(v) }
func (s *SetData) Clear()                 { s.backing.Clear() }
func (s *SetData) Size() int              { return s.backing.Size() }
func (s *SetData) ForEach(fn func(v value.Value)) {
	s.backing.ForEach(func(k, _ value.Value) { fn(k) })
}
