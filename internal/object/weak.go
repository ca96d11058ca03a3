package object

import (
	"runtime"
	"weak"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

// WeakMap/WeakSet/WeakRef/FinalizationRegistry entries must not keep their
// target reachable (spec §3 Lifecycle). The memory collector itself is an
// external reachability oracle per spec §1 ("the memory collector is
// abstracted as a reachability oracle"); this engine runs on the host Go
// runtime's own collector, so the idiomatic way to honor that contract is
// the standard library's weak.Pointer (Go 1.24) plus runtime.AddCleanup,
// rather than hand-rolling a second collector. No third-party package in
// the retrieval pack offers weak references — see DESIGN.md.

// WeakMapData associates weakly-held keys (always objects, or symbols in
// newer ES editions) with strongly-held values. Because the key is weak,
// Has/Get/Delete must tolerate the key having already been collected.
type WeakMapData struct {
	*Object
	entries map[any]*weakEntry
}

type weakEntry struct {
	keyRef weak.Pointer[value.Value]
	keyBox *value.Value // kept alongside keyRef only to compute the map's hash bucket cheaply
	val    value.Value
}

func NewWeakMap(tbl *atom.Table, proto JSObject) *WeakMapData {
	m := &WeakMapData{Object: New(tbl, proto, "WeakMap"), entries: make(map[any]*weakEntry)}
	m.SetSelf(m)
	return m
}

func weakKeyIdentity(k value.Value) any {
	if k.IsObject() {
		return k.Object()
	}
	return k.Symbol()
}

func (m *WeakMapData) Set(k, v value.Value) {
	id := weakKeyIdentity(k)
	box := new(value.Value)
	*box = k
	m.entries[id] = &weakEntry{keyRef: weak.Make(box), keyBox: box, val: v}
}

func (m *WeakMapData) Get(k value.Value) (value.Value, bool) {
	e, ok := m.entries[weakKeyIdentity(k)]
	if !ok || e.keyRef.Value() == nil {
		return value.Undefined, false
	}
	return e.val, true
}

func (m *WeakMapData) Has(k value.Value) bool {
	e, ok := m.entries[weakKeyIdentity(k)]
	return ok && e.keyRef.Value() != nil
}

func (m *WeakMapData) Delete(k value.Value) bool {
	id := weakKeyIdentity(k)
	if _, ok := m.entries[id]; !ok {
		return false
	}
	delete(m.entries, id)
	return true
}

// WeakSetData is WeakMapData specialized so value == key, mirroring
// SetData/MapData.
type WeakSetData struct {
	*Object
	backing *WeakMapData
}

func NewWeakSet(tbl *atom.Table, proto JSObject) *WeakSetData {
	s := &WeakSetData{Object: New(tbl, proto, "WeakSet"), backing: &WeakMapData{entries: make(map[any]*weakEntry)}}
	s.SetSelf(s)
	return s
}

func (s *WeakSetData) Add(v value.Value)      { s.backing.Set(v, v) }
func (s *WeakSetData) Has(v value.Value) bool { return s.backing.Has(v) }
func (s *WeakSetData) Delete(v value.Value) bool { return s.backing.Delete(v) }

// WeakRefData holds a single weak reference to an object or symbol (spec
// §4.3/§9). Deref returns (Undefined, false) once the target has been
// collected.
type WeakRefData struct {
	*Object
	ref weak.Pointer[value.Value]
	box *value.Value
}

func NewWeakRef(tbl *atom.Table, proto JSObject, target value.Value) *WeakRefData {
	box := new(value.Value)
	*box = target
	w := &WeakRefData{Object: New(tbl, proto, "WeakRef"), ref: weak.Make(box), box: box}
	w.SetSelf(w)
	return w
}

func (w *WeakRefData) Deref() (value.Value, bool) {
	if p := w.ref.Value(); p != nil {
		return *p, true
	}
	return value.Undefined, false
}

// FinalizationRegistryData posts a cleanup callback to the owning
// context's microtask queue once its target becomes unreachable (spec §3,
// §5 "FinalizationRegistry cleanup thread": the monitor notices collection,
// but the cleanup callback itself runs on the owning context's thread, not
// the monitor's). Enqueue is supplied by the Context that owns this
// registry; it is called from runtime.AddCleanup's goroutine and must
// itself only enqueue — never run JS — to honor that thread requirement.
type FinalizationRegistryData struct {
	*Object
	Enqueue func(heldValue value.Value)

	// tokens maps an unregister token's identity to the cancellation flags
	// of every registration made under it, so Unregister can suppress
	// cleanups that have not fired yet.
	tokens map[value.Object][]*bool
}

func NewFinalizationRegistry(tbl *atom.Table, proto JSObject, enqueue func(value.Value)) *FinalizationRegistryData {
	r := &FinalizationRegistryData{
		Object: New(tbl, proto, "FinalizationRegistry"), Enqueue: enqueue,
		tokens: make(map[value.Object][]*bool),
	}
	r.SetSelf(r)
	return r
}

// Register arranges for held to be handed to r.Enqueue once target becomes
// unreachable. unregisterToken, if non-nil, lets Unregister cancel the
// registration early (matching FinalizationRegistry.prototype.unregister).
func (r *FinalizationRegistryData) Register(target value.Value, held value.Value, unregisterToken value.Value) {
	if !target.IsObject() {
		return
	}
	obj, ok := target.Object().(JSObject)
	if !ok {
		return
	}
	cancelled := new(bool)
	if unregisterToken.IsObject() {
		tok := unregisterToken.Object()
		r.tokens[tok] = append(r.tokens[tok], cancelled)
	}
	runtime.AddCleanup(obj.Base(), func(h value.Value) {
		if *cancelled {
			return
		}
		r.Enqueue(h)
	}, held)
}

// Unregister cancels every pending registration made with unregisterToken,
// reporting whether at least one was cancelled.
func (r *FinalizationRegistryData) Unregister(unregisterToken value.Value) bool {
	if !unregisterToken.IsObject() {
		return false
	}
	tok := unregisterToken.Object()
	flags, ok := r.tokens[tok]
	if !ok {
		return false
	}
	for _, f := range flags {
		*f = true
	}
	delete(r.tokens, tok)
	return true
}
