package object

// store is the per-object key->descriptor map with insertion order
// preserved, generalizing the teacher's ObjectInstance.Fields map (a plain
// map[string]Value good enough for DWScript's unordered field semantics)
// to ES's observable insertion order (spec §3 "Insertion order is
// preserved and is observable via ownKeys and enumeration").
//
// ownKeys' required iteration order — integer indices ascending, then
// strings in insertion order, then symbols in insertion order (spec §4.2)
// — is realized by keeping three separate insertion-ordered key lists and
// merging them on demand, rather than a single list filtered three times.
type store struct {
	data map[Key]Descriptor

	indexOrder  []uint32
	stringOrder []Key
	symbolOrder []Key
}

func newStore() *store {
	return &store{data: make(map[Key]Descriptor, 8)}
}

func (s *store) get(k Key) (Descriptor, bool) {
	d, ok := s.data[k]
	return d, ok
}

func (s *store) has(k Key) bool {
	_, ok := s.data[k]
	return ok
}

// set inserts or overwrites k's descriptor. Order lists only grow on first
// insertion; overwriting an existing key never moves it, matching ES's
// "property insertion order" semantics (a later write to an existing key
// does not change its enumeration position).
func (s *store) set(k Key, d Descriptor) {
	_, existed := s.data[k]
	s.data[k] = d
	if existed {
		return
	}
	switch k.Kind() {
	case KeyIndex:
		s.indexOrder = insertSortedUint32(s.indexOrder, k.Index())
	case KeySymbol:
		s.symbolOrder = append(s.symbolOrder, k)
	default:
		s.stringOrder = append(s.stringOrder, k)
	}
}

func (s *store) delete(k Key) {
	if _, ok := s.data[k]; !ok {
		return
	}
	delete(s.data, k)
	switch k.Kind() {
	case KeyIndex:
		s.indexOrder = removeUint32(s.indexOrder, k.Index())
	case KeySymbol:
		s.symbolOrder = removeKey(s.symbolOrder, k)
	default:
		s.stringOrder = removeKey(s.stringOrder, k)
	}
}

// ownKeys returns every own key in spec order: ascending integer indices,
// then string keys in insertion order, then symbol keys in insertion order.
func (s *store) ownKeys() []Key {
	out := make([]Key, 0, len(s.indexOrder)+len(s.stringOrder)+len(s.symbolOrder))
	for _, i := range s.indexOrder {
		out = append(out, IndexKey(i))
	}
	out = append(out, s.stringOrder...)
	out = append(out, s.symbolOrder...)
	return out
}

func insertSortedUint32(xs []uint32, v uint32) []uint32 {
	i := 0
	for ; i < len(xs); i++ {
		if xs[i] == v {
			return xs
		}
		if xs[i] > v {
			break
		}
	}
	xs = append(xs, 0)
	copy(xs[i+1:], xs[i:])
	xs[i] = v
	return xs
}

func removeUint32(xs []uint32, v uint32) []uint32 {
	for i, x := range xs {
		if x == v {
			return append(xs[:i], xs[i+1:]...)
		}
	}
	return xs
}

func removeKey(xs []Key, k Key) []Key {
	for i, x := range xs {
		if x == k {
			return append(xs[:i], xs[i+1:]...)
		}
	}
	return xs
}
