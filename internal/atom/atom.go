// Package atom implements the interned string table shared by a Runtime.
//
// Every property name, identifier, and well-known symbol that the VM or the
// built-in surface needs to compare by identity rather than by content is
// assigned a dense integer id the first time it is seen. Comparing atoms is
// then a single integer comparison instead of a UTF-16 byte scan, which is
// the same tradeoff the teacher's shape/identifier tables make for DWScript
// symbol lookups.
package atom

import "sync"

// Atom is the interned identity of a string. The zero Atom is never
// allocated by Table.Intern; it is reserved so a zero-valued Atom field can
// mean "absent" without an extra boolean.
type Atom uint32

// Table interns strings for a single Runtime. Reads (Intern on an
// already-seen string, or String) are far more frequent than writes (Intern
// on a new string), so the table favors a read path that rarely blocks
// concurrent readers; the write path is fully serialized, matching the
// read-mostly shared-resource shape called for in spec §5.
type Table struct {
	mu     sync.RWMutex
	byText map[string]Atom
	byID   []string // index 0 is unused, see Atom zero value
}

// NewTable returns an empty table pre-sized for typical global-object atom
// traffic (property names of every built-in plus common user identifiers).
func NewTable() *Table {
	t := &Table{
		byText: make(map[string]Atom, 512),
		byID:   make([]string, 1, 512), // index 0 reserved
	}
	return t
}

// Intern returns the Atom for s, allocating a new one if s has not been
// seen by this table before. Concurrent Intern calls for the same string
// are safe; at most one of them performs the allocation.
func (t *Table) Intern(s string) Atom {
	t.mu.RLock()
	if a, ok := t.byText[s]; ok {
		t.mu.RUnlock()
		return a
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	// Re-check: another goroutine may have interned s while we waited for
	// the write lock.
	if a, ok := t.byText[s]; ok {
		return a
	}
	a := Atom(len(t.byID))
	t.byID = append(t.byID, s)
	t.byText[s] = a
	return a
}

// String returns the text an Atom was interned from. It panics if a was not
// produced by this table's Intern, which can only happen on a programming
// error (atoms must never cross Runtime boundaries).
func (t *Table) String(a Atom) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byID[a]
}

// Lookup returns the Atom for s and whether it has already been interned,
// without allocating a new one. Useful on hot paths that want to avoid
// interning transient strings that turn out not to match anything.
func (t *Table) Lookup(s string) (Atom, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.byText[s]
	return a, ok
}

// Len reports how many distinct strings have been interned.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID) - 1
}
