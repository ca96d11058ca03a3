package object

import (
	"testing"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

func TestWeakMapSetGetHasDelete(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	wm := NewWeakMap(tbl, nil)
	key := value.FromObject(New(tbl, nil, "Object"))

	wm.Set(key, value.Number(42))
	if !wm.Has(key) {
		t.Fatalf("expected key to be present")
	}
	got, ok := wm.Get(key)
	if !ok || got.ToFloat64() != 42 {
		t.Fatalf("expected 42, got %v ok=%v", got, ok)
	}
	if !wm.Delete(key) {
		t.Fatalf("expected delete to succeed")
	}
	if wm.Has(key) {
		t.Fatalf("expected key gone after delete")
	}
}

func TestWeakSetAddHasDelete(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	ws := NewWeakSet(tbl, nil)
	v := value.FromObject(New(tbl, nil, "Object"))

	ws.Add(v)
	if !ws.Has(v) {
		t.Fatalf("expected value present after Add")
	}
	ws.Delete(v)
	if ws.Has(v) {
		t.Fatalf("expected value gone after Delete")
	}
}

func TestWeakRefDerefWhileReachable(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	target := value.FromObject(New(tbl, nil, "Object"))
	ref := NewWeakRef(tbl, nil, target)

	got, ok := ref.Deref()
	if !ok {
		t.Fatalf("expected deref to succeed while target is reachable")
	}
	if got.Object() != target.Object() {
		t.Fatalf("expected dereffed object to be the original target")
	}
}

func TestFinalizationRegistryUnregisterCancelsPendingCleanup(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	enqueued := make(chan value.Value, 1)
	fr := NewFinalizationRegistry(tbl, nil, func(held value.Value) { enqueued <- held })

	target := New(tbl, nil, "Object")
	token := value.FromObject(New(tbl, nil, "Object"))
	fr.Register(value.FromObject(target), value.String("held"), token)

	if !fr.Unregister(token) {
		t.Fatalf("expected Unregister to report it cancelled a pending registration")
	}
	if fr.Unregister(token) {
		t.Fatalf("expected a second Unregister of the same token to report false")
	}
}

func TestFinalizationRegistryUnregisterUnknownTokenReportsFalse(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	fr := NewFinalizationRegistry(tbl, nil, func(value.Value) {})
	token := value.FromObject(New(tbl, nil, "Object"))

	if fr.Unregister(token) {
		t.Fatalf("expected Unregister of a token with no registration to report false")
	}
}
