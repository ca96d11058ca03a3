package object

import (
	"testing"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

func noopInvoker(fn value.Value, this value.Value, args []value.Value) (value.Value, *OpError) {
	return value.Undefined, nil
}

func TestOrdinaryGetWalksPrototypeChain(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	base := New(tbl, nil, "Object")
	key := AtomKey(tbl.Intern("greeting"))
	base.DefineOwnProperty(key, DataDescriptor(value.String("hi"), true, true, true))

	child := New(tbl, base, "Object")

	v, err := child.Get(key, value.FromObject(child), noopInvoker)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsString() || v.ToGoString() != "hi" {
		t.Fatalf("expected inherited value %q, got %v", "hi", v)
	}
}

func TestNonConfigurableCannotBeDeleted(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	o := New(tbl, nil, "Object")
	key := AtomKey(tbl.Intern("x"))
	o.DefineOwnProperty(key, DataDescriptor(value.Number(1), true, true, false))

	ok, err := o.Delete(key, false)
	if ok || err != nil {
		t.Fatalf("expected non-strict delete of non-configurable prop to fail silently, got ok=%v err=%v", ok, err)
	}

	_, err = o.Delete(key, true)
	if err == nil {
		t.Fatalf("expected strict-mode delete to throw TypeError")
	}
}

func TestPreventExtensionsBlocksNewProperties(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	o := New(tbl, nil, "Object")
	o.PreventExtensions()

	ok, err := o.DefineOwnProperty(AtomKey(tbl.Intern("x")), DataDescriptor(value.Number(1), true, true, true))
	if ok || err != nil {
		t.Fatalf("expected define on non-extensible object to fail, got ok=%v err=%v", ok, err)
	}
}

func TestSetPrototypeOfRejectsCycle(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	a := New(tbl, nil, "Object")
	b := New(tbl, a, "Object")

	ok, err := a.SetPrototypeOf(b)
	if ok || err != nil {
		t.Fatalf("expected cycle rejection, got ok=%v err=%v", ok, err)
	}
}

func TestNonConfigurableAccessorCannotSwitchToData(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	o := New(tbl, nil, "Object")
	key := AtomKey(tbl.Intern("x"))

	getter := value.Undefined
	o.DefineOwnProperty(key, Descriptor{
		Get: getter, Set: value.Undefined, HasGet: true, HasSet: true,
		Enumerable: true, Configurable: false, HasEnumerable: true, HasConfigurable: true,
	})

	ok, _ := o.DefineOwnProperty(key, DataDescriptor(value.Number(1), true, true, false))
	if ok {
		t.Fatalf("expected switching a non-configurable accessor to data to fail")
	}
}

func TestOwnKeysOrdering(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	o := New(tbl, nil, "Object")

	sym := value.NewSymbol("s", true).Symbol()
	o.DefineOwnProperty(AtomKey(tbl.Intern("b")), DataDescriptor(value.Number(1), true, true, true))
	o.DefineOwnProperty(IndexKey(5), DataDescriptor(value.Number(1), true, true, true))
	o.DefineOwnProperty(SymbolKey(sym), DataDescriptor(value.Number(1), true, true, true))
	o.DefineOwnProperty(AtomKey(tbl.Intern("a")), DataDescriptor(value.Number(1), true, true, true))
	o.DefineOwnProperty(IndexKey(1), DataDescriptor(value.Number(1), true, true, true))

	keys := o.OwnKeys()
	if len(keys) != 5 {
		t.Fatalf("expected 5 keys, got %d", len(keys))
	}
	if !keys[0].IsIndex() || keys[0].Index() != 1 {
		t.Fatalf("expected first key to be index 1, got %v", keys[0])
	}
	if !keys[1].IsIndex() || keys[1].Index() != 5 {
		t.Fatalf("expected second key to be index 5, got %v", keys[1])
	}
	if keys[2].String(tbl) != "b" || keys[3].String(tbl) != "a" {
		t.Fatalf("expected string keys in insertion order b,a; got %v,%v", keys[2].String(tbl), keys[3].String(tbl))
	}
	if !keys[4].IsSymbol() {
		t.Fatalf("expected last key to be the symbol")
	}
}
