package object

import (
	"testing"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

func TestProxyForwardsWhenTrapAbsent(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	target := New(tbl, nil, "Object")
	key := AtomKey(tbl.Intern("x"))
	target.DefineOwnProperty(key, DataDescriptor(value.Number(1), true, true, true))

	handler := New(tbl, nil, "Object")
	p := NewProxy(tbl, target, handler, noopInvoker)

	v, err := p.Get(key, value.FromObject(p), noopInvoker)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ToFloat64() != 1 {
		t.Fatalf("expected forwarded value 1, got %v", v)
	}
}

func TestProxyRevokedFailsEveryTrap(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	target := New(tbl, nil, "Object")
	handler := New(tbl, nil, "Object")
	p := NewProxy(tbl, target, handler, noopInvoker)
	p.Revoke()

	_, err := p.Get(AtomKey(tbl.Intern("x")), value.FromObject(p), noopInvoker)
	if err == nil {
		t.Fatalf("expected revoked proxy Get to throw")
	}
	if p.OwnKeys() != nil {
		t.Fatalf("expected revoked proxy OwnKeys to report nil")
	}
}

func TestProxyChainDepthGuard(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	var innermost JSObject = New(tbl, nil, "Object")
	for i := 0; i < maxProxyChainDepth+5; i++ {
		handler := New(tbl, nil, "Object")
		innermost = NewProxy(tbl, innermost, handler, noopInvoker)
	}

	depth := ProxyTargetChainDepth(innermost)
	if depth <= maxProxyChainDepth {
		t.Fatalf("expected chain depth to exceed guard, got %d", depth)
	}
}

func TestProxyGetTrapInvoked(t *testing.T) {
	tbl := atom.NewTableWithReserved()
	target := New(tbl, nil, "Object")
	handler := New(tbl, nil, "Object")

	getAtom := tbl.Intern("get")
	var trapFn value.Value
	invoker := func(fn value.Value, this value.Value, args []value.Value) (value.Value, *OpError) {
		return value.String("trapped"), nil
	}
	trapFn = value.FromObject(NewNativeFunction(tbl, nil, "get", 3, func(realm any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *OpError) {
		return value.String("trapped"), nil
	}))
	handler.DefineOwnProperty(AtomKey(getAtom), DataDescriptor(trapFn, true, true, true))

	p := NewProxy(tbl, target, handler, invoker)
	v, err := p.Get(AtomKey(tbl.Intern("x")), value.FromObject(p), invoker)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsString() || v.ToGoString() != "trapped" {
		t.Fatalf("expected trap result %q, got %v", "trapped", v)
	}
}
