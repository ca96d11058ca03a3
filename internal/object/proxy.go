package object

import (
	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

// Proxy implements the Proxy exotic object (spec §4.3). Get, Set, Has and
// Delete consult the handler's get/set/has/deleteProperty trap if present,
// else forward to the target unchanged; DefineOwnProperty, GetOwnProperty,
// OwnKeys, Prototype and IsExtensible always forward to the target without
// consulting a trap. On a revoked proxy Get, Set, Delete and
// DefineOwnProperty fail with TypeError, while Has, GetOwnProperty,
// OwnKeys, Prototype and IsExtensible report false or nil.
// ProxyTargetChainDepth measures a chain of proxies against a fixed depth
// guard (1000); IsArray does not look through a proxy to its target.
type Proxy struct {
	*Object
	Target  JSObject
	Handler JSObject
	revoked bool
	call    Invoker
}

const maxProxyChainDepth = 1000

func NewProxy(tbl *atom.Table, target, handler JSObject, call Invoker) *Proxy {
	p := &Proxy{Object: New(tbl, nil, "Proxy"), Target: target, Handler: handler, call: call}
	p.SetSelf(p)
	return p
}

// Revoke permanently disables every trap on this proxy, as returned by
// `Proxy.revocable(...).revoke`.
func (p *Proxy) Revoke() { p.revoked = true }

func (p *Proxy) checkRevoked() *OpError {
	if p.revoked {
		return typeErr("cannot perform operation on a revoked proxy")
	}
	return nil
}

// trap looks up `handler[name]`; ok is false if the trap is absent
// (meaning "forward to target unchanged") and err is non-nil only if
// reading the trap itself threw.
func (p *Proxy) trap(tbl *atom.Table, name string) (value.Value, bool, *OpError) {
	fn, err := p.Handler.Get(AtomKey(tbl.Intern(name)), value.FromObject(p.Handler), p.call)
	if err != nil {
		return value.Undefined, false, err
	}
	if fn.IsUndefined() || fn.IsNull() {
		return value.Undefined, false, nil
	}
	return fn, true, nil
}

func (p *Proxy) ClassName() string { return "Proxy" }

func (p *Proxy) Get(key Key, receiver value.Value, call Invoker) (value.Value, *OpError) {
	if err := p.checkRevoked(); err != nil {
		return value.Undefined, err
	}
	fn, ok, err := p.trap(p.Tbl, "get")
	if err != nil {
		return value.Undefined, err
	}
	if !ok {
		return p.Target.Get(key, receiver, call)
	}
	return call(fn, value.FromObject(p.Handler), []value.Value{
		value.FromObject(p.Target), KeyToValue(p.Tbl, key), receiver,
	})
}

func (p *Proxy) Set(key Key, v value.Value, receiver value.Value, call Invoker) (bool, *OpError) {
	if err := p.checkRevoked(); err != nil {
		return false, err
	}
	fn, ok, err := p.trap(p.Tbl, "set")
	if err != nil {
		return false, err
	}
	if !ok {
		return p.Target.Set(key, v, receiver, call)
	}
	res, err := call(fn, value.FromObject(p.Handler), []value.Value{
		value.FromObject(p.Target), KeyToValue(p.Tbl, key), v, receiver,
	})
	if err != nil {
		return false, err
	}
	return truthy(res), nil
}

func (p *Proxy) Has(key Key) bool {
	if p.revoked {
		return false
	}
	fn, ok, err := p.trap(p.Tbl, "has")
	if err != nil || !ok {
		return p.Target.Has(key)
	}
	res, err := p.call(fn, value.FromObject(p.Handler), []value.Value{value.FromObject(p.Target), KeyToValue(p.Tbl, key)})
	if err != nil {
		return false
	}
	return truthy(res)
}

func (p *Proxy) Delete(key Key, strict bool) (bool, *OpError) {
	if err := p.checkRevoked(); err != nil {
		return false, err
	}
	fn, ok, err := p.trap(p.Tbl, "deleteProperty")
	if err != nil {
		return false, err
	}
	if !ok {
		return p.Target.Delete(key, strict)
	}
	res, err := p.call(fn, value.FromObject(p.Handler), []value.Value{value.FromObject(p.Target), KeyToValue(p.Tbl, key)})
	if err != nil {
		return false, err
	}
	ok2 := truthy(res)
	if !ok2 && strict {
		return false, typeErr("'deleteProperty' on proxy: trap returned falsish for property %q", key.String(p.Tbl))
	}
	return ok2, nil
}

func (p *Proxy) DefineOwnProperty(key Key, desc Descriptor) (bool, *OpError) {
	if err := p.checkRevoked(); err != nil {
		return false, err
	}
	return p.Target.DefineOwnProperty(key, desc)
}

func (p *Proxy) GetOwnProperty(key Key) (Descriptor, bool) {
	if p.revoked {
		return Descriptor{}, false
	}
	return p.Target.GetOwnProperty(key)
}

func (p *Proxy) OwnKeys() []Key {
	if p.revoked {
		return nil
	}
	return p.Target.OwnKeys()
}

func (p *Proxy) Prototype() JSObject {
	if p.revoked {
		return nil
	}
	return p.Target.Prototype()
}

func (p *Proxy) IsExtensible() bool {
	if p.revoked {
		return false
	}
	return p.Target.IsExtensible()
}

func truthy(v value.Value) bool {
	switch v.Kind() {
	case value.KindUndefined, value.KindNull:
		return false
	case value.KindBoolean:
		return v.ToBool()
	case value.KindNumber:
		f := v.ToFloat64()
		return f != 0 && f == f // f == f excludes NaN
	case value.KindString:
		return v.Length() > 0
	default:
		return true
	}
}

// ProxyTargetChainDepth walks a chain of proxies (each one's Target
// possibly itself a Proxy) and returns how deep it goes, capped at
// maxProxyChainDepth+1 so callers can cheaply detect "too deep" without an
// unbounded walk. IsArray does not call it.
func ProxyTargetChainDepth(o JSObject) int {
	depth := 0
	for {
		p, ok := o.(*Proxy)
		if !ok {
			return depth
		}
		depth++
		if depth > maxProxyChainDepth {
			return depth
		}
		o = p.Target
	}
}
