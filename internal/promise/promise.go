// Package promise implements the Promise state machine (spec §4.6): the
// fixed pending/fulfilled/rejected lifecycle, reaction scheduling onto a
// Context's microtask queue in registration order, thenable assimilation,
// and the Promise.all/any/race/allSettled/withResolvers combinators.
//
// The object.PromiseData exotic object (internal/object/promise.go) holds
// only the state machine's data; everything here is orchestration that
// needs a Context (to enqueue microtasks) and an object.Invoker (to call
// back into JS handlers), which is why it can't live in internal/object
// without creating an import cycle.
package promise

import (
	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// Capability bundles a Promise with the resolve/reject functions that
// settle it (spec §4.6's "(promise, resolve, reject)" capability record
// used by the constructor executor, Promise.withResolvers, and internally
// by every combinator).
type Capability struct {
	Promise *object.PromiseData
	tbl     *atom.Table
	proto   object.JSObject
}

// NewCapability allocates a fresh pending Promise and its capability.
func NewCapability(tbl *atom.Table, proto object.JSObject) *Capability {
	return &Capability{Promise: object.NewPromise(tbl, proto), tbl: tbl, proto: proto}
}

// Resolve settles the capability's promise with v, following v through
// thenable assimilation if it is itself a promise-like object (spec §4.6
// "resolving with a thenable chains onto its resolution"). A second call
// after the first is a no-op, matching resolve/reject's idempotence.
func (c *Capability) Resolve(ctx *context.Context, call object.Invoker, v value.Value) {
	if c.Promise.AlreadyResolved {
		return
	}
	c.Promise.AlreadyResolved = true
	resolveWith(ctx, call, c.Promise, v)
}

// Reject settles the capability's promise as rejected with reason.
// Idempotent past the first call, same as Resolve.
func (c *Capability) Reject(ctx *context.Context, call object.Invoker, reason value.Value) {
	if c.Promise.AlreadyResolved {
		return
	}
	c.Promise.AlreadyResolved = true
	rejectNow(ctx, call, c.Promise, reason)
}

// ResolveFunctions wraps Resolve/Reject as JS-callable native function
// Values, the shape a Promise constructor's executor or
// Promise.withResolvers hands back to script (spec §4.6, §6 native
// function convention).
func (c *Capability) ResolveFunctions(call object.Invoker) (resolveFn, rejectFn value.Value) {
	resolveFn = wrapUnaryNative(c.tbl, "resolve", func(ctx *context.Context, v value.Value) {
		c.Resolve(ctx, call, v)
	})
	rejectFn = wrapUnaryNative(c.tbl, "reject", func(ctx *context.Context, v value.Value) {
		c.Reject(ctx, call, v)
	})
	return
}

// wrapUnaryNative builds a one-argument native function whose realm
// argument is expected to be a *context.Context (the convention every
// built-in registered against this runtime follows).
func wrapUnaryNative(tbl *atom.Table, name string, fn func(ctx *context.Context, v value.Value)) value.Value {
	nf := object.NewNativeFunction(tbl, nil, name, 1, func(realm any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		var v value.Value
		if len(args) > 0 {
			v = args[0]
		}
		if ctx, ok := realm.(*context.Context); ok {
			fn(ctx, v)
		}
		return value.Undefined, nil
	})
	return value.FromObject(nf)
}

func errValue(ctx *context.Context, err *object.OpError) value.Value {
	if err == nil {
		return value.Undefined
	}
	if ctx.NewError != nil {
		return ctx.NewError(err.Kind, err.Message)
	}
	return value.String(err.Error())
}

func typeError(ctx *context.Context, message string) value.Value {
	if ctx.NewError != nil {
		return ctx.NewError("TypeError", message)
	}
	return value.String(message)
}

func asCallable(v value.Value) (object.Callable, bool) {
	if !v.IsObject() {
		return nil, false
	}
	c, ok := v.Object().(object.Callable)
	return c, ok
}

// resolveWith implements "resolve promise with value" (spec §4.6): a
// self-resolution is a TypeError, a thenable assimilates asynchronously via
// a scheduled job, anything else fulfills immediately.
func resolveWith(ctx *context.Context, call object.Invoker, p *object.PromiseData, v value.Value) {
	if v.IsObject() && v.Object() == value.Object(p) {
		rejectNow(ctx, call, p, typeError(ctx, "chaining cycle detected for promise"))
		return
	}
	if v.IsObject() {
		obj, ok := v.Object().(object.JSObject)
		if !ok {
			fulfillNow(ctx, call, p, v)
			return
		}
		thenVal, err := obj.Get(object.AtomKey(ctx.Runtime.Tbl.Intern("then")), v, call)
		if err != nil {
			rejectNow(ctx, call, p, errValue(ctx, err))
			return
		}
		if thenCallable, ok := asCallable(thenVal); ok {
			scheduleThenableJob(ctx, call, p, v, thenCallable)
			return
		}
	}
	fulfillNow(ctx, call, p, v)
}

// scheduleThenableJob enqueues the PromiseResolveThenableJob (spec §4.6):
// calling the thenable's own "then" with a fresh, independently one-shot
// resolve/reject pair, on the microtask queue rather than synchronously.
func scheduleThenableJob(ctx *context.Context, call object.Invoker, p *object.PromiseData, thenable value.Value, then object.Callable) {
	ctx.EnqueueMicrotask(func() {
		done := false
		resolveFn := wrapUnaryNative(ctx.Runtime.Tbl, "", func(jobCtx *context.Context, v value.Value) {
			if done {
				return
			}
			done = true
			resolveWith(jobCtx, call, p, v)
		})
		rejectFn := wrapUnaryNative(ctx.Runtime.Tbl, "", func(jobCtx *context.Context, v value.Value) {
			if done {
				return
			}
			done = true
			rejectNow(jobCtx, call, p, v)
		})
		_, callErr := call(value.FromObject(then), thenable, []value.Value{resolveFn, rejectFn})
		if callErr != nil && !done {
			done = true
			rejectNow(ctx, call, p, errValue(ctx, callErr))
		}
	})
}

func fulfillNow(ctx *context.Context, call object.Invoker, p *object.PromiseData, v value.Value) {
	reactions := p.Settle(true, v)
	scheduleReactions(ctx, call, reactions, true, v)
}

func rejectNow(ctx *context.Context, call object.Invoker, p *object.PromiseData, reason value.Value) {
	reactions := p.Settle(false, reason)
	scheduleReactions(ctx, call, reactions, false, reason)
	if len(reactions) == 0 {
		trackUnhandledRejection(ctx, p, reason)
	}
}

// trackUnhandledRejection defers the "is anyone watching this rejection"
// check by one microtask turn, so a .catch() attached in the same synchronous
// turn (or the same microtask job) still suppresses the callback — mirroring
// the host rejection tracker's usual one-tick grace period.
func trackUnhandledRejection(ctx *context.Context, p *object.PromiseData, reason value.Value) {
	ctx.EnqueueMicrotask(func() {
		if !p.Handled && ctx.PromiseRejectCallback != nil {
			ctx.PromiseRejectCallback(value.FromObject(p), reason)
		}
	})
}

func scheduleReactions(ctx *context.Context, call object.Invoker, reactions []object.PromiseReaction, fulfilled bool, result value.Value) {
	for _, r := range reactions {
		r := r
		ctx.EnqueueMicrotask(func() { runReaction(ctx, call, r, fulfilled, result) })
	}
}

// runReaction is the PromiseReactionJob (spec §4.6): run the matching
// handler (or pass the settlement through unchanged if absent), then settle
// the derived promise with the handler's return value or thrown error.
func runReaction(ctx *context.Context, call object.Invoker, r object.PromiseReaction, fulfilled bool, result value.Value) {
	handler := r.OnRejected
	if fulfilled {
		handler = r.OnFulfilled
	}
	callable, ok := asCallable(handler)
	if !ok {
		r.Settle(fulfilled, result)
		return
	}
	out, err := call(value.FromObject(callable), value.Undefined, []value.Value{result})
	if err != nil {
		r.Settle(false, errValue(ctx, err))
		return
	}
	r.Settle(true, out)
}

// Then registers an (onFulfilled, onRejected) reaction pair (spec §4.6,
// shared by the then/catch/finally built-ins — finally wraps its single
// callback into this shape before calling through). Either handler may be
// the zero Value for "no handler". Returns the derived promise the
// handler's return value (or thrown error) settles.
func Then(ctx *context.Context, call object.Invoker, p *object.PromiseData, onFulfilled, onRejected value.Value, proto object.JSObject) *object.PromiseData {
	derived := object.NewPromise(p.Tbl, proto)
	settle := func(fulfilled bool, result value.Value) {
		if fulfilled {
			resolveWith(ctx, call, derived, result)
		} else {
			rejectNow(ctx, call, derived, result)
		}
	}
	r := object.PromiseReaction{OnFulfilled: onFulfilled, OnRejected: onRejected, Settle: settle}
	p.Handled = true

	switch p.State {
	case object.PromisePending:
		p.FulfillReactions = append(p.FulfillReactions, r)
		p.RejectReactions = append(p.RejectReactions, r)
	case object.PromiseFulfilled:
		result := p.Result
		ctx.EnqueueMicrotask(func() { runReaction(ctx, call, r, true, result) })
	case object.PromiseRejected:
		result := p.Result
		ctx.EnqueueMicrotask(func() { runReaction(ctx, call, r, false, result) })
	}
	return derived
}

// Resolved is the Go-side equivalent of Promise.resolve(v): a v that is
// already a promise is returned as is, so the caller observes its own
// settlement; any other v resolves a fresh promise (a non-thenable v
// fulfils it at once). Used by combinators and await, which need a promise
// per input without going through the constructor's executor.
func Resolved(ctx *context.Context, call object.Invoker, proto object.JSObject, v value.Value) *object.PromiseData {
	if v.IsObject() {
		if pd, ok := v.Object().(*object.PromiseData); ok {
			return pd
		}
	}
	c := NewCapability(ctx.Runtime.Tbl, proto)
	c.Resolve(ctx, call, v)
	return c.Promise
}

// Rejected returns an already-rejected promise.
func Rejected(ctx *context.Context, proto object.JSObject, reason value.Value) *object.PromiseData {
	c := NewCapability(ctx.Runtime.Tbl, proto)
	rejectNow(ctx, nil, c.Promise, reason)
	return c.Promise
}

// WithResolvers implements Promise.withResolvers (spec §4.6): a capability
// plus its resolve/reject functions exposed as plain Go return values, for
// the builtins layer to assemble into the {promise, resolve, reject} object
// literal the spec's surface returns.
func WithResolvers(ctx *context.Context, call object.Invoker, proto object.JSObject) (p *object.PromiseData, resolveFn, rejectFn value.Value) {
	c := NewCapability(ctx.Runtime.Tbl, proto)
	resolveFn, rejectFn = c.ResolveFunctions(call)
	return c.Promise, resolveFn, rejectFn
}

// All implements Promise.all (spec §4.6): fulfills with an array of the
// inputs' fulfillment values once every input has fulfilled, in input
// order; rejects as soon as any input rejects, with that rejection reason.
// An empty input list fulfills immediately with an empty array.
func All(ctx *context.Context, call object.Invoker, proto, arrayProto object.JSObject, items []value.Value) *object.PromiseData {
	result := NewCapability(ctx.Runtime.Tbl, proto)
	values := make([]value.Value, len(items))
	remaining := len(items)
	if remaining == 0 {
		result.Resolve(ctx, call, value.FromObject(object.NewArray(ctx.Runtime.Tbl, arrayProto)))
		return result.Promise
	}
	for i, item := range items {
		i := i
		itemPromise := Resolved(ctx, call, proto, item)
		Then(ctx, call, itemPromise,
			wrapUnaryNative(ctx.Runtime.Tbl, "", func(jobCtx *context.Context, v value.Value) {
				values[i] = v
				remaining--
				if remaining == 0 {
					result.Resolve(jobCtx, call, makeArray(ctx.Runtime.Tbl, arrayProto, values))
				}
			}),
			wrapUnaryNative(ctx.Runtime.Tbl, "", func(jobCtx *context.Context, reason value.Value) {
				result.Reject(jobCtx, call, reason)
			}),
			proto,
		)
	}
	return result.Promise
}

// AllSettled implements Promise.allSettled (spec §4.6): always fulfills,
// once every input has settled, with an array of {status, value|reason}
// records mirroring each input's outcome.
func AllSettled(ctx *context.Context, call object.Invoker, proto, arrayProto, objectProto object.JSObject, items []value.Value) *object.PromiseData {
	result := NewCapability(ctx.Runtime.Tbl, proto)
	records := make([]value.Value, len(items))
	remaining := len(items)
	if remaining == 0 {
		result.Resolve(ctx, call, value.FromObject(object.NewArray(ctx.Runtime.Tbl, arrayProto)))
		return result.Promise
	}
	settleOne := func(i int, fulfilled bool, v value.Value) func(*context.Context, value.Value) {
		return func(jobCtx *context.Context, _ value.Value) {
			records[i] = settledRecord(ctx.Runtime.Tbl, objectProto, fulfilled, v)
			remaining--
			if remaining == 0 {
				result.Resolve(jobCtx, call, makeArray(ctx.Runtime.Tbl, arrayProto, records))
			}
		}
	}
	for i, item := range items {
		i := i
		itemPromise := Resolved(ctx, call, proto, item)
		Then(ctx, call, itemPromise,
			wrapUnaryNative(ctx.Runtime.Tbl, "", func(jobCtx *context.Context, v value.Value) {
				settleOne(i, true, v)(jobCtx, v)
			}),
			wrapUnaryNative(ctx.Runtime.Tbl, "", func(jobCtx *context.Context, reason value.Value) {
				settleOne(i, false, reason)(jobCtx, reason)
			}),
			proto,
		)
	}
	return result.Promise
}

// Race implements Promise.race (spec §4.6): settles to whichever input
// settles first, fulfilled or rejected, forwarding that outcome unchanged.
func Race(ctx *context.Context, call object.Invoker, proto object.JSObject, items []value.Value) *object.PromiseData {
	result := NewCapability(ctx.Runtime.Tbl, proto)
	for _, item := range items {
		itemPromise := Resolved(ctx, call, proto, item)
		Then(ctx, call, itemPromise,
			wrapUnaryNative(ctx.Runtime.Tbl, "", func(jobCtx *context.Context, v value.Value) {
				result.Resolve(jobCtx, call, v)
			}),
			wrapUnaryNative(ctx.Runtime.Tbl, "", func(jobCtx *context.Context, reason value.Value) {
				result.Reject(jobCtx, call, reason)
			}),
			proto,
		)
	}
	return result.Promise
}

// Any implements Promise.any (spec §4.6): fulfills with the first input to
// fulfill; rejects with an AggregateError of every input's rejection reason
// (in input order) only once all inputs have rejected. An empty input list
// rejects immediately with an empty AggregateError.
func Any(ctx *context.Context, call object.Invoker, proto, arrayProto object.JSObject, items []value.Value, aggregateError func(errs value.Value) value.Value) *object.PromiseData {
	result := NewCapability(ctx.Runtime.Tbl, proto)
	errs := make([]value.Value, len(items))
	remaining := len(items)
	if remaining == 0 {
		result.Reject(ctx, call, aggregateError(value.FromObject(object.NewArray(ctx.Runtime.Tbl, arrayProto))))
		return result.Promise
	}
	for i, item := range items {
		i := i
		itemPromise := Resolved(ctx, call, proto, item)
		Then(ctx, call, itemPromise,
			wrapUnaryNative(ctx.Runtime.Tbl, "", func(jobCtx *context.Context, v value.Value) {
				result.Resolve(jobCtx, call, v)
			}),
			wrapUnaryNative(ctx.Runtime.Tbl, "", func(jobCtx *context.Context, reason value.Value) {
				errs[i] = reason
				remaining--
				if remaining == 0 {
					result.Reject(jobCtx, call, aggregateError(makeArray(ctx.Runtime.Tbl, arrayProto, errs)))
				}
			}),
			proto,
		)
	}
	return result.Promise
}

func makeArray(tbl *atom.Table, arrayProto object.JSObject, values []value.Value) value.Value {
	arr := object.NewArray(tbl, arrayProto)
	for i, v := range values {
		arr.DefineOwnProperty(object.IndexKey(uint32(i)), object.DataDescriptor(v, true, true, true))
	}
	arr.DefineOwnProperty(object.AtomKey(atom.Length), object.DataDescriptor(value.Number(float64(len(values))), true, false, false))
	return value.FromObject(arr)
}

func settledRecord(tbl *atom.Table, objectProto object.JSObject, fulfilled bool, v value.Value) value.Value {
	rec := object.New(tbl, objectProto, "Object")
	status := "rejected"
	field := "reason"
	if fulfilled {
		status = "fulfilled"
		field = "value"
	}
	rec.DefineOwnProperty(object.AtomKey(tbl.Intern("status")), object.DataDescriptor(value.String(status), true, true, true))
	rec.DefineOwnProperty(object.AtomKey(tbl.Intern(field)), object.DataDescriptor(v, true, true, true))
	return value.FromObject(rec)
}
