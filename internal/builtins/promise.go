package builtins

import (
	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/promise"
	"github.com/cwbudde/ecmago/internal/value"
)

// invoker adapts invokeCallable to internal/promise's object.Invoker shape
// (fn as a value.Value rather than an already-asserted object.Callable),
// the one collaborator every promise.go entry point needs to hand the
// orchestration package so it can call back into a `.then` handler or a
// thenable's own "then". A compiled-bytecode handler runs correctly once
// pkg/engine wires Context.Invoke to its VM; until then invokeCallable
// reports a TypeError for anything that isn't a native function.
func (r *realm) invoker() object.Invoker {
	return func(fn value.Value, this value.Value, args []value.Value) (value.Value, *object.OpError) {
		if !fn.IsObject() {
			return value.Value{}, &object.OpError{Kind: "TypeError", Message: "not a function"}
		}
		callable, ok := fn.Object().(object.Callable)
		if !ok {
			return value.Value{}, &object.OpError{Kind: "TypeError", Message: "not a function"}
		}
		return invokeCallable(r, callable, this, args)
	}
}

// installPromise builds Promise/Promise.prototype atop internal/promise's
// state machine and reaction scheduler, generalizing the teacher's
// synchronous call-and-return built-in model to ES's deferred,
// microtask-scheduled continuations.
func installPromise(r *realm) {
	r.promiseProto = object.New(r.tbl, r.objectProto, "Promise")
	call := r.invoker()

	ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if newTarget.IsUndefined() {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Promise constructor cannot be invoked without 'new'")
		}
		executor, ok := callableArg(args, 0)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Promise resolver is not a function")
		}
		c := ctxOf(realmArg)
		capability := promise.NewCapability(r.tbl, r.promiseProto)
		resolveFn, rejectFn := capability.ResolveFunctions(call)
		if _, err := invokeCallable(r, executor, value.Undefined, []value.Value{resolveFn, rejectFn}); err != nil {
			capability.Reject(c, call, errValueFor(c, err))
		}
		return value.FromObject(capability.Promise), nil
	}
	ctor := object.NewNativeFunction(r.tbl, r.functionProto, "Promise", 1, ctorFn)
	ctor.Construct = ctorFn
	r.define(ctor.Base(), "prototype", value.FromObject(r.promiseProto))
	r.defineFrozen(r.promiseProto, "constructor", value.FromObject(ctor))

	r.method(ctor.Base(), "resolve", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		c := ctxOf(realmArg)
		v := firstArg(args)
		if v.IsObject() {
			if p, ok := v.Object().(*object.PromiseData); ok && p.Prototype() == r.promiseProto {
				return v, nil
			}
		}
		return value.FromObject(promise.Resolved(c, call, r.promiseProto, v)), nil
	})
	r.method(ctor.Base(), "reject", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		c := ctxOf(realmArg)
		return value.FromObject(promise.Rejected(c, r.promiseProto, firstArg(args))), nil
	})
	r.method(ctor.Base(), "withResolvers", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		c := ctxOf(realmArg)
		p, resolveFn, rejectFn := promise.WithResolvers(c, call, r.promiseProto)
		result := r.newObject()
		r.define(result, "promise", value.FromObject(p))
		r.define(result, "resolve", resolveFn)
		r.define(result, "reject", rejectFn)
		return value.FromObject(result), nil
	})
	r.method(ctor.Base(), "all", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		c := ctxOf(realmArg)
		items := spreadArrayLike(firstArg(args))
		return value.FromObject(promise.All(c, call, r.promiseProto, r.arrayProto, items)), nil
	})
	r.method(ctor.Base(), "allSettled", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		c := ctxOf(realmArg)
		items := spreadArrayLike(firstArg(args))
		return value.FromObject(promise.AllSettled(c, call, r.promiseProto, r.arrayProto, r.objectProto, items)), nil
	})
	r.method(ctor.Base(), "race", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		c := ctxOf(realmArg)
		items := spreadArrayLike(firstArg(args))
		return value.FromObject(promise.Race(c, call, r.promiseProto, items)), nil
	})
	r.method(ctor.Base(), "any", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		c := ctxOf(realmArg)
		items := spreadArrayLike(firstArg(args))
		return value.FromObject(promise.Any(c, call, r.promiseProto, r.arrayProto, items, func(errsArr value.Value) value.Value {
			errs := spreadArrayLike(errsArr)
			trace := c.CaptureStackTrace().String()
			return value.FromObject(object.NewAggregateError(r.tbl, r.errorProtos[object.ErrorAggregate], errs, "All promises were rejected", trace, func(vs []value.Value) *object.Array {
				return r.newArray(vs)
			}))
		})), nil
	})

	r.method(r.promiseProto, "then", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		p, ok := this.Object().(*object.PromiseData)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Promise.prototype.then called on incompatible receiver")
		}
		c := ctxOf(realmArg)
		var onFulfilled, onRejected value.Value
		if len(args) > 0 {
			onFulfilled = args[0]
		}
		if len(args) > 1 {
			onRejected = args[1]
		}
		derived := promise.Then(c, call, p, onFulfilled, onRejected, r.promiseProto)
		return value.FromObject(derived), nil
	})
	r.method(r.promiseProto, "catch", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		p, ok := this.Object().(*object.PromiseData)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Promise.prototype.catch called on incompatible receiver")
		}
		c := ctxOf(realmArg)
		derived := promise.Then(c, call, p, value.Undefined, firstArg(args), r.promiseProto)
		return value.FromObject(derived), nil
	})
	r.method(r.promiseProto, "finally", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		p, ok := this.Object().(*object.PromiseData)
		if !this.IsObject() || !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "Promise.prototype.finally called on incompatible receiver")
		}
		c := ctxOf(realmArg)
		onFinally, hasFinally := callableArg(args, 0)
		wrap := func(passthrough bool) value.Value {
			return value.FromObject(object.NewNativeFunction(r.tbl, r.functionProto, "", 1, func(realmArg2 any, this2 value.Value, args2 []value.Value, nt2 value.Value) (value.Value, *object.OpError) {
				if hasFinally {
					if _, err := invokeCallable(r, onFinally, value.Undefined, nil); err != nil {
						return value.Value{}, err
					}
				}
				if passthrough {
					return firstArg(args2), nil
				}
				return value.Value{}, &object.OpError{Kind: object.ThrownValueKind, Value: firstArg(args2)}
			}))
		}
		derived := promise.Then(c, call, p, wrap(true), wrap(false), r.promiseProto)
		return value.FromObject(derived), nil
	})

	r.define(r.global, "Promise", value.FromObject(ctor))
}

func errValueFor(c *context.Context, err *object.OpError) value.Value {
	if err == nil {
		return value.Undefined
	}
	if err.Kind == object.ThrownValueKind {
		return err.Value
	}
	if c.NewError != nil {
		return c.NewError(err.Kind, err.Message)
	}
	return value.String(err.Error())
}
