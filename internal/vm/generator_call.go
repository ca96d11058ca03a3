package vm

import (
	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/bytecode"
	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/promise"
	"github.com/cwbudde/ecmago/internal/value"
)

// buildFrame materializes a fresh activation record for fn the same way
// callBytecode does, without touching vm.frames/vm.stack — generator and
// async bodies run on a dedicated VM instance, not this one.
func buildFrame(fn *bytecode.Function, env any, this, newTarget value.Value, args []value.Value) *Frame {
	locals := make([]*Cell, fn.NumLocals)
	for i := range locals {
		locals[i] = &Cell{}
	}
	for i := 0; i < fn.ParamCount_ && i < len(args); i++ {
		locals[i].V = args[i]
	}
	frame := &Frame{Fn: fn, Locals: locals, This: this, NewTarget: newTarget}
	if parentEnv, ok := env.(*Frame); ok {
		frame.Upvalues = resolveUpvalues(fn, parentEnv)
	}
	return frame
}

// startGenerator implements calling a generator function: the
// call returns an iterator immediately without running any of the body —
// the body only runs as .next()/.throw()/.return() drive the coroutine
// (generator.go).
func (vm *VM) startGenerator(fo *object.BytecodeFunctionObject, fn *bytecode.Function, this, newTarget value.Value, args []value.Value) (value.Value, *object.OpError) {
	inner := New(vm.Ctx)
	frame := buildFrame(fn, fo.Env, this, newTarget, args)
	gen := NewGenerator(inner, frame)

	generatorProto := vm.protoFromGlobal("Generator")
	if proto, _ := fo.Get(object.AtomKey(atom.Prototype), value.FromObject(fo), vm.Invoke); proto.IsObject() {
		if p, ok := proto.Object().(object.JSObject); ok {
			generatorProto = p
		}
	}

	obj := object.NewGeneratorObject(vm.Ctx.Runtime.Tbl, generatorProto, gen)
	vm.installGeneratorMethods(obj, gen)
	return value.FromObject(obj), nil
}

// installGeneratorMethods gives a generator instance its own "next",
// "throw", and "return" — iterator-protocol methods that drive gen and
// translate its (value, done) pairs into the standard {value, done}
// iterator result object.
func (vm *VM) installGeneratorMethods(obj *object.GeneratorObject, gen *Generator) {
	tbl := vm.Ctx.Runtime.Tbl
	objectProto := vm.objectPrototype()

	wrap := func(name string, step func(v value.Value) (value.Value, bool, *object.OpError)) {
		fn := object.NewNativeFunction(tbl, vm.functionPrototype(), name, 1, func(realm any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
			var arg value.Value
			if len(args) > 0 {
				arg = args[0]
			}
			v, done, opErr := step(arg)
			if opErr != nil {
				// opErr's Kind/Value already describe the generator body's
				// uncaught throw exactly the way any other nested call's
				// error would (object.OpError carries the thrown value
				// itself now, not a VM-local field), so it propagates to
				// this call's own caller unchanged.
				return value.Value{}, opErr
			}
			return iteratorResult(tbl, objectProto, v, done), nil
		})
		_, _ = obj.DefineOwnProperty(object.AtomKey(tbl.Intern(name)), object.DataDescriptor(value.FromObject(fn), true, false, true))
	}

	wrap("next", gen.Next)
	wrap("throw", gen.Throw)
	wrap("return", gen.Return)
}

func iteratorResult(tbl *atom.Table, objectProto object.JSObject, v value.Value, done bool) value.Value {
	rec := object.New(tbl, objectProto, "Object")
	rec.DefineOwnProperty(object.AtomKey(atom.Value), object.DataDescriptor(v, true, true, true))
	rec.DefineOwnProperty(object.AtomKey(atom.Done), object.DataDescriptor(value.Bool(done), true, true, true))
	return value.FromObject(rec)
}

// startAsync implements calling an async function: the
// body runs synchronously up to its first await (or to completion, if it
// never awaits), exactly like a generator driven by a hidden internal
// driver — the call returns a Promise for the eventual result, settled as
// the driver exhausts the coroutine across however many microtask turns
// that takes.
func (vm *VM) startAsync(fo *object.BytecodeFunctionObject, fn *bytecode.Function, this, newTarget value.Value, args []value.Value) (value.Value, *object.OpError) {
	inner := New(vm.Ctx)
	frame := buildFrame(fn, fo.Env, this, newTarget, args)
	gen := NewGenerator(inner, frame)

	c := promise.NewCapability(vm.Ctx.Runtime.Tbl, vm.promisePrototype())
	driveAsync(vm.Ctx, vm.Invoke, c, gen, vm.promisePrototype(), value.Undefined, false)
	return value.FromObject(c.Promise), nil
}

// driveAsync advances gen one step (feeding resume as a resolved value, or
// as a throw when resumeIsThrow) and reacts to what comes back: body
// finished (settle cap), or suspended on an awaited value (wrap it in
// Promise.resolve and continue once it settles, via a Then reaction —
// itself a microtask, so the whole chain runs entirely on Ctx's existing
// single-threaded microtask queue with no extra concurrency exposed to the
// rest of the VM).
func driveAsync(ctx *context.Context, call object.Invoker, c *promise.Capability, gen *Generator, promiseProto object.JSObject, resume value.Value, resumeIsThrow bool) {
	var v value.Value
	var done bool
	var opErr *object.OpError
	if resumeIsThrow {
		v, done, opErr = gen.Throw(resume)
	} else {
		v, done, opErr = gen.Next(resume)
	}

	if opErr != nil {
		reason := opErr.Value
		if opErr.Kind != thrownSentinelKind {
			reason = errValueFor(ctx, opErr)
		}
		c.Reject(ctx, call, reason)
		return
	}
	if done {
		c.Resolve(ctx, call, v)
		return
	}

	awaited := promise.Resolved(ctx, call, promiseProto, v)
	promise.Then(ctx, call, awaited,
		nativeContinuation(ctx, func(settled value.Value) (value.Value, *object.OpError) {
			driveAsync(ctx, call, c, gen, promiseProto, settled, false)
			return value.Undefined, nil
		}),
		nativeContinuation(ctx, func(reason value.Value) (value.Value, *object.OpError) {
			driveAsync(ctx, call, c, gen, promiseProto, reason, true)
			return value.Undefined, nil
		}),
		promiseProto,
	)
}

func nativeContinuation(ctx *context.Context, fn func(arg value.Value) (value.Value, *object.OpError)) value.Value {
	nf := object.NewNativeFunction(ctx.Runtime.Tbl, nil, "", 1, func(realm any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		var arg value.Value
		if len(args) > 0 {
			arg = args[0]
		}
		return fn(arg)
	})
	return value.FromObject(nf)
}

func errValueFor(ctx *context.Context, opErr *object.OpError) value.Value {
	if ctx.NewError == nil {
		return value.String(opErr.Kind + ": " + opErr.Message)
	}
	return ctx.NewError(opErr.Kind, opErr.Message)
}

func (vm *VM) promisePrototype() object.JSObject { return vm.protoFromGlobal("Promise") }
