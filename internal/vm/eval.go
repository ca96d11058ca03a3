package vm

import (
	"github.com/cwbudde/ecmago/internal/bytecode"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// RunScript implements context.Evaluator: it wraps fn as a callable
// function object rooted at this realm's Function.prototype and invokes it
// with this as `this` and no arguments, the calling convention Context.Eval
// uses for a top-level script or eval body. The nil env is passed as the
// enclosing frame since a top-level function never captures upvalues.
func (vm *VM) RunScript(fn *bytecode.Function, this value.Value) (value.Value, *object.OpError) {
	fo := object.NewBytecodeFunctionObject(vm.Ctx.Runtime.Tbl, vm.functionPrototype(), fn, nil)
	return vm.Invoke(value.FromObject(fo), this, nil)
}
