package builtins

import (
	"github.com/cwbudde/ecmago/internal/context"
)

// Init populates ctx.Global with every constructor, prototype and
// free-standing function this engine exposes, in the one order that
// satisfies every installer's dependencies: Object/Function's prototypes
// first (everything else roots itself at one of them), then the value
// properties and free functions, then each constructor family, ending with
// Promise (which needs AggregateError already installed by installErrors
// to build Promise.any's rejection reason) and the binary data family
// (which needs Array.prototype already installed, for TypedArray.prototype
// methods that build on the same iteration helpers).
//
// Generalizes the teacher's single-pass interp/builtins.Register call
// (internal/interp/builtins/register.go), which populates one flat function
// table, to the dependency-ordered multi-pass build ECMAScript's
// prototype-chained global object requires.
func Init(ctx *context.Context) {
	r := &realm{tbl: ctx.Runtime.Tbl, ctx: ctx, global: ctx.Global}

	installObjectAndFunction(r)
	installGlobalValuesAndFunctions(r)
	installConsole(r)
	installArray(r)
	installPrimitiveWrappers(r)
	installErrors(r)
	installCollections(r)
	installMath(r)
	installJSON(r)
	installPromise(r)
	installBinary(r)
}
