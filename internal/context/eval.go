package context

import (
	"fmt"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/bytecode"
	"github.com/cwbudde/ecmago/internal/errors"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// CompiledScript bundles a compiled top-level function with the
// declarations summary Eval's global-declaration-instantiation step needs:
// every `var`/hoisted function name and every `let`/`const` name bound
// directly at the top level, in source order.
type CompiledScript struct {
	Function  *bytecode.Function
	VarNames  []atom.Atom
	LexNames  []atom.Atom
	FuncNames []atom.Atom
}

// Compiler is the external collaborator Eval calls to turn source text into
// a CompiledScript, returning a CompilerError instead on a parse failure.
// This package never implements one itself; it is supplied by whatever
// embeds a Context (pkg/engine).
type Compiler func(source, filename string, isEval, isModule bool) (*CompiledScript, *errors.CompilerError)

// Evaluator runs a compiled top-level function to completion on a VM bound
// to this Context, returning its completion value or the OpError it raised.
// Set by the embedder alongside Compile (mirrors NewError's injection: the
// VM already imports this package, so a Context cannot import the VM back
// without a cycle).
type Evaluator func(fn *bytecode.Function, this value.Value) (value.Value, *object.OpError)

// Eval compiles code and runs it to completion: installs its top-level
// declarations onto the global object (or verifies a direct eval's function
// declarations don't clash with one already there), runs it, and drains
// the microtask queue before returning its completion value. isDirectEval
// distinguishes a direct `eval(...)` call — which runs with the caller's
// `this`, and whose var/let declarations the compiler already scopes to the
// caller's own environment — from every other case (an indirect call, a
// Function constructor body, or a module/script load), which always runs
// against the global object and this Context's global declaration tables.
func (c *Context) Eval(code, filename string, isModule, isDirectEval bool) (value.Value, *object.OpError) {
	if code == "" {
		return value.Undefined, nil
	}

	ok, rangeErr := c.PushFrame(CallFrame{FunctionName: "<eval>", FileName: filename})
	if !ok {
		return value.Value{}, &object.OpError{Kind: object.ThrownValueKind, Value: rangeErr}
	}
	savedThis := c.CurrentThis
	savedInCatch := c.InCatchHandler
	defer func() {
		// Always restore baseline state, regardless of how this call
		// returns: pop the <eval> frame, drop any exception this call
		// raised, and undo whatever the script body left behind in
		// CurrentThis/InCatchHandler.
		c.PopFrame()
		c.CurrentThis = savedThis
		c.InCatchHandler = savedInCatch
		c.ClearPendingException()
	}()

	if c.Compile == nil {
		return value.Value{}, &object.OpError{Kind: "Error", Message: "context has no compiler configured"}
	}
	script, cerr := c.Compile(code, filename, true, isModule)
	if cerr != nil {
		return value.Value{}, c.syntaxErrorOp(cerr.Message)
	}

	// Global-declaration instantiation, simplified to this engine's single
	// global variable/lexical-name tables. A direct eval's var/let bindings
	// are scoped by the compiler into the caller's own environment record
	// rather than the global object, so only its function declarations are
	// checked here against the global object; every other case runs the
	// full instantiation.
	if !isModule {
		if !isDirectEval {
			for _, name := range script.LexNames {
				if err := c.DeclareGlobalLex(name); err != nil {
					return value.Value{}, c.syntaxErrorOp(err.Error())
				}
			}
		}
		for _, name := range script.FuncNames {
			if err := c.canDeclareGlobalFunction(name); err != nil {
				return value.Value{}, c.syntaxErrorOp(err.Error())
			}
		}
		if !isDirectEval {
			for _, name := range script.VarNames {
				if err := c.canDeclareGlobalVar(name); err != nil {
					return value.Value{}, c.syntaxErrorOp(err.Error())
				}
			}
			hoisted := make([]atom.Atom, 0, len(script.VarNames)+len(script.FuncNames))
			hoisted = append(hoisted, script.VarNames...)
			hoisted = append(hoisted, script.FuncNames...)
			for _, name := range hoisted {
				// DeclareGlobalVar re-checks against globalLexNames, catching
				// a clash with a lex declaration from this call (just above)
				// or an earlier one on this same Context.
				if err := c.DeclareGlobalVar(name); err != nil {
					return value.Value{}, c.syntaxErrorOp(err.Error())
				}
				c.installGlobalVarBinding(name)
			}
		}
	}

	// The caller's own `this` for a direct eval, else the global object.
	thisArg := value.FromObject(c.Global)
	if isDirectEval {
		thisArg = c.CurrentThis
	}

	// Initializing the script function's own prototype chain to inherit
	// from Function.prototype is the Evaluator's job: it builds the
	// callable wrapper immediately before invoking it, and only it has
	// access to the realm's Function.prototype.
	if c.RunScript == nil {
		return value.Value{}, &object.OpError{Kind: "Error", Message: "context has no evaluator configured"}
	}

	result, opErr := c.RunScript(script.Function, thisArg)
	if opErr != nil {
		errVal := c.materializeOpError(opErr)
		c.SetPendingException(errVal)
	}

	if c.PendingException != nil {
		return value.Value{}, &object.OpError{Kind: object.ThrownValueKind, Value: c.PendingException.Value}
	}
	c.ProcessMicrotasks()
	return result, nil
}

// materializeOpError turns an OpError into the JS Value it represents: the
// value itself if it already carries one (a `throw`'d value, or a RangeError
// built by PushFrame), else a fresh Error built from Kind/Message via
// NewError.
func (c *Context) materializeOpError(opErr *object.OpError) value.Value {
	if opErr.Kind == object.ThrownValueKind {
		return opErr.Value
	}
	if c.NewError != nil {
		return c.NewError(opErr.Kind, opErr.Message)
	}
	return value.Undefined
}

func (c *Context) syntaxErrorOp(message string) *object.OpError {
	return &object.OpError{Kind: object.ThrownValueKind, Value: c.materializeOpError(&object.OpError{Kind: "SyntaxError", Message: message})}
}

// canDeclareGlobalVar reports whether a var binding named name may be
// installed: rejected only when the global object already has a
// non-configurable own property under that name which isn't itself a
// writable data property.
func (c *Context) canDeclareGlobalVar(name atom.Atom) error {
	desc, ok := c.Global.GetOwnProperty(object.AtomKey(name))
	if !ok {
		return nil
	}
	if desc.Configurable {
		return nil
	}
	if desc.IsData() && desc.HasWritable && desc.Writable {
		return nil
	}
	return fmt.Errorf("Identifier '%s' has already been declared", c.Runtime.Tbl.String(name))
}

// canDeclareGlobalFunction reports whether a function declaration named
// name may be installed: rejected only when the global object already has
// a non-configurable own property under that name.
func (c *Context) canDeclareGlobalFunction(name atom.Atom) error {
	desc, ok := c.Global.GetOwnProperty(object.AtomKey(name))
	if !ok {
		return nil
	}
	if !desc.Configurable {
		return fmt.Errorf("Identifier '%s' has already been declared", c.Runtime.Tbl.String(name))
	}
	return nil
}

// installGlobalVarBinding installs name as a non-configurable `undefined`
// data property on the global object if it is not already an own property.
func (c *Context) installGlobalVarBinding(name atom.Atom) {
	key := object.AtomKey(name)
	if _, ok := c.Global.GetOwnProperty(key); ok {
		return
	}
	c.Global.DefineOwnProperty(key, object.DataDescriptor(value.Undefined, true, true, false))
}
