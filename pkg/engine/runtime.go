// Package engine is the embedder-facing public API: the only package an
// external Go program needs to import to create isolated ECMAScript
// execution contexts, evaluate code, and drive their microtask queues. It
// wires internal/jsruntime, internal/context,
// internal/vm, internal/builtins and internal/module together, generalizing
// the teacher's cmd/dwscript — which wires its lexer/parser/semantic/interp
// packages together for a single program run — into a reusable, multi-
// context embedding surface a host program keeps around for its lifetime
// rather than a one-shot CLI invocation.
package engine

import (
	"io"

	"go.uber.org/zap"

	"github.com/cwbudde/ecmago/internal/builtins"
	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/jsruntime"
	"github.com/cwbudde/ecmago/internal/module"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/vm"
)

// Runtime owns every resource shared across the contexts it creates: the
// atom table, the well-known symbol identities, and a structured logger.
type Runtime struct {
	rt       *jsruntime.Runtime
	compiler context.Compiler
	stdout   io.Writer
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithLogger routes the Runtime's structured diagnostics through logger
// instead of the default no-op sink.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.rt.Logger = logger
		}
	}
}

// WithCompiler installs the external compiler collaborator — a function
// accepting (source, filename, isEval, isModule) and returning either
// compiled bytecode plus a declarations summary, or a compiler error —
// every Context this Runtime creates will use. Without one, Context.Eval
// reports an error the first time it is called: this package deliberately
// ships no parser of its own — turning source text into bytecode is an
// external collaborator's job, not something internal/bytecode's data
// format implies a compiler lives here too.
func WithCompiler(compiler context.Compiler) Option {
	return func(r *Runtime) { r.compiler = compiler }
}

// WithStdout sets the default console sink every Context this Runtime
// creates writes through, unless a Context overrides it with
// WithContextStdout.
func WithStdout(w io.Writer) Option {
	return func(r *Runtime) { r.stdout = w }
}

// New allocates a Runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{rt: jsruntime.NewRuntime(nil)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Drop tears down every Context this Runtime created.
func (r *Runtime) Drop() { r.rt.Drop() }

// Interrupt requests that any Context running on this Runtime abort before
// its next instruction.
func (r *Runtime) Interrupt() { r.rt.Interrupt() }

// ClearInterrupt resets the interrupt flag set by Interrupt.
func (r *Runtime) ClearInterrupt() { r.rt.ClearInterrupt() }

// Interrupted reports whether Interrupt has been called without a matching
// ClearInterrupt.
func (r *Runtime) Interrupted() bool { return r.rt.Interrupted() }

// CreateContext allocates a new isolated execution environment: a bare
// global object, every built-in installed onto it in internal/builtins.Init's
// fixed order, and a VM bound to it and wired as both its
// Evaluator (Context.RunScript) and its general call dispatcher
// (Context.Invoke) — the latter is what lets a built-in like
// Array.prototype.map or Promise.prototype.then actually run a compiled
// user callback instead of reporting a TypeError.
func (r *Runtime) CreateContext(opts ...ContextOption) *Context {
	global := object.New(r.rt.Tbl, nil, "global")
	ctx := context.NewContext(r.rt, global)
	ctx.Stdout = r.stdout
	ctx.Compile = r.compiler

	builtins.Init(ctx)

	theVM := vm.New(ctx)
	ctx.RunScript = theVM.RunScript
	ctx.Invoke = theVM.Invoke

	c := &Context{ctx: ctx, vm: theVM, modules: module.NewCache(nil)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
