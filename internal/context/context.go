// Package context implements the per-embedding execution environment (spec
// §4.4): the global object, module cache, call stack, pending exception,
// and microtask queue a single isolated `Context` owns inside a Runtime.
// It generalizes the teacher's interpreter-level "Environment"/call-stack
// bookkeeping (internal/interp/runtime in go-dws) from a single global
// DWScript program to ES's multi-context, module-aware model.
package context

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/errors"
	"github.com/cwbudde/ecmago/internal/jsruntime"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// DefaultMaxCallDepth is the call-stack depth Context enforces before
// raising a RangeError (spec §4.4, "a configurable max depth (default
// 1000)").
const DefaultMaxCallDepth = 1000

// CallFrame is one entry of Context's call stack (spec §4.4): enough to
// format a "stack" string and to report a RangeError's own diagnostic.
type CallFrame struct {
	FunctionName string
	FileName     string
	Line, Column int
}

// Module is a cached module record (spec §6 Context::load_module). This
// package only defines the cache shape; resolution/linking is the
// embedder's job via Resolver (internal/module).
type Module struct {
	Specifier string
	Namespace value.Value
	Evaluated bool
}

// ErrorFactory builds a materialized Error Value of the given kind
// (spec §7's error-kind tags) with the given message. It is supplied by the
// builtins layer once the Error prototype hierarchy exists — this package
// cannot construct one itself since it has no constructor/prototype
// registry (spec §7, note on native functions signaling failure via the
// context rather than allocating directly).
type ErrorFactory func(kind, message string) value.Value

// Context is one isolated ECMAScript execution environment (spec §4.4).
type Context struct {
	ID      uuid.UUID
	Runtime *jsruntime.Runtime

	Global object.JSObject

	Modules map[string]*Module

	CallStack    []CallFrame
	MaxCallDepth int

	PendingException *errors.JSError
	InCatchHandler   bool
	CurrentThis      value.Value

	StrictGlobal bool

	// microtasks is the per-context FIFO job queue (spec §4.4, §5
	// "thread-local to the context").
	microtasks []func()

	// PromiseRejectCallback is invoked for an unhandled promise rejection
	// (spec §4.4's "promise-rejection callback hook", §7 propagation
	// policy). May be nil.
	PromiseRejectCallback func(promise, reason value.Value)

	// globalVarNames/globalLexNames back GlobalDeclarationInstantiation's
	// cross-script redeclaration checks (spec §4.4, §8 scenario 3).
	globalVarNames map[atom.Atom]bool
	globalLexNames map[atom.Atom]bool

	NewError ErrorFactory

	// Compile and RunScript are the two collaborators Eval wires together
	// (spec §4.4, §6): an external compiler front-end and a VM bound to
	// this Context, injected by the embedder (pkg/engine) once both exist,
	// since neither this package nor a compiler front-end may import the
	// other without a cycle.
	Compile   Compiler
	RunScript Evaluator

	// Invoke dispatches a call to any callable object — native, compiled
	// bytecode, or bound — the same collaborator Get/Set/DefineOwnProperty
	// use for accessor properties. Set alongside RunScript once this
	// Context's VM exists; builtins.Init's installers fall back to calling
	// only native functions directly when this is nil (true only before an
	// embedder finishes wiring a Context).
	Invoke object.Invoker

	// Stdout is the sink `console`'s built-in methods write to, generalizing
	// the teacher's injectable Context.Write/WriteLine (internal/interp/
	// builtins/context.go) from a single DWScript output stream to ES's
	// `console` global. Nil discards output rather than panicking, so a
	// headless embedding that never wires one still runs scripts that log.
	Stdout io.Writer
}

// NewContext allocates a Context registered with rt. global is the bare
// global object the builtins layer will populate (spec §4.7); it is created
// here so Context can expose it before initialization completes.
func NewContext(rt *jsruntime.Runtime, global object.JSObject) *Context {
	ctx := &Context{
		ID:             uuid.New(),
		Runtime:        rt,
		Global:         global,
		Modules:        make(map[string]*Module),
		MaxCallDepth:   DefaultMaxCallDepth,
		CurrentThis:    value.FromObject(global),
		globalVarNames: make(map[atom.Atom]bool),
		globalLexNames: make(map[atom.Atom]bool),
	}
	rt.RegisterContext(ctx.ID, func() {})
	return ctx
}

// PushFrame pushes a call frame, enforcing MaxCallDepth (spec §4.4: over the
// limit raises RangeError). Returns the RangeError Value (via NewError) to
// throw, or Value{} (IsUndefined? no — callers must check ok) when the push
// succeeded.
func (c *Context) PushFrame(frame CallFrame) (ok bool, rangeErr value.Value) {
	if len(c.CallStack) >= c.MaxCallDepth {
		if c.NewError != nil {
			return false, c.NewError("RangeError", "Maximum call stack size exceeded")
		}
		return false, value.Undefined
	}
	c.CallStack = append(c.CallStack, frame)
	return true, value.Value{}
}

// PopFrame pops the most recently pushed call frame. It is a no-op (rather
// than a panic) on an empty stack, since unwinding code may pop defensively
// during error recovery.
func (c *Context) PopFrame() {
	if len(c.CallStack) == 0 {
		return
	}
	c.CallStack = c.CallStack[:len(c.CallStack)-1]
}

// Depth reports the current call-stack depth.
func (c *Context) Depth() int { return len(c.CallStack) }

// CaptureStackTrace snapshots the current call stack into a StackTrace,
// newest frame last (matching internal/errors.StackTrace's bottom-to-top
// ordering), for attaching to a thrown error (spec §7 "Stack-trace
// capture").
func (c *Context) CaptureStackTrace() errors.StackTrace {
	trace := make(errors.StackTrace, len(c.CallStack))
	for i, f := range c.CallStack {
		pos := &errors.Position{Line: f.Line, Column: f.Column}
		trace[i] = errors.NewStackFrame(f.FunctionName, f.FileName, pos)
	}
	return trace
}

// SetPendingException installs v as the pending exception, capturing the
// current stack trace, unless InCatchHandler is set (spec §4.4 "the latter
// suppresses overwriting an exception that is being handled"). Outside a
// catch handler it replaces any exception already pending, so the slot
// holds at most one (spec §4.4).
func (c *Context) SetPendingException(v value.Value) {
	if c.InCatchHandler {
		return
	}
	c.PendingException = errors.NewJSError(v, c.CaptureStackTrace())
}

// ClearPendingException clears the pending exception slot, e.g. once a
// catch handler has consumed it.
func (c *Context) ClearPendingException() { c.PendingException = nil }

// EnqueueMicrotask appends a job to the FIFO queue (spec §6
// Context::enqueue_microtask).
func (c *Context) EnqueueMicrotask(job func()) {
	c.microtasks = append(c.microtasks, job)
}

// ProcessMicrotasks drains the queue, running jobs in FIFO order; a job
// enqueued during drain runs within the same drain after the jobs already
// queued (spec §5 "Ordering guarantees", §8 "Microtask FIFO").
func (c *Context) ProcessMicrotasks() {
	for len(c.microtasks) > 0 {
		job := c.microtasks[0]
		c.microtasks = c.microtasks[1:]
		job()
	}
}

// HasPendingMicrotasks reports whether the queue is non-empty.
func (c *Context) HasPendingMicrotasks() bool { return len(c.microtasks) > 0 }

// DeclareGlobalVar registers name as a var-scoped global declaration,
// rejecting a clash with an existing lexical (let/const) declaration of the
// same name (spec §4.4 step 4, §8 scenario 3).
func (c *Context) DeclareGlobalVar(name atom.Atom) error {
	if c.globalLexNames[name] {
		return fmt.Errorf("Identifier '%s' has already been declared", c.Runtime.Tbl.String(name))
	}
	c.globalVarNames[name] = true
	return nil
}

// DeclareGlobalLex registers name as a lexical (let/const) global
// declaration, rejecting a clash with any existing var or lexical
// declaration of the same name.
func (c *Context) DeclareGlobalLex(name atom.Atom) error {
	if c.globalLexNames[name] || c.globalVarNames[name] {
		return fmt.Errorf("Identifier '%s' has already been declared", c.Runtime.Tbl.String(name))
	}
	c.globalLexNames[name] = true
	return nil
}

// ResetEvalState restores the per-eval transient state to its baseline
// (spec §4.4 step 9, §8 "Eval frame isolation"): depth 0, no pending
// exception, not in a catch handler, `this` back to the global object.
func (c *Context) ResetEvalState() {
	c.CallStack = c.CallStack[:0]
	c.PendingException = nil
	c.InCatchHandler = false
	c.CurrentThis = value.FromObject(c.Global)
}
