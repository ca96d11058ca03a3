package engine

import (
	"io"

	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/errors"
	"github.com/cwbudde/ecmago/internal/module"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
	"github.com/cwbudde/ecmago/internal/vm"
)

// Context is one isolated ECMAScript execution environment, wrapping
// internal/context.Context and the VM bound to it.
type Context struct {
	ctx     *context.Context
	vm      *vm.VM
	modules *module.Cache
	watch   *module.Watch
}

// ContextOption configures a Context at creation time, via
// Runtime.CreateContext.
type ContextOption func(*Context)

// WithResolver installs the Resolver Context.LoadModule uses to resolve and
// fetch a specifier not already in the module cache; resolution strategy
// itself is always the embedder's call.
func WithResolver(resolver module.Resolver) ContextOption {
	return func(c *Context) { c.modules = module.NewCache(resolver) }
}

// WithContextStdout overrides the Runtime-level console sink for this
// Context alone.
func WithContextStdout(w io.Writer) ContextOption {
	return func(c *Context) { c.ctx.Stdout = w }
}

// Global returns the Context's global object, for an embedder that needs to
// install host-specific bindings before running any script.
func (c *Context) Global() object.JSObject { return c.ctx.Global }

// SetPromiseRejectCallback installs the hook called for an unhandled promise
// rejection. May be nil to clear a previously installed hook.
func (c *Context) SetPromiseRejectCallback(fn func(promise, reason value.Value)) {
	c.ctx.PromiseRejectCallback = fn
}

// EnqueueMicrotask schedules job on this Context's FIFO microtask queue.
func (c *Context) EnqueueMicrotask(job func()) { c.ctx.EnqueueMicrotask(job) }

// ProcessMicrotasks drains the microtask queue in FIFO order. Eval already
// drains it after running; this is for an embedder driving the queue
// directly between enqueued host callbacks, e.g. a timer implementation.
func (c *Context) ProcessMicrotasks() { c.ctx.ProcessMicrotasks() }

// HasPendingMicrotasks reports whether the microtask queue is non-empty.
func (c *Context) HasPendingMicrotasks() bool { return c.ctx.HasPendingMicrotasks() }

// Eval compiles and runs code to completion, draining the microtask queue
// before returning.
func (c *Context) Eval(code, filename string, isModule bool) (value.Value, error) {
	result, opErr := c.ctx.Eval(code, filename, isModule, false)
	if opErr != nil {
		return value.Value{}, wrapOpError(c.ctx, opErr)
	}
	return result, nil
}

// LoadModule resolves, loads and evaluates specifier against referrer (""
// for a top-level import), serving a cached Record on repeat calls.
func (c *Context) LoadModule(referrer, specifier string) (*module.Record, error) {
	return c.modules.Load(c.ctx, referrer, specifier)
}

// WatchModules starts an optional filesystem watch over dir, evicting a
// cached module record when its resolved source file changes on disk, so
// the next LoadModule call for it re-reads the file instead of serving a
// stale entry. Calling it again replaces the previous watch.
func (c *Context) WatchModules(dir string) error {
	if c.watch != nil {
		c.watch.Close()
		c.watch = nil
	}
	w, err := c.modules.Watch(c.ctx, dir)
	if err != nil {
		return err
	}
	c.watch = w
	return nil
}

// Close releases this Context's own resources (an active module filesystem
// watch, if any). The owning Runtime's Drop tears down the Context's
// registration with the Runtime itself.
func (c *Context) Close() error {
	if c.watch != nil {
		return c.watch.Close()
	}
	return nil
}

// wrapOpError turns an *object.OpError Eval/LoadModule can still surface
// directly (e.g. "context has no compiler configured", raised before a
// thrown value even exists to capture) into a plain Go error, and anything
// else into an *errors.JSError carrying the thrown value and its stack
// trace — already a Go error via its own Error() method, so an embedder
// that only wants a message can treat every failure uniformly while one
// that wants the JS value can type-assert for *errors.JSError.
func wrapOpError(ctx *context.Context, opErr *object.OpError) error {
	if opErr.Kind == object.ThrownValueKind {
		return errors.NewJSError(opErr.Value, ctx.CaptureStackTrace())
	}
	return &EvalError{Kind: opErr.Kind, Message: opErr.Message}
}
