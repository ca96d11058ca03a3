package errors

import (
	"github.com/cwbudde/ecmago/internal/value"
)

// JSError is the Go-level carrier for a thrown ECMAScript value (spec §4.5,
// "exception propagation"): `throw` in JS can throw any Value, not just an
// Error instance, so this wraps the thrown Value itself rather than a Go
// error/message pair. Trace is the call stack captured at the throw site,
// independent of whatever "stack" string (if any) the thrown value's own
// Error object carries.
type JSError struct {
	Value value.Value
	Trace StackTrace
}

func NewJSError(v value.Value, trace StackTrace) *JSError {
	return &JSError{Value: v, Trace: trace}
}

// Error implements the Go error interface so a JSError can flow through
// ordinary Go error-returning call chains (the VM's dispatch loop, module
// loader, embedder API) before a caller unwraps .Value for JS-level
// inspection.
func (e *JSError) Error() string {
	if e.Value.IsString() {
		return e.Value.ToGoString()
	}
	if e.Value.IsObject() {
		return e.Value.Object().ClassName()
	}
	return "uncaught exception"
}
