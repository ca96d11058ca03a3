package object

import (
	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

// ErrorKind names one of the built-in Error subclasses (spec §7, "the Error
// hierarchy"). AggregateError additionally carries a list of nested errors
// (ErrorData.Errors) and SuppressedError its own "error"/"suppressed" pair,
// on top of the message/stack pair every kind shares.
type ErrorKind uint8

const (
	ErrorPlain ErrorKind = iota
	ErrorEval
	ErrorRange
	ErrorReference
	ErrorSyntax
	ErrorType
	ErrorURI
	ErrorAggregate
	ErrorSuppressed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorEval:
		return "EvalError"
	case ErrorRange:
		return "RangeError"
	case ErrorReference:
		return "ReferenceError"
	case ErrorSyntax:
		return "SyntaxError"
	case ErrorType:
		return "TypeError"
	case ErrorURI:
		return "URIError"
	case ErrorAggregate:
		return "AggregateError"
	case ErrorSuppressed:
		return "SuppressedError"
	default:
		return "Error"
	}
}

// ErrorData is the Error exotic object (spec §7): an ordinary object whose
// own "message" and "stack" properties are populated at construction time.
// It has no behavior beyond that an ordinary object doesn't already have —
// everything else (toString, capturing a trace) is host/builtin-layer work
// done with a realm in hand, which this package does not have.
type ErrorData struct {
	*Object
	Kind ErrorKind

	// Errors holds the nested error list for AggregateError; nil for every
	// other kind, SuppressedError included.
	Errors []value.Value
}

// NewError allocates an Error object of the given kind with its own
// "message" property (present only when message is non-empty, matching
// native Error's constructor behavior) and "stack" property set to trace.
// proto should be the kind's own prototype (e.g. realm.TypeErrorPrototype),
// not Error.prototype directly.
func NewError(tbl *atom.Table, proto JSObject, kind ErrorKind, message string, trace string) *ErrorData {
	e := &ErrorData{Object: New(tbl, proto, "Error"), Kind: kind}
	e.SetSelf(e)
	if message != "" {
		e.props.set(AtomKey(atom.Message), DataDescriptor(value.String(message), true, false, true))
	}
	e.props.set(AtomKey(atom.Stack), DataDescriptor(value.String(trace), true, false, true))
	return e
}

// NewAggregateError allocates an AggregateError whose own "errors" property
// is a fresh array snapshotting errs (spec §7, AggregateError.prototype).
// makeArray builds that array; it is supplied by the caller (builtins layer)
// since constructing an Array exotic object needs its own prototype, which
// this package has no registry for.
func NewAggregateError(tbl *atom.Table, proto JSObject, errs []value.Value, message string, trace string, makeArray func([]value.Value) *Array) *ErrorData {
	e := NewError(tbl, proto, ErrorAggregate, message, trace)
	e.Errors = errs
	arr := makeArray(errs)
	errorsAtom := tbl.Intern("errors")
	e.props.set(AtomKey(errorsAtom), DataDescriptor(value.FromObject(arr), true, false, true))
	return e
}

// NewSuppressedError allocates a SuppressedError, thrown by a disposal
// sequence (DisposableStack/`using`) when disposing a second resource throws
// while unwinding from a first error (spec §7 SuppressedError, §4.7 step 8).
// errVal is the new (suppressing) error and suppressed is the one it masks.
func NewSuppressedError(tbl *atom.Table, proto JSObject, errVal, suppressed value.Value, message string, trace string) *ErrorData {
	e := NewError(tbl, proto, ErrorSuppressed, message, trace)
	errAtom := tbl.Intern("error")
	suppressedAtom := tbl.Intern("suppressed")
	e.props.set(AtomKey(errAtom), DataDescriptor(errVal, true, false, true))
	e.props.set(AtomKey(suppressedAtom), DataDescriptor(suppressed, true, false, true))
	return e
}
