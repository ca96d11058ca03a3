package bytecode

import (
	"github.com/cwbudde/ecmago/internal/value"
)

// UpvalueDef describes how a closure captures one free variable at
// OpMakeClosure time (spec §3 Lifecycle "closures capture by reference"):
// either lifting a local slot from the immediately enclosing frame, or
// forwarding an upvalue the enclosing function already captured.
type UpvalueDef struct {
	FromParentLocal bool // true: capture parent frame's Locals[Index]; false: capture parent's Upvalues[Index]
	Index           int
}

// ExceptionHandler is one entry of a Function's exception-handler table
// (spec §4.5 "exception-handler tables"): while pc is in [StartPC, EndPC),
// a thrown exception transfers control to HandlerPC with the operand stack
// truncated to StackDepth and, if IsFinally is false, the exception value
// pushed for a catch binding.
type ExceptionHandler struct {
	StartPC    int
	EndPC      int
	HandlerPC  int
	StackDepth int
	IsFinally  bool
}

// LineEntry maps a bytecode offset to a source line, the debug line map a
// thrown error's stack trace consults (spec §7 "stack" property).
type LineEntry struct {
	PC   int
	Line int
}

// Chunk is one function's compiled bytecode: the instruction stream, its
// constant pool, and the metadata the VM needs to execute and debug it.
type Chunk struct {
	Code      []uint32
	Constants []value.Value
	Handlers  []ExceptionHandler
	Lines     []LineEntry
}

// LineForPC returns the source line active at pc, the last LineEntry whose
// PC does not exceed pc.
func (c *Chunk) LineForPC(pc int) int {
	line := 0
	for _, e := range c.Lines {
		if e.PC > pc {
			break
		}
		line = e.Line
	}
	return line
}

// Function is one compiled ECMAScript function: its chunk, calling-
// convention metadata, and the upvalue capture list its closures consult at
// creation time.
type Function struct {
	Name        string
	Chunk       *Chunk
	ParamCount_ int
	NumLocals   int
	Upvalues    []UpvalueDef
	IsArrow     bool
	IsAsync     bool
	IsGenerator bool

	// Inner holds every function literal nested directly inside this one,
	// indexed by the constant-pool slot OpMakeClosure reads (spec §6
	// "inner function table").
	Inner []*Function
}

// FunctionName and ParamCount implement object.BytecodeFunctionRef, letting
// internal/object describe a function's "name"/"length" properties without
// importing this package.
func (f *Function) FunctionName() string { return f.Name }
func (f *Function) ParamCount() int      { return f.ParamCount_ }

// NewFunction allocates an empty Function ready for a compiler to emit into.
func NewFunction(name string, paramCount int) *Function {
	return &Function{
		Name:        name,
		Chunk:       &Chunk{},
		ParamCount_: paramCount,
	}
}
