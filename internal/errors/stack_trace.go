package errors

import (
	"fmt"
	"strings"
)

// StackFrame is a single frame of a captured call stack (spec §7, a thrown
// Error's "stack" property): the function running and the call-site
// position within its caller, mirroring the teacher's StackFrame shape.
type StackFrame struct {
	Position     *Position
	FunctionName string
	FileName     string
}

// String renders one frame as "    at FunctionName (file:line:column)",
// matching the conventional V8-style stack trace line built-in code and
// tooling expect to parse/display.
func (sf StackFrame) String() string {
	loc := sf.FileName
	if sf.Position != nil {
		if loc != "" {
			loc = fmt.Sprintf("%s:%d:%d", loc, sf.Position.Line, sf.Position.Column)
		} else {
			loc = sf.Position.String()
		}
	}
	if loc == "" {
		return fmt.Sprintf("    at %s", sf.FunctionName)
	}
	return fmt.Sprintf("    at %s (%s)", sf.FunctionName, loc)
}

// StackTrace is a complete call stack, ordered oldest (bottom) to newest
// (top) — the order frames are pushed in as the VM calls deeper.
type StackTrace []StackFrame

// String renders the trace newest-frame-first, the order V8-style "stack"
// strings use.
func (st StackTrace) String() string {
	if len(st) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := len(st) - 1; i >= 0; i-- {
		sb.WriteString(st[i].String())
		if i > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Top returns the most recently pushed frame, or nil if empty.
func (st StackTrace) Top() *StackFrame {
	if len(st) == 0 {
		return nil
	}
	return &st[len(st)-1]
}

// Depth returns the number of frames captured.
func (st StackTrace) Depth() int { return len(st) }

// NewStackFrame builds a frame for the given function name, source file,
// and call-site position (nil if unknown, e.g. a native function).
func NewStackFrame(functionName, fileName string, position *Position) StackFrame {
	return StackFrame{FunctionName: functionName, FileName: fileName, Position: position}
}

// NewStackTrace creates a new empty stack trace.
func NewStackTrace() StackTrace { return make(StackTrace, 0) }
