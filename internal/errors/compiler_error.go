package errors

import (
	"fmt"
	"strings"
)

// CompilerError is a single parse/compile-time diagnostic (a SyntaxError
// raised before any bytecode runs), carrying enough source context to print
// a caret-annotated message the way the teacher's compiler front-end does.
type CompilerError struct {
	Message string
	Source  string
	File    string
	Pos     Position
}

// NewCompilerError creates a new compiler error.
func NewCompilerError(pos Position, message, source, file string) *CompilerError {
	return &CompilerError{Pos: pos, Message: message, Source: source, File: file}
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	return e.Format(false)
}

// Format formats the error message with a single line of source context.
// If color is true, ANSI color codes are used for terminal output.
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%s:%d:%d: ", e.File, e.Pos.Line, e.Pos.Column))
	} else {
		sb.WriteString(fmt.Sprintf("<input>:%d:%d: ", e.Pos.Line, e.Pos.Column))
	}
	if color {
		sb.WriteString("\033[1;31mSyntaxError\033[0m: ")
	} else {
		sb.WriteString("SyntaxError: ")
	}
	sb.WriteString(e.Message)

	if line := e.getSourceLine(e.Pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("\n%4d | ", e.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)-1+e.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m^\033[0m")
		} else {
			sb.WriteString("^")
		}
	}

	return sb.String()
}

func (e *CompilerError) getSourceLine(lineNum int) string {
	if e.Source == "" {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatErrors formats multiple compiler errors, one block per error.
func FormatErrors(errs []*CompilerError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d syntax errors:\n\n", len(errs)))
	for i, e := range errs {
		sb.WriteString(e.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
