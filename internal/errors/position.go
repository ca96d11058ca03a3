// Package errors formats source-level and runtime diagnostics, generalizing
// the teacher's CompilerError/StackTrace machinery from a single Pascal-like
// compiler pipeline to ECMAScript's two distinct failure channels: a parse
// error (SyntaxError, reported before any code runs) and a thrown JS value
// caught while a program executes (the JSError wrapper, carrying a captured
// call-stack trace).
package errors

import "fmt"

// Position is a 1-indexed line/column location in a source text, the
// generalized form of the teacher's lexer.Position (kept identical in shape
// so the formatting code below is otherwise unchanged from its origin).
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
