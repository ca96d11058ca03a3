package errors

import (
	"strings"
	"testing"

	"github.com/cwbudde/ecmago/internal/value"
)

func TestCompilerErrorFormatIncludesCaret(t *testing.T) {
	e := NewCompilerError(Position{Line: 2, Column: 5}, "unexpected token", "let x =\nlet y = ;", "main.js")
	out := e.Format(false)
	if !strings.Contains(out, "main.js:2:5") {
		t.Fatalf("expected position header, got %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Fatalf("expected caret indicator, got %q", out)
	}
}

func TestStackTraceStringNewestFirst(t *testing.T) {
	st := NewStackTrace()
	st = append(st, NewStackFrame("outer", "main.js", &Position{Line: 1, Column: 1}))
	st = append(st, NewStackFrame("inner", "main.js", &Position{Line: 2, Column: 3}))

	out := st.String()
	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[0], "inner") {
		t.Fatalf("expected newest frame first, got %q", out)
	}
}

func TestJSErrorWrapsThrownValue(t *testing.T) {
	err := NewJSError(value.String("boom"), NewStackTrace())
	if err.Error() != "boom" {
		t.Fatalf("expected Error() to return the thrown string, got %q", err.Error())
	}
}
