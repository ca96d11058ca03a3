package context

import (
	"strings"
	"testing"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/bytecode"
	"github.com/cwbudde/ecmago/internal/errors"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

func TestEvalOfEmptySourceReturnsUndefinedWithoutCompiling(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Compile = func(string, string, bool, bool) (*CompiledScript, *errors.CompilerError) {
		t.Fatalf("Compile should not be called for empty source")
		return nil, nil
	}
	v, opErr := ctx.Eval("", "main.js", false, false)
	if opErr != nil {
		t.Fatalf("unexpected error: %v", opErr)
	}
	if !v.IsUndefined() {
		t.Fatalf("expected undefined, got %v", v)
	}
}

func TestEvalReturnsCompletionValueAndDrainsMicrotasks(t *testing.T) {
	ctx := newTestContext(t)
	script := &CompiledScript{Function: bytecode.NewFunction("<eval>", 0)}
	var ran bool
	ctx.Compile = func(string, string, bool, bool) (*CompiledScript, *errors.CompilerError) {
		return script, nil
	}
	ctx.RunScript = func(fn *bytecode.Function, this value.Value) (value.Value, *object.OpError) {
		ctx.EnqueueMicrotask(func() { ran = true })
		return value.Number(42), nil
	}
	v, opErr := ctx.Eval("40 + 2", "main.js", false, false)
	if opErr != nil {
		t.Fatalf("unexpected error: %v", opErr)
	}
	if !v.IsNumber() || v.ToFloat64() != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
	if !ran {
		t.Fatalf("expected microtasks queued during eval to have drained")
	}
}

func TestEvalRunsWithGlobalThisForIndirectEval(t *testing.T) {
	ctx := newTestContext(t)
	script := &CompiledScript{Function: bytecode.NewFunction("<eval>", 0)}
	var seenThis value.Value
	ctx.Compile = func(string, string, bool, bool) (*CompiledScript, *errors.CompilerError) {
		return script, nil
	}
	ctx.RunScript = func(fn *bytecode.Function, this value.Value) (value.Value, *object.OpError) {
		seenThis = this
		return value.Undefined, nil
	}
	if _, opErr := ctx.Eval("this", "main.js", false, false); opErr != nil {
		t.Fatalf("unexpected error: %v", opErr)
	}
	if !seenThis.IsObject() || seenThis.Object() != ctx.Global {
		t.Fatalf("expected an indirect eval to run with globalThis")
	}
}

func TestEvalRunsWithCallerThisForDirectEval(t *testing.T) {
	ctx := newTestContext(t)
	caller := object.New(ctx.Runtime.Tbl, nil, "Object")
	ctx.CurrentThis = value.FromObject(caller)
	script := &CompiledScript{Function: bytecode.NewFunction("<eval>", 0)}
	var seenThis value.Value
	ctx.Compile = func(string, string, bool, bool) (*CompiledScript, *errors.CompilerError) {
		return script, nil
	}
	ctx.RunScript = func(fn *bytecode.Function, this value.Value) (value.Value, *object.OpError) {
		seenThis = this
		return value.Undefined, nil
	}
	if _, opErr := ctx.Eval("this", "main.js", false, true); opErr != nil {
		t.Fatalf("unexpected error: %v", opErr)
	}
	if !seenThis.IsObject() || seenThis.Object() != caller {
		t.Fatalf("expected direct eval to run with the caller's this")
	}
}

func TestEvalRaisesSyntaxErrorFromCompiler(t *testing.T) {
	ctx := newTestContext(t)
	var gotKind, gotMessage string
	ctx.NewError = func(kind, message string) value.Value {
		gotKind, gotMessage = kind, message
		return value.FromObject(object.New(ctx.Runtime.Tbl, nil, "Error"))
	}
	ctx.Compile = func(string, string, bool, bool) (*CompiledScript, *errors.CompilerError) {
		return nil, errors.NewCompilerError(errors.Position{Line: 1, Column: 1}, "unexpected token", "let", "main.js")
	}
	_, opErr := ctx.Eval("let", "main.js", false, false)
	if opErr == nil {
		t.Fatalf("expected a compile error to be raised")
	}
	if opErr.Kind != object.ThrownValueKind {
		t.Fatalf("expected a thrown-value OpError, got %q", opErr.Kind)
	}
	if gotKind != "SyntaxError" {
		t.Fatalf("expected SyntaxError, got %q", gotKind)
	}
	if !strings.Contains(gotMessage, "unexpected token") {
		t.Fatalf("expected the compiler's message to survive, got %q", gotMessage)
	}
}

func TestEvalRejectsVarClashWithExistingLexDeclaration(t *testing.T) {
	ctx := newTestContext(t)
	x := ctx.Runtime.Tbl.Intern("x")
	if err := ctx.DeclareGlobalLex(x); err != nil {
		t.Fatalf("unexpected error declaring let x: %v", err)
	}
	ctx.NewError = func(kind, message string) value.Value { return value.String(message) }
	script := &CompiledScript{Function: bytecode.NewFunction("<eval>", 0), VarNames: []atom.Atom{x}}
	ctx.Compile = func(string, string, bool, bool) (*CompiledScript, *errors.CompilerError) {
		return script, nil
	}
	ctx.RunScript = func(fn *bytecode.Function, this value.Value) (value.Value, *object.OpError) {
		t.Fatalf("RunScript should not run once a global declaration clash is detected")
		return value.Undefined, nil
	}
	_, opErr := ctx.Eval("var x", "b.js", false, false)
	if opErr == nil {
		t.Fatalf("expected var x to clash with the prior let x")
	}
	if !opErr.Value.IsString() || !strings.Contains(opErr.Value.ToGoString(), "already been declared") {
		t.Fatalf("expected the declared-twice message, got %v", opErr.Value)
	}
}

func TestEvalInstallsNewVarBindingAsNonConfigurable(t *testing.T) {
	ctx := newTestContext(t)
	y := ctx.Runtime.Tbl.Intern("y")
	script := &CompiledScript{Function: bytecode.NewFunction("<eval>", 0), VarNames: []atom.Atom{y}}
	ctx.Compile = func(string, string, bool, bool) (*CompiledScript, *errors.CompilerError) {
		return script, nil
	}
	ctx.RunScript = func(fn *bytecode.Function, this value.Value) (value.Value, *object.OpError) {
		return value.Undefined, nil
	}
	if _, opErr := ctx.Eval("var y", "main.js", false, false); opErr != nil {
		t.Fatalf("unexpected error: %v", opErr)
	}
	desc, ok := ctx.Global.GetOwnProperty(object.AtomKey(y))
	if !ok {
		t.Fatalf("expected var y to be installed on the global object")
	}
	if desc.Configurable {
		t.Fatalf("expected the installed var binding to be non-configurable")
	}
	if !desc.Value.IsUndefined() {
		t.Fatalf("expected the installed var binding to start undefined")
	}
}

func TestEvalRaisesPendingExceptionFromRunScript(t *testing.T) {
	ctx := newTestContext(t)
	script := &CompiledScript{Function: bytecode.NewFunction("<eval>", 0)}
	ctx.Compile = func(string, string, bool, bool) (*CompiledScript, *errors.CompilerError) {
		return script, nil
	}
	ctx.RunScript = func(fn *bytecode.Function, this value.Value) (value.Value, *object.OpError) {
		return value.Value{}, &object.OpError{Kind: object.ThrownValueKind, Value: value.String("boom")}
	}
	_, opErr := ctx.Eval("throw 'boom'", "main.js", false, false)
	if opErr == nil {
		t.Fatalf("expected the thrown value to propagate out of Eval")
	}
	if !opErr.Value.IsString() || opErr.Value.ToGoString() != "boom" {
		t.Fatalf("expected the thrown value 'boom' to survive, got %v", opErr.Value)
	}
	if ctx.PendingException != nil {
		t.Fatalf("expected Eval to clear the pending exception before returning (step 9)")
	}
	if ctx.Depth() != 0 {
		t.Fatalf("expected the <eval> frame to be popped, depth=%d", ctx.Depth())
	}
}

func TestEvalResetsInCatchHandlerAfterReturning(t *testing.T) {
	ctx := newTestContext(t)
	caller := object.New(ctx.Runtime.Tbl, nil, "Object")
	ctx.CurrentThis = value.FromObject(caller)
	script := &CompiledScript{Function: bytecode.NewFunction("<eval>", 0)}
	ctx.Compile = func(string, string, bool, bool) (*CompiledScript, *errors.CompilerError) {
		return script, nil
	}
	ctx.RunScript = func(fn *bytecode.Function, this value.Value) (value.Value, *object.OpError) {
		ctx.InCatchHandler = true
		return value.Undefined, nil
	}
	if _, opErr := ctx.Eval("1", "main.js", false, true); opErr != nil {
		t.Fatalf("unexpected error: %v", opErr)
	}
	if ctx.InCatchHandler {
		t.Fatalf("expected InCatchHandler reset after Eval returns")
	}
	if ctx.CurrentThis.Object() != caller {
		t.Fatalf("expected CurrentThis unchanged by a direct eval that ran with it")
	}
}
