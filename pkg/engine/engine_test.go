package engine_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/bytecode"
	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/errors"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
	"github.com/cwbudde/ecmago/pkg/engine"
)

// fakeCompiler stands in for the external parser/compiler this module never
// implements: it recognizes a handful of fixed source strings and returns
// hand-assembled bytecode for them, the same style vm_test.go's ins()-built
// Functions use to exercise the VM without a real front end.
func fakeCompiler(source, filename string, isEval, isModule bool) (*context.CompiledScript, *errors.CompilerError) {
	switch source {
	case "1 + 1":
		return &context.CompiledScript{Function: addOneOne()}, nil
	case "Math.sqrt(16)":
		return &context.CompiledScript{Function: callMathSqrt()}, nil
	default:
		return nil, errors.NewCompilerError(errors.Position{Line: 1, Column: 1}, "unrecognized test source", source, filename)
	}
}

func ins(op bytecode.OpCode, a uint8, b uint16) uint32 {
	return bytecode.Encode(bytecode.Instruction{Op: op, A: a, B: b})
}

func addOneOne() *bytecode.Function {
	fn := bytecode.NewFunction("<test>", 0)
	fn.Chunk.Constants = []value.Value{value.Number(1), value.Number(1)}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadConst, 0, 0),
		ins(bytecode.OpLoadConst, 0, 1),
		ins(bytecode.OpAdd, 0, 0),
		ins(bytecode.OpReturn, 0, 0),
	}
	return fn
}

// callMathSqrt loads the global Math object, reads its sqrt method, and
// calls it with 16 — exercising global lookup, property access and a
// native built-in call through the same path a compiled script would use.
func callMathSqrt() *bytecode.Function {
	fn := bytecode.NewFunction("<test>", 0)
	fn.Chunk.Constants = []value.Value{value.String("Math"), value.String("sqrt"), value.Number(16)}
	fn.Chunk.Code = []uint32{
		ins(bytecode.OpLoadGlobal, 0, 0),
		ins(bytecode.OpGetProp, 0, 1),
		ins(bytecode.OpLoadConst, 0, 2),
		ins(bytecode.OpCall, 1, 0),
		ins(bytecode.OpReturn, 0, 0),
	}
	return fn
}

func TestEvalRunsCompiledArithmetic(t *testing.T) {
	rt := engine.New(engine.WithCompiler(fakeCompiler))
	defer rt.Drop()
	ctx := rt.CreateContext()

	result, err := ctx.Eval("1 + 1", "arith.js", false)
	require.NoError(t, err)
	require.True(t, result.IsNumber())
	require.Equal(t, float64(2), result.ToFloat64())
}

func TestEvalCallsBuiltinThroughGlobalLookup(t *testing.T) {
	rt := engine.New(engine.WithCompiler(fakeCompiler))
	defer rt.Drop()
	ctx := rt.CreateContext()

	result, err := ctx.Eval("Math.sqrt(16)", "sqrt.js", false)
	require.NoError(t, err)
	require.True(t, result.IsNumber())
	require.Equal(t, float64(4), result.ToFloat64())
}

func TestEvalSyntaxErrorSurfacesAsJSError(t *testing.T) {
	rt := engine.New(engine.WithCompiler(fakeCompiler))
	defer rt.Drop()
	ctx := rt.CreateContext()

	_, err := ctx.Eval("this source is not recognized", "bad.js", false)
	require.Error(t, err)
	jsErr, ok := err.(*errors.JSError)
	require.True(t, ok, "expected *errors.JSError, got %T", err)
	require.True(t, jsErr.Value.IsObject())
	obj, ok := jsErr.Value.Object().(object.JSObject)
	require.True(t, ok)
	msg, opErr := obj.Get(object.AtomKey(atom.Message), jsErr.Value, nil)
	require.Nil(t, opErr)
	require.Contains(t, msg.ToGoString(), "unrecognized test source")
}

func TestEvalWithoutCompilerReportsEvalError(t *testing.T) {
	rt := engine.New()
	defer rt.Drop()
	ctx := rt.CreateContext()

	_, err := ctx.Eval("1 + 1", "arith.js", false)
	require.Error(t, err)
	evalErr, ok := err.(*engine.EvalError)
	require.True(t, ok, "expected *engine.EvalError, got %T", err)
	require.Equal(t, "context has no compiler configured", evalErr.Message)
}

// mapResolver resolves every specifier to itself and serves source text
// from an in-memory map, standing in for a real filesystem/network resolver
// in tests that only care about the cache contract.
type mapResolver struct {
	sources map[string]string
}

func (m mapResolver) Resolve(_, specifier string) (string, error) { return specifier, nil }

func (m mapResolver) Load(resolved string) (string, error) {
	src, ok := m.sources[resolved]
	if !ok {
		return "", fmt.Errorf("no such module %q", resolved)
	}
	return src, nil
}

func TestLoadModuleEvaluatesOnceAndCaches(t *testing.T) {
	rt := engine.New(engine.WithCompiler(fakeCompiler))
	defer rt.Drop()
	resolver := mapResolver{sources: map[string]string{"math": "Math.sqrt(16)"}}
	ctx := rt.CreateContext(engine.WithResolver(resolver))

	rec, err := ctx.LoadModule("", "math")
	require.NoError(t, err)
	require.True(t, rec.Evaluated)
	require.True(t, rec.Namespace.IsNumber())
	require.Equal(t, float64(4), rec.Namespace.ToFloat64())

	again, err := ctx.LoadModule("", "math")
	require.NoError(t, err)
	require.Same(t, rec, again)
}

func TestLoadModuleReportsResolverFailure(t *testing.T) {
	rt := engine.New(engine.WithCompiler(fakeCompiler))
	defer rt.Drop()
	resolver := mapResolver{sources: map[string]string{}}
	ctx := rt.CreateContext(engine.WithResolver(resolver))

	_, err := ctx.LoadModule("", "missing")
	require.Error(t, err)
}
