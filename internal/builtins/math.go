package builtins

import (
	"math"
	"math/rand"

	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// installMath builds the Math namespace object, generalizing the teacher's
// flat Abs/Sqrt/Sin/Cos/... builtin function set (internal/interp/functions_builtins.go)
// from free global functions to methods hung off a single frozen-property
// namespace object, as ECMAScript requires.
func installMath(r *realm) {
	m := r.newObject()

	r.defineFrozen(m, "E", value.Number(math.E))
	r.defineFrozen(m, "LN2", value.Number(math.Ln2))
	r.defineFrozen(m, "LN10", value.Number(math.Log(10)))
	r.defineFrozen(m, "LOG2E", value.Number(1/math.Ln2))
	r.defineFrozen(m, "LOG10E", value.Number(1/math.Log(10)))
	r.defineFrozen(m, "PI", value.Number(math.Pi))
	r.defineFrozen(m, "SQRT1_2", value.Number(math.Sqrt(0.5)))
	r.defineFrozen(m, "SQRT2", value.Number(math.Sqrt2))

	unary := map[string]func(float64) float64{
		"abs":   math.Abs,
		"acos":  math.Acos,
		"acosh": math.Acosh,
		"asin":  math.Asin,
		"asinh": math.Asinh,
		"atan":  math.Atan,
		"atanh": math.Atanh,
		"cbrt":  math.Cbrt,
		"ceil":  math.Ceil,
		"cos":   math.Cos,
		"cosh":  math.Cosh,
		"exp":   math.Exp,
		"expm1": math.Expm1,
		"floor": math.Floor,
		"log":   math.Log,
		"log10": math.Log10,
		"log1p": math.Log1p,
		"log2":  math.Log2,
		"sin":   math.Sin,
		"sinh":  math.Sinh,
		"sqrt":  math.Sqrt,
		"tan":   math.Tan,
		"tanh":  math.Tanh,
		"trunc": math.Trunc,
	}
	for name, fn := range unary {
		fn := fn
		r.method(m, name, 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
			return value.Number(fn(argFloat(args, 0))), nil
		})
	}

	r.method(m, "round", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		x := argFloat(args, 0)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return value.Number(x), nil
		}
		// Math.round rounds half towards +Infinity, unlike math.Round's
		// round-half-away-from-zero.
		return value.Number(math.Floor(x + 0.5)), nil
	})
	r.method(m, "sign", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		x := argFloat(args, 0)
		switch {
		case math.IsNaN(x):
			return value.Number(math.NaN()), nil
		case x > 0:
			return value.Number(1), nil
		case x < 0:
			return value.Number(-1), nil
		default:
			return value.Number(x), nil
		}
	})
	r.method(m, "pow", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.Number(math.Pow(argFloat(args, 0), argFloat(args, 1))), nil
	})
	r.method(m, "atan2", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.Number(math.Atan2(argFloat(args, 0), argFloat(args, 1))), nil
	})
	r.method(m, "imul", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		a := int32(int64(argFloat(args, 0)))
		b := int32(int64(argFloat(args, 1)))
		return value.Number(float64(a * b)), nil
	})
	r.method(m, "clz32", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		x := uint32(int64(argFloat(args, 0)))
		n := 0
		for n < 32 && x&0x80000000 == 0 {
			x <<= 1
			n++
		}
		return value.Number(float64(n)), nil
	})
	r.method(m, "fround", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.Number(float64(float32(argFloat(args, 0)))), nil
	})
	r.method(m, "hypot", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		sum := 0.0
		for _, a := range args {
			f := a.ToFloat64()
			sum += f * f
		}
		return value.Number(math.Sqrt(sum)), nil
	})
	r.method(m, "max", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		best := math.Inf(-1)
		for _, a := range args {
			f := a.ToFloat64()
			if math.IsNaN(f) {
				return value.Number(math.NaN()), nil
			}
			if f > best || (f == 0 && best == 0 && !math.Signbit(f)) {
				best = f
			}
		}
		return value.Number(best), nil
	})
	r.method(m, "min", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		best := math.Inf(1)
		for _, a := range args {
			f := a.ToFloat64()
			if math.IsNaN(f) {
				return value.Number(math.NaN()), nil
			}
			if f < best || (f == 0 && best == 0 && math.Signbit(f)) {
				best = f
			}
		}
		return value.Number(best), nil
	})
	r.method(m, "random", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.Number(rand.Float64()), nil
	})

	r.define(r.global, "Math", value.FromObject(m))
}

func argFloat(args []value.Value, i int) float64 {
	if i >= len(args) {
		return math.NaN()
	}
	return args[i].ToFloat64()
}
