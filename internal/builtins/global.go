package builtins

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// installGlobalValuesAndFunctions installs the value properties (undefined,
// NaN, Infinity, globalThis) and free-standing functions (parseInt,
// parseFloat, isNaN, isFinite, the URI codecs, eval, queueMicrotask) every
// realm exposes directly on the global object, ahead of any constructor
// (the first two steps of the fixed global-init order).
func installGlobalValuesAndFunctions(r *realm) {
	r.defineFrozen(r.global, "undefined", value.Undefined)
	r.defineFrozen(r.global, "NaN", value.Number(math.NaN()))
	r.defineFrozen(r.global, "Infinity", value.Number(math.Inf(1)))
	r.define(r.global, "globalThis", value.FromObject(r.global))

	r.method(r.global, "parseInt", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		radix := 0
		if len(args) > 1 && !args[1].IsUndefined() {
			radix = int(args[1].ToFloat64())
		}
		return value.Number(parseIntLoose(argString(args, 0), radix)), nil
	})
	r.method(r.global, "parseFloat", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.Number(parseFloatLoose(argString(args, 0))), nil
	})
	r.method(r.global, "isNaN", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		f := 0.0
		if len(args) > 0 {
			f = args[0].ToFloat64()
		}
		return value.Bool(math.IsNaN(f)), nil
	})
	r.method(r.global, "isFinite", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		f := 0.0
		if len(args) > 0 {
			f = args[0].ToFloat64()
		}
		return value.Bool(!math.IsNaN(f) && !math.IsInf(f, 0)), nil
	})

	r.method(r.global, "encodeURIComponent", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.String(url.QueryEscape(argString(args, 0))), nil
	})
	r.method(r.global, "decodeURIComponent", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s, err := url.QueryUnescape(argString(args, 0))
		if err != nil {
			return value.Value{}, throwErr(ctxOf(realmArg), "URIError", "URI malformed")
		}
		return value.String(s), nil
	})
	r.method(r.global, "encodeURI", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return value.String((&url.URL{Path: argString(args, 0)}).EscapedPath()), nil
	})
	r.method(r.global, "decodeURI", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		s, err := url.PathUnescape(argString(args, 0))
		if err != nil {
			return value.Value{}, throwErr(ctxOf(realmArg), "URIError", "URI malformed")
		}
		return value.String(s), nil
	})

	r.method(r.global, "eval", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		if len(args) == 0 || !args[0].IsString() {
			if len(args) == 0 {
				return value.Undefined, nil
			}
			return args[0], nil
		}
		c := ctxOf(realmArg)
		// An indirect call (not the direct `eval(...)` syntax form the
		// compiler recognizes and marks) always runs as isDirectEval=false.
		return c.Eval(args[0].ToGoString(), "<eval>", false, false)
	})

	r.method(r.global, "queueMicrotask", 1, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		callback, ok := callableArg(args, 0)
		if !ok {
			return value.Value{}, throwErr(ctxOf(realmArg), "TypeError", "The callback provided as parameter 1 is not a function")
		}
		c := ctxOf(realmArg)
		c.EnqueueMicrotask(func() {
			invokeCallable(r, callback, value.Undefined, nil)
		})
		return value.Undefined, nil
	})
}

// parseIntLoose implements the liberal parseInt grammar (spec §4.7 global
// function table): leading whitespace, optional sign, an optional 0x/0X
// prefix (only when radix is 0 or 16), then digits valid for the radix,
// stopping at the first invalid character rather than failing outright.
func parseIntLoose(s string, radix int) float64 {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if radix == 0 {
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s = s[2:]
			radix = 16
		} else {
			radix = 10
		}
	} else if radix == 16 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		s = s[2:]
	}
	if radix < 2 || radix > 36 {
		return math.NaN()
	}
	i := 0
	for i < len(s) && digitValue(s[i]) < radix {
		i++
	}
	if i == 0 {
		return math.NaN()
	}
	n, err := strconv.ParseInt(s[:i], radix, 64)
	if err != nil {
		// Overflow: fall back to a float accumulation rather than failing.
		f := 0.0
		for j := 0; j < i; j++ {
			f = f*float64(radix) + float64(digitValue(s[j]))
		}
		if neg {
			f = -f
		}
		return f
	}
	if neg {
		n = -n
	}
	return float64(n)
}

func digitValue(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'z':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'Z':
		return int(b-'A') + 10
	default:
		return 99
	}
}

// parseFloatLoose implements the liberal parseFloat grammar: the longest
// valid floating-point (or Infinity) prefix of s, ignoring leading
// whitespace and trailing garbage entirely rather than failing.
func parseFloatLoose(s string) float64 {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "Infinity") || strings.HasPrefix(s, "+Infinity") {
		return math.Inf(1)
	}
	if strings.HasPrefix(s, "-Infinity") {
		return math.Inf(-1)
	}
	i := 0
	seenDigit, seenDot, seenExp := false, false, false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < len(s) {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
			i++
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
			i++
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			seenExp = true
			i++
			if i < len(s) && (s[i] == '+' || s[i] == '-') {
				i++
			}
		default:
			goto done
		}
	}
done:
	if !seenDigit {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
