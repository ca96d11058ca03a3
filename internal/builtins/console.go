package builtins

import (
	"fmt"
	"io"
	"strings"

	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// consoleFormat renders args the way the teacher's Print/PrintLn built-ins
// render theirs (internal/interp/builtins/io.go): space-joined, each
// argument stringified, a nil/undefined argument printed literally rather
// than skipped.
func consoleFormat(c *realm, args []value.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = toDisplayString(c, a)
	}
	return strings.Join(parts, " ")
}

func toDisplayString(c *realm, v value.Value) string {
	switch {
	case v.IsUndefined():
		return "undefined"
	case v.IsNull():
		return "null"
	case v.IsString():
		return v.ToGoString()
	case v.IsNumber():
		return fmt.Sprintf("%v", v.ToFloat64())
	case v.IsBoolean():
		return fmt.Sprintf("%v", v.ToBool())
	case v.IsBigInt():
		return v.ToBigInt().String() + "n"
	case v.IsObject():
		if object.IsArray(v.Object().(object.JSObject)) {
			return "[object Array]"
		}
		return "[object " + v.Object().(object.JSObject).ClassName() + "]"
	default:
		return ""
	}
}

// installConsole builds the `console` global, a direct generalization of
// the teacher's Print/PrintLn (ctx.Write/ctx.WriteLine-backed) built-ins:
// every level writes to the same injectable sink, Context.Stdout, so an
// embedder can capture output the same way the teacher's Context lets a
// script redirect Write.
func installConsole(r *realm) {
	console := r.newObject()
	levels := []string{"log", "info", "warn", "error", "debug", "trace"}
	for _, level := range levels {
		level := level
		r.method(console, level, 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
			c := ctxOf(realmArg)
			line := consoleFormat(r, args)
			w := consoleWriter(c)
			fmt.Fprintln(w, line)
			return value.Undefined, nil
		})
	}
	r.define(r.global, "console", value.FromObject(console))
}

// consoleWriter resolves the Context's output sink, defaulting to a
// discard writer when the embedder never wired one — console output should
// never panic a headless embedding that has no stdout.
func consoleWriter(c *context.Context) io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return io.Discard
}
