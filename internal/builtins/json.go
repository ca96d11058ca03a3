package builtins

import (
	"strconv"
	"strings"

	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// installJSON builds the JSON namespace object atop gjson/sjson rather than
// the teacher's kept internal/jsonvalue_teacher tree (see DESIGN.md): gjson
// walks the parsed document's Result tree into script values, and
// JSON.stringify assembles its output by repeatedly splicing encoded
// fragments into a raw JSON string with sjson.SetRaw rather than building a
// tree and marshaling it in one pass.
func installJSON(r *realm) {
	j := r.newObject()

	r.method(j, "parse", 2, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		text := argString(args, 0)
		if !gjson.Valid(text) {
			return value.Value{}, throwErr(ctxOf(realmArg), "SyntaxError", "Unexpected token in JSON")
		}
		result := gjsonToValue(r, gjson.Parse(text))
		if reviver, ok := callableArg(args, 1); ok {
			holder := r.newObject()
			r.define(holder, "", result)
			revived, err := jsonRevive(r, holder, "", reviver)
			if err != nil {
				return value.Value{}, err
			}
			return revived, nil
		}
		return result, nil
	})

	r.method(j, "stringify", 3, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		v := firstArg(args)
		indent := jsonIndent(args)
		out, ok, err := jsonStringify(r, v, indent, "", map[object.JSObject]bool{})
		if err != nil {
			return value.Value{}, err
		}
		if !ok {
			return value.Undefined, nil
		}
		return value.String(out), nil
	})

	r.define(r.global, "JSON", value.FromObject(j))
}

func jsonIndent(args []value.Value) string {
	if len(args) < 3 || args[2].IsUndefined() {
		return ""
	}
	if args[2].IsNumber() {
		n := int(args[2].ToFloat64())
		if n < 0 {
			n = 0
		}
		if n > 10 {
			n = 10
		}
		out := make([]byte, n)
		for i := range out {
			out[i] = ' '
		}
		return string(out)
	}
	s := args[2].ToGoString()
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}

// gjsonToValue walks a parsed gjson.Result into a script value, recursing
// through arrays and objects in document order.
func gjsonToValue(r *realm, res gjson.Result) value.Value {
	switch res.Type {
	case gjson.Null:
		return value.Null
	case gjson.False:
		return value.Bool(false)
	case gjson.True:
		return value.Bool(true)
	case gjson.Number:
		return value.Number(res.Num)
	case gjson.String:
		return value.String(res.Str)
	case gjson.JSON:
		if res.IsArray() {
			var elems []value.Value
			res.ForEach(func(_, v gjson.Result) bool {
				elems = append(elems, gjsonToValue(r, v))
				return true
			})
			return value.FromObject(r.newArray(elems))
		}
		obj := r.newObject()
		res.ForEach(func(k, v gjson.Result) bool {
			r.define(obj, k.Str, gjsonToValue(r, v))
			return true
		})
		return value.FromObject(obj)
	default:
		return value.Undefined
	}
}

// jsonRevive implements JSON.parse's reviver walk: depth-first, each
// property replaced by reviver.call(holder, key, value) before the parent
// is itself revived.
func jsonRevive(r *realm, holder object.JSObject, key string, reviver object.Callable) (value.Value, *object.OpError) {
	v, err := holder.Get(r.key(key), value.FromObject(holder), noInvoke)
	if err != nil {
		return value.Value{}, err
	}
	if v.IsObject() {
		if obj, ok := v.Object().(object.JSObject); ok {
			if arr, isArr := obj.(*object.Array); isArr {
				for i := 0; i < int(readLength(arr)); i++ {
					elemKey := strconv.Itoa(i)
					nv, err := jsonRevive(r, arr, elemKey, reviver)
					if err != nil {
						return value.Value{}, err
					}
					if nv.IsUndefined() {
						arr.DefineOwnProperty(object.IndexKey(uint32(i)), object.DataDescriptor(value.Undefined, true, true, true))
					} else {
						arr.DefineOwnProperty(object.IndexKey(uint32(i)), object.DataDescriptor(nv, true, true, true))
					}
				}
			} else {
				for _, k := range obj.OwnKeys() {
					name := k.String(r.tbl)
					nv, err := jsonRevive(r, obj, name, reviver)
					if err != nil {
						return value.Value{}, err
					}
					if nv.IsUndefined() {
						obj.Delete(k, false)
					} else {
						obj.DefineOwnProperty(k, object.DataDescriptor(nv, true, true, true))
					}
				}
			}
		}
	}
	return invokeCallable(r, reviver, value.FromObject(holder), []value.Value{value.String(key), v})
}

// jsonStringify recursively encodes v, splicing each value into the raw
// JSON accumulator via sjson.SetRaw at the appropriate path. Returns
// ok=false for values JSON.stringify must omit entirely (undefined,
// functions, symbols) per the spec's SerializeJSONProperty.
func jsonStringify(r *realm, v value.Value, indent, path string, seen map[object.JSObject]bool) (string, bool, *object.OpError) {
	if v.IsObject() {
		if obj, ok := v.Object().(object.JSObject); ok {
			if toJSON, ok := lookupMethod(r, obj, v, "toJSON"); ok {
				replaced, err := invokeCallable(r, toJSON, v, nil)
				if err != nil {
					return "", false, err
				}
				return jsonStringify(r, replaced, indent, path, seen)
			}
		}
	}

	switch {
	case v.IsUndefined(), v.IsSymbol():
		return "", false, nil
	case v.IsNull():
		return "null", true, nil
	case v.IsBool():
		if v.ToBool() {
			return "true", true, nil
		}
		return "false", true, nil
	case v.IsNumber():
		f := v.ToFloat64()
		if f != f || (f > 1.7976931348623157e308 || f < -1.7976931348623157e308) {
			return "null", true, nil
		}
		return strconv.FormatFloat(f, 'g', -1, 64), true, nil
	case v.IsString():
		return strconv.Quote(v.ToGoString()), true, nil
	case v.IsBigInt():
		return "", false, &object.OpError{Kind: "TypeError", Message: "Do not know how to serialize a BigInt"}
	}

	if !v.IsObject() {
		return "", false, nil
	}
	obj, ok := v.Object().(object.JSObject)
	if !ok {
		return "", false, nil
	}
	if _, isCallable := obj.(object.Callable); isCallable {
		return "", false, nil
	}
	if seen[obj] {
		return "", false, &object.OpError{Kind: "TypeError", Message: "Converting circular structure to JSON"}
	}
	seen[obj] = true
	defer delete(seen, obj)

	if arr, isArr := obj.(*object.Array); isArr {
		out := "[]"
		n := int(readLength(arr))
		for i := 0; i < n; i++ {
			elem, _ := arr.Get(object.IndexKey(uint32(i)), v, noInvoke)
			encoded, ok, err := jsonStringify(r, elem, indent, path+"/"+strconv.Itoa(i), seen)
			if err != nil {
				return "", false, err
			}
			if !ok {
				encoded = "null"
			}
			var spliceErr error
			out, spliceErr = sjson.SetRaw(out, strconv.Itoa(i), encoded)
			if spliceErr != nil {
				return "", false, &object.OpError{Kind: "TypeError", Message: spliceErr.Error()}
			}
		}
		return pretty(out, indent), true, nil
	}

	keys := obj.OwnKeys()
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if !k.IsSymbol() {
			names = append(names, k.String(r.tbl))
		}
	}
	out := "{}"
	for _, name := range names {
		prop, found := obj.GetOwnProperty(r.key(name))
		if !found || !prop.Enumerable {
			continue
		}
		pv, err := obj.Get(r.key(name), v, noInvoke)
		if err != nil {
			return "", false, err
		}
		encoded, ok, err := jsonStringify(r, pv, indent, path+"/"+name, seen)
		if err != nil {
			return "", false, err
		}
		if !ok {
			continue
		}
		var spliceErr error
		out, spliceErr = sjson.SetRaw(out, sjsonEscapePath(name), encoded)
		if spliceErr != nil {
			return "", false, &object.OpError{Kind: "TypeError", Message: spliceErr.Error()}
		}
	}
	return pretty(out, indent), true, nil
}

// sjsonEscapePath escapes the sjson path metacharacters (., *, ? and the
// backslash itself) a plain property name could otherwise contain.
func sjsonEscapePath(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '.' || c == '*' || c == '?' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}

// pretty re-indents a compact JSON fragment one nesting level at a time,
// walking the already-valid text emitted by sjson.SetRaw rather than
// reparsing it into a tree.
func pretty(raw, indent string) string {
	if indent == "" {
		return raw
	}
	var out strings.Builder
	depth := 0
	inString := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			out.WriteByte(c)
			if c == '\\' && i+1 < len(raw) {
				i++
				out.WriteByte(raw[i])
				continue
			}
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			out.WriteByte(c)
		case '{', '[':
			out.WriteByte(c)
			if i+1 < len(raw) && raw[i+1] == closingFor(c) {
				i++
				out.WriteByte(raw[i])
				continue
			}
			depth++
			out.WriteByte('\n')
			out.WriteString(strings.Repeat(indent, depth))
		case '}', ']':
			depth--
			out.WriteByte('\n')
			out.WriteString(strings.Repeat(indent, depth))
			out.WriteByte(c)
		case ',':
			out.WriteByte(c)
			out.WriteByte('\n')
			out.WriteString(strings.Repeat(indent, depth))
		case ':':
			out.WriteByte(c)
			out.WriteByte(' ')
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

func closingFor(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ']'
}

func lookupMethod(r *realm, obj object.JSObject, this value.Value, name string) (object.Callable, bool) {
	v, err := obj.Get(r.key(name), this, noInvoke)
	if err != nil || !v.IsObject() {
		return nil, false
	}
	callable, ok := v.Object().(object.Callable)
	return callable, ok
}
