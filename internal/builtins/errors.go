package builtins

import (
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// errorKinds lists every Error subclass, in the order its constructor and
// prototype are installed (Error itself first, since every subclass
// prototype chains to Error.prototype).
var errorKinds = []object.ErrorKind{
	object.ErrorPlain,
	object.ErrorEval,
	object.ErrorRange,
	object.ErrorReference,
	object.ErrorSyntax,
	object.ErrorType,
	object.ErrorURI,
	object.ErrorAggregate,
	object.ErrorSuppressed,
}

// installErrors builds the Error hierarchy: a shared Error.prototype plus
// one prototype and constructor per subclass, all chaining to Error and its
// prototype, and wires Context.NewError so native built-ins elsewhere in
// this package (and the VM's own throw/catch machinery) can materialize an
// error of any kind without reaching into this file's installer state.
func installErrors(r *realm) {
	r.errorProtos = make(map[object.ErrorKind]object.JSObject)

	r.errorProto = object.New(r.tbl, r.objectProto, "Error")
	r.define(r.errorProto, "name", value.String("Error"))
	r.define(r.errorProto, "message", value.String(""))
	r.method(r.errorProto, "toString", 0, func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		return errorToString(r, this), nil
	})
	errorCtor := r.installErrorConstructor("Error", object.ErrorPlain, r.errorProto, r.functionProto)
	r.define(r.global, "Error", value.FromObject(errorCtor))
	r.errorProtos[object.ErrorPlain] = r.errorProto

	for _, kind := range errorKinds {
		if kind == object.ErrorPlain {
			continue
		}
		name := kind.String()
		proto := object.New(r.tbl, r.errorProto, "Error")
		r.define(proto, "name", value.String(name))
		ctor := r.installErrorConstructor(name, kind, proto, errorCtor.Base())
		r.define(r.global, name, value.FromObject(ctor))
		r.errorProtos[kind] = proto
	}

	r.ctx.NewError = func(kind, message string) value.Value {
		errKind := errorKindFromName(kind)
		proto := r.errorProtos[errKind]
		trace := r.ctx.CaptureStackTrace().String()
		return value.FromObject(object.NewError(r.tbl, proto, errKind, message, trace))
	}
}

func errorKindFromName(name string) object.ErrorKind {
	for _, k := range errorKinds {
		if k.String() == name {
			return k
		}
	}
	return object.ErrorPlain
}

// installErrorConstructor builds one Error subclass's constructor function,
// rooted at functionProto: Function.prototype for Error itself, and the
// Error constructor for every subclass, so that TypeError.__proto__ === Error
// as in real ECMAScript.
func (r *realm) installErrorConstructor(name string, kind object.ErrorKind, proto object.JSObject, functionProto object.JSObject) *object.NativeFunction {
	causeKey := r.key("cause")
	ctorFn := func(realmArg any, this value.Value, args []value.Value, newTarget value.Value) (value.Value, *object.OpError) {
		message := ""
		optsIdx := 1
		if len(args) > 0 && !args[0].IsUndefined() {
			message = args[0].ToGoString()
		}
		trace := r.ctx.CaptureStackTrace().String()

		var errObj *object.Object
		var result value.Value
		if kind == object.ErrorAggregate {
			var errs []value.Value
			if len(args) > 0 {
				errs = spreadArrayLike(args[0])
			}
			if len(args) > 1 && !args[1].IsUndefined() {
				message = args[1].ToGoString()
			}
			e := object.NewAggregateError(r.tbl, proto, errs, message, trace, func(vs []value.Value) *object.Array {
				return r.newArray(vs)
			})
			errObj, result, optsIdx = e.Object, value.FromObject(e), 2
		} else {
			e := object.NewError(r.tbl, proto, kind, message, trace)
			errObj, result = e.Object, value.FromObject(e)
		}

		if optsIdx < len(args) && args[optsIdx].IsObject() {
			if optsObj, ok := args[optsIdx].Object().(object.JSObject); ok {
				if d, ok := optsObj.GetOwnProperty(causeKey); ok {
					errObj.DefineOwnProperty(causeKey, object.DataDescriptor(d.Value, true, false, true))
				}
			}
		}
		return result, nil
	}
	ctor := object.NewNativeFunction(r.tbl, functionProto, name, 1, ctorFn)
	ctor.Construct = ctorFn
	r.define(ctor.Base(), "prototype", value.FromObject(proto))
	r.defineFrozen(proto, "constructor", value.FromObject(ctor))
	return ctor
}

func errorToString(r *realm, this value.Value) value.Value {
	if !this.IsObject() {
		return value.String("Error")
	}
	obj, ok := this.Object().(object.JSObject)
	if !ok {
		return value.String("Error")
	}
	name := "Error"
	if nv, err := obj.Get(r.key("name"), this, noInvoke); err == nil && !nv.IsUndefined() {
		name = nv.ToGoString()
	}
	msg := ""
	if mv, err := obj.Get(r.key("message"), this, noInvoke); err == nil && !mv.IsUndefined() {
		msg = mv.ToGoString()
	}
	switch {
	case msg == "":
		return value.String(name)
	case name == "":
		return value.String(msg)
	default:
		return value.String(name + ": " + msg)
	}
}
