package object

import (
	"github.com/cwbudde/ecmago/internal/atom"
)

// GeneratorObject is the object a generator function returns instead of
// running its body. Coro is the
// actual coroutine driving the suspended frame — an opaque *vm.Generator,
// mirroring BytecodeFunctionObject.Env's avoidance of an object->vm import
// cycle. internal/vm installs this object's own "next"/"throw"/"return"
// methods at construction time, since only it knows how to drive Coro.
type GeneratorObject struct {
	*Object
	Coro any
}

// NewGeneratorObject allocates a generator instance with the given
// prototype (normally the generator function's own "prototype" property,
// generator-object-creation rules).
func NewGeneratorObject(tbl *atom.Table, proto JSObject, coro any) *GeneratorObject {
	g := &GeneratorObject{Object: New(tbl, proto, "Generator"), Coro: coro}
	g.SetSelf(g)
	return g
}
