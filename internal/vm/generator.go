package vm

import (
	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/object"
	"github.com/cwbudde/ecmago/internal/value"
)

// resumeKind selects how a suspended coroutine frame continues: fed a
// value (the ordinary case, from .next(v) or a fulfilled awaited promise),
// made to throw (from .throw(v) or a rejected awaited promise), or told to
// return immediately (.return(v); an await driver never sends this).
type resumeKind uint8

const (
	resumeNext resumeKind = iota
	resumeThrow
	resumeReturn
)

type resumeMsg struct {
	kind  resumeKind
	value value.Value
}

// yieldMsg is what the coroutine's goroutine hands back across the
// rendezvous: either a suspend point's operand (done==false) or the
// frame's final outcome (done==true; err is the frame's uncaught throw,
// if any).
type yieldMsg struct {
	value value.Value
	err   *object.OpError
	done  bool
}

// Generator drives one bytecode frame as a coroutine on its own goroutine,
// honoring the VM's own documented contract that generators run their own
// VM sharing the owning Context. Next, Throw, and Return rendezvous with
// that goroutine over a pair of unbuffered channels, so exactly one of the
// two goroutines ever touches the generator's VM/frame state at a time —
// there is no point where both run concurrently, so no further
// synchronization is needed despite the real goroutine.
type Generator struct {
	inner    *VM
	frame    *Frame
	resumeCh chan resumeMsg
	yieldCh  chan yieldMsg
	started  bool
	finished bool
}

// NewGenerator wraps frame as a coroutine. inner shares its Ctx (and so its
// microtask queue, globals, and call-stack depth accounting) with whatever
// VM created the generator, but runs frame on its own goroutine so OpYield
// can block there without blocking the creator.
func NewGenerator(inner *VM, frame *Frame) *Generator {
	return &Generator{
		inner:    inner,
		frame:    frame,
		resumeCh: make(chan resumeMsg),
		yieldCh:  make(chan yieldMsg),
	}
}

// Next resumes the coroutine with v as the value of the suspended
// yield/await expression (the argument to .next(v)), starting the frame on
// the first call (v is discarded then, matching .next(v)'s first-call
// semantics — there is no suspended expression yet to feed it to).
func (g *Generator) Next(v value.Value) (value.Value, bool, *object.OpError) {
	return g.resume(resumeMsg{kind: resumeNext, value: v})
}

// Throw resumes the coroutine by making the suspended expression throw v,
// as though the generator body itself had thrown there — caught by an
// enclosing try/catch inside the body, or propagated out as the
// coroutine's own result. Called before the generator has ever run, it
// finishes the generator immediately without executing any of its body.
func (g *Generator) Throw(v value.Value) (value.Value, bool, *object.OpError) {
	return g.resume(resumeMsg{kind: resumeThrow, value: v})
}

// Return resumes the coroutine by making it return v immediately from the
// suspend point: once the frame's run loop observes isReturn it returns
// straight out of the frame, so enclosing finally blocks are not run. Called before the generator has ever run, it finishes the
// generator immediately with v as the result, again without running the
// body.
func (g *Generator) Return(v value.Value) (value.Value, bool, *object.OpError) {
	return g.resume(resumeMsg{kind: resumeReturn, value: v})
}

// Done reports whether the coroutine has produced its final result.
func (g *Generator) Done() bool { return g.finished }

func (g *Generator) resume(msg resumeMsg) (value.Value, bool, *object.OpError) {
	if g.finished {
		return value.Undefined, true, nil
	}
	if !g.started {
		switch msg.kind {
		case resumeThrow:
			g.finished = true
			return value.Value{}, true, &object.OpError{Kind: thrownSentinelKind, Value: msg.value}
		case resumeReturn:
			g.finished = true
			return msg.value, true, nil
		}
		g.start()
	} else {
		g.resumeCh <- msg
	}
	out := <-g.yieldCh
	if out.done {
		g.finished = true
		return out.value, true, out.err
	}
	return out.value, false, nil
}

func (g *Generator) start() {
	g.started = true
	g.inner.Suspend = g.suspend
	g.inner.frames = append(g.inner.frames, g.frame)
	go func() {
		ok, _ := g.inner.Ctx.PushFrame(context.CallFrame{FunctionName: g.frame.Fn.Name})
		var result value.Value
		var opErr *object.OpError
		if !ok {
			opErr = &object.OpError{Kind: "RangeError", Message: "Maximum call stack size exceeded"}
		} else {
			result, opErr = g.inner.run(g.frame)
			g.inner.Ctx.PopFrame()
		}
		g.yieldCh <- yieldMsg{value: result, err: opErr, done: true}
	}()
}

// suspend is installed as the coroutine's VM.Suspend hook; it runs on the
// coroutine's own goroutine, handing v to whichever goroutine is waiting
// in Next/Throw/Return and then blocking there until resumed.
func (g *Generator) suspend(v value.Value) (value.Value, *object.OpError, bool) {
	g.yieldCh <- yieldMsg{value: v}
	msg := <-g.resumeCh
	switch msg.kind {
	case resumeThrow:
		return value.Value{}, &object.OpError{Kind: thrownSentinelKind, Value: msg.value}, false
	case resumeReturn:
		return msg.value, nil, true
	default:
		return msg.value, nil, false
	}
}
