// Package jsruntime implements the top-level Runtime (spec §4.4's L2
// "Runtime" row): the process-or-runtime-wide state a single ECMAScript
// host shares across every Context it creates — the atom table, the
// well-known symbol identities, and a structured logger for VM-level
// diagnostics, generalizing the teacher's top-level CLI/interpreter
// bootstrap (cmd/dwscript) into an embeddable, reusable type.
package jsruntime

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

// Runtime owns every runtime-wide resource a Context is built against (spec
// §3 Lifecycle "shared via a reachability graph rooted at runtime"). No
// other module-level mutable state is permitted (spec §9) — everything a
// Context needs either lives here or on the Context itself.
type Runtime struct {
	ID uuid.UUID

	Tbl *atom.Table

	// wellKnown holds the fixed-identity *value.Symbol for each
	// atom.WellKnownSymbol, assigned once at NewRuntime and shared by every
	// Context this Runtime creates (spec §4.1 "fixed, pre-assigned ids").
	wellKnown [atom.SymbolCount]*value.Symbol

	Logger *zap.Logger

	// interrupt is checked by the VM before each instruction it dispatches
	// (spec §5 "Cancellation & timeouts"); setting it aborts the running
	// operation with a RangeError-like abort at the next instruction.
	interrupt atomicBool

	mu        sync.Mutex
	contexts  []contextHandle
}

// contextHandle is the minimal footprint jsruntime keeps per registered
// Context — an opaque id plus a teardown callback — so this package need
// not import internal/context (which imports jsruntime) and create a cycle.
type contextHandle struct {
	id       uuid.UUID
	teardown func()
}

// NewRuntime allocates a Runtime with a fresh atom table (reserved words
// pre-interned) and freshly minted well-known symbols, optionally logging
// through the supplied *zap.Logger (zap.NewNop() if nil).
func NewRuntime(logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runtime{
		ID:     uuid.New(),
		Tbl:    atom.NewTableWithReserved(),
		Logger: logger,
	}
	for i := 0; i < atom.SymbolCount; i++ {
		ws := atom.WellKnownSymbol(i)
		sym := value.NewSymbol(ws.Description(), true).Symbol()
		r.wellKnown[i] = sym
	}
	return r
}

// WellKnownSymbol returns the fixed *value.Symbol identity for ws, shared
// across every Context this Runtime creates.
func (r *Runtime) WellKnownSymbol(ws atom.WellKnownSymbol) *value.Symbol {
	return r.wellKnown[ws]
}

// RegisterContext tracks a newly created Context so Drop can tear it down
// deterministically. teardown is called at most once, from Drop.
func (r *Runtime) RegisterContext(id uuid.UUID, teardown func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts = append(r.contexts, contextHandle{id: id, teardown: teardown})
}

// Drop tears down every registered Context, matching the embedder API's
// `Runtime::drop` (spec §6).
func (r *Runtime) Drop() {
	r.mu.Lock()
	handles := r.contexts
	r.contexts = nil
	r.mu.Unlock()

	for _, h := range handles {
		h.teardown()
	}
	r.Logger.Sync() //nolint:errcheck // best-effort flush on teardown
}

// Interrupt requests that any Context running on this Runtime abort before
// its next instruction (spec §5).
func (r *Runtime) Interrupt() { r.interrupt.set(true) }

// ClearInterrupt resets the interrupt flag, e.g. once the embedder has
// handled the abort and wants to run more code.
func (r *Runtime) ClearInterrupt() { r.interrupt.set(false) }

// Interrupted reports the current interrupt flag state; the VM's dispatch
// loop polls this before each instruction.
func (r *Runtime) Interrupted() bool { return r.interrupt.get() }

// atomicBool is a tiny helper avoiding a dependency on sync/atomic.Bool
// (Go 1.19+, available, but this keeps the zero value meaningful without an
// extra import line for a single bit of state).
type atomicBool struct {
	mu sync.RWMutex
	v  bool
}

func (b *atomicBool) set(v bool) {
	b.mu.Lock()
	b.v = v
	b.mu.Unlock()
}

func (b *atomicBool) get() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.v
}
