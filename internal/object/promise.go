package object

import (
	"github.com/cwbudde/ecmago/internal/atom"
	"github.com/cwbudde/ecmago/internal/value"
)

// PromiseState is one of the three states of the Promise state machine
// (spec §4.6): pending until settled exactly once, then fulfilled(value) or
// rejected(reason) for the rest of its life.
type PromiseState uint8

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

func (s PromiseState) String() string {
	switch s {
	case PromiseFulfilled:
		return "fulfilled"
	case PromiseRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// PromiseReaction is one registered (onFulfilled, onRejected) handler pair
// plus the derived promise its handler's return value (or thrown error)
// settles (spec §4.6 "then/catch/finally register a reaction pair"). Either
// handler may be the zero Value, meaning "no handler" — the corresponding
// settlement passes through to Derived unchanged.
//
// Settle is supplied by internal/promise, which owns the capability logic
// (resolve-with-thenable-assimilation) this package has no realm to run.
type PromiseReaction struct {
	OnFulfilled value.Value
	OnRejected  value.Value
	Settle      func(fulfilled bool, result value.Value)
}

// PromiseData is the Promise exotic object's backing store (spec §4.6). It
// holds no logic of its own beyond the state machine's bookkeeping; the
// resolve/reject/then orchestration (including microtask scheduling, which
// needs a Context) lives in internal/promise.
type PromiseData struct {
	*Object
	State            PromiseState
	Result           value.Value // fulfillment value or rejection reason, once settled
	FulfillReactions []PromiseReaction
	RejectReactions  []PromiseReaction

	// AlreadyResolved guards the Promise Resolve/Reject functions' one-shot
	// semantics (spec §4.6 "resolve/reject are idempotent — only the first
	// call has any effect").
	AlreadyResolved bool

	// Handled marks that at least one rejection handler was ever attached,
	// used by the unhandled-rejection tracker (spec §4.4's promise-rejection
	// callback hook) to distinguish a rejection nobody is watching.
	Handled bool
}

// NewPromise allocates a pending Promise with the given prototype (normally
// Promise.prototype).
func NewPromise(tbl *atom.Table, proto JSObject) *PromiseData {
	p := &PromiseData{Object: New(tbl, proto, "Promise")}
	p.SetSelf(p)
	return p
}

// Settle transitions a pending Promise to fulfilled or rejected, returning
// the reaction list that should now run (the caller drains it and clears
// both lists). It is a no-op, returning nil, once already settled — the
// one-shot guard every settlement path shares.
func (p *PromiseData) Settle(fulfilled bool, result value.Value) []PromiseReaction {
	if p.State != PromisePending {
		return nil
	}
	if fulfilled {
		p.State = PromiseFulfilled
	} else {
		p.State = PromiseRejected
	}
	p.Result = result
	reactions := p.FulfillReactions
	if !fulfilled {
		reactions = p.RejectReactions
	}
	p.FulfillReactions = nil
	p.RejectReactions = nil
	return reactions
}
