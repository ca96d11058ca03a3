// Package module gives Context's module-record cache a working default
// implementation: a specifier -> module record cache, with resolution and
// source fetching delegated to an embedder-supplied Resolver, plus an
// optional filesystem watch that invalidates a cached entry when its source
// changes on disk. Nothing here implements module resolution strategy or
// cross-module linking — that is squarely the embedder's call, so this
// package only ever does cache bookkeeping and hands the rest to Resolver.
package module

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cwbudde/ecmago/internal/context"
	"github.com/cwbudde/ecmago/internal/object"
)

// Record is the cached unit Load returns. It is exactly context.Module's own
// cache-entry shape (specifier, evaluated namespace, evaluated flag) — the
// cache already lives on Context, so this package builds on it instead of
// introducing a parallel type nothing else in the engine would recognize.
type Record = context.Module

// Resolver turns a (referrer, specifier) pair into a canonical module path
// and fetches its source text. Neither resolution strategy (relative paths,
// package maps, URLs) nor linking is specified; an embedder supplies
// whatever strategy its host needs. FileResolver is a ready-made one for the
// common case of modules living on local disk.
type Resolver interface {
	// Resolve canonicalizes specifier relative to referrer (the specifier
	// the importing module was itself loaded under, "" for the entry
	// module) into a stable key Load can fetch and the Cache can key its
	// path-to-specifier bookkeeping by.
	Resolve(referrer, specifier string) (string, error)
	// Load fetches the source text at a path Resolve returned.
	Load(resolved string) (string, error)
}

// Cache loads modules into a Context's own module cache (Context.Modules),
// resolving and evaluating a specifier at most once and serving every
// subsequent Load call for it straight from the cache. Safe for concurrent
// use: several import expressions naming the same specifier from different
// goroutines collapse onto one resolve/load/eval via a singleflight.Group,
// rather than racing to evaluate the module's top-level code twice.
type Cache struct {
	resolver Resolver
	group    singleflight.Group

	mu            sync.Mutex
	evaluating    map[string]bool
	pathSpecifier map[string]string // resolved path -> specifier, for Watch
}

// NewCache builds a Cache backed by resolver. resolver may be nil; Load
// then only ever serves specifiers already present in ctx.Modules — the
// cache-lookup-only half of the contract — and fails anything else with an
// explicit error rather than panicking on a nil dereference.
func NewCache(resolver Resolver) *Cache {
	return &Cache{
		resolver:      resolver,
		evaluating:    make(map[string]bool),
		pathSpecifier: make(map[string]string),
	}
}

// Load resolves, fetches and evaluates specifier, returning its cached
// Record on every call after the first. A cache hit (ctx.Modules[specifier])
// returns immediately; otherwise Resolve+Load fetch the source, ctx.Eval
// runs it with isModule=true, and the resulting completion value becomes the
// cached Record's Namespace. A specifier already mid-evaluation on this same
// call stack (an import cycle) fails fast instead of recursing forever —
// this package does nothing with a half-built Record the way a topological
// linker would, so there is no partial namespace to hand back. That
// same-stack check runs before the singleflight dedup below it: a reentrant
// Do call for a key still being served by its own outer call would
// otherwise deadlock rather than error.
func (c *Cache) Load(ctx *context.Context, referrer, specifier string) (*Record, error) {
	if rec, ok := ctx.Modules[specifier]; ok {
		return rec, nil
	}

	c.mu.Lock()
	if c.evaluating[specifier] {
		c.mu.Unlock()
		return nil, fmt.Errorf("circular module reference to %q", specifier)
	}
	c.evaluating[specifier] = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.evaluating, specifier)
		c.mu.Unlock()
	}()

	v, err, _ := c.group.Do(specifier, func() (any, error) {
		if rec, ok := ctx.Modules[specifier]; ok {
			return rec, nil
		}
		return c.load(ctx, referrer, specifier)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

func (c *Cache) load(ctx *context.Context, referrer, specifier string) (*Record, error) {
	if c.resolver == nil {
		return nil, fmt.Errorf("module %q: not cached and no resolver configured", specifier)
	}
	resolved, err := c.resolver.Resolve(referrer, specifier)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", specifier, err)
	}
	source, err := c.resolver.Load(resolved)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", resolved, err)
	}

	result, opErr := ctx.Eval(source, resolved, true, false)
	if opErr != nil {
		return nil, moduleEvalError(opErr)
	}

	rec := &Record{Specifier: specifier, Namespace: result, Evaluated: true}
	ctx.Modules[specifier] = rec

	c.mu.Lock()
	c.pathSpecifier[resolved] = specifier
	c.mu.Unlock()
	return rec, nil
}

func moduleEvalError(opErr *object.OpError) error {
	if opErr.Kind == object.ThrownValueKind {
		if opErr.Value.IsString() {
			return fmt.Errorf("module evaluation threw: %s", opErr.Value.ToGoString())
		}
		return fmt.Errorf("module evaluation threw a non-string value")
	}
	return fmt.Errorf("%s: %s", opErr.Kind, opErr.Message)
}
