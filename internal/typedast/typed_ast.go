// Package typedast holds the checker's emitter-facing output: a set of
// per-node annotations keyed by the AST node they describe, rather than
// a parallel typed tree. Three kinds of annotation are recorded — the
// resolved TypeId, the inferred instantiation of generics, and the
// narrowed type at use sites — and the emitter treats all of them as
// opaque identifiers. The AST is owned by an external parser, so the
// annotation set is keyed by ast.Node identity directly; a parallel
// Typed* node per expression variant would grow into a rival of the
// TypeInterner's single type representation.
package typedast

import (
	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/types"
)

// Annotations is the full per-node record the checker accumulates while
// walking one file, and everything the emitter is promised:
// a resolved TypeId per node, the solved type-argument list at each
// generic call/instantiation site, and the narrowed type observed at
// each identifier-reference use site. Keys are ast.Node interface
// values; the checker's *ast.Identifier/*ast.CallExpr/... pointers are
// comparable, so map[ast.Node]... works without a synthetic node-id
// field on the consumed AST surface.
//
// Zero value is not usable; construct with New.
type Annotations struct {
	types          map[ast.Node]types.TypeId
	instantiations map[ast.Node][]types.TypeId
	narrowed       map[ast.Node]types.TypeId
}

// New returns an empty Annotations ready to accumulate one file's
// checking pass. A fresh Checker (one per compilation unit) owns
// exactly one Annotations value for its lifetime.
func New() *Annotations {
	return &Annotations{
		types:          map[ast.Node]types.TypeId{},
		instantiations: map[ast.Node][]types.TypeId{},
		narrowed:       map[ast.Node]types.TypeId{},
	}
}

// RecordType records the resolved TypeId the checker computed for n.
// Called once per node from the single inferExpr dispatch point
// (internal/checker/expr.go), so every expression the checker visits —
// not just ones an emitter-facing feature currently reads — ends up
// annotated.
func (a *Annotations) RecordType(n ast.Node, t types.TypeId) {
	if n == nil || !t.Valid() {
		return
	}
	a.types[n] = t
}

// Type returns the resolved TypeId previously recorded for n.
func (a *Annotations) Type(n ast.Node) (types.TypeId, bool) {
	t, ok := a.types[n]
	return t, ok
}

// RecordInstantiation records the solved type-argument list — in the
// generic declaration's own type-parameter order — for a call, new, or
// generic-instantiation site. Explicit type arguments
// (`f<number>(x)`) are recorded too: the emitter does not need to know
// whether a given instantiation came from inference or was written
// out, only what it resolved to.
func (a *Annotations) RecordInstantiation(n ast.Node, args []types.TypeId) {
	if n == nil || len(args) == 0 {
		return
	}
	cp := make([]types.TypeId, len(args))
	copy(cp, args)
	a.instantiations[n] = cp
}

// Instantiation returns the solved type arguments recorded for a
// generic call/new site, if any were recorded.
func (a *Annotations) Instantiation(n ast.Node) ([]types.TypeId, bool) {
	args, ok := a.instantiations[n]
	return args, ok
}

// RecordNarrowed records the narrowed TypeId observed at an identifier
// reference's use site. Distinct from RecordType because a
// narrowed reference's "resolved type" and its declared type can
// differ — `let x: string | number` narrowed to `string` inside a
// `typeof x === "string"` branch records `string` here while the
// symbol's own declared type stays recoverable from the binder/
// DefinitionStore rather than overwritten.
func (a *Annotations) RecordNarrowed(n ast.Node, t types.TypeId) {
	if n == nil || !t.Valid() {
		return
	}
	a.narrowed[n] = t
}

// Narrowed returns the narrowed TypeId recorded for an identifier
// reference, if narrowing was in effect at that use site.
func (a *Annotations) Narrowed(n ast.Node) (types.TypeId, bool) {
	t, ok := a.narrowed[n]
	return t, ok
}

// Len reports how many nodes carry a resolved-type annotation — used
// only by tests to assert the checker actually annotated a file's
// worth of nodes rather than silently skipping the bookkeeping.
func (a *Annotations) Len() int { return len(a.types) }
