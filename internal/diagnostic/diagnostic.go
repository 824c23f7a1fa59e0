package diagnostic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/relation"
	"github.com/sunholo/tscore/internal/types"
)

// Diagnostic is the engine's produced unit: an error code, severity,
// formatted message, primary span, related spans, and the two operand
// TypeIds a subtype-family message needs.
type Diagnostic struct {
	Code         Code
	Severity     Severity
	Message      string
	Span         ast.Span
	RelatedSpans []ast.Span
	Source       types.TypeId
	Target       types.TypeId
}

// dedupeKey identifies "the same diagnostic" for the dedup rule: same
// code + same primary range + same operands = one emission.
type dedupeKey struct {
	code   Code
	span   ast.Span
	source types.TypeId
	target types.TypeId
}

// Origin names the call site kind the gateway was invoked from. It picks
// between TS2322 and TS2345 (assignment vs. argument), and
// OriginSatisfies selects plain subtyping instead of assignability.
type Origin int

const (
	OriginAssignment Origin = iota
	OriginArgument
	OriginReturn
	OriginSpread
	OriginPropertyAssignment
	OriginSatisfies
	OriginYield
)

// Gateway is the single funnel for assignability-family diagnostics:
// every check in the checker routes through CheckAssignable, never
// compares types ad hoc.
type Gateway struct {
	interner *types.Interner
	judge    *relation.Judge
	lawyer   *relation.Lawyer
	seen     map[dedupeKey]bool
	emitted  []Diagnostic
}

func NewGateway(interner *types.Interner, judge *relation.Judge, lawyer *relation.Lawyer) *Gateway {
	return &Gateway{
		interner: interner,
		judge:    judge,
		lawyer:   lawyer,
		seen:     make(map[dedupeKey]bool),
	}
}

// CheckAssignable decides whether source is acceptable where target is
// expected, reporting through the gateway when it is not. origin picks
// the relation and wording: assignability is the overwhelming common
// case, while a `satisfies` check gets plain subtyping. anchor is the
// span the diagnostic, if any, is reported at.
//
// Returns (true, Diagnostic{}) when assignable — the checker proceeds
// to its own excess-property check on success. Returns (false, diag)
// with diag already appended to g.Diagnostics() when not.
func (g *Gateway) CheckAssignable(source, target types.TypeId, anchor ast.Span, origin Origin) (bool, Diagnostic) {
	in := g.interner

	// Error is absorbing and never itself reported, so one failure
	// cannot cascade into a chain of follow-on diagnostics.
	if source == in.ErrorID || target == in.ErrorID {
		return true, Diagnostic{}
	}

	var ok bool
	if origin == OriginSatisfies {
		ok = g.judge.IsSubtype(source, target)
	} else {
		ok = g.lawyer.IsAssignable(source, target)
	}
	if ok {
		return true, Diagnostic{}
	}

	if g.judge.Overflowed() {
		diag := g.emit(Diagnostic{
			Code:     TS2589,
			Severity: SeverityError,
			Message:  Template(TS2589),
			Span:     anchor,
			Source:   source,
			Target:   target,
		})
		return false, diag
	}

	mode := relation.ModeAssignability
	if origin == OriginSatisfies {
		mode = relation.ModeSubtype
	}
	reason := g.judge.Explain(source, target, mode)
	code, message := g.classify(reason, source, target, origin)
	diag := g.emit(Diagnostic{
		Code:     code,
		Severity: DefaultSeverity(code),
		Message:  message,
		Span:     anchor,
		Source:   source,
		Target:   target,
	})
	return false, diag
}

// CheckExcessProperties is the excess-property check: called by the
// checker only after CheckAssignable already succeeded, only when
// source is syntactically a fresh object literal. props is the
// literal's own property names; the gateway reports each one not
// present in target's shape and not covered by an index signature.
func (g *Gateway) CheckExcessProperties(props []string, target types.TypeId, anchor ast.Span, allowed map[string]bool, hasIndexer bool) []Diagnostic {
	var out []Diagnostic
	for _, name := range props {
		if allowed[name] || hasIndexer {
			continue
		}
		diag := g.emit(Diagnostic{
			Code:     TS2353,
			Severity: SeverityError,
			Message:  fmt.Sprintf(Template(TS2353), name, g.interner.String(target)),
			Span:     anchor,
			Target:   target,
		})
		out = append(out, diag)
	}
	return out
}

// CheckRedeclaration enforces the redeclaration compatibility rule: two
// declarations of the same symbol in the same scope must be
// *identical* (both subtype directions), not merely assignable.
func (g *Gateway) CheckRedeclaration(first, second types.TypeId, anchor ast.Span) (bool, Diagnostic) {
	in := g.interner
	if first == in.ErrorID || second == in.ErrorID {
		return true, Diagnostic{}
	}
	if g.judge.IsIdentical(first, second) {
		return true, Diagnostic{}
	}
	diag := g.emit(Diagnostic{
		Code:     TS2403,
		Severity: SeverityError,
		Message:  fmt.Sprintf(Template(TS2403), in.String(first), in.String(second)),
		Span:     anchor,
		Source:   second,
		Target:   first,
	})
	return false, diag
}

// classify maps a ReasonTree's shape to one of the assignability-family
// codes and formats the matching message.
func (g *Gateway) classify(reason relation.ReasonTree, source, target types.TypeId, origin Origin) (Code, string) {
	in := g.interner
	if reason.Kind == relation.ReasonMissingProperty && !anyPropertyOverlap(in, source, target) {
		return TS2559, fmt.Sprintf(Template(TS2559), in.String(source), in.String(target))
	}
	switch reason.Kind {
	case relation.ReasonMissingProperty:
		missing := g.collectMissingProperties(reason)
		if len(missing) > 1 {
			return TS2740, fmt.Sprintf(Template(TS2740), in.String(source), in.String(target), strings.Join(missing, ", "))
		}
		return TS2339, fmt.Sprintf(Template(TS2339), reason.Property, in.String(target))
	case relation.ReasonPropertyTypeMismatch:
		// A mismatched property inside an ordinary assignment stays in
		// the TS2322/TS2345 family; TS2416 is reserved for the checker's
		// class-member override check, which knows the two class names.
		return g.baseAssignabilityCode(origin), g.baseAssignabilityMessage(origin, source, target)
	case relation.ReasonSignatureMismatch, relation.ReasonParamCount, relation.ReasonReturnTypeMismatch:
		return g.baseAssignabilityCode(origin), g.baseAssignabilityMessage(origin, source, target)
	case relation.ReasonTooComplex:
		return TS2589, Template(TS2589)
	case relation.ReasonUnionMember, relation.ReasonPrimitiveMismatch:
		fallthrough
	default:
		if !anyPropertyOverlap(g.interner, source, target) {
			return TS2559, fmt.Sprintf(Template(TS2559), in.String(source), in.String(target))
		}
		return g.baseAssignabilityCode(origin), g.baseAssignabilityMessage(origin, source, target)
	}
}

func (g *Gateway) baseAssignabilityCode(origin Origin) Code {
	if origin == OriginArgument {
		return TS2345
	}
	return TS2322
}

func (g *Gateway) baseAssignabilityMessage(origin Origin, source, target types.TypeId) string {
	return fmt.Sprintf(Template(g.baseAssignabilityCode(origin)), g.interner.String(source), g.interner.String(target))
}

func (g *Gateway) collectMissingProperties(reason relation.ReasonTree) []string {
	names := map[string]bool{}
	var walk func(r relation.ReasonTree)
	walk = func(r relation.ReasonTree) {
		if r.Kind == relation.ReasonMissingProperty && r.Property != "" {
			names[r.Property] = true
		}
		for _, c := range r.Children {
			walk(c)
		}
	}
	walk(reason)
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// anyPropertyOverlap reports whether source and target's object shapes
// share at least one property name, the same overlap test relation's
// weak-type override uses — TS2559 is reserved for the "no properties
// in common at all" case, distinct from "some properties mismatch."
func anyPropertyOverlap(in *types.Interner, source, target types.TypeId) bool {
	srcShape, ok := shapeOf(in, source)
	if !ok {
		return true
	}
	tgtShape, ok := shapeOf(in, target)
	if !ok {
		return true
	}
	if len(srcShape.Properties) == 0 || len(tgtShape.Properties) == 0 {
		return true
	}
	for _, sp := range srcShape.Properties {
		for _, tp := range tgtShape.Properties {
			if sp.Name == tp.Name {
				return true
			}
		}
	}
	return false
}

func shapeOf(in *types.Interner, id types.TypeId) (types.ObjectShape, bool) {
	key, ok := in.Get(id).(interface{ Shape() types.ObjectShape })
	if !ok {
		return types.ObjectShape{}, false
	}
	return key.Shape(), true
}

// Emit lets the checker report a diagnostic outside the assignability
// family (resolution, iterator-protocol, strictness, recursive-base
// codes) through the same dedup/sort machinery CheckAssignable uses,
// so every diagnostic in a compilation — not just the assignability
// ones — goes through one gateway instance.
func (g *Gateway) Emit(diag Diagnostic) Diagnostic {
	return g.emit(diag)
}

// emit appends diag to the gateway's running log unless an identical
// (code, span, operands) diagnostic has already been reported;
// duplicates are expected and suppressed.
func (g *Gateway) emit(diag Diagnostic) Diagnostic {
	key := dedupeKey{code: diag.Code, span: diag.Span, source: diag.Source, target: diag.Target}
	if g.seen[key] {
		return diag
	}
	g.seen[key] = true
	g.emitted = append(g.emitted, diag)
	return diag
}

// Diagnostics returns every diagnostic emitted so far, in a stable
// order derived from source spans rather than traversal order; the
// emitter relies on this sort.
func (g *Gateway) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(g.emitted))
	copy(out, g.emitted)
	sort.SliceStable(out, func(i, j int) bool {
		return spanLess(out[i].Span, out[j].Span)
	})
	return out
}

func spanLess(a, b ast.Span) bool {
	if a.Start.File != b.Start.File {
		return a.Start.File < b.Start.File
	}
	if a.Start.Line != b.Start.Line {
		return a.Start.Line < b.Start.Line
	}
	return a.Start.Column < b.Start.Column
}
