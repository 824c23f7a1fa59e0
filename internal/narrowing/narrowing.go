// Package narrowing implements the flow-narrowing engine: given a
// reference's static type and a binder-supplied Guard, produce the
// flow-narrowed type at that program point, and join/widen types across
// flow edges.
package narrowing

import (
	"strconv"

	"github.com/sunholo/tscore/internal/binder"
	"github.com/sunholo/tscore/internal/defstore"
	"github.com/sunholo/tscore/internal/evaluator"
	"github.com/sunholo/tscore/internal/types"
)

// Narrower applies guard kinds to a union's member set. One
// Narrower is scoped to a compilation, alongside the Interner,
// DefinitionStore, and Evaluator it reads through to ground Lazy
// references before inspecting shape.
type Narrower struct {
	interner *types.Interner
	defs     *defstore.Store
	eval     *evaluator.Evaluator

	predicateTypes map[string]types.TypeId
}

func New(interner *types.Interner, defs *defstore.Store, eval *evaluator.Evaluator) *Narrower {
	return &Narrower{interner: interner, defs: defs, eval: eval, predicateTypes: make(map[string]types.TypeId)}
}

// RegisterPredicateType records the asserted type of a user-defined type
// predicate function (`x is Foo`), keyed by the predicate's TypeRefAnn
// name — the checker resolves this once per predicate declaration and
// registers it before any call site narrows with it.
func (n *Narrower) RegisterPredicateType(name string, asserted types.TypeId) {
	n.predicateTypes[name] = asserted
}

// Apply narrows t per g, honoring g.Negated (the guard as it holds on
// the else-branch edge).
func (n *Narrower) Apply(t types.TypeId, g *binder.Guard) types.TypeId {
	if g == nil || !t.Valid() {
		return t
	}
	switch g.Kind {
	case binder.GuardNonNull:
		return n.nonNull(t, g.Negated)
	case binder.GuardTypeof:
		return n.typeofGuard(t, g.TypeofValue, g.Negated)
	case binder.GuardInstanceof:
		return n.instanceofGuard(t, g.ClassName, g.Negated)
	case binder.GuardDiscriminant:
		return n.discriminantGuard(t, g.PropertyKey, g.LiteralText, g.Negated)
	case binder.GuardIn:
		return n.inGuard(t, g.PropertyKey, g.Negated)
	case binder.GuardTruthy:
		return n.truthyGuard(t, g.Negated)
	case binder.GuardPredicate:
		return n.predicateGuard(t, g.PredicateOf, g.Negated)
	default:
		return t
	}
}

// members returns t's union branches, or a single-element slice of t
// itself when t is not a union (every guard kind is a filter over "the
// members a reference's type could be", and a non-union type is its own
// sole member).
func (n *Narrower) members(t types.TypeId) []types.TypeId {
	key := n.interner.Get(t)
	if u, ok := key.(interface{ Members() []types.TypeId }); ok && key.VariantKind() == types.KindUnion {
		return u.Members()
	}
	return []types.TypeId{t}
}

func (n *Narrower) rebuild(members []types.TypeId) types.TypeId {
	if len(members) == 0 {
		return n.interner.NeverID
	}
	return n.interner.UnionPreserveLiterals(members...)
}

func (n *Narrower) filterMembers(t types.TypeId, keep func(m types.TypeId) bool) types.TypeId {
	var kept []types.TypeId
	for _, m := range n.members(t) {
		if keep(m) {
			kept = append(kept, m)
		}
	}
	return n.rebuild(kept)
}

func (n *Narrower) nonNull(t types.TypeId, negated bool) types.TypeId {
	in := n.interner
	isNullish := func(m types.TypeId) bool { return m == in.NullID || m == in.UndefinedID }
	if negated {
		return n.filterMembers(t, isNullish)
	}
	return n.filterMembers(t, func(m types.TypeId) bool { return !isNullish(m) })
}

// typeofGuard retains (or, negated, excludes) members whose runtime
// `typeof` matches want.
func (n *Narrower) typeofGuard(t types.TypeId, want string, negated bool) types.TypeId {
	matches := func(m types.TypeId) bool { return n.typeofOf(m) == want }
	if negated {
		return n.filterMembers(t, func(m types.TypeId) bool { return !matches(m) })
	}
	return n.filterMembers(t, matches)
}

func (n *Narrower) typeofOf(m types.TypeId) string {
	in := n.interner
	ground := n.groundOf(m)
	key := in.Get(ground)
	if lit, ok := key.(interface {
		Kind() types.LiteralKind
		StringValue() string
		NumberValue() float64
		BoolValue() bool
	}); ok {
		switch lit.Kind() {
		case types.LitString:
			return "string"
		case types.LitNumber:
			return "number"
		case types.LitBoolean:
			return "boolean"
		case types.LitBigInt:
			return "bigint"
		case types.LitUniqueSymbol:
			return "symbol"
		}
	}
	if intr, ok := key.(interface{ Kind() types.IntrinsicKind }); ok {
		switch intr.Kind() {
		case types.StringKind:
			return "string"
		case types.NumberKind:
			return "number"
		case types.BooleanKind:
			return "boolean"
		case types.BigIntKind:
			return "bigint"
		case types.SymbolKind:
			return "symbol"
		case types.Undefined:
			return "undefined"
		case types.NullKind, types.ObjectKind:
			return "object" // typeof null === "object", same bucket as structural object
		}
	}
	if _, ok := key.(interface{ Shape() types.ObjectShape }); ok {
		shape := key.(interface{ Shape() types.ObjectShape }).Shape()
		if len(shape.CallSigs) > 0 {
			return "function"
		}
		return "object"
	}
	if key.VariantKind() == types.KindArray || key.VariantKind() == types.KindTuple {
		return "object"
	}
	return ""
}

func (n *Narrower) instanceofGuard(t types.TypeId, className string, negated bool) types.TypeId {
	def, ok := n.defs.Lookup(className)
	isInstance := func(m types.TypeId) bool {
		if !ok {
			return false
		}
		ground := n.groundOf(m)
		key := n.interner.Get(ground)
		if lz, ok := key.(interface{ Def() types.DefId }); ok {
			return lz.Def() == def
		}
		return false
	}
	if negated {
		return n.filterMembers(t, func(m types.TypeId) bool { return !isInstance(m) })
	}
	return n.filterMembers(t, isInstance)
}

func (n *Narrower) discriminantGuard(t types.TypeId, property, literalText string, negated bool) types.TypeId {
	matches := func(m types.TypeId) bool {
		ground := n.groundOf(m)
		obj, ok := n.interner.Get(ground).(interface{ Shape() types.ObjectShape })
		if !ok {
			return false
		}
		for _, p := range obj.Shape().Properties {
			if p.Name != property {
				continue
			}
			return n.literalTextOf(p.Type) == literalText
		}
		return false
	}
	if negated {
		return n.filterMembers(t, func(m types.TypeId) bool { return !matches(m) })
	}
	return n.filterMembers(t, matches)
}

func (n *Narrower) literalTextOf(id types.TypeId) string {
	key := n.interner.Get(n.groundOf(id))
	lit, ok := key.(interface {
		Kind() types.LiteralKind
		StringValue() string
		NumberValue() float64
		BoolValue() bool
	})
	if !ok {
		return ""
	}
	switch lit.Kind() {
	case types.LitString:
		return lit.StringValue()
	case types.LitNumber:
		return strconv.FormatFloat(lit.NumberValue(), 'g', -1, 64)
	case types.LitBoolean:
		return strconv.FormatBool(lit.BoolValue())
	default:
		return ""
	}
}

func (n *Narrower) inGuard(t types.TypeId, property string, negated bool) types.TypeId {
	has := func(m types.TypeId) bool {
		ground := n.groundOf(m)
		obj, ok := n.interner.Get(ground).(interface{ Shape() types.ObjectShape })
		if !ok {
			return false
		}
		for _, p := range obj.Shape().Properties {
			if p.Name == property {
				return true
			}
		}
		return obj.Shape().StringIndexer.Valid()
	}
	if negated {
		return n.filterMembers(t, func(m types.TypeId) bool { return !has(m) })
	}
	return n.filterMembers(t, has)
}

func (n *Narrower) truthyGuard(t types.TypeId, negated bool) types.TypeId {
	if negated {
		return n.filterMembers(t, n.isPossiblyFalsy)
	}
	return n.filterMembers(t, func(m types.TypeId) bool { return !n.isDefinitelyFalsy(m) })
}

func (n *Narrower) isDefinitelyFalsy(m types.TypeId) bool {
	in := n.interner
	ground := n.groundOf(m)
	if ground == in.NullID || ground == in.UndefinedID || ground == in.VoidID {
		return true
	}
	key := in.Get(ground)
	if lit, ok := key.(interface {
		Kind() types.LiteralKind
		StringValue() string
		NumberValue() float64
		BoolValue() bool
	}); ok {
		switch lit.Kind() {
		case types.LitString:
			return lit.StringValue() == ""
		case types.LitNumber:
			return lit.NumberValue() == 0
		case types.LitBoolean:
			return lit.BoolValue() == false
		}
	}
	return false
}

func (n *Narrower) isPossiblyFalsy(m types.TypeId) bool {
	if n.isDefinitelyFalsy(m) {
		return true
	}
	ground := n.groundOf(m)
	key := n.interner.Get(ground)
	if intr, ok := key.(interface{ Kind() types.IntrinsicKind }); ok {
		switch intr.Kind() {
		case types.StringKind, types.NumberKind, types.BooleanKind, types.BigIntKind:
			return true // the general primitive admits a falsy value at runtime
		}
	}
	return false
}

func (n *Narrower) predicateGuard(t types.TypeId, predicateName string, negated bool) types.TypeId {
	asserted, ok := n.predicateTypes[predicateName]
	if !ok {
		return t
	}
	if negated {
		// else-branch: exclude the asserted type's own members, leaving the
		// remainder (best effort — a type predicate carries no "everything
		// else" information beyond what it asserts).
		assertedMembers := make(map[types.TypeId]bool)
		for _, m := range n.members(asserted) {
			assertedMembers[m] = true
		}
		return n.filterMembers(t, func(m types.TypeId) bool { return !assertedMembers[m] })
	}
	return asserted
}

func (n *Narrower) groundOf(id types.TypeId) types.TypeId {
	if n.eval == nil {
		return id
	}
	return n.eval.Evaluate(id)
}

// Join combines the narrowed types of two or more flow predecessors at
// a join point, through the literal-preserving union constructor so
// discriminants survive the join.
func (n *Narrower) Join(branches ...types.TypeId) types.TypeId {
	return n.interner.UnionPreserveLiterals(branches...)
}

// Widen returns the widened type an assignment along a flow path
// produces: a literal widens to its ground primitive unless the
// binding was declared const, in which case narrowing persists
// unchanged.
func (n *Narrower) Widen(t types.TypeId, isConst bool) types.TypeId {
	if isConst {
		return t
	}
	in := n.interner
	key := in.Get(t)
	lit, ok := key.(interface {
		Kind() types.LiteralKind
		StringValue() string
		NumberValue() float64
		BoolValue() bool
	})
	if !ok {
		return t
	}
	switch lit.Kind() {
	case types.LitString:
		return in.StringID
	case types.LitNumber:
		return in.NumberID
	case types.LitBoolean:
		return in.BooleanID
	case types.LitBigInt:
		return in.BigIntID
	default:
		return t
	}
}
