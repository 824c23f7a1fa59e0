// Package inference solves unification variables for a generic call's
// type parameters from its argument types, contextual (expected-return)
// types, declared constraints, and defaults.
//
// Unlike every other solver package in this module, inference is
// explicitly imperative — variable mutation and iterative bound
// refinement cannot be memoized — so a Solver is built fresh per
// call-site resolution and discarded, never shared across queries the
// way the Interner, DefinitionStore, Evaluator, and Judge are.
// Structural subtyping has no single most general solution, so instead
// of binding each variable to a unique substitution the Solver
// accumulates a lower/upper bound set per variable and picks the widest
// lower bound admitted by every upper bound.
package inference

import "github.com/sunholo/tscore/internal/types"

const defaultFuelBudget = 10000

// Subtyper is the one query the Solver needs from the relation engine:
// "is this candidate lower bound admitted by this upper bound." Defined
// locally, mirroring evaluator.Subtyper's shape, so the Solver can be
// unit-tested without constructing a real Judge.
type Subtyper interface {
	IsSubtype(src, tgt types.TypeId) bool
}

type varState struct {
	id         types.TypeId
	name       string
	constraint types.TypeId
	defaultTy  types.TypeId
	contextual []types.TypeId
	lowers     []types.TypeId
	uppers     []types.TypeId
}

// Solver is one generic call's inference session; re-checking the call
// with the specialized signature is the checker's job once Solve
// returns.
type Solver struct {
	interner *types.Interner
	subtyper Subtyper

	vars  []*varState
	byID  map[types.TypeId]*varState
	order []types.TypeId

	fuelBudget int
	fuelUsed   int
	overflowed bool
}

func New(interner *types.Interner, subtyper Subtyper, fuelBudget int) *Solver {
	if fuelBudget <= 0 {
		fuelBudget = defaultFuelBudget
	}
	return &Solver{
		interner:   interner,
		subtyper:   subtyper,
		byID:       make(map[types.TypeId]*varState),
		fuelBudget: fuelBudget,
	}
}

// Overflowed reports whether the fuel budget was exhausted — the
// checker's signal to emit TS2589 and fall every unresolved variable to
// Error instead of continuing to solve.
func (s *Solver) Overflowed() bool { return s.overflowed }

func (s *Solver) chargeFuel() bool {
	s.fuelUsed++
	if s.fuelUsed > s.fuelBudget {
		s.overflowed = true
		return false
	}
	return true
}

// NewVar allocates a fresh unification variable for one type parameter
// and returns the placeholder TypeId argument/parameter
// positions are matched against. constraint and defaultTy may be the
// zero TypeId (absent).
func (s *Solver) NewVar(name string, constraint, defaultTy types.TypeId) types.TypeId {
	id := s.interner.TypeParameter(types.TypeParamInfo{Name: name, Constraint: constraint, Default: defaultTy})
	v := &varState{id: id, name: name, constraint: constraint, defaultTy: defaultTy}
	s.vars = append(s.vars, v)
	s.byID[id] = v
	s.order = append(s.order, id)
	return id
}

// Infer walks one argument position: paramType is the (possibly
// variable-containing) declared parameter type, argType is the actual
// argument's type. Call once per argument in a generic call.
func (s *Solver) Infer(paramType, argType types.TypeId) {
	s.walk(paramType, argType, true)
}

// ApplyContextualType adds an additional upper bound from the call's
// expected return-position type.
func (s *Solver) ApplyContextualType(varID, expected types.TypeId) {
	if v, ok := s.byID[varID]; ok && expected.Valid() {
		v.contextual = append(v.contextual, expected)
	}
}

// walk recurses pattern (the declared parameter type, possibly
// containing unification variables) against value (the concrete
// argument type), collecting a lower bound at a covariant position and
// an upper bound at a contravariant one. Structural descent mirrors
// evaluator.matchInfer's best-effort shape-by-shape matching — a
// variable occurring inside a pattern shape with no counterpart in
// value's shape simply collects no bound from that position.
func (s *Solver) walk(pattern, value types.TypeId, covariant bool) {
	if !pattern.Valid() || !value.Valid() {
		return
	}
	if v, ok := s.byID[pattern]; ok {
		if covariant {
			v.lowers = append(v.lowers, value)
		} else {
			v.uppers = append(v.uppers, value)
		}
		return
	}

	pk := s.interner.Get(pattern)
	vk := s.interner.Get(value)

	switch pp := pk.(type) {
	case interface{ Element() types.TypeId }:
		if va, ok := vk.(interface{ Element() types.TypeId }); ok {
			s.walk(pp.Element(), va.Element(), covariant)
		}
	case interface{ Elements() []types.TupleElem }:
		if va, ok := vk.(interface{ Elements() []types.TupleElem }); ok {
			pe, ve := pp.Elements(), va.Elements()
			n := min(len(pe), len(ve))
			for i := 0; i < n; i++ {
				s.walk(pe[i].Type, ve[i].Type, covariant)
			}
		}
	case interface{ Shape() types.ObjectShape }:
		if va, ok := vk.(interface{ Shape() types.ObjectShape }); ok {
			s.walkObject(pp.Shape(), va.Shape(), covariant)
		}
	case interface {
		Def() types.DefId
		Args() []types.TypeId
	}:
		if va, ok := vk.(interface {
			Def() types.DefId
			Args() []types.TypeId
		}); ok && pp.Def() == va.Def() {
			pa, va2 := pp.Args(), va.Args()
			n := min(len(pa), len(va2))
			for i := 0; i < n; i++ {
				s.walk(pa[i], va2[i], covariant)
			}
		}
	case interface{ Members() []types.TypeId }:
		for _, m := range pp.Members() {
			s.walk(m, value, covariant)
		}
	}
}

func (s *Solver) walkObject(pattern, value types.ObjectShape, covariant bool) {
	byName := make(map[string]types.TypeId, len(value.Properties))
	for _, p := range value.Properties {
		byName[p.Name] = p.Type
	}
	for _, p := range pattern.Properties {
		if vt, ok := byName[p.Name]; ok {
			s.walk(p.Type, vt, covariant)
		}
	}
	n := min(len(pattern.CallSigs), len(value.CallSigs))
	for i := 0; i < n; i++ {
		ps, vs := pattern.CallSigs[i], value.CallSigs[i]
		m := min(len(ps.Params), len(vs.Params))
		for j := 0; j < m; j++ {
			s.walk(ps.Params[j].Type, vs.Params[j].Type, !covariant) // contravariant position
		}
		s.walk(ps.Return, vs.Return, covariant)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Solve resolves every registered variable to a concrete TypeId:
// widest lower bound admitted by every upper bound, falling back to the
// first collected upper bound (argument-derived, then contextual, then
// the declared constraint), then the parameter's default, then unknown.
// A variable whose solving exhausts the fuel budget resolves to Error.
func (s *Solver) Solve() map[types.TypeId]types.TypeId {
	result := make(map[types.TypeId]types.TypeId, len(s.order))
	for _, id := range s.order {
		result[id] = s.solveOne(s.byID[id])
	}
	return result
}

func (s *Solver) solveOne(v *varState) types.TypeId {
	if !s.chargeFuel() {
		return s.interner.ErrorID
	}

	uppers := make([]types.TypeId, 0, len(v.uppers)+len(v.contextual)+1)
	uppers = append(uppers, v.uppers...)
	uppers = append(uppers, v.contextual...)
	if v.constraint.Valid() {
		uppers = append(uppers, v.constraint)
	}

	if len(v.lowers) > 0 {
		widened := make([]types.TypeId, len(v.lowers))
		for i, lo := range v.lowers {
			widened[i] = widenLiteral(s.interner, lo)
		}
		candidate := s.interner.Union(widened...)
		if s.admittedByAll(candidate, uppers) {
			return candidate
		}
		if s.overflowed {
			return s.interner.ErrorID
		}
	}
	for _, u := range uppers {
		if u.Valid() {
			return u // best-effort: the first collected upper bound wins when no lower bound fits
		}
	}
	if v.defaultTy.Valid() {
		return v.defaultTy
	}
	return s.interner.UnknownID
}

// widenLiteral drops a lower bound's literal type down to its ground
// primitive before it becomes an inferred type argument — TypeScript
// infers `id(42)` as `T = number`, not `T = 42`, even though `42`'s own
// type is the literal. Mirrors narrowing.Narrower.Widen's literal-kind
// switch; duplicated rather than imported so this package's only
// dependency stays the Subtyper interface.
func widenLiteral(in *types.Interner, t types.TypeId) types.TypeId {
	lit, ok := in.Get(t).(interface {
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

func (s *Solver) admittedByAll(candidate types.TypeId, uppers []types.TypeId) bool {
	for _, u := range uppers {
		if !s.chargeFuel() {
			return false
		}
		if !s.subtyper.IsSubtype(candidate, u) {
			return false
		}
	}
	return true
}
