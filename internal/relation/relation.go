// Package relation implements the Judge and Lawyer: the boolean
// subtype/assignability relation with coinductive cycle recovery, and
// TypeScript's four documented unsoundness overrides layered on top.
package relation

import (
	"github.com/sunholo/tscore/internal/evaluator"
	"github.com/sunholo/tscore/internal/types"
)

// Mode selects which of the three relation policies governs a given
// comparison.
type Mode int

const (
	ModeIdentity Mode = iota
	ModeSubtype
	ModeAssignability
)

type pairKey struct {
	src, tgt types.TypeId
	mode     Mode
}

const defaultWorkBudget = 100000

// Judge is the pure set-theoretic relation engine: it knows no
// source syntax, decides only booleans, and never emits a diagnostic.
type Judge struct {
	interner *types.Interner
	eval     *evaluator.Evaluator

	inProgress map[pairKey]bool
	memo       map[pairKey]bool

	workBudget int
	workUsed   int
	overflowed bool
}

// NewJudge constructs a Judge. eval must be the same Evaluator instance
// the checker constructed the Interner/DefinitionStore alongside (one
// compilation, one set of these). Call SetSubtyper(judge) on eval after
// construction — see evaluator.Subtyper's doc comment for why the wiring
// is two-step.
func NewJudge(interner *types.Interner, eval *evaluator.Evaluator, workBudget int) *Judge {
	if workBudget <= 0 {
		workBudget = defaultWorkBudget
	}
	return &Judge{
		interner:   interner,
		eval:       eval,
		inProgress: make(map[pairKey]bool),
		memo:       make(map[pairKey]bool),
		workBudget: workBudget,
	}
}

// Overflowed reports whether the work budget was exhausted since
// construction — the checker's signal to emit a single TS2589.
func (j *Judge) Overflowed() bool { return j.overflowed }

func (j *Judge) chargeWork() bool {
	j.workUsed++
	if j.workUsed > j.workBudget {
		j.overflowed = true
		return false
	}
	return true
}

// IsSubtype is the pure structural Subtype policy, and is also the
// evaluator.Subtyper implementation a Conditional reduction calls: an
// `extends` test is always plain structural subtyping, never the
// Lawyer's assignability relaxations.
func (j *Judge) IsSubtype(src, tgt types.TypeId) bool {
	return j.relate(src, tgt, ModeSubtype)
}

// IsIdentical is the Identity policy: mutual strict subtyping.
func (j *Judge) IsIdentical(a, b types.TypeId) bool {
	return j.relate(a, b, ModeIdentity) && j.relate(b, a, ModeIdentity)
}

// relate is the core relation algorithm. The cycle-set insertion
// happens before evaluation, deliberately: expansive generics allocate
// fresh TypeIds at each evaluation step, so a guard on post-evaluation
// pairs would never fire; inserting first terminates them with a
// provisional true.
func (j *Judge) relate(src, tgt types.TypeId, mode Mode) bool {
	in := j.interner
	if src == tgt || src == in.ErrorID || tgt == in.ErrorID {
		return true
	}
	if tgt == in.AnyID || tgt == in.UnknownID {
		return true
	}
	if src == in.NeverID {
		return true
	}

	key := pairKey{src, tgt, mode}
	if j.inProgress[key] {
		return true // coinductive: provisional true, no contradiction found yet
	}
	if v, ok := j.memo[key]; ok {
		return v
	}
	if !j.chargeWork() {
		return false
	}

	j.inProgress[key] = true
	srcG := j.eval.Evaluate(src)
	tgtG := j.eval.Evaluate(tgt)
	result := j.structuralCompare(srcG, tgtG, mode)
	delete(j.inProgress, key)

	j.memo[key] = result
	return result
}

func (j *Judge) structuralCompare(src, tgt types.TypeId, mode Mode) bool {
	in := j.interner
	srcKey := in.Get(src)
	tgtKey := in.Get(tgt)

	if srcKey.VariantKind() == types.KindUnion {
		for _, m := range srcKey.(interface{ Members() []types.TypeId }).Members() {
			if !j.relate(m, tgt, mode) {
				return false
			}
		}
		return true
	}
	if tgtKey.VariantKind() == types.KindUnion {
		for _, m := range tgtKey.(interface{ Members() []types.TypeId }).Members() {
			if j.relate(src, m, mode) {
				return true
			}
		}
		return false
	}
	if srcKey.VariantKind() == types.KindIntersection {
		for _, m := range srcKey.(interface{ Members() []types.TypeId }).Members() {
			if j.relate(m, tgt, mode) {
				return true
			}
		}
		return false
	}
	if tgtKey.VariantKind() == types.KindIntersection {
		for _, m := range tgtKey.(interface{ Members() []types.TypeId }).Members() {
			if !j.relate(src, m, mode) {
				return false
			}
		}
		return true
	}

	switch sk := srcKey.(type) {
	case interface {
		Kind() types.LiteralKind
		StringValue() string
		NumberValue() float64
		BoolValue() bool
	}:
		ground, ok := literalGroundIntrinsic(sk)
		if !ok {
			return false
		}
		intr, ok := tgtKey.(interface{ Kind() types.IntrinsicKind })
		return ok && intr.Kind() == ground

	case interface{ Shape() types.ObjectShape }:
		tgtObj, ok := tgtKey.(interface{ Shape() types.ObjectShape })
		if !ok {
			return false
		}
		return j.objectAssignable(sk.Shape(), tgtObj.Shape(), mode)

	case interface{ Element() types.TypeId }:
		tgtArr, ok := tgtKey.(interface{ Element() types.TypeId })
		if !ok {
			return false
		}
		return j.relate(sk.Element(), tgtArr.Element(), mode)

	case interface{ Elements() []types.TupleElem }:
		tgtTuple, ok := tgtKey.(interface{ Elements() []types.TupleElem })
		if !ok {
			return false
		}
		return j.tupleAssignable(sk.Elements(), tgtTuple.Elements(), mode)

	case interface {
		Def() types.DefId
		Args() []types.TypeId
	}:
		tgtApp, ok := tgtKey.(interface {
			Def() types.DefId
			Args() []types.TypeId
		})
		if !ok || sk.Def() != tgtApp.Def() {
			return false
		}
		sa, ta := sk.Args(), tgtApp.Args()
		if len(sa) != len(ta) {
			return false
		}
		for i := range sa {
			if !j.IsIdentical(sa[i], ta[i]) {
				return false
			}
		}
		return true

	case interface{ Def() types.DefId }: // lazyKey alone, no args
		tgtLazy, ok := tgtKey.(interface{ Def() types.DefId })
		return ok && sk.Def() == tgtLazy.Def()

	case interface{ Operand() types.TypeId }: // ReadonlyType, the one surviving meta-wrapper post-evaluation
		if srcKey.VariantKind() != types.KindReadonly {
			return false
		}
		if tgtKey.VariantKind() == types.KindReadonly {
			return j.relate(sk.Operand(), tgtKey.(interface{ Operand() types.TypeId }).Operand(), mode)
		}
		return j.relate(sk.Operand(), tgt, mode)

	default:
		return false
	}
}

func literalGroundIntrinsic(lit interface{ Kind() types.LiteralKind }) (types.IntrinsicKind, bool) {
	switch lit.Kind() {
	case types.LitString:
		return types.StringKind, true
	case types.LitNumber:
		return types.NumberKind, true
	case types.LitBoolean:
		return types.BooleanKind, true
	case types.LitBigInt:
		return types.BigIntKind, true
	case types.LitUniqueSymbol:
		return types.SymbolKind, true
	}
	return 0, false
}

func (j *Judge) objectAssignable(src, tgt types.ObjectShape, mode Mode) bool {
	srcByName := make(map[string]types.PropertyDef, len(src.Properties))
	for _, p := range src.Properties {
		srcByName[p.Name] = p
	}
	for _, tp := range tgt.Properties {
		sp, ok := srcByName[tp.Name]
		if !ok {
			if tp.Optional {
				continue
			}
			return false
		}
		if !j.relate(sp.Type, tp.Type, mode) {
			return false
		}
	}
	for _, brand := range tgt.NominalBrands {
		found := false
		for _, b := range src.NominalBrands {
			if b == brand {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if tgt.StringIndexer.Valid() {
		for _, p := range src.Properties {
			if !j.relate(p.Type, tgt.StringIndexer, mode) {
				return false
			}
		}
		if src.StringIndexer.Valid() && !j.relate(src.StringIndexer, tgt.StringIndexer, mode) {
			return false
		}
	}
	if tgt.NumberIndexer.Valid() && src.NumberIndexer.Valid() {
		if !j.relate(src.NumberIndexer, tgt.NumberIndexer, mode) {
			return false
		}
	}
	if len(tgt.CallSigs) > 0 && !j.anySignatureAssignable(src.CallSigs, tgt.CallSigs, mode) {
		return false
	}
	if len(tgt.ConstructSigs) > 0 && !j.anySignatureAssignable(src.ConstructSigs, tgt.ConstructSigs, mode) {
		return false
	}
	return true
}

func (j *Judge) anySignatureAssignable(srcSigs, tgtSigs []types.Signature, mode Mode) bool {
	for _, ts := range tgtSigs {
		ok := false
		for _, ss := range srcSigs {
			if j.signatureAssignable(ss, ts, mode) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// signatureAssignable compares two signatures: parameter counts
// reconcile per rest/optional rules, parameters contravariant
// (bivariant when both sides are method-shorthand members under
// Assignability), returns covariant (relaxed to always-compatible when
// the target declares `void` under Assignability).
func (j *Judge) signatureAssignable(src, tgt types.Signature, mode Mode) bool {
	if !paramCountsReconcile(src.Params, tgt.Params) {
		return false
	}
	n := len(tgt.Params)
	if len(src.Params) < n {
		n = len(src.Params)
	}
	bivariant := mode == ModeAssignability && src.MethodShorthand && tgt.MethodShorthand
	for i := 0; i < n; i++ {
		sp, tp := src.Params[i], tgt.Params[i]
		if bivariant {
			if !j.relate(tp.Type, sp.Type, mode) && !j.relate(sp.Type, tp.Type, mode) {
				return false
			}
			continue
		}
		if !j.relate(tp.Type, sp.Type, mode) {
			return false
		}
	}
	if mode == ModeAssignability && j.isVoidIntrinsic(tgt.Return) {
		return true
	}
	return j.relate(src.Return, tgt.Return, mode)
}

func (j *Judge) isVoidIntrinsic(id types.TypeId) bool {
	return id == j.interner.VoidID
}

func paramCountsReconcile(src, tgt []types.Param) bool {
	required := 0
	for _, p := range src {
		if !p.Optional && !p.Rest {
			required++
		}
	}
	hasRest := len(src) > 0 && src[len(src)-1].Rest
	if !hasRest && required > len(tgt) {
		return false
	}
	return true
}

func (j *Judge) tupleAssignable(src, tgt []types.TupleElem, mode Mode) bool {
	n := len(src)
	if len(tgt) < n {
		n = len(tgt)
	}
	for i := 0; i < n; i++ {
		if !j.relate(src[i].Type, tgt[i].Type, mode) {
			return false
		}
	}
	if len(src) < len(tgt) {
		for i := len(src); i < len(tgt); i++ {
			if !tgt[i].Optional && !tgt[i].Rest {
				return false
			}
		}
	}
	return true
}
