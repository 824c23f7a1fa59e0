package relation

import "github.com/sunholo/tscore/internal/types"

// Lawyer wraps a Judge with the four documented unsoundness overrides
// TypeScript's own compiler applies on top of the structural relation,
// never part of the pure Subtype policy a Conditional's `extends`
// clause tests: (1) any escapes in both directions, (2) void-return
// relaxation, (3) method-shorthand bivariance, (4) weak-type
// rejection.
type Lawyer struct {
	judge    *Judge
	interner *types.Interner
}

func NewLawyer(judge *Judge, interner *types.Interner) *Lawyer {
	return &Lawyer{judge: judge, interner: interner}
}

// IsAssignable is the Assignability policy with the Lawyer's overrides
// layered on: rule 1 (any escapes both directions) is checked before
// delegating to the Judge; rule 4 (weak-type rejection) is checked after,
// since it can only ever turn a Judge "true" into a Lawyer "false", never
// the reverse. Rules 2 (void-return relaxation) and 3 (method bivariance)
// live inside the Judge's own signatureAssignable, gated on
// ModeAssignability, because they change how nested signatures compare,
// not the top-level verdict.
func (l *Lawyer) IsAssignable(src, tgt types.TypeId) bool {
	in := l.interner
	if src == in.ErrorID || tgt == in.ErrorID {
		return true
	}
	if src == in.AnyID && tgt != in.NeverID {
		return true // rule 1: any is assignable to everything but never
	}
	if !l.judge.relate(src, tgt, ModeAssignability) {
		return false
	}
	if l.violatesWeakType(src, tgt) {
		return false // rule 4
	}
	return true
}

// violatesWeakType implements rule 4: a target object type whose
// every member is optional is "weak", and a source with no overlapping
// property name is rejected even though the structural rule above would
// accept it (every optional target property is vacuously satisfied by
// absence).
func (l *Lawyer) violatesWeakType(src, tgt types.TypeId) bool {
	in := l.interner
	tgtG := l.judge.eval.Evaluate(tgt)
	srcG := l.judge.eval.Evaluate(src)
	tgtObj, ok := in.Get(tgtG).(interface{ Shape() types.ObjectShape })
	if !ok {
		return false
	}
	srcObj, ok := in.Get(srcG).(interface{ Shape() types.ObjectShape })
	if !ok {
		return false
	}
	tShape := tgtObj.Shape()
	if !isWeakTarget(tShape) {
		return false
	}
	return !propertiesOverlap(srcObj.Shape(), tShape)
}

func isWeakTarget(shape types.ObjectShape) bool {
	if len(shape.Properties) == 0 {
		return false
	}
	for _, p := range shape.Properties {
		if !p.Optional {
			return false
		}
	}
	return true
}

func propertiesOverlap(src, tgt types.ObjectShape) bool {
	names := make(map[string]bool, len(src.Properties))
	for _, p := range src.Properties {
		names[p.Name] = true
	}
	for _, p := range tgt.Properties {
		if names[p.Name] {
			return true
		}
	}
	return false
}
