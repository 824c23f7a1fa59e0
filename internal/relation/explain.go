package relation

import "github.com/sunholo/tscore/internal/types"

// ReasonKind tags why a relation failed, for the diagnostic gateway's
// "not assignable" message chain.
type ReasonKind int

const (
	ReasonNone ReasonKind = iota
	ReasonMissingProperty
	ReasonPropertyTypeMismatch
	ReasonSignatureMismatch
	ReasonParamCount
	ReasonReturnTypeMismatch
	ReasonUnionMember
	ReasonPrimitiveMismatch
	ReasonTooComplex
)

// ReasonTree is the nested explanation the checker walks to build a
// multi-line diagnostic: Kind == ReasonNone means "this pair is
// actually compatible" (the root call should never be read when relate
// already returned true).
type ReasonTree struct {
	Kind     ReasonKind
	Property string
	Expected types.TypeId
	Actual   types.TypeId
	Children []ReasonTree
}

const explainDepthLimit = 1000

// Explain re-derives why src is not assignable/subtype-compatible with
// tgt, for the single diagnostic the checker emits at the point of
// failure. It is not memoized — it runs only when a diagnostic is
// actually about to be produced (at most once per emitted error), so
// paying the traversal cost again is cheaper than keeping a second
// cache live for the whole compilation.
func (j *Judge) Explain(src, tgt types.TypeId, mode Mode) ReasonTree {
	return j.explain(src, tgt, mode, make(map[pairKey]bool), 0)
}

func (j *Judge) explain(src, tgt types.TypeId, mode Mode, inProgress map[pairKey]bool, depth int) ReasonTree {
	in := j.interner
	if src == tgt || src == in.ErrorID || tgt == in.ErrorID {
		return ReasonTree{Kind: ReasonNone}
	}
	if tgt == in.AnyID || tgt == in.UnknownID || src == in.NeverID {
		return ReasonTree{Kind: ReasonNone}
	}
	if depth > explainDepthLimit {
		return ReasonTree{Kind: ReasonTooComplex, Expected: tgt, Actual: src}
	}
	key := pairKey{src, tgt, mode}
	if inProgress[key] {
		return ReasonTree{Kind: ReasonNone}
	}
	inProgress[key] = true
	defer delete(inProgress, key)

	srcG := j.eval.Evaluate(src)
	tgtG := j.eval.Evaluate(tgt)
	srcKey := in.Get(srcG)
	tgtKey := in.Get(tgtG)

	if srcKey.VariantKind() == types.KindUnion {
		for _, m := range srcKey.(interface{ Members() []types.TypeId }).Members() {
			if r := j.explain(m, tgt, mode, inProgress, depth+1); r.Kind != ReasonNone {
				return ReasonTree{Kind: ReasonUnionMember, Expected: tgt, Actual: m, Children: []ReasonTree{r}}
			}
		}
		return ReasonTree{Kind: ReasonNone}
	}
	if tgtKey.VariantKind() == types.KindUnion {
		members := tgtKey.(interface{ Members() []types.TypeId }).Members()
		var children []ReasonTree
		for _, m := range members {
			r := j.explain(src, m, mode, inProgress, depth+1)
			if r.Kind == ReasonNone {
				return ReasonTree{Kind: ReasonNone}
			}
			children = append(children, r)
		}
		return ReasonTree{Kind: ReasonUnionMember, Expected: tgt, Actual: src, Children: children}
	}

	if objSrc, ok := srcKey.(interface{ Shape() types.ObjectShape }); ok {
		if objTgt, ok2 := tgtKey.(interface{ Shape() types.ObjectShape }); ok2 {
			return j.explainObject(objSrc.Shape(), objTgt.Shape(), mode, inProgress, depth)
		}
	}

	if litSrc, ok := srcKey.(interface {
		Kind() types.LiteralKind
		StringValue() string
		NumberValue() float64
		BoolValue() bool
	}); ok {
		ground, isLit := literalGroundIntrinsic(litSrc)
		if isLit {
			if intr, ok2 := tgtKey.(interface{ Kind() types.IntrinsicKind }); ok2 && intr.Kind() == ground {
				return ReasonTree{Kind: ReasonNone}
			}
		}
		return ReasonTree{Kind: ReasonPrimitiveMismatch, Expected: tgt, Actual: src}
	}

	if !j.relate(src, tgt, mode) {
		return ReasonTree{Kind: ReasonPrimitiveMismatch, Expected: tgt, Actual: src}
	}
	return ReasonTree{Kind: ReasonNone}
}

func (j *Judge) explainObject(src, tgt types.ObjectShape, mode Mode, inProgress map[pairKey]bool, depth int) ReasonTree {
	srcByName := make(map[string]types.PropertyDef, len(src.Properties))
	for _, p := range src.Properties {
		srcByName[p.Name] = p
	}
	var missing []ReasonTree
	for _, tp := range tgt.Properties {
		sp, ok := srcByName[tp.Name]
		if !ok {
			if tp.Optional {
				continue
			}
			missing = append(missing, ReasonTree{Kind: ReasonMissingProperty, Property: tp.Name, Expected: tp.Type})
			continue
		}
		if len(missing) > 0 {
			continue
		}
		if r := j.explain(sp.Type, tp.Type, mode, inProgress, depth+1); r.Kind != ReasonNone {
			return ReasonTree{
				Kind:     ReasonPropertyTypeMismatch,
				Property: tp.Name,
				Expected: tp.Type,
				Actual:   sp.Type,
				Children: []ReasonTree{r},
			}
		}
	}
	if len(missing) == 0 {
		return ReasonTree{Kind: ReasonNone}
	}
	// The first missing property is the root; the rest become its
	// children so the gateway can list every missing name.
	root := missing[0]
	root.Children = missing[1:]
	return root
}
