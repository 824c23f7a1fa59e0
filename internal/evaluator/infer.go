package evaluator

import "github.com/sunholo/tscore/internal/types"

// matchInfer structurally matches check against pattern (a Conditional's
// extends-position type, which may contain Infer placeholders from
// wanted), binding each wanted infer TypeId to the corresponding
// substructure of check.
//
// This is a best-effort structural match over Array, Tuple, Object, and
// generic Application shapes — the common infer idioms (`infer U` inside
// an array/tuple/property position, or inside a same-DefId generic
// application) — not a fully general unification; a pattern shape with no
// analog in check simply contributes no binding for that position. Left
// unbound infer variables fall back to `unknown` by the caller, matching
// the inference engine's own unresolved-variable policy.
func matchInfer(in *types.Interner, check, pattern types.TypeId, wanted []types.InferBinding) map[types.TypeId]types.TypeId {
	bindings := make(map[types.TypeId]types.TypeId)
	isWanted := make(map[types.TypeId]bool, len(wanted))
	for _, w := range wanted {
		isWanted[w.Id] = true
	}

	var walk func(pat, val types.TypeId)
	walk = func(pat, val types.TypeId) {
		if !pat.Valid() || !val.Valid() {
			return
		}
		if isWanted[pat] {
			if _, bound := bindings[pat]; !bound {
				bindings[pat] = val
			}
			return
		}
		switch pk := in.Get(pat).(type) {
		case interface{ Element() types.TypeId }:
			if vk, ok := in.Get(val).(interface{ Element() types.TypeId }); ok {
				walk(pk.Element(), vk.Element())
			}
		case interface{ Elements() []types.TupleElem }:
			if vk, ok := in.Get(val).(interface{ Elements() []types.TupleElem }); ok {
				pe, ve := pk.Elements(), vk.Elements()
				for i := 0; i < len(pe) && i < len(ve); i++ {
					walk(pe[i].Type, ve[i].Type)
				}
			}
		case interface{ Shape() types.ObjectShape }:
			if vk, ok := in.Get(val).(interface{ Shape() types.ObjectShape }); ok {
				byName := make(map[string]types.TypeId, len(vk.Shape().Properties))
				for _, p := range vk.Shape().Properties {
					byName[p.Name] = p.Type
				}
				for _, p := range pk.Shape().Properties {
					if vt, ok := byName[p.Name]; ok {
						walk(p.Type, vt)
					}
				}
			}
		case interface {
			Def() types.DefId
			Args() []types.TypeId
		}:
			if vk, ok := in.Get(val).(interface {
				Def() types.DefId
				Args() []types.TypeId
			}); ok && pk.Def() == vk.Def() {
				pa, va := pk.Args(), vk.Args()
				for i := 0; i < len(pa) && i < len(va); i++ {
					walk(pa[i], va[i])
				}
			}
		}
	}
	walk(pattern, check)
	return bindings
}

func inferToAnyMap(in *types.Interner, infers []types.InferBinding) map[types.TypeId]types.TypeId {
	m := make(map[types.TypeId]types.TypeId, len(infers))
	for _, inf := range infers {
		m[inf.Id] = in.AnyID
	}
	return m
}
