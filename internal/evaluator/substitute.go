package evaluator

import "github.com/sunholo/tscore/internal/types"

// substitute rebuilds id's structure, replacing every occurrence of a key
// in repl with its mapped value, and returns the (possibly unchanged)
// resulting TypeId. It rebuilds through the Interner's canonicalizing
// constructors rather than mutating in place.
func substitute(in *types.Interner, id types.TypeId, repl map[types.TypeId]types.TypeId) types.TypeId {
	if len(repl) == 0 || !id.Valid() {
		return id
	}
	memo := make(map[types.TypeId]types.TypeId)
	var walk func(types.TypeId) types.TypeId
	walk = func(cur types.TypeId) types.TypeId {
		if !cur.Valid() {
			return cur
		}
		if to, ok := repl[cur]; ok {
			return to
		}
		if done, ok := memo[cur]; ok {
			return done
		}
		var result types.TypeId
		switch key := in.Get(cur).(type) {
		case interface{ Shape() types.ObjectShape }:
			shape := key.Shape()
			props := make([]types.PropertyDef, len(shape.Properties))
			for i, p := range shape.Properties {
				p.Type = walk(p.Type)
				props[i] = p
			}
			newShape := shape
			newShape.Properties = props
			newShape.CallSigs = substituteSignatures(walk, shape.CallSigs)
			newShape.ConstructSigs = substituteSignatures(walk, shape.ConstructSigs)
			if shape.StringIndexer.Valid() {
				newShape.StringIndexer = walk(shape.StringIndexer)
			}
			if shape.NumberIndexer.Valid() {
				newShape.NumberIndexer = walk(shape.NumberIndexer)
			}
			result = in.Object(newShape)
		case interface{ Element() types.TypeId }:
			result = in.Array(walk(key.Element()))
		case interface{ Elements() []types.TupleElem }:
			elems := key.Elements()
			out := make([]types.TupleElem, len(elems))
			for i, e := range elems {
				e.Type = walk(e.Type)
				out[i] = e
			}
			result = in.Tuple(out)
		case interface {
			Members() []types.TypeId
			VariantKind() types.VariantKind
		}:
			members := key.Members()
			out := make([]types.TypeId, len(members))
			for i, m := range members {
				out[i] = walk(m)
			}
			if key.VariantKind() == types.KindUnion {
				result = in.Union(out...)
			} else {
				result = in.Intersection(out...)
			}
		case interface {
			Def() types.DefId
			Args() []types.TypeId
		}:
			args := key.Args()
			out := make([]types.TypeId, len(args))
			for i, a := range args {
				out[i] = walk(a)
			}
			result = in.Application(key.Def(), out)
		case interface {
			Check() types.TypeId
			Extends() types.TypeId
			True() types.TypeId
			False() types.TypeId
			Infers() []types.InferBinding
		}:
			result = in.Conditional(walk(key.Check()), walk(key.Extends()), walk(key.True()), walk(key.False()), key.Infers())
		case interface {
			ParamName() string
			Constraint() types.TypeId
			Value() types.TypeId
			AsClause() types.TypeId
			Optional() types.MappedModifier
			ReadonlyMod() types.MappedModifier
		}:
			result = in.Mapped(types.MappedSpec{
				ParamName:  key.ParamName(),
				Constraint: walk(key.Constraint()),
				Value:      walk(key.Value()),
				AsClause:   walk(key.AsClause()),
				Optional:   key.Optional(),
				ReadonlyM:  key.ReadonlyMod(),
			})
		case interface {
			Object() types.TypeId
			Index() types.TypeId
		}:
			result = in.IndexAccess(walk(key.Object()), walk(key.Index()))
		case interface {
			Kind() types.StringIntrinsicKind
			Operand() types.TypeId
		}:
			result = in.StringIntrinsic(key.Kind(), walk(key.Operand()))
		case interface{ Operand() types.TypeId }:
			if in.Get(cur).VariantKind() == types.KindKeyOf {
				result = in.KeyOf(walk(key.Operand()))
			} else {
				result = in.Readonly(walk(key.Operand()))
			}
		case interface {
			Fragments() []string
			Placeholders() []types.TypeId
		}:
			placeholders := key.Placeholders()
			out := make([]types.TypeId, len(placeholders))
			for i, p := range placeholders {
				out[i] = walk(p)
			}
			result = in.TemplateLiteral(key.Fragments(), out)
		case interface{ Def() types.DefId }: // lazyKey: no TypeId children
			result = cur
		default:
			// intrinsicKey, literalKey, errorKey, typeParameterKey, inferKey:
			// leaves; a TypeParameter/Infer only substitutes via a direct
			// `repl[cur]` hit above, never by descending into its constraint.
			result = cur
		}
		memo[cur] = result
		return result
	}
	return walk(id)
}

func substituteSignatures(walk func(types.TypeId) types.TypeId, sigs []types.Signature) []types.Signature {
	if len(sigs) == 0 {
		return nil
	}
	out := make([]types.Signature, len(sigs))
	for i, s := range sigs {
		params := make([]types.Param, len(s.Params))
		for j, p := range s.Params {
			p.Type = walk(p.Type)
			params[j] = p
		}
		out[i] = types.Signature{TypeParams: s.TypeParams, Params: params, Return: walk(s.Return)}
	}
	return out
}
